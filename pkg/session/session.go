// Package session records the artifacts of the most recent pixelforge run.
//
// A [Session] is an immutable value: each step of the workflow (generate,
// convert, remove-bg) returns an updated copy through a With* method rather
// than mutating shared state. The CLI persists the latest value with a
// [FileStore] so that later commands can default to earlier outputs:
//
//	sess, _ := store.Latest(ctx)
//	input := sess.ConvertInput()          // the generated image
//	...
//	sess = sess.WithConversion(conv)
//	store.Save(ctx, sess)
//
// # Defaults
//
// convert reads the generated image; remove-bg prefers the editable raster
// produced by convert and falls back to the generated image.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a stored session stays usable.
const DefaultTTL = 30 * 24 * time.Hour

// Session stores the artifacts of one generate/convert/remove-bg run.
// Paths are local file paths unless noted.
type Session struct {
	ID                string    `json:"id"`
	Prompt            string    `json:"prompt,omitempty"`
	GeneratedImage    string    `json:"generated_image,omitempty"`
	ImageURL          string    `json:"image_url,omitempty"` // remote result of generation
	Seed              int       `json:"seed,omitempty"`
	SVG               string    `json:"svg,omitempty"`
	Raster            string    `json:"raster,omitempty"`
	Editable          string    `json:"editable,omitempty"`
	NoBackground      string    `json:"no_background,omitempty"`
	DetectedBlockSize int       `json:"detected_block_size,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Generated describes the output of a generation step.
type Generated struct {
	Prompt   string
	Path     string
	ImageURL string
	Seed     int
}

// Conversion describes the output of a convert step. Empty paths leave the
// previous value untouched.
type Conversion struct {
	SVG               string
	Raster            string
	Editable          string
	DetectedBlockSize int
}

// New creates an empty session.
func New() Session {
	now := time.Now()
	return Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultTTL),
	}
}

// IsExpired returns true if the session has expired.
func (s Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// WithGenerated starts a new run from a generated image. Artifacts of the
// previous run are cleared since they belong to a different image.
func (s Session) WithGenerated(g Generated) Session {
	next := New()
	next.ID = s.ID
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	next.Prompt = g.Prompt
	next.GeneratedImage = g.Path
	next.ImageURL = g.ImageURL
	next.Seed = g.Seed
	return next
}

// WithConversion records the artifacts of a convert step.
func (s Session) WithConversion(c Conversion) Session {
	if c.SVG != "" {
		s.SVG = c.SVG
	}
	if c.Raster != "" {
		s.Raster = c.Raster
	}
	if c.Editable != "" {
		s.Editable = c.Editable
	}
	if c.DetectedBlockSize > 0 {
		s.DetectedBlockSize = c.DetectedBlockSize
	}
	return s.touch()
}

// WithNoBackground records the output of a remove-bg step.
func (s Session) WithNoBackground(path string) Session {
	s.NoBackground = path
	return s.touch()
}

func (s Session) touch() Session {
	s.UpdatedAt = time.Now()
	s.ExpiresAt = s.UpdatedAt.Add(DefaultTTL)
	return s
}

// ConvertInput returns the image convert should read by default.
func (s Session) ConvertInput() string {
	return s.GeneratedImage
}

// RemoveBackgroundInput returns the image remove-bg should read by default:
// the editable raster if one exists, else the generated image.
func (s Session) RemoveBackgroundInput() string {
	if s.Editable != "" {
		return s.Editable
	}
	return s.GeneratedImage
}

// Summary renders the session as "key: value" lines, skipping empty fields.
func (s Session) Summary() string {
	var b strings.Builder
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%-14s %s\n", k+":", v)
		}
	}
	line("id", s.ID)
	line("prompt", s.Prompt)
	line("generated", s.GeneratedImage)
	line("image url", s.ImageURL)
	if s.Seed != 0 {
		line("seed", fmt.Sprint(s.Seed))
	}
	line("svg", s.SVG)
	line("raster", s.Raster)
	line("editable", s.Editable)
	line("no background", s.NoBackground)
	if s.DetectedBlockSize > 0 {
		line("block size", fmt.Sprintf("%dpx", s.DetectedBlockSize))
	}
	if !s.UpdatedAt.IsZero() {
		line("updated", s.UpdatedAt.Format(time.RFC3339))
	}
	return b.String()
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}
