package errors

import (
	"strings"
	"unicode"
)

// MaxBlockSize bounds block sizes accepted from users.
const MaxBlockSize = 512

// ValidateBlockSize checks that n is a usable block size.
func ValidateBlockSize(n int) error {
	if n <= 0 {
		return New(ErrCodeInvalidBlockSize, "block size must be positive, got %d", n)
	}
	if n > MaxBlockSize {
		return New(ErrCodeInvalidBlockSize, "block size too large (max %d), got %d", MaxBlockSize, n)
	}
	return nil
}

// Raster size limits for decoded inputs and rendered outputs.
const (
	MaxRasterDimension = 16384
	MaxRasterPixels    = 1 << 26
)

// ValidateRasterSize checks a raster size. Zero means "use the default"
// and is accepted; negative or oversized dimensions are INVALID_INPUT.
func ValidateRasterSize(width, height int) error {
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidInput, "raster size must not be negative, got %dx%d", width, height)
	}
	if width > MaxRasterDimension || height > MaxRasterDimension {
		return New(ErrCodeInvalidInput, "raster size too large (max %d per side), got %dx%d", MaxRasterDimension, width, height)
	}
	if int64(width)*int64(height) > MaxRasterPixels {
		return New(ErrCodeInvalidInput, "raster too large (max %d pixels), got %dx%d", MaxRasterPixels, width, height)
	}
	return nil
}

// ValidateThreshold checks that t is a valid alpha threshold (0..255).
func ValidateThreshold(t int) error {
	if t < 0 || t > 255 {
		return New(ErrCodeInvalidThreshold, "alpha threshold must be in [0,255], got %d", t)
	}
	return nil
}

// ValidateCandidates checks a block size candidate set for the estimator.
// The set must be non-empty and contain only valid, distinct block sizes.
func ValidateCandidates(sizes []int) error {
	if len(sizes) == 0 {
		return New(ErrCodeInvalidBlockSize, "at least one candidate block size is required")
	}
	seen := make(map[int]bool, len(sizes))
	for _, n := range sizes {
		if err := ValidateBlockSize(n); err != nil {
			return err
		}
		if seen[n] {
			return New(ErrCodeInvalidBlockSize, "duplicate candidate block size %d", n)
		}
		seen[n] = true
	}
	return nil
}

// ValidateBlobName validates a blob store object name for safety.
// It rejects names that could be used for path traversal in file-backed stores.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters or null bytes
//   - No absolute names, ".." segments, "//" or backslashes
func ValidateBlobName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "blob name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidName, "blob name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "blob name contains invalid control characters")
		}
	}
	if strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidName, "blob name must be relative (cannot start with /)")
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "blob name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
