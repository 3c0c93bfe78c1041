package observability_test

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/integrations/generation"
	"github.com/matzehuels/pixelforge/pkg/observability"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
)

// recorder logs every hook call as a short string.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) OnEstimateStart(_ context.Context, candidates []int) {
	r.add("estimate start %v", candidates)
}

func (r *recorder) OnEstimateComplete(_ context.Context, blockSize int, _ time.Duration, err error) {
	r.add("estimate done %d %v", blockSize, err)
}

func (r *recorder) OnAssembleStart(_ context.Context, blockSize int) {
	r.add("assemble start %d", blockSize)
}

func (r *recorder) OnAssembleComplete(_ context.Context, blockSize, rows, blocks int, _ time.Duration, err error) {
	r.add("assemble done %d rows=%d blocks=%d %v", blockSize, rows, blocks, err)
}

func (r *recorder) OnRenderStart(_ context.Context, formats []string) {
	r.add("render start %v", formats)
}

func (r *recorder) OnRenderComplete(_ context.Context, formats []string, _ time.Duration, err error) {
	r.add("render done %v %v", formats, err)
}

func (r *recorder) OnCacheHit(_ context.Context, keyType string)  { r.add("hit %s", keyType) }
func (r *recorder) OnCacheMiss(_ context.Context, keyType string) { r.add("miss %s", keyType) }
func (r *recorder) OnCacheSet(_ context.Context, keyType string, _ int) {
	r.add("set %s", keyType)
}

func (r *recorder) OnRequest(_ context.Context, method, _, path string) {
	r.add("request %s %s", method, path)
}

func (r *recorder) OnResponse(_ context.Context, method, _, path string, status int, _ time.Duration) {
	r.add("response %s %s %d", method, path, status)
}

func (r *recorder) OnError(_ context.Context, method, _, path string, err error) {
	r.add("error %s %s", method, path)
}

var (
	_ observability.PipelineHooks = (*recorder)(nil)
	_ observability.CacheHooks    = (*recorder)(nil)
	_ observability.HTTPHooks     = (*recorder)(nil)
)

// tiles draws a size×size image of 8px tiles in two alternating colors.
func tiles(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{200, 40, 40, 255}
			if (x/8+y/8)%2 == 1 {
				c = color.NRGBA{40, 40, 200, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPipelineHooksObserveConvert(t *testing.T) {
	rec := &recorder{}
	observability.SetPipelineHooks(rec)
	t.Cleanup(observability.Reset)

	runner := pipeline.NewRunner(nil, nil, nil, nil)
	_, err := runner.Convert(context.Background(), tiles(32), pipeline.Options{
		AutoDetect: true,
		Candidates: []int{8, 16},
		Formats:    []string{pipeline.FormatSVG, pipeline.FormatEditable},
	})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	want := []string{
		"estimate start [8 16]",
		"estimate done 8 <nil>",
		"assemble start 8",
		"assemble done 8 rows=4 blocks=16 <nil>",
		"render start [svg editable]",
		"render done [svg editable] <nil>",
	}
	if got := rec.list(); !slices.Equal(got, want) {
		t.Errorf("events = %q\nwant %q", got, want)
	}
}

func TestPipelineHooksObserveAssembleFailure(t *testing.T) {
	rec := &recorder{}
	observability.SetPipelineHooks(rec)
	t.Cleanup(observability.Reset)

	runner := pipeline.NewRunner(nil, nil, nil, nil)
	empty := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	if _, err := runner.Convert(context.Background(), empty, pipeline.Options{BlockSize: 8}); err == nil {
		t.Fatal("Convert() of a transparent image succeeded")
	}

	got := rec.list()
	if len(got) != 2 || got[0] != "assemble start 8" {
		t.Fatalf("events = %q, want assemble start and done only", got)
	}
	if !strings.HasPrefix(got[1], "assemble done 8 rows=0 blocks=0 ") || strings.HasSuffix(got[1], "<nil>") {
		t.Errorf("assemble done = %q, want an error", got[1])
	}
}

func TestCacheHooksObserveRunner(t *testing.T) {
	rec := &recorder{}
	observability.SetCacheHooks(rec)
	t.Cleanup(observability.Reset)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, nil, nil)
	defer runner.Close()

	opts := pipeline.Options{AutoDetect: true, Candidates: []int{8, 16}, Formats: []string{pipeline.FormatSVG}}
	if _, err := runner.Convert(context.Background(), tiles(32), opts); err != nil {
		t.Fatal(err)
	}
	first := rec.list()
	if want := []string{"miss estimate", "set estimate", "miss artifact", "set artifact"}; !slices.Equal(first, want) {
		t.Errorf("first run = %q, want %q", first, want)
	}

	rec.reset()
	if _, err := runner.Convert(context.Background(), tiles(32), opts); err != nil {
		t.Fatal(err)
	}
	if want := []string{"hit estimate", "hit artifact"}; !slices.Equal(rec.list(), want) {
		t.Errorf("second run = %q, want %q", rec.list(), want)
	}
}

func TestHTTPHooksObserveServiceCalls(t *testing.T) {
	rec := &recorder{}
	observability.SetHTTPHooks(rec)
	t.Cleanup(observability.Reset)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"image_url":"https://cdn.example.com/a.png","seed":1},"request_id":"req-1"}`))
	}))
	defer server.Close()

	client := generation.NewClient(server.URL, "tok", nil)
	if _, err := client.Generate(context.Background(), generation.Request{Prompt: "a fox"}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := []string{"request POST /image/generate", "response POST /image/generate 200"}
	if got := rec.list(); !slices.Equal(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestHooksRegistry(t *testing.T) {
	t.Cleanup(observability.Reset)
	observability.Reset()

	if _, ok := observability.Pipeline().(observability.NoopPipelineHooks); !ok {
		t.Errorf("default pipeline hooks = %T", observability.Pipeline())
	}

	rec := &recorder{}
	observability.SetPipelineHooks(rec)
	observability.SetPipelineHooks(nil)
	if observability.Pipeline() != observability.PipelineHooks(rec) {
		t.Error("SetPipelineHooks(nil) replaced registered hooks")
	}

	observability.Reset()
	if _, ok := observability.Cache().(observability.NoopCacheHooks); !ok {
		t.Errorf("cache hooks after Reset = %T", observability.Cache())
	}
	if _, ok := observability.HTTP().(observability.NoopHTTPHooks); !ok {
		t.Errorf("http hooks after Reset = %T", observability.HTTP())
	}
}
