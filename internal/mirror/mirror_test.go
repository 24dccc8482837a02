package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/alcviz/internal/render"
)

// mockDestination records calls to Write.
type mockDestination struct {
	mu     sync.Mutex
	writes map[string][]byte
	types  map[string]string
	calls  int
	err    error
}

func newMockDestination() *mockDestination {
	return &mockDestination{writes: make(map[string][]byte), types: make(map[string]string)}
}

func (d *mockDestination) Write(_ context.Context, name string, data []byte, contentType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return d.err
	}
	d.writes[name] = append([]byte(nil), data...)
	d.types[name] = contentType
	return nil
}

func (d *mockDestination) get(name string) (string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.writes[name]), d.calls
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frame(pane render.Pane, format render.Format, data string) *render.Frame {
	return &render.Frame{ID: string(pane) + "-" + data, Pane: pane, Format: format, Data: []byte(data)}
}

func TestFlush_LatestOnly(t *testing.T) {
	dest := newMockDestination()
	m := New([]Destination{dest}, time.Hour, discard())
	ctx := context.Background()

	_ = m.Present(ctx, frame(render.PaneTopology, render.FormatSVG, "one"))
	_ = m.Present(ctx, frame(render.PaneTopology, render.FormatSVG, "two"))
	_ = m.Present(ctx, frame(render.PaneStats, render.FormatSVG, "s"))
	m.Flush(ctx)

	if got, calls := dest.get("topology.svg"); got != "two" || calls != 2 {
		t.Errorf("topology.svg = %q after %d writes, want %q after 2", got, calls, "two")
	}
	if dest.types["stats.svg"] != "image/svg+xml" {
		t.Errorf("content type = %q", dest.types["stats.svg"])
	}

	// Nothing pending: no writes.
	m.Flush(ctx)
	if _, calls := dest.get("topology.svg"); calls != 2 {
		t.Errorf("empty flush wrote %d times", calls-2)
	}
}

func TestFlush_FailureIsNotFatal(t *testing.T) {
	bad := newMockDestination()
	bad.err = errors.New("access denied")
	good := newMockDestination()
	m := New([]Destination{bad, good}, time.Hour, discard())

	_ = m.Present(context.Background(), frame(render.PaneStats, render.FormatPNG, "png"))
	m.Flush(context.Background())

	if got, _ := good.get("stats.png"); got != "png" {
		t.Errorf("healthy destination got %q", got)
	}
}

func TestStartStop(t *testing.T) {
	dest := newMockDestination()
	m := New([]Destination{dest}, 10*time.Millisecond, discard())
	m.Start()

	_ = m.Present(context.Background(), frame(render.PaneTopology, render.FormatSVG, "a"))
	deadline := time.Now().Add(2 * time.Second)
	for {
		if got, _ := dest.get("topology.svg"); got == "a" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("frame never flushed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Frames presented just before Stop still land.
	_ = m.Present(context.Background(), frame(render.PaneTopology, render.FormatSVG, "b"))
	m.Stop(context.Background())
	if got, _ := dest.get("topology.svg"); got != "b" {
		t.Errorf("after Stop topology.svg = %q, want %q", got, "b")
	}
}

func TestStop_NoStart(t *testing.T) {
	m := New(nil, 0, discard())
	m.Stop(context.Background())
	if m.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", m.interval, DefaultInterval)
	}
}

func TestDirDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	d, err := NewDirDestination(dir)
	if err != nil {
		t.Fatalf("NewDirDestination: %v", err)
	}
	ctx := context.Background()
	if err := d.Write(ctx, "topology.svg", []byte("<svg/>"), "image/svg+xml"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := d.Write(ctx, "topology.svg", []byte("<svg>2</svg>"), "image/svg+xml"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "topology.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<svg>2</svg>" {
		t.Errorf("content = %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the frame", len(entries))
	}
}

func TestS3Destination_Key(t *testing.T) {
	d, err := NewS3Destination(context.Background(), "frames", "runs/42/", "us-east-1", "http://127.0.0.1:9000")
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if got := d.Key("stats.png"); got != "runs/42/stats.png" {
		t.Errorf("Key = %q", got)
	}
}

func TestS3Destination_Write(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	type put struct{ method, path, contentType string }
	got := make(chan put, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		got <- put{r.Method, r.URL.Path, r.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	d, err := NewS3Destination(context.Background(), "frames", "live/", "us-east-1", ts.URL)
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if err := d.Write(context.Background(), "topology.svg", []byte("<svg/>"), "image/svg+xml"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case p := <-got:
		if p.method != http.MethodPut || p.path != "/frames/live/topology.svg" {
			t.Errorf("request = %s %s", p.method, p.path)
		}
		if p.contentType != "image/svg+xml" {
			t.Errorf("Content-Type = %q", p.contentType)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no request reached the fake S3 endpoint")
	}
}
