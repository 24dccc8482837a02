package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/alcviz/internal/events"
	"github.com/alfredjeanlab/alcviz/internal/render"
	"github.com/alfredjeanlab/alcviz/internal/scheduler"
)

// sseEventParsed represents a single parsed SSE event from the stream.
type sseEventParsed struct {
	ID    string
	Event string
	Data  string
}

// sseReader reads SSE events from an HTTP response body using a bufio.Scanner.
// It sends parsed events to the returned channel and stops when the context is cancelled
// or the body is closed.
func sseReader(ctx context.Context, resp *http.Response) <-chan sseEventParsed {
	ch := make(chan sseEventParsed, 32)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		var current sseEventParsed
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "id:"):
				current.ID = strings.TrimPrefix(line, "id:")
			case strings.HasPrefix(line, "event:"):
				current.Event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				current.Data = strings.TrimPrefix(line, "data:")
			case line == "":
				// Empty line marks end of SSE event block.
				if current.Event != "" || current.Data != "" {
					ch <- current
					current = sseEventParsed{}
				}
			}
		}
	}()
	return ch
}

// waitForEvent reads from the SSE event channel until an event with the given
// topic is received, or the timeout expires.
func waitForEvent(t *testing.T, ch <-chan sseEventParsed, topic string, timeout time.Duration) sseEventParsed {
	t.Helper()
	timer := time.After(timeout)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				t.Fatalf("SSE channel closed before receiving event %q", topic)
			}
			if evt.Event == topic {
				return evt
			}
			// Keep reading; may receive other events first.
		case <-timer:
			t.Fatalf("timed out waiting for SSE event %q", topic)
		}
	}
}

// startSSEClient opens an SSE connection to the test server and returns a channel
// of parsed events plus a cancel function. The caller must call cancel when done.
func startSSEClient(t *testing.T, serverURL string, queryParams string) (<-chan sseEventParsed, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	url := serverURL + "/v1/events/stream"
	if queryParams != "" {
		url += "?" + queryParams
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		cancel()
		t.Fatalf("failed to create SSE request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("failed to connect to SSE stream: %v", err)
	}

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		resp.Body.Close()
		cancel()
		t.Fatalf("expected Content-Type=text/event-stream, got %q", resp.Header.Get("Content-Type"))
	}

	ch := sseReader(ctx, resp)

	// Return a wrapped cancel that also closes the body.
	cleanup := func() {
		cancel()
		resp.Body.Close()
	}

	return ch, cleanup
}

const integrationTopology = `id, type, subtype, id1, id2, depth, support
1, core, input, 0, 0, 0, 0
2, core, selector_1, 0, 0, 1, 0
3, core, output, 0, 0, 2, 0
0, interconnect, regular, 1, 2, 0, 0.5
0, interconnect, speculative, 1, 3, 0, 0.75
`

// TestSSEIntegration_SchedulerDrivesBrowser runs the scheduler against the
// server over a real listener, the way a browser sees it.
func TestSSEIntegration_SchedulerDrivesBrowser(t *testing.T) {
	dir := t.TempDir()
	topoPath := filepath.Join(dir, "out.sys")
	if err := os.WriteFile(topoPath, []byte(integrationTopology), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer()
	ts := httptest.NewServer(srv.NewHTTPHandler("", nil))
	defer ts.Close()

	sseEvents, sseCancel := startSSEClient(t, ts.URL, "topics=alcviz.frame.topology")
	defer sseCancel()
	time.Sleep(50 * time.Millisecond)

	sched := scheduler.New(scheduler.Config{
		TopologyPath: topoPath,
		StatsPath:    filepath.Join(dir, "missing.stats"),
		Format:       render.FormatSVG,
		Rand:         rand.New(rand.NewPCG(7, 7)),
	}, []scheduler.Surface{srv}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	evt := waitForEvent(t, sseEvents, events.TopicFrameTopology, 2*time.Second)
	var published events.FramePublished
	if err := json.Unmarshal([]byte(evt.Data), &published); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if published.Nodes != 3 || published.Edges != 2 {
		t.Errorf("event = %+v", published)
	}

	resp, err := http.Get(ts.URL + "/v1/frames/topology")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("ETag"); got != `"`+published.ID+`"` {
		t.Errorf("ETag = %q, want frame id %q", got, published.ID)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") {
		t.Error("frame body is not SVG")
	}

	// The stats file never existed, so there is no stats frame.
	resp2, err := http.Get(ts.URL + "/v1/frames/stats")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("stats status = %d, want 404", resp2.StatusCode)
	}
}

// TestSSEIntegration_CloseStopsScheduler checks that shutting the surface
// ends a running animation.
func TestSSEIntegration_CloseStopsScheduler(t *testing.T) {
	dir := t.TempDir()
	topoPath := filepath.Join(dir, "out.sys")
	if err := os.WriteFile(topoPath, []byte(integrationTopology), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer()
	sched := scheduler.New(scheduler.Config{
		TopologyPath:     topoPath,
		StatsPath:        filepath.Join(dir, "missing.stats"),
		TopologyInterval: 5 * time.Millisecond,
	}, []scheduler.Surface{srv}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	srv.Close()
	// Force a redraw so the next tick presents to the closed surface.
	if err := os.WriteFile(topoPath, []byte(strings.Replace(integrationTopology, "0.75", "0.5", 1)), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler kept running after the surface closed")
	}
}
