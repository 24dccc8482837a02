package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// feedHistory is how many events are kept for Last-Event-ID replay.
	// At the fastest speed both panes together produce ~200 frames/s.
	feedHistory = 512

	// feedQueue is the per-subscriber queue length. A subscriber that falls
	// further behind misses events and re-syncs on the next frame.
	feedQueue = 16

	feedKeepalive  = 15 * time.Second
	feedRetryDelay = 2 * time.Second
)

// feedEvent is one entry on the frame feed.
type feedEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// eventLog is a fixed-size history of the newest events, oldest first.
type eventLog struct {
	buf  []feedEvent
	head int // index of the oldest entry once buf is full
}

func (l *eventLog) add(e feedEvent) {
	if len(l.buf) < feedHistory {
		l.buf = append(l.buf, e)
		return
	}
	l.buf[l.head] = e
	l.head = (l.head + 1) % feedHistory
}

// after returns the logged events with ID > id matching f, oldest first.
func (l *eventLog) after(id uint64, f topicFilter) []feedEvent {
	var out []feedEvent
	for i := range l.buf {
		e := l.buf[(l.head+i)%len(l.buf)]
		if e.ID > id && f.match(e.Topic) {
			out = append(out, e)
		}
	}
	return out
}

// topicFilter is a list of NATS-style patterns. An empty filter matches
// every topic.
type topicFilter []string

func parseTopicFilter(q string) topicFilter {
	var f topicFilter
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			f = append(f, t)
		}
	}
	return f
}

func (f topicFilter) match(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic. "*" matches exactly one
// segment and a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, p := range pat {
		switch {
		case p == ">" && i == len(pat)-1:
			return len(top) > i
		case i >= len(top):
			return false
		case p != "*" && p != top[i]:
			return false
		}
	}
	return len(pat) == len(top)
}

type subscriber struct {
	filter topicFilter
	ch     chan feedEvent
}

// feed fans frame notifications out to SSE subscribers. One mutex covers
// the sequence, the history and the subscriber set so a reconnecting client
// never sees a gap between replay and live events.
type feed struct {
	mu   sync.Mutex
	seq  uint64
	log  eventLog
	subs map[*subscriber]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[*subscriber]struct{})}
}

// publish records an event and offers it to every matching subscriber.
// Full queues drop the event; the scheduler never waits on a browser.
func (fd *feed) publish(topic string, data []byte) uint64 {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.seq++
	e := feedEvent{ID: fd.seq, Topic: topic, Data: data}
	fd.log.add(e)
	for s := range fd.subs {
		if !s.filter.match(topic) {
			continue
		}
		select {
		case s.ch <- e:
		default:
		}
	}
	return e.ID
}

// subscribe registers a subscriber and returns the logged events after
// lastID that it should see first.
func (fd *feed) subscribe(f topicFilter, lastID uint64) (*subscriber, []feedEvent) {
	s := &subscriber{filter: f, ch: make(chan feedEvent, feedQueue)}
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.subs[s] = struct{}{}
	if lastID == 0 {
		return s, nil
	}
	return s, fd.log.after(lastID, f)
}

func (fd *feed) unsubscribe(s *subscriber) {
	fd.mu.Lock()
	delete(fd.subs, s)
	fd.mu.Unlock()
}

// handleEventStream handles GET /v1/events/stream.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var lastID uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastID, _ = strconv.ParseUint(v, 10, 64)
	}
	sub, backlog := s.feed.subscribe(parseTopicFilter(r.URL.Query().Get("topics")), lastID)
	defer s.feed.unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry:%d\n\n", feedRetryDelay.Milliseconds())
	for _, e := range backlog {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	keepalive := time.NewTicker(feedKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-sub.ch:
			writeSSEEvent(w, e)
		case <-keepalive.C:
			io.WriteString(w, ":keepalive\n\n")
		}
		flusher.Flush()
	}
}

// writeSSEEvent writes e in text/event-stream framing. Payload lines each
// get their own data field.
func writeSSEEvent(w io.Writer, e feedEvent) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "id:%d\nevent:%s\n", e.ID, e.Topic)
	for _, line := range bytes.Split(e.Data, []byte("\n")) {
		b.WriteString("data:")
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	w.Write(b.Bytes())
}
