package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type entry struct {
	level, msg string
	kv         []any
}

// recorder collects log calls.
type recorder struct {
	mu      sync.Mutex
	entries []entry
}

func (r *recorder) add(level, msg string, kv []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{level, msg, kv})
}

func (r *recorder) Debug(msg string, kv ...any) { r.add("debug", msg, kv) }
func (r *recorder) Info(msg string, kv ...any)  { r.add("info", msg, kv) }
func (r *recorder) Error(msg string, kv ...any) { r.add("error", msg, kv) }

func (r *recorder) levels() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.level+":"+e.msg)
	}
	return strings.Join(out, "; ")
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *recorder) {
	t.Helper()
	rec := &recorder{}
	d, err := New(rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d, rec
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("participant-7", func(e Event) (any, error) {
		got = e
		return "accepted", nil
	})

	result, err := d.Dispatch(Event{Channel: "participant-7", Payload: []byte{0x0a}})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "accepted" {
		t.Errorf("expected 'accepted', got %v", result)
	}
	if len(got.Payload) != 1 {
		t.Errorf("payload not passed through: %v", got.Payload)
	}
	if got.Received.IsZero() {
		t.Error("expected receive time to be stamped")
	}
}

func TestDispatcher_UnknownChannel(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Channel: "nobody"})

	if !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestDispatcher_Fallback(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var channels []string
	d.RegisterFallback(func(e Event) (any, error) {
		channels = append(channels, e.Channel)
		return nil, nil
	})
	d.Register("known", func(e Event) (any, error) { return "known", nil })

	d.Dispatch(Event{Channel: "a"})
	result, _ := d.Dispatch(Event{Channel: "known"})
	d.Dispatch(Event{Channel: "b"})

	if result != "known" {
		t.Errorf("registered channel should win over fallback, got %v", result)
	}
	if strings.Join(channels, ",") != "a,b" {
		t.Errorf("unexpected fallback calls: %v", channels)
	}
}

func TestDispatcher_BufferedPreservesOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	wg.Add(5)

	d.Register("participant-1", func(e Event) (any, error) {
		mu.Lock()
		order = append(order, e.Source)
		mu.Unlock()
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 5; i++ {
		result, err := d.Dispatch(Event{Channel: "participant-1", Source: fmt.Sprint(i)})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != Queued {
			t.Errorf("expected %q, got %v", Queued, result)
		}
	}

	wg.Wait()

	if strings.Join(order, "") != "01234" {
		t.Errorf("commands of one channel must be handled in order, got %v", order)
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register("full", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))
	defer close(block)

	d.Dispatch(Event{Channel: "full"})
	<-started
	d.Dispatch(Event{Channel: "full"})
	d.Dispatch(Event{Channel: "full"})

	_, err := d.Dispatch(Event{Channel: "full"})

	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register("blocking", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Channel: "blocking"})
	<-started
	d.Dispatch(Event{Channel: "blocking"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Channel: "blocking"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_ChannelsRunConcurrently(t *testing.T) {
	d, _ := newTestDispatcher(t)

	release := make(chan struct{})
	d.Register("slow", func(e Event) (any, error) {
		<-release
		return nil, nil
	}, Buffered(1))

	fast := make(chan struct{})
	d.Register("fast", func(e Event) (any, error) {
		close(fast)
		return nil, nil
	}, Buffered(1))

	d.Dispatch(Event{Channel: "slow"})
	d.Dispatch(Event{Channel: "fast"})

	select {
	case <-fast:
	case <-time.After(time.Second):
		t.Error("a stalled channel must not hold up other channels")
	}
	close(release)
}

func TestDispatcher_CloseDrainsQueues(t *testing.T) {
	d, err := New(&recorder{})
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	var processed atomic.Int32
	d.Register("participant-3", func(e Event) (any, error) {
		time.Sleep(time.Millisecond)
		processed.Add(1)
		return nil, nil
	}, Buffered(10))

	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Channel: "participant-3"})
	}
	d.Close()

	if processed.Load() != 10 {
		t.Errorf("expected 10 processed after Close, got %d", processed.Load())
	}

	if _, err := d.Dispatch(Event{Channel: "participant-3"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	d.Close()
}

func TestDispatcher_Logged(t *testing.T) {
	tests := []struct {
		name    string
		handler HandlerFunc
		want    string
	}{
		{
			name:    "success",
			handler: func(Event) (any, error) { return "ok", nil },
			want:    "debug:handling command; debug:command complete",
		},
		{
			name:    "failure",
			handler: func(Event) (any, error) { return nil, errors.New("decode failed") },
			want:    "debug:handling command; error:command failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec := newTestDispatcher(t)
			d.Register("participant:4", tt.handler, Logged())

			d.Dispatch(Event{Channel: "participant:4", Source: "cmd-001.pb", Payload: []byte{1, 2}})

			if got := rec.levels(); got != tt.want {
				t.Errorf("log calls = %q, want %q", got, tt.want)
			}
			if kv := fmt.Sprint(rec.entries[0].kv); !strings.Contains(kv, "cmd-001.pb") {
				t.Errorf("source missing from %s", kv)
			}
		})
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.RegisterFallback(func(Event) (any, error) { return nil, nil })
	d.Register("participant:1", func(Event) (any, error) { return nil, nil })

	if !d.HasHandler("participant:1") {
		t.Error("registered channel not reported")
	}
	if d.HasHandler("participant:2") {
		t.Error("fallback must not count as a handler of its own")
	}
}

func TestDispatcher_BufferedAndLogged(t *testing.T) {
	d, rec := newTestDispatcher(t)

	handled := make(chan struct{})
	d.Register("participant:5", func(Event) (any, error) {
		close(handled)
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Channel: "participant:5"})
	if err != nil || result != Queued {
		t.Fatalf("Dispatch = %v, %v; want %q", result, err, Queued)
	}
	<-handled

	// Logging wraps the enqueue, so the handler's own result is not seen.
	if got := rec.levels(); got != "debug:handling command; debug:command complete" {
		t.Errorf("log calls = %q", got)
	}
}
