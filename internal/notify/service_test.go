package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kit "pillbot/internal/transport"
	logx "pillbot/pkg/logx"
)

type fakeAdapter struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
	fail  bool
}

func (a *fakeAdapter) Start(ctx context.Context, out chan<- kit.Update) error { return nil }
func (a *fakeAdapter) Stop(ctx context.Context) error                         { return nil }

func (a *fakeAdapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("telegram down")
	}
	a.sent = append(a.sent, text)
	a.chats = append(a.chats, to.ChatID)
	return nil
}

func (a *fakeAdapter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sent)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNotifierDelivers(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	s := New(Config{Workers: 1, QueueSize: 8, RatePerSec: 1000}, ad, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())

	for i := 0; i < 3; i++ {
		if err := s.Enqueue(Notification{Target: kit.ChatTarget{ChatID: int64(i)}, Text: "hi"}); err != nil {
			t.Fatalf("Enqueue #%d: %v", i, err)
		}
	}
	waitFor(t, func() bool { return ad.count() == 3 })
}

func TestNotifierFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{fail: true}
	s := New(Config{Workers: 1, RatePerSec: 1000}, ad, logx.Nop())
	s.Start(context.Background())

	if err := s.Enqueue(Notification{Target: kit.ChatTarget{ChatID: 1}, Text: "hi"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	// Stop drains the queue; a delivery failure must not wedge shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.Stop(ctx)

	if err := s.Enqueue(Notification{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped after Stop, got %v", err)
	}
}

func TestNotifierQueueFull(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	s := New(Config{Workers: 1, QueueSize: 1, RatePerSec: 1000}, ad, logx.Nop())
	// Not started: nothing drains the queue, so the second enqueue must
	// report full instead of blocking the caller.
	s.mu.Lock()
	s.queue = make(chan Notification, 1)
	s.accepting = true
	s.mu.Unlock()

	if err := s.Enqueue(Notification{}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Enqueue(Notification{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
