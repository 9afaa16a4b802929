package remind

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pillbot/internal/course"
	"pillbot/internal/notify"
	logx "pillbot/pkg/logx"
)

type fakeDispatch struct {
	mu      sync.Mutex
	items   []notify.Notification
	failFor map[int64]bool
}

func (d *fakeDispatch) Enqueue(n notify.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[n.Target.ChatID] {
		return errors.New("queue full")
	}
	d.items = append(d.items, n)
	return nil
}

func (d *fakeDispatch) sent() []notify.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Notification(nil), d.items...)
}

func newTestSweep(t *testing.T) (*Service, *course.Store, *fakeDispatch) {
	t.Helper()
	store := course.NewStore(nil, logx.Nop())
	disp := &fakeDispatch{failFor: map[int64]bool{}}
	s := New(Config{Enabled: true}, store, disp, nil, logx.Nop())
	return s, store, disp
}

func seed(t *testing.T, store *course.Store, userID int64, rec course.Record) {
	t.Helper()
	if err := store.Mutate(context.Background(), userID, func(r *course.Record) error {
		*r = rec
		return nil
	}); err != nil {
		t.Fatalf("seed user %d: %v", userID, err)
	}
}

func TestSweepRemindsBehindUsers(t *testing.T) {
	t.Parallel()
	s, store, disp := newTestSweep(t)

	// Course started at T0; sweeping at T0+25h puts the user on day 2
	// (regimen 6 doses / 2h) with two doses already logged today.
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)
	now := t0.Add(25 * time.Hour)
	seed(t, store, 500, course.Record{
		StartedAt: t0,
		Active:    true,
		DoseLog:   []time.Time{now.Add(-3 * time.Hour), now.Add(-time.Hour)},
	})

	sent, skipped := s.sweep(now)
	if sent != 1 || skipped != 0 {
		t.Fatalf("sweep = (%d sent, %d skipped), want (1, 0)", sent, skipped)
	}
	got := disp.sent()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].Target.ChatID != 500 {
		t.Fatalf("notified chat %d, want 500", got[0].Target.ChatID)
	}
	if !strings.Contains(got[0].Text, "(3/6)") {
		t.Fatalf("expected next-dose ordinal 3/6 in %q", got[0].Text)
	}
}

func TestSweepSilentWhenDayComplete(t *testing.T) {
	t.Parallel()
	s, store, disp := newTestSweep(t)

	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)
	now := t0.Add(25 * time.Hour)
	log := make([]time.Time, 6)
	for i := range log {
		log[i] = now.Add(-time.Duration(i) * time.Minute)
	}
	seed(t, store, 500, course.Record{StartedAt: t0, Active: true, DoseLog: log})

	sent, skipped := s.sweep(now)
	if sent != 0 || skipped != 1 {
		t.Fatalf("sweep = (%d sent, %d skipped), want (0, 1)", sent, skipped)
	}
	if len(disp.sent()) != 0 {
		t.Fatal("no notification expected for a completed day")
	}
}

func TestSweepSkipsFinishedAndInactiveCourses(t *testing.T) {
	t.Parallel()
	s, store, disp := newTestSweep(t)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	// Past the 25-day ladder: still active, but no regimen and no reminder.
	seed(t, store, 1, course.Record{StartedAt: now.Add(-26 * 24 * time.Hour), Active: true})
	// Never started: filtered out by the active snapshot.
	seed(t, store, 2, course.Record{})

	sent, _ := s.sweep(now)
	if sent != 0 {
		t.Fatalf("sent = %d, want 0", sent)
	}
	if len(disp.sent()) != 0 {
		t.Fatal("unexpected notifications")
	}
}

func TestSweepIsolatesDispatchFailures(t *testing.T) {
	t.Parallel()
	s, store, disp := newTestSweep(t)

	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)
	now := t0.Add(2 * time.Hour)
	seed(t, store, 1, course.Record{StartedAt: t0, Active: true})
	seed(t, store, 2, course.Record{StartedAt: t0, Active: true})
	seed(t, store, 3, course.Record{StartedAt: t0, Active: true})
	disp.failFor[2] = true

	sent, _ := s.sweep(now)
	if sent != 2 {
		t.Fatalf("sent = %d, want 2 (failure for one user must not stop the sweep)", sent)
	}
}

func TestTickSkipsWhileRunning(t *testing.T) {
	t.Parallel()
	s, store, disp := newTestSweep(t)

	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)
	seed(t, store, 1, course.Record{StartedAt: t0, Active: true})
	s.now = func() time.Time { return t0.Add(time.Hour) }

	// Hold the tick lock to simulate an in-flight sweep; the next trigger
	// must return without sweeping.
	s.tickMu.Lock()
	done := make(chan struct{})
	go func() {
		s.tick()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick blocked instead of skipping")
	}
	s.tickMu.Unlock()

	if len(disp.sent()) != 0 {
		t.Fatal("skipped tick must not dispatch")
	}
}
