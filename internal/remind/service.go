// Package remind runs the periodic reminder sweep: on every cron tick it
// snapshots all active courses and queues one reminder for each user who is
// still behind on today's regimen.
package remind

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pillbot/internal/course"
	"pillbot/internal/notify"
	kit "pillbot/internal/transport"
	logx "pillbot/pkg/logx"
)

// DefaultSpec fires at every wall-clock hour boundary. The cadence is fixed
// and independent of the regimen's interval hours, which are informational
// only (shown to the user, never used to gate reminders).
const DefaultSpec = "0 * * * *"

// Dispatcher queues outbound notifications. internal/notify implements it.
type Dispatcher interface {
	Enqueue(n notify.Notification) error
}

type Config struct {
	Enabled bool
	Spec    string // cron spec; defaults to DefaultSpec
}

type Service struct {
	log      logx.Logger
	store    *course.Store
	dispatch Dispatcher

	// sendOpts is attached to every reminder (the reply keyboard).
	sendOpts *kit.SendOptions

	// now is swappable for tests.
	now func() time.Time

	mu  sync.Mutex
	cfg Config
	c   *cron.Cron

	// tickMu enforces non-overlapping ticks: if a sweep is still dispatching
	// when the next trigger fires, that trigger is skipped.
	tickMu sync.Mutex
}

func New(cfg Config, store *course.Store, dispatch Dispatcher, sendOpts *kit.SendOptions, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Spec) == "" {
		cfg.Spec = DefaultSpec
	}
	return &Service{
		log:      log,
		store:    store,
		dispatch: dispatch,
		sendOpts: sendOpts,
		now:      time.Now,
		cfg:      cfg,
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Apply updates the cron spec; a spec change restarts the trigger.
func (s *Service) Apply(cfg Config) {
	if strings.TrimSpace(cfg.Spec) == "" {
		cfg.Spec = DefaultSpec
	}
	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	running := s.c != nil
	s.mu.Unlock()

	switch {
	case !cfg.Enabled && running:
		s.Stop(context.Background())
	case cfg.Enabled && !running:
		_ = s.Start(context.Background())
	case cfg.Enabled && prev.Spec != cfg.Spec:
		s.Stop(context.Background())
		_ = s.Start(context.Background())
	}
}

func (s *Service) Start(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Spec, s.tick); err != nil {
		return err
	}
	c.Start()
	s.c = c
	s.log.Info("reminder sweep started", logx.String("spec", s.cfg.Spec))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.log.Info("reminder sweep stopped")
}
