package notify

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	kit "pillbot/internal/transport"
	logx "pillbot/pkg/logx"
)

var (
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
)

// Notification is one outbound message.
type Notification struct {
	Target  kit.ChatTarget
	Text    string
	Options *kit.SendOptions
}

// Service is an async outbound pipeline: bounded queue + worker pool + rate
// limit. Delivery is fire-and-forget: a failure is logged per target and never
// retried, and one slow target never blocks the others.
//
// It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	adapter kit.Adapter

	cfg     Config
	limiter *rate.Limiter

	accepting bool
	enqueueWG sync.WaitGroup

	queue    chan Notification
	workerWG sync.WaitGroup

	runCtx    context.Context
	runCancel context.CancelFunc
}

type Config struct {
	Workers    int
	QueueSize  int
	RatePerSec int // Telegram bot API tolerance; token bucket with burst = rate
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{adapter: adapter, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 25
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Apply updates rate/queue knobs. Worker count changes take effect on the
// next Start.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	s.queue = make(chan Notification, s.cfg.QueueSize)
	s.accepting = true
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	workers := s.cfg.Workers
	runCtx := s.runCtx
	queue := s.queue
	s.mu.Unlock()

	for i := 0; i < workers; i++ {
		i := i
		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in notifier worker",
						logx.Int("worker", i), logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())))
				}
			}()
			s.workerLoop(runCtx, queue, i)
		}()
	}
}

// Stop blocks intake, drains the queue best-effort until ctx deadline, then
// cancels in-flight sends.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	q := s.queue
	cancel := s.runCancel
	if q == nil {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	s.mu.Unlock()

	// Wait for in-flight enqueues before closing the queue.
	s.enqueueWG.Wait()
	close(q)

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
	}
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	s.queue = nil
	s.runCtx = nil
	s.runCancel = nil
	s.mu.Unlock()
}

// Enqueue queues n for delivery without blocking the caller beyond a full
// queue check.
func (s *Service) Enqueue(n Notification) error {
	s.mu.Lock()
	if !s.accepting || s.queue == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.enqueueWG.Add(1)
	s.mu.Unlock()
	defer s.enqueueWG.Done()

	select {
	case q <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) workerLoop(ctx context.Context, queue <-chan Notification, worker int) {
	for n := range queue {
		s.mu.Lock()
		lim := s.limiter
		s.mu.Unlock()

		if err := lim.Wait(ctx); err != nil {
			return
		}

		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := s.adapter.SendText(sendCtx, n.Target, n.Text, n.Options)
		cancel()
		if err != nil {
			// Isolated per target: log and move on.
			s.log.Warn("notification delivery failed",
				logx.Int64("chat_id", n.Target.ChatID),
				logx.Int("worker", worker),
				logx.Err(err))
		}
	}
}
