// Package app wires the bot together: config, logging, the Telegram adapter,
// persistence, the course state machine, the async notifier, the reminder
// sweep and the health endpoint.
package app

import (
	"context"
	"time"

	"pillbot/internal/config"
	"pillbot/internal/course"
	"pillbot/internal/health"
	"pillbot/internal/notify"
	"pillbot/internal/remind"
	rtsup "pillbot/internal/runtime/supervisor"
	"pillbot/internal/storage"
	kit "pillbot/internal/transport"
	"pillbot/internal/transport/telegram"
	logx "pillbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	backend storage.Store
	courses *course.Store
	svc     *course.Service

	adapter  kit.Adapter
	sendOpts *kit.SendOptions

	notif  *notify.Service
	remind *remind.Service
	health *health.Service

	sup     *rtsup.Supervisor
	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(context.Background(), cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateConfig)

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	// Storage (optional; the bot runs memory-only without it).
	var backend storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		backend = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	courses := course.NewStore(backend, log.With(logx.String("comp", "course.store")))
	svc := course.NewService(courses)

	notifSvc := notify.New(mapNotifierConfig(cfg), ad, log.With(logx.String("comp", "notifier")))

	// Every outbound message carries the persistent reply keyboard.
	sendOpts := &kit.SendOptions{ReplyMarkupAdapter: telegram.MainKeyboard()}

	remCfg, err := mapReminderConfig(cfg)
	if err != nil {
		return nil, err
	}
	remindSvc := remind.New(remCfg, courses, notifSvc, sendOpts, log.With(logx.String("comp", "remind")))

	healthSvc := health.New(mapHealthConfig(cfg), log.With(logx.String("comp", "health")))

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		backend:  backend,
		courses:  courses,
		svc:      svc,
		adapter:  ad,
		sendOpts: sendOpts,
		notif:    notifSvc,
		remind:   remindSvc,
		health:   healthSvc,
		updates:  make(chan kit.Update, 256),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx,
		rtsup.WithLogger(a.log),
		rtsup.WithCancelOnError(true),
	)

	// Hydrate state before anything can mutate or sweep it. A load failure is
	// degraded mode (start empty), not fatal.
	loadCtx, cancel := context.WithTimeout(a.sup.Context(), 15*time.Second)
	_ = a.courses.Load(loadCtx)
	cancel()

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	a.notif.Start(a.sup.Context())
	if a.remind.Enabled() {
		if err := a.remind.Start(a.sup.Context()); err != nil {
			return err
		}
	}
	if a.health.Enabled() {
		if err := a.health.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	// Single dispatch goroutine: command handling is serialized (the store
	// lock alone would suffice, but one writer keeps reply ordering sane).
	a.sup.Go0("updates.dispatch", func(c context.Context) {
		a.dispatchLoop(c)
	})

	// Config hot reload.
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
	sub := a.cfgm.Subscribe(1)
	a.sup.Go0("config.apply", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	})

	a.log.Info("started")
	return nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// applyReload pushes a validated config into the running services. Token and
// storage driver changes require a restart and are ignored here.
func (a *App) applyReload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(mapLoggingConfig(cfg))
	a.notif.Apply(mapNotifierConfig(cfg))
	if remCfg, err := mapReminderConfig(cfg); err == nil {
		a.remind.Apply(remCfg)
	}
	a.log.Info("config applied")
}

func (a *App) Stop(ctx context.Context) error {
	// Reminders first so nothing new enters the notifier, then drain it.
	a.remind.Stop(ctx)
	if a.adapter != nil {
		_ = a.adapter.Stop(ctx)
	}
	a.notif.Stop(ctx)
	a.health.Stop(ctx)

	// Final flush so a clean shutdown never loses state.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	a.courses.Flush(flushCtx)
	cancel()
	if a.backend != nil {
		_ = a.backend.Close()
	}

	if a.sup != nil {
		a.sup.Stop(ctx)
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return nil
}
