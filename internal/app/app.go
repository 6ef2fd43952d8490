package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/eventbus"
	"hwbot/internal/homework"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/runtime/sdnotify"
	"hwbot/internal/runtime/supervisor"
	telegram "hwbot/internal/transport/telegram/adapter"
	logx "hwbot/pkg/logx"
)

// ErrMissingCredentials is returned by NewApp when a token or the chat id is not set.
var ErrMissingCredentials = errors.New("required credentials are missing")

type App struct {
	cfgPath string

	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	adapter *telegram.Adapter
	notif   *notifier.Service
	client  *homework.Client
	poller  *poller.Poller
	sd      *sdnotify.Notifier

	// seed is the loop state for the very first Run.
	seed poller.State
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "app"))
	if !config.CheckTokens(bootLog, cfg.Practicum.Token, cfg.Telegram.Token, cfg.Telegram.ChatID.String()) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, config.MissingCredential(cfg))
	}

	res, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	ad, err := telegram.New(mapTelegramConfig(cfg, res), log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	notifSvc := notifier.New(mapNotifierConfig(cfg, res), ad, mapChatTarget(cfg),
		log.With(logx.String("comp", "notifier")), bus)

	client := homework.NewClient(mapClientConfig(cfg, res), log.With(logx.String("comp", "homework")))
	p := poller.New(mapPollerConfig(cfg, res), client, notifSvc, log.With(logx.String("comp", "poller")), bus)

	seed := poller.State{Cursor: cfg.InitialCursor(time.Now(), res.Lookback)}
	log.Info("configured",
		logx.String("schedule", res.Schedule.String()),
		logx.Int64("from_date", seed.Cursor),
		logx.String("chat_id", cfg.Telegram.ChatID.String()),
		logx.Bool("notify_errors", cfg.Poller.NotifyErrors),
	)

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		adapter: ad,
		notif:   notifSvc,
		client:  client,
		poller:  p,
		sd:      sdnotify.New(log.With(logx.String("comp", "systemd"))),
		seed:    seed,
	}, nil
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

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	// Secrets are read once at startup, but a reload that drops them is still a broken config.
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if name := config.MissingCredential(cfg); name != "" {
			return fmt.Errorf("%s is empty", name)
		}
		return nil
	})

	a.sup.GoRestart("poller.run", func(c context.Context) error {
		st, ok := a.poller.Last()
		if !ok {
			st = a.seed
		}
		return a.poller.Run(c, st)
	}, supervisor.WithRestartBackoff(time.Second, time.Minute))

	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.onEvent(e)
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				newCfg = latest(sub, newCfg)
				a.applyConfig(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.sup.Go0("systemd.watchdog", a.sd.RunWatchdog)

	a.sd.Ready()
	a.log.Info("app started")
	return nil
}

// latest drains queued configs and returns the newest one.
func latest(sub <-chan *config.Config, cur *config.Config) *config.Config {
	for {
		select {
		case newer, ok := <-sub:
			if !ok {
				return cur
			}
			if newer != nil {
				cur = newer
			}
		default:
			return cur
		}
	}
}

func (a *App) onEvent(e eventbus.Event) {
	switch e.Type {
	case eventbus.TypePollCycle:
		rep, ok := e.Data.(poller.Report)
		if !ok {
			return
		}
		a.sd.Status(rep.Summary())
		a.log.Debug("event",
			logx.String("type", e.Type),
			logx.Int("fetched", rep.Fetched),
			logx.Int("notified", rep.Notified),
			logx.Duration("dur", rep.Duration),
			logx.Bool("ok", rep.OK()))
	default:
		a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
	}
}

// applyConfig pushes live-reloadable settings to the running components.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	if keys := config.RequiresRestart(oldCfg, newCfg); len(keys) > 0 {
		a.log.Warn("config changes require restart to take effect", logx.String("keys", strings.Join(keys, ",")))
	}

	a.logs.Apply(mapLogConfig(newCfg))

	res, err := newCfg.Resolve()
	if err != nil {
		// Validate already ran before publish; keep previous settings.
		a.log.Warn("invalid config; keeping previous", logx.Err(err))
		return
	}
	a.poller.Apply(mapPollerConfig(newCfg, res))
	a.notif.Apply(mapNotifierConfig(newCfg, res))

	a.log.Info("config reloaded", logx.String("changed", strings.Join(sections, ",")))
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sd.Stopping()

	// Cancel first so the poll loop and watchers start unwinding immediately.
	a.sup.Cancel()

	a.step(ctx, "supervisor", 5*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	if last, ok := a.poller.Last(); ok {
		a.log.Info("stopped", logx.Int64("cursor", last.Cursor), logx.Int("last_seen", len(last.LastSeen)))
	} else {
		a.log.Info("stopped")
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

// step runs one shutdown step with an upper bound so a stuck component
// cannot stall the whole stop. The caller's deadline is never extended.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < max {
			max = rem
		}
	}
	if max <= 0 {
		a.log.Warn("stop step skipped (no time left)", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Err(stepCtx.Err()),
			logx.Duration("elapsed", time.Since(start)))
	}
}
