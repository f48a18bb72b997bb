package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gofrs/flock"

	"nexusevent/internal/config"
	"nexusevent/internal/runtime/supervisor"
	"nexusevent/internal/schedule"
	"nexusevent/internal/storage"
	"nexusevent/pkg/eventbus"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/nexusevent"
	"nexusevent/pkg/sender"
)

const defaultShutdownTimeout = 10 * time.Second

// App is the long-running daemon: scheduled broadcasts, audit logging and
// config hot reload around a sender registry.
type App struct {
	cfgPath string

	cfgm *config.Manager
	// boot is the config NewApp built the components from.
	boot *config.Config
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	sched *schedule.Scheduler
	reg   atomic.Pointer[nexusevent.Registry]

	lock   *flock.Flock
	notify NotifyFunc
}

type Option func(*App)

// WithNotify replaces the systemd notifier.
func WithNotify(fn NotifyFunc) Option {
	return func(a *App) { a.notify = fn }
}

// NewApp loads and validates the config at cfgPath and wires every component.
// Nothing runs until Start.
func NewApp(cfgPath string, opts ...Option) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		boot:    cfg,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		bus:     eventbus.New(),
		sched:   schedule.New(log.With(logx.String("comp", "scheduler"))),
		lock:    flock.New(lockPath(cfgPath, cfg)),
		notify:  sdNotify,
	}
	for _, o := range opts {
		if o != nil {
			o(a)
		}
	}

	st, err := OpenAudit(cfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	if st != nil {
		a.store = st
		a.log.Info("audit log enabled", logx.String("driver", cfg.Audit.Driver))
	}

	reg, err := BuildRegistry(cfg, log.With(logx.String("comp", "registry")), a.bus)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.reg.Store(reg)
	logSvc.SetAlertSink(logx.AlertFunc(a.alert))

	return a, nil
}

// Registry returns the registry currently in use. It is swapped on config reload.
func (a *App) Registry() *nexusevent.Registry { return a.reg.Load() }

// Config returns the last applied config.
func (a *App) Config() *config.Config { return a.cfgm.Get() }

// Schedules lists registered schedule entries.
func (a *App) Schedules() []schedule.Entry { return a.sched.Entries() }

// Done is closed when the daemon context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	if err := acquireLock(a.lock); err != nil {
		return err
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	// Reject reloads whose senders cannot be constructed.
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, err := BuildRegistry(cfg, logx.Nop(), nil); err != nil {
			return err
		}
		_, _, err := mapStorageConfig(cfg)
		return err
	})

	// Reloads committed after NewApp are diffed against boot, so none is lost.
	sub := a.cfgm.Subscribe(8)
	cfg := a.boot
	a.sched.Replace(a.sup.Context(), a.scheduleJobs(cfg))

	if a.store != nil {
		events, unsub := a.bus.Subscribe(256)
		a.sup.Go0("audit.record", func(c context.Context) {
			defer unsub()
			a.recordLoop(c, events)
		})
	}

	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub, cfg)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if err := a.notify(daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	}
	a.log.Info("daemon started",
		logx.String("config", a.cfgPath),
		logx.String("lock", a.lock.Path()),
		logx.Int("senders", a.Registry().Len()),
		logx.Int("schedules", len(cfg.Schedules)),
	)
	return nil
}

// reloadLoop applies published configs, newest first. applied is the config
// the running components were built from; it must be taken before sub is read.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config, applied *config.Config) {
	lastApplied := applied
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.apply(ctx, lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) apply(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	changed := map[string]bool{}
	for _, s := range sections {
		changed[s] = true
	}

	if changed["logging"] {
		a.logs.Apply(mapLogConfig(newCfg))
	}
	if changed["senders"] || changed["delivery"] {
		reg, err := BuildRegistry(newCfg, a.Registry().Logger(), a.bus)
		if err != nil {
			a.log.Warn("invalid senders; keeping previous registry", logx.Err(err))
		} else {
			a.reg.Store(reg)
		}
	}
	// Jobs resolve the registry at run time, so only schedule edits need a rebuild.
	if changed["schedules"] {
		a.sched.Replace(ctx, a.scheduleJobs(newCfg))
	}
	if changed["audit"] {
		a.log.Warn("audit config changed; restart required for changes to take effect")
	}
	if changed["daemon"] {
		a.log.Warn("daemon config changed; restart required for changes to take effect")
	}

	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigApplied, Data: sections})
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config applied", fields...)
}

// alert forwards a log record to the configured alert sender.
func (a *App) alert(ctx context.Context, level, text string) error {
	cfg := a.cfgm.Get()
	if cfg == nil || !cfg.Logging.Alert.Enabled {
		return nil
	}
	reg := a.Registry()
	if reg == nil {
		return nil
	}
	return reg.Send(ctx, cfg.Logging.Alert.Sender, sender.Message{
		Title:     "nexusevent " + strings.ToLower(level),
		Content:   text,
		Color:     alertColor(level),
		Timestamp: time.Now(),
	})
}

func alertColor(level string) int {
	switch strings.ToLower(level) {
	case "warn", "warning":
		return 0xffcc00
	case "error", "fatal", "panic":
		return 0xff3333
	default:
		return 0
	}
}

func (a *App) shutdownTimeout() time.Duration {
	cfg := a.cfgm.Get()
	if cfg == nil {
		return defaultShutdownTimeout
	}
	d, err := config.ParseDurationOrDefault("daemon.shutdown_timeout", cfg.Daemon.ShutdownTimeout, defaultShutdownTimeout)
	if err != nil {
		return defaultShutdownTimeout
	}
	return d
}

// Stop shuts the daemon down. ctx bounds the whole shutdown; when it has no
// deadline, daemon.shutdown_timeout applies.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeResources()
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.shutdownTimeout())
		defer cancel()
	}

	a.log.Info("stopping", logx.String("reason", string(reason)))
	if err := a.notify(daemon.SdNotifyStopping); err != nil {
		a.log.Debug("sd_notify stopping failed", logx.Err(err))
	}
	a.sup.Cancel()

	step := func(name string, fn func(context.Context) error) {
		start := time.Now()
		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(ctx)
		}()
		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-ctx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("scheduler", func(context.Context) error { a.sched.Stop(); return nil })
	step("supervisor", func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	a.closeResources()
	return nil
}

func (a *App) closeResources() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("audit log close failed", logx.Err(err))
		}
		a.store = nil
	}
	if a.lock != nil && a.lock.Locked() {
		if err := a.lock.Unlock(); err != nil {
			a.log.Warn("failed to release daemon lock", logx.Err(err))
		}
	}
	if a.logs != nil {
		a.logs.Close()
	}
}
