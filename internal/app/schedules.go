package app

import (
	"context"
	"time"

	"nexusevent/internal/config"
	"nexusevent/internal/schedule"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/nexusevent"
	"nexusevent/pkg/sender"
)

// scheduleJobs turns configured schedules into scheduler jobs, plus the audit
// retention job. Invalid entries are skipped; Config.Validate reports them
// before they get here.
func (a *App) scheduleJobs(cfg *config.Config) []schedule.Job {
	if cfg == nil {
		return nil
	}
	jobs := make([]schedule.Job, 0, len(cfg.Schedules))
	for _, sc := range cfg.Schedules {
		spec, err := schedule.Parse(sc.Spec, sc.Timezone)
		if err != nil {
			a.log.Warn("schedule skipped", logx.String("schedule", sc.Name), logx.Err(err))
			continue
		}
		opts := broadcastOptions(sc)
		msg := sc.Message.Message()
		name := sc.Name
		jobs = append(jobs, schedule.Job{
			Name: name,
			Spec: spec,
			Run: func(ctx context.Context) {
				a.runSchedule(ctx, name, msg, opts...)
			},
		})
	}
	if job, ok := a.pruneJob(cfg); ok {
		jobs = append(jobs, job)
	}
	return jobs
}

func broadcastOptions(sc config.ScheduleConfig) []nexusevent.BroadcastOption {
	var opts []nexusevent.BroadcastOption
	if len(sc.Platforms) > 0 {
		ps := make([]sender.Platform, 0, len(sc.Platforms))
		for _, raw := range sc.Platforms {
			if p, err := sender.ParsePlatform(raw); err == nil {
				ps = append(ps, p)
			}
		}
		opts = append(opts, nexusevent.WithPlatforms(ps...))
	}
	if sc.FailFast {
		opts = append(opts, nexusevent.FailFast())
	}
	return opts
}

func (a *App) runSchedule(ctx context.Context, name string, msg sender.Message, opts ...nexusevent.BroadcastOption) {
	reg := a.Registry()
	if reg == nil {
		return
	}
	msg.Timestamp = time.Now()
	log := a.log.With(logx.String("schedule", name))

	res, err := reg.Broadcast(ctx, msg, opts...)
	switch {
	case err != nil:
		log.Warn("scheduled broadcast aborted", logx.Err(err))
	case res.Failed > 0:
		log.Warn("scheduled broadcast partially failed",
			logx.String("broadcast_id", res.ID),
			logx.Int("total", res.Total),
			logx.Int("failed", res.Failed),
		)
	default:
		log.Info("scheduled broadcast sent", logx.String("broadcast_id", res.ID), logx.Int("total", res.Total))
	}
}
