package app

import (
	"context"
	"time"

	"nexusevent/internal/config"
	"nexusevent/internal/schedule"
	"nexusevent/internal/storage"
	"nexusevent/pkg/eventbus"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/nexusevent"
)

const (
	auditPruneJob   = "audit.prune"
	auditPruneEvery = "every:1h"
)

// pruneJob returns the hourly retention job when audit.retention is set.
func (a *App) pruneJob(cfg *config.Config) (schedule.Job, bool) {
	if a.store == nil || cfg == nil || cfg.Audit == nil {
		return schedule.Job{}, false
	}
	keep, err := config.ParseDurationField("audit.retention", cfg.Audit.Retention)
	if err != nil || keep <= 0 {
		return schedule.Job{}, false
	}
	spec, err := schedule.Parse(auditPruneEvery, "")
	if err != nil {
		return schedule.Job{}, false
	}
	return schedule.Job{
		Name: auditPruneJob,
		Spec: spec,
		Run:  func(ctx context.Context) { a.pruneAudit(ctx, keep) },
	}, true
}

func (a *App) pruneAudit(ctx context.Context, keep time.Duration) {
	n, err := a.store.Prune(ctx, time.Now().Add(-keep))
	if err != nil {
		a.log.Warn("audit prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		a.log.Info("audit records pruned", logx.Int64("removed", n), logx.Duration("retention", keep))
	}
}

// recordLoop appends every delivery event to the audit store until ctx ends.
func (a *App) recordLoop(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			rec, ok := deliveryRecord(e)
			if !ok {
				continue
			}
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			err := a.store.AppendDelivery(wctx, rec)
			cancel()
			if err != nil {
				a.log.Warn("audit append failed", logx.String("sender", rec.Sender), logx.Err(err))
			}
		}
	}
}

// deliveryRecord maps delivery events to audit records; other events are ignored.
func deliveryRecord(e eventbus.Event) (storage.DeliveryRecord, bool) {
	if e.Type != eventbus.TypeDeliverySent && e.Type != eventbus.TypeDeliveryFailed {
		return storage.DeliveryRecord{}, false
	}
	d, ok := e.Data.(nexusevent.DeliveryEvent)
	if !ok {
		return storage.DeliveryRecord{}, false
	}
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	return storage.DeliveryRecord{
		At:          at,
		Sender:      d.Sender,
		Platform:    string(d.Platform),
		Title:       d.Title,
		BroadcastID: d.BroadcastID,
		OK:          d.OK,
		Error:       d.Error,
		TookMS:      d.Took.Milliseconds(),
	}, true
}
