package nexusevent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nexusevent/pkg/eventbus"
	"nexusevent/pkg/logx"
	"nexusevent/pkg/sender"
)

// BroadcastResult aggregates a settle-all broadcast.
//
// Successful+Failed == Total and len(Errors) == Failed.
type BroadcastResult struct {
	ID         string           `json:"id,omitempty"`
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     map[string]error `json:"-"`
	Took       time.Duration    `json:"took"`
}

type broadcastOptions struct {
	platforms []sender.Platform
	failFast  bool
}

type BroadcastOption func(*broadcastOptions)

// WithPlatforms restricts a broadcast to senders of the given platforms.
func WithPlatforms(ps ...sender.Platform) BroadcastOption {
	return func(o *broadcastOptions) { o.platforms = append(o.platforms, ps...) }
}

// FailFast makes Broadcast return the first failure instead of a result.
// Remaining senders see their context canceled.
func FailFast() BroadcastOption {
	return func(o *broadcastOptions) { o.failFast = true }
}

// Broadcast sends msg to every selected sender concurrently.
//
// By default it waits for all senders and never returns an error; failures are
// reported in the result. With FailFast the first failure is returned as a
// *SenderError and the result is the zero value.
func (r *Registry) Broadcast(ctx context.Context, msg sender.Message, opts ...BroadcastOption) (BroadcastResult, error) {
	var o broadcastOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	targets := r.snapshot(o.platforms)
	if len(targets) == 0 {
		return BroadcastResult{}, nil
	}

	id := uuid.NewString()
	log := r.log.With(logx.String("broadcast_id", id), logx.String("title", msg.Title))
	log.Debug("broadcast started", logx.Int("senders", len(targets)), logx.Bool("fail_fast", o.failFast))

	start := time.Now()
	if o.failFast {
		if err := r.broadcastFailFast(ctx, id, targets, msg); err != nil {
			log.Warn("broadcast aborted", logx.Err(err), logx.Duration("took", time.Since(start)))
			return BroadcastResult{}, err
		}
		res := BroadcastResult{ID: id, Total: len(targets), Successful: len(targets), Errors: map[string]error{}, Took: time.Since(start)}
		r.publishBroadcast(res)
		log.Info("broadcast done", logx.Int("total", res.Total), logx.Int("failed", 0), logx.Duration("took", res.Took))
		return res, nil
	}

	res := r.broadcastSettled(ctx, id, targets, msg)
	res.Took = time.Since(start)
	r.publishBroadcast(res)
	log.Info("broadcast done",
		logx.Int("total", res.Total),
		logx.Int("successful", res.Successful),
		logx.Int("failed", res.Failed),
		logx.Duration("took", res.Took))
	return res, nil
}

func (r *Registry) broadcastSettled(ctx context.Context, id string, targets []entry, msg sender.Message) BroadcastResult {
	res := BroadcastResult{ID: id, Total: len(targets), Errors: map[string]error{}}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, t := range targets {
		wg.Add(1)
		go func(t entry) {
			defer wg.Done()
			err := r.safeDeliver(ctx, id, t, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				res.Errors[t.name] = &SenderError{Name: t.name, Err: err}
				return
			}
			res.Successful++
		}(t)
	}
	wg.Wait()
	return res
}

func (r *Registry) broadcastFailFast(ctx context.Context, id string, targets []entry, msg sender.Message) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			if err := r.safeDeliver(gctx, id, t, msg); err != nil {
				return &SenderError{Name: t.name, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// safeDeliver converts a panicking sender into an error.
func (r *Registry) safeDeliver(ctx context.Context, id string, t entry, msg sender.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sender panicked: %v", rec)
			r.log.Error("sender panic",
				logx.String("sender", t.name),
				logx.Any("panic", rec),
				logx.Stack(logx.StackTrace(3, 16)))
			r.publishDelivery(id, t.name, t.s.Platform(), msg.Title, err, 0)
		}
	}()
	return r.deliver(ctx, id, t.name, t.s, msg)
}

// BroadcastEvent is the Data of broadcast.done events.
type BroadcastEvent struct {
	ID         string            `json:"id"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Errors     map[string]string `json:"errors,omitempty"`
	Took       time.Duration     `json:"took"`
}

func (r *Registry) publishBroadcast(res BroadcastResult) {
	if r.bus == nil {
		return
	}
	ev := BroadcastEvent{ID: res.ID, Total: res.Total, Successful: res.Successful, Failed: res.Failed, Took: res.Took}
	if len(res.Errors) > 0 {
		ev.Errors = make(map[string]string, len(res.Errors))
		for k, v := range res.Errors {
			ev.Errors[k] = v.Error()
		}
	}
	r.bus.Publish(eventbus.Event{Type: eventbus.TypeBroadcastDone, Data: ev})
}
