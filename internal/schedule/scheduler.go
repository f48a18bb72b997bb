package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nexusevent/pkg/logx"
)

// Job is one scheduled unit of work.
type Job struct {
	Name string
	Spec Spec
	// Run receives the scheduler context; it is canceled on Stop.
	Run func(ctx context.Context)
}

// Entry describes a registered job.
type Entry struct {
	Name string
	Kind Kind
	Next time.Time
	Prev time.Time
}

// Scheduler wraps a cron runner whose job set can be replaced at runtime.
// A job still running when its next tick fires is skipped for that tick.
type Scheduler struct {
	mu      sync.Mutex
	log     logx.Logger
	c       *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
}

func New(log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{log: log, entries: map[string]cron.EntryID{}}
}

// Replace stops the current runner (waiting for running jobs) and starts a new one with jobs.
func (s *Scheduler) Replace(parent context.Context, jobs []Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	cl := cronLogger{log: s.log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	entries := make(map[string]cron.EntryID, len(jobs))
	for _, j := range jobs {
		if j.Spec.Schedule == nil || j.Run == nil {
			continue
		}
		run := j.Run
		name := j.Name
		entries[name] = c.Schedule(j.Spec.Schedule, cron.FuncJob(func() {
			s.log.Debug("schedule fired", logx.String("schedule", name))
			run(ctx)
		}))
	}
	c.Start()

	s.c, s.ctx, s.cancel, s.entries = c, ctx, cancel, entries
	s.log.Info("schedules applied", logx.Int("count", len(entries)))
}

// Stop cancels job contexts and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.c == nil {
		return
	}
	s.cancel()
	<-s.c.Stop().Done()
	s.c = nil
	s.entries = map[string]cron.EntryID{}
}

// Entries lists registered jobs sorted by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.entries))
	for name, id := range s.entries {
		e := s.c.Entry(id)
		kind := KindCron
		if _, ok := e.Schedule.(cron.ConstantDelaySchedule); ok {
			kind = KindInterval
		}
		out = append(out, Entry{Name: name, Kind: kind, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes robfig/cron's logr-style logging into logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, logx.Any("kv", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, logx.Err(err), logx.Any("kv", kv))
}
