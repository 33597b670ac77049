package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job struct {
	Name string
	Spec string // standard 5-field cron expression
	Run  func(ctx context.Context) error
}

type entry struct {
	job      Job
	schedule cron.Schedule
	next     time.Time
}

// Scheduler fires jobs at their cron times, evaluated in a fixed location.
type Scheduler struct {
	log      *zap.Logger
	loc      *time.Location
	entries  []*entry
	interval time.Duration
	now      func() time.Time
}

// New parses every job spec. loc is the zone the cron fields are read in.
func New(log *zap.Logger, loc *time.Location, jobs ...Job) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		log:      log.Named("scheduler"),
		loc:      loc,
		interval: 30 * time.Second,
		now:      time.Now,
	}
	for _, j := range jobs {
		sched, err := cron.ParseStandard(j.Spec)
		if err != nil {
			return nil, fmt.Errorf("job %s: parse %q: %w", j.Name, j.Spec, err)
		}
		s.entries = append(s.entries, &entry{job: j, schedule: sched})
	}
	return s, nil
}

// NextRuns returns the next fire time of every job after t.
func (s *Scheduler) NextRuns(t time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(s.entries))
	for _, e := range s.entries {
		out[e.job.Name] = e.schedule.Next(t.In(s.loc))
	}
	return out
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	now := s.now().In(s.loc)
	for _, e := range s.entries {
		e.next = e.schedule.Next(now)
		s.log.Info("job scheduled", zap.String("job", e.job.Name), zap.Time("next", e.next))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every job whose fire time has passed and reschedules it. A run
// missed by more than one period fires once, not once per missed period.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)

	var due []*entry
	for _, e := range s.entries {
		if !e.next.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].next.Before(due[j].next) })

	for _, e := range due {
		s.runJob(ctx, e.job)
		e.next = e.schedule.Next(now)
	}
}

// runJob executes one job and never lets an error or panic escape.
func (s *Scheduler) runJob(ctx context.Context, j Job) {
	log := s.log.With(zap.String("job", j.Name))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	log.Info("job started")
	if err := j.Run(ctx); err != nil {
		log.Error("job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	log.Info("job finished", zap.Duration("took", time.Since(start)))
}
