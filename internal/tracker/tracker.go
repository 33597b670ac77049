// Package tracker decides when a student has completed the day's activities
// and notifies the student's teacher and guardian, and runs the scheduled
// reminder scans.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/push"
	"github.com/ykvlv/daily-report-notifier/internal/store"
)

// Options are the tunables of the tracker.
type Options struct {
	Location   *time.Location
	Required   []domain.Kind
	BatchLimit int
	Now        func() time.Time // defaults to time.Now
}

// Tracker composes the evaluator, deduplicator, resolver and dispatcher.
// It holds no mutable state; every call is an independent invocation.
type Tracker struct {
	store      Store
	log        *zap.Logger
	eval       *Evaluator
	dedup      *Deduplicator
	resolver   *Resolver
	dispatcher *Dispatcher
	now        func() time.Time
}

func New(st Store, gw push.Gateway, log *zap.Logger, opts Options) *Tracker {
	log = log.Named("tracker")
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{
		store:      st,
		log:        log,
		eval:       NewEvaluator(st, loc, opts.Required),
		dedup:      NewDeduplicator(st),
		resolver:   NewResolver(st, log),
		dispatcher: NewDispatcher(gw, opts.BatchLimit, log),
		now:        now,
	}
}

// Report describes one completion check.
type Report struct {
	UserID     string          `json:"user_id"`
	Day        string          `json:"day"`
	Completed  int             `json:"completed"`
	Required   int             `json:"required"`
	Kinds      []domain.Kind   `json:"kinds"`
	Missing    []domain.Kind   `json:"missing"`
	Complete   bool            `json:"complete"`
	Notified   bool            `json:"notified"`
	Recipients int             `json:"recipients"`
	Delivery   *DispatchResult `json:"-"`
}

func (t *Tracker) report(s domain.CompletionState) Report {
	return Report{
		UserID:    s.UserID,
		Day:       s.Day.Key,
		Completed: s.Count(),
		Required:  len(t.eval.Required()),
		Kinds:     s.Kinds(),
		Missing:   s.Missing(t.eval.Required()),
		Complete:  t.eval.IsComplete(s),
	}
}

// HandleRecordCreated runs the completion flow for the owner of a newly
// created record. Records of an unknown kind cannot change completion and
// are ignored.
func (t *Tracker) HandleRecordCreated(ctx context.Context, rec domain.ActivityRecord) (Report, error) {
	if rec.UserID == "" {
		return Report{}, errors.New("record has no user_id")
	}
	if _, ok := rec.Kind(); !ok {
		t.log.Info("record kind not tracked",
			zap.String("collection", string(rec.Collection)),
			zap.String("type", rec.RawType()),
			zap.String("user", rec.UserID),
		)
		return Report{UserID: rec.UserID, Day: t.eval.Window(t.now()).Key}, nil
	}
	return t.CheckCompletion(ctx, rec.UserID, t.now())
}

// Progress evaluates userID's day without notifying anyone.
func (t *Tracker) Progress(ctx context.Context, userID string, ref time.Time) (Report, error) {
	state, err := t.eval.Evaluate(ctx, userID, ref)
	if err != nil {
		return Report{}, err
	}
	return t.report(state), nil
}

// CheckCompletion evaluates userID's day containing ref and, the first time
// it is complete, notifies the linked teacher and guardian.
//
// The marker is written when at least one recipient received the notice.
// If no recipient did, the error is logged, the marker stays unset and the
// next qualifying record retries. Store failures are returned.
func (t *Tracker) CheckCompletion(ctx context.Context, userID string, ref time.Time) (Report, error) {
	state, err := t.eval.Evaluate(ctx, userID, ref)
	if err != nil {
		return Report{}, err
	}
	rep := t.report(state)
	log := t.log.With(zap.String("user", userID), zap.String("day", rep.Day))
	log.Debug("progress", zap.Int("completed", rep.Completed), zap.Int("required", rep.Required))
	if !rep.Complete {
		return rep, nil
	}

	student, err := t.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("completed but user not found")
		return rep, nil
	}
	if err != nil {
		return rep, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	if !t.dedup.ShouldNotify(student, rep.Day) {
		log.Info("already notified today")
		return rep, nil
	}

	addresses, err := t.resolver.Resolve(ctx, student)
	if err != nil {
		return rep, err
	}
	rep.Recipients = len(addresses)

	delivery, sent, err := t.notify(ctx, student, rep.Day, addresses)
	rep.Delivery = delivery
	rep.Notified = sent
	return rep, err
}

// notify sends the completion notice and writes the marker when at least
// one recipient got it. sent is false when there was nobody to notify or no
// delivery succeeded; only a marker write failure is returned as an error.
func (t *Tracker) notify(ctx context.Context, student *domain.User, day string, addresses []string) (*DispatchResult, bool, error) {
	log := t.log.With(zap.String("user", student.ID), zap.String("day", day))
	if len(addresses) == 0 {
		log.Info("completed but no teacher or guardian address")
		return nil, false, nil
	}

	log.Info("completed, sending daily report", zap.Int("recipients", len(addresses)))
	res, err := t.dispatcher.Send(ctx, addresses, completionMessage(student, day))
	if err != nil {
		if res.SuccessCount == 0 {
			log.Error("completion notice not sent", zap.Error(err))
			return &res, false, nil
		}
		log.Warn("completion notice partly sent", zap.Error(err), zap.Int("delivered", res.SuccessCount))
	}
	if err := t.dedup.MarkNotified(ctx, student, day); err != nil {
		return &res, true, fmt.Errorf("mark %s notified: %w", student.ID, err)
	}
	return &res, true, nil
}

// Broadcast sends msg to every user with role. This is the legacy role-wide
// policy, exposed only as an explicit operator action.
func (t *Tracker) Broadcast(ctx context.Context, role domain.Role, msg push.Message) (DispatchResult, error) {
	addresses, err := t.resolver.ResolveRole(ctx, role)
	if err != nil {
		return DispatchResult{}, err
	}
	t.log.Info("broadcast", zap.String("role", string(role)), zap.Int("addresses", len(addresses)))
	return t.dispatcher.Send(ctx, addresses, msg)
}
