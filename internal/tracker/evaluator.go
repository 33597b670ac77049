package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

var recordCollections = []domain.Collection{
	domain.CollectionTimeRecords,
	domain.CollectionActivities,
}

// Evaluator aggregates a user's records inside a local day window into a
// completion state.
type Evaluator struct {
	store    Store
	loc      *time.Location
	required []domain.Kind
}

func NewEvaluator(store Store, loc *time.Location, required []domain.Kind) *Evaluator {
	if len(required) == 0 {
		required = domain.AllKinds()
	}
	return &Evaluator{store: store, loc: loc, required: required}
}

// Window returns the day window containing ref.
func (e *Evaluator) Window(ref time.Time) domain.DayWindow {
	return domain.WindowFor(ref, e.loc)
}

// Required returns the kinds a user must record to complete a day.
func (e *Evaluator) Required() []domain.Kind {
	return e.required
}

// IsComplete reports whether the state covers every required kind.
func (e *Evaluator) IsComplete(s domain.CompletionState) bool {
	return s.IsComplete(e.required)
}

// Evaluate queries both record collections for userID within the day
// containing ref. Store failures are returned unchanged in meaning.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, ref time.Time) (domain.CompletionState, error) {
	w := e.Window(ref)
	state := domain.NewCompletionState(userID, w)
	for _, c := range recordCollections {
		recs, err := e.store.FindRecords(ctx, domain.QueryForWindow(c, userID, w))
		if err != nil {
			return state, fmt.Errorf("query %s for %s: %w", c, userID, err)
		}
		for i := range recs {
			state.AddRecord(&recs[i])
		}
	}
	return state, nil
}

// EvaluateAll builds the state of every user with at least one record in
// the window, using one read per collection.
func (e *Evaluator) EvaluateAll(ctx context.Context, w domain.DayWindow) (map[string]domain.CompletionState, error) {
	states := make(map[string]domain.CompletionState)
	for _, c := range recordCollections {
		recs, err := e.store.FindRecords(ctx, domain.QueryForWindow(c, "", w))
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", c, err)
		}
		for i := range recs {
			s, ok := states[recs[i].UserID]
			if !ok {
				s = domain.NewCompletionState(recs[i].UserID, w)
			}
			s.AddRecord(&recs[i])
			states[recs[i].UserID] = s
		}
	}
	return states, nil
}

// Participants returns the ids of users who recorded kind within w. Records
// are matched after normalization, so every alias Evaluate accepts counts.
func (e *Evaluator) Participants(ctx context.Context, w domain.DayWindow, kind domain.Kind) (map[string]struct{}, error) {
	c := domain.CollectionActivities
	if kind.Timed() {
		c = domain.CollectionTimeRecords
	}
	q := domain.QueryForWindow(c, "", w)
	recs, err := e.store.FindRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s for %s: %w", q.Collection, kind, err)
	}
	done := make(map[string]struct{})
	for i := range recs {
		if k, ok := recs[i].Kind(); ok && k == kind {
			done[recs[i].UserID] = struct{}{}
		}
	}
	return done, nil
}
