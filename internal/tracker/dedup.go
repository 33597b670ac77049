package tracker

import (
	"context"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

// Deduplicator keeps the completion notice to one per user per local day
// using the user's last_notified_day marker.
//
// The check and the write are not atomic. Two invocations for the same
// user on the same day can both pass ShouldNotify before either calls
// MarkNotified, which sends the notice twice. That duplicate is bounded to
// one per race and is accepted; there is no distributed lock.
type Deduplicator struct {
	store Store
}

func NewDeduplicator(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// ShouldNotify reports whether u has not been notified for dayKey yet.
// A marker that was never set always passes.
func (d *Deduplicator) ShouldNotify(u *domain.User, dayKey string) bool {
	return u.LastNotifiedDay != dayKey
}

// MarkNotified overwrites the marker in the store and on u.
func (d *Deduplicator) MarkNotified(ctx context.Context, u *domain.User, dayKey string) error {
	if err := d.store.SetLastNotifiedDay(ctx, u.ID, dayKey); err != nil {
		return err
	}
	u.LastNotifiedDay = dayKey
	return nil
}
