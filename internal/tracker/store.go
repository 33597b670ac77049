package tracker

import (
	"context"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

// Store is the part of the document store the tracker reads and writes.
// store.Repo satisfies it.
type Store interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetLastNotifiedDay(ctx context.Context, userID, day string) error
	FindRecords(ctx context.Context, q domain.RecordQuery) ([]domain.ActivityRecord, error)
}
