package store

import (
	"context"
	"errors"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

// ErrNotFound is returned by single-document lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Repo is the document store used by the tracker and the trigger surface.
type Repo interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetLastNotifiedDay(ctx context.Context, userID, day string) error
	SetPushAddress(ctx context.Context, userID, address string) error

	InsertRecord(ctx context.Context, r *domain.ActivityRecord) error
	FindRecords(ctx context.Context, q domain.RecordQuery) ([]domain.ActivityRecord, error)

	Close() error
}
