package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/push"
	"github.com/ykvlv/daily-report-notifier/internal/store"
)

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	records  []domain.ActivityRecord
	queryErr error
	listErr  error
	writes   int
}

func newMemStore(users ...domain.User) *memStore {
	s := &memStore{users: make(map[string]domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) add(recs ...domain.ActivityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recs...)
}

func (s *memStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

func (s *memStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *memStore) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	all, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.User
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memStore) SetLastNotifiedDay(_ context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.LastNotifiedDay = day
	s.users[userID] = u
	s.writes++
	return nil
}

func (s *memStore) FindRecords(_ context.Context, q domain.RecordQuery) ([]domain.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []domain.ActivityRecord
	for _, r := range s.records {
		if r.Collection != q.Collection {
			continue
		}
		if q.UserID != "" && r.UserID != q.UserID {
			continue
		}
		if q.Type != "" && r.RawType() != q.Type {
			continue
		}
		if r.CreatedAt.Before(q.From) || r.CreatedAt.After(q.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) user(id string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// fakeGateway records every multicast call.
type fakeGateway struct {
	mu      sync.Mutex
	calls   [][]string
	msgs    []push.Message
	reject  map[string]bool
	callErr error
}

func (g *fakeGateway) MaxBatchSize() int { return push.MaxBatch }

func (g *fakeGateway) SendMulticast(_ context.Context, msg push.Message, addresses []string) (push.BatchResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, append([]string(nil), addresses...))
	g.msgs = append(g.msgs, msg)
	if g.callErr != nil {
		return push.BatchResponse{}, g.callErr
	}
	resp := push.BatchResponse{}
	for _, a := range addresses {
		var err error
		if g.reject[a] {
			err = errors.New("registration-token-not-registered")
		}
		resp.Responses = append(resp.Responses, push.SendResponse{Address: a, Err: err})
	}
	return resp, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

var wib = time.FixedZone("UTC+07:00", 7*3600)

// fixedNow is 2025-05-05 18:00 WIB.
var fixedNow = time.Date(2025, time.May, 5, 18, 0, 0, 0, wib)

func newTestTracker(t *testing.T, st Store, gw push.Gateway) *Tracker {
	t.Helper()
	return New(st, gw, zaptest.NewLogger(t), Options{
		Location:   wib,
		Required:   domain.AllKinds(),
		BatchLimit: push.MaxBatch,
		Now:        func() time.Time { return fixedNow },
	})
}

// dayRecords returns one record per kind for userID at the given local hour.
func dayRecords(userID string, kinds ...domain.Kind) []domain.ActivityRecord {
	var out []domain.ActivityRecord
	for i, k := range kinds {
		r := domain.ActivityRecord{
			ID:        fmt.Sprintf("%s-%d", userID, i),
			UserID:    userID,
			CreatedAt: time.Date(2025, time.May, 5, 6+i, 0, 0, 0, wib).UTC(),
		}
		if raw, ok := domain.TimedRecordType(k); ok {
			r.Collection = domain.CollectionTimeRecords
			r.RecordType = raw
		} else {
			r.Collection = domain.CollectionActivities
			r.ActivityType = string(k)
		}
		out = append(out, r)
	}
	return out
}
