package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/store"
)

// Resolver finds the delivery addresses for a notification.
type Resolver struct {
	store Store
	log   *zap.Logger
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

type link struct {
	role domain.Role
	id   string
}

func studentLinks(student *domain.User) []link {
	return []link{
		{role: domain.RoleTeacher, id: student.TeacherID},
		{role: domain.RoleGuardian, id: student.GuardianID},
	}
}

// Resolve returns the addresses of the student's linked teacher and
// guardian. A missing link, a dangling link or an empty address only drops
// that recipient.
func (r *Resolver) Resolve(ctx context.Context, student *domain.User) ([]string, error) {
	var out []string
	for _, l := range studentLinks(student) {
		fields := []zap.Field{zap.String("student", student.ID), zap.String("role", string(l.role))}
		if l.id == "" {
			r.log.Info("no linked recipient", fields...)
			continue
		}
		u, err := r.store.GetUser(ctx, l.id)
		if errors.Is(err, store.ErrNotFound) {
			r.log.Info("linked recipient not found", append(fields, zap.String("user", l.id))...)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup %s %s: %w", l.role, l.id, err)
		}
		if !u.HasAddress() {
			r.log.Info("linked recipient has no push address", append(fields, zap.String("user", l.id))...)
			continue
		}
		out = appendUnique(out, u.PushAddress)
	}
	return out, nil
}

// ResolveRole returns the address of every user in role.
//
// Legacy broadcast policy: completion notices are link based and never use
// this. It backs the operator broadcast command only.
func (r *Resolver) ResolveRole(ctx context.Context, role domain.Role) ([]string, error) {
	users, err := r.store.ListUsersByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list %s users: %w", role, err)
	}
	var out []string
	for i := range users {
		if users[i].HasAddress() {
			out = appendUnique(out, users[i].PushAddress)
		}
	}
	return out, nil
}

// Directory is an in-memory index of users by id, built from one read and
// reused for every lookup of a population run.
type Directory map[string]*domain.User

func NewDirectory(users []domain.User) Directory {
	d := make(Directory, len(users))
	for i := range users {
		d[users[i].ID] = &users[i]
	}
	return d
}

// Role returns the users with the given role sorted by id.
func (d Directory) Role(role domain.Role) []*domain.User {
	var out []*domain.User
	for _, u := range d {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out
}

// Recipients resolves the student's linked addresses without store reads.
func (d Directory) Recipients(student *domain.User) []string {
	var out []string
	for _, l := range studentLinks(student) {
		if u, ok := d[l.id]; ok && l.id != "" && u.HasAddress() {
			out = appendUnique(out, u.PushAddress)
		}
	}
	return out
}

func sortUsers(us []*domain.User) {
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
