package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

// Instants are stored as unix milliseconds so day windows keep their
// 23:59:59.999 upper bound.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// recordTable returns the table and kind column of a collection.
func recordTable(c domain.Collection) (table, typeCol string, err error) {
	switch c {
	case domain.CollectionTimeRecords:
		return "time_records", "record_type", nil
	case domain.CollectionActivities:
		return "activities", "activity_type", nil
	}
	return "", "", fmt.Errorf("unknown collection %q", c)
}

type userRow struct {
	id         string
	role       string
	username   string
	teacherID  sql.NullString
	guardianID sql.NullString
	push       sql.NullString
	lastDay    sql.NullString
	createdAt  int64
}

const userColumns = `id, role, username, teacher_id, guardian_id, push_address, last_notified_day, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (domain.User, error) {
	var r userRow
	if err := s.Scan(
		&r.id, &r.role, &r.username, &r.teacherID, &r.guardianID,
		&r.push, &r.lastDay, &r.createdAt,
	); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:              r.id,
		Role:            domain.Role(r.role),
		Username:        r.username,
		TeacherID:       r.teacherID.String,
		GuardianID:      r.guardianID.String,
		PushAddress:     r.push.String,
		LastNotifiedDay: r.lastDay.String,
		CreatedAt:       fromMillis(r.createdAt),
	}, nil
}
