package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

const memoryPath = ":memory:"

var _ Repo = (*SQLiteRepo)(nil)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
// The special path ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertUser inserts a user or replaces its profile fields. The
// last_notified_day marker is preserved on update; it is only written by
// SetLastNotifiedDay.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if u.ID == "" {
		return errors.New("user id is required")
	}

	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, role, username, teacher_id, guardian_id,
			push_address, last_notified_day, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role         = excluded.role,
			username     = excluded.username,
			teacher_id   = excluded.teacher_id,
			guardian_id  = excluded.guardian_id,
			push_address = excluded.push_address`,
		u.ID, string(u.Role), u.Username, toNullString(u.TeacherID), toNullString(u.GuardianID),
		toNullString(u.PushAddress), toNullString(u.LastNotifiedDay), toMillis(created),
	)
	return err
}

// GetUser returns the user with the given id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user ordered by id.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// ListUsersByRole returns users with the given role ordered by id.
func (r *SQLiteRepo) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY id`, string(role))
}

func (r *SQLiteRepo) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetLastNotifiedDay overwrites the user's completion marker.
func (r *SQLiteRepo) SetLastNotifiedDay(ctx context.Context, userID, day string) error {
	return r.updateUserField(ctx, "last_notified_day", userID, day)
}

// SetPushAddress stores the delivery address of a user.
func (r *SQLiteRepo) SetPushAddress(ctx context.Context, userID, address string) error {
	return r.updateUserField(ctx, "push_address", userID, address)
}

// updateUserField is a single-field document update. column is never user input.
func (r *SQLiteRepo) updateUserField(ctx context.Context, column, userID, value string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ? WHERE id = ?`,
		toNullString(value), userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// InsertRecord stores a new immutable record in its collection.
func (r *SQLiteRepo) InsertRecord(ctx context.Context, rec *domain.ActivityRecord) error {
	if rec == nil {
		return errors.New("nil record")
	}
	table, typeCol, err := recordTable(rec.Collection)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, user_id, `+typeCol+`, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.RawType(), toMillis(rec.CreatedAt),
	)
	return err
}

// FindRecords returns records of one collection matching q, ordered by
// created_at. The created_at range is inclusive on both ends.
func (r *SQLiteRepo) FindRecords(ctx context.Context, q domain.RecordQuery) ([]domain.ActivityRecord, error) {
	table, typeCol, err := recordTable(q.Collection)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if q.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Type != "" {
		where = append(where, typeCol+" = ?")
		args = append(args, q.Type)
	}
	if !q.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toMillis(q.From))
	}
	if !q.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, toMillis(q.To))
	}

	query := `SELECT id, user_id, ` + typeCol + `, created_at FROM ` + table
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ActivityRecord
	for rows.Next() {
		var (
			rec       = domain.ActivityRecord{Collection: q.Collection}
			rawType   string
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rawType, &createdAt); err != nil {
			return nil, err
		}
		if q.Collection == domain.CollectionTimeRecords {
			rec.RecordType = rawType
		} else {
			rec.ActivityType = rawType
		}
		rec.CreatedAt = fromMillis(createdAt)
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
