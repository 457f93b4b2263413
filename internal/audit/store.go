package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/studyaid/internal/db"
)

// Store provides persistence for activity entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `SELECT id, user_id, action, study_material_id, summary, created_at FROM activity_log`

// Log inserts a new entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var materialID sql.NullString
	if entry.MaterialID != nil {
		materialID = sql.NullString{String: *entry.MaterialID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, action, study_material_id, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Action), materialID, entry.Summary, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

// Get returns the entry with id owned by userID, or nil if there is none.
func (s *Store) Get(ctx context.Context, id, userID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting activity entry: %w", err)
	}
	return e, nil
}

// QueryFilter controls which entries Query returns. UserID is required.
type QueryFilter struct {
	UserID     string
	Action     Action
	MaterialID string
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

// Query returns the entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("querying activity: user id is required")
	}

	clauses := []string{"user_id = ?"}
	args := []any{filter.UserID}

	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.MaterialID != "" {
		clauses = append(clauses, "study_material_id = ?")
		args = append(args, filter.MaterialID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, filter.Until.UTC())
	}

	query := selectColumns + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all entries older than before and returns how many
// were deleted.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activity_log WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting old activity: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e          Entry
		action     string
		materialID sql.NullString
	)
	if err := sc.Scan(&e.ID, &e.UserID, &action, &materialID, &e.Summary, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Action = Action(action)
	if materialID.Valid {
		e.MaterialID = &materialID.String
	}
	return &e, nil
}
