package materials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/studyaid/internal/db"
	"github.com/ziadkadry99/studyaid/internal/highlight"
)

// Store manages persistence of study materials. Every read and write is
// scoped to the owning user.
type Store struct {
	db *db.DB
}

// NewStore creates a new study material store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `SELECT id, user_id, title, content, keywords, created_at, updated_at FROM study_materials`

// Create stores new material for userID.
func (s *Store) Create(ctx context.Context, userID string, title *string, content string) (*Material, error) {
	now := time.Now().UTC()
	m := &Material{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO study_materials (id, user_id, title, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, nullString(title), m.Content, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting study material: %w", err)
	}
	return m, nil
}

// Get returns the material with id owned by userID, or nil if there is none.
func (s *Store) Get(ctx context.Context, id, userID string) (*Material, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND user_id = ?`, id, userID)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting study material: %w", err)
	}
	return m, nil
}

// List returns userID's materials, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing study materials: %w", err)
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning study material: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Update applies u to the material and returns the stored result, or nil
// if the material does not exist for userID.
func (s *Store) Update(ctx context.Context, id, userID string, u Update) (*Material, error) {
	var keywords sql.NullString
	if u.Keywords != nil {
		encoded, err := encodeKeywords(*u.Keywords)
		if err != nil {
			return nil, err
		}
		keywords = sql.NullString{String: encoded, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE study_materials
		 SET title = COALESCE(?, title),
		     content = COALESCE(?, content),
		     keywords = COALESCE(?, keywords),
		     updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		nullString(u.Title), nullString(u.Content), keywords, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating study material: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.Get(ctx, id, userID)
}

// SetKeywords replaces the stored keywords. It reports false when the
// material does not exist for userID.
func (s *Store) SetKeywords(ctx context.Context, id, userID string, keywords []highlight.KeywordEntry) (bool, error) {
	kw := keywords
	m, err := s.Update(ctx, id, userID, Update{Keywords: &kw})
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// Delete removes the material and its flashcards. It reports false when
// the material does not exist for userID.
func (s *Store) Delete(ctx context.Context, id, userID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM study_materials WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking study material: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM flashcards WHERE study_material_id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting flashcards: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM study_materials WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting study material: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row scanner) (*Material, error) {
	var m Material
	var title, keywords sql.NullString
	if err := row.Scan(&m.ID, &m.UserID, &title, &m.Content, &keywords, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if title.Valid {
		m.Title = &title.String
	}
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &m.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords of %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func encodeKeywords(keywords []highlight.KeywordEntry) (string, error) {
	if keywords == nil {
		keywords = []highlight.KeywordEntry{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("encoding keywords: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
