package flashcards

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/studyaid/internal/db"
)

// Store manages persistence of flashcards, scoped to the owning user.
type Store struct {
	db *db.DB
}

// NewStore creates a new flashcard store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `SELECT id, user_id, study_material_id, front, back, mastered, created_at FROM flashcards`

// CreateBatch inserts drafts for userID in one transaction, optionally
// linked to a study material, and returns them in order.
func (s *Store) CreateBatch(ctx context.Context, userID string, materialID *string, drafts []Draft) ([]Flashcard, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO flashcards (id, user_id, study_material_id, front, back, mastered, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	cards := make([]Flashcard, 0, len(drafts))
	for _, d := range drafts {
		c := Flashcard{
			ID:              uuid.New().String(),
			UserID:          userID,
			StudyMaterialID: materialID,
			Front:           d.Front,
			Back:            d.Back,
			CreatedAt:       now,
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.UserID, nullString(materialID), c.Front, c.Back, c.CreatedAt); err != nil {
			return nil, fmt.Errorf("inserting flashcard: %w", err)
		}
		cards = append(cards, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing flashcards: %w", err)
	}
	return cards, nil
}

// Create inserts a single card.
func (s *Store) Create(ctx context.Context, userID string, materialID *string, d Draft) (*Flashcard, error) {
	cards, err := s.CreateBatch(ctx, userID, materialID, []Draft{d})
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// Get returns the card with id owned by userID, or nil if there is none.
func (s *Store) Get(ctx context.Context, id, userID string) (*Flashcard, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanFlashcard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting flashcard: %w", err)
	}
	return c, nil
}

// List returns userID's cards, newest first. A non-empty materialID
// restricts the list to that material.
func (s *Store) List(ctx context.Context, userID, materialID string) ([]Flashcard, error) {
	query := selectColumns + ` WHERE user_id = ?`
	args := []any{userID}
	if materialID != "" {
		query += ` AND study_material_id = ?`
		args = append(args, materialID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing flashcards: %w", err)
	}
	defer rows.Close()

	var out []Flashcard
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning flashcard: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SetMastered updates the mastered flag. It reports false when the card
// does not exist for userID.
func (s *Store) SetMastered(ctx context.Context, id, userID string, mastered bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE flashcards SET mastered = ? WHERE id = ? AND user_id = ?`, mastered, id, userID)
	if err != nil {
		return false, fmt.Errorf("updating mastered: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Update applies u and returns the stored card, or nil if the card does
// not exist for userID.
func (s *Store) Update(ctx context.Context, id, userID string, u Update) (*Flashcard, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE flashcards SET front = COALESCE(?, front), back = COALESCE(?, back)
		 WHERE id = ? AND user_id = ?`,
		nullString(u.Front), nullString(u.Back), id, userID)
	if err != nil {
		return nil, fmt.Errorf("updating flashcard: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.Get(ctx, id, userID)
}

// Delete removes a card. It reports false when the card does not exist
// for userID.
func (s *Store) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting flashcard: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Stats counts userID's cards and how many are mastered.
func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(mastered), 0) FROM flashcards WHERE user_id = ?`, userID,
	).Scan(&st.Total, &st.Mastered)
	if err != nil {
		return Stats{}, fmt.Errorf("counting flashcards: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row scanner) (*Flashcard, error) {
	var c Flashcard
	var materialID sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &materialID, &c.Front, &c.Back, &c.Mastered, &c.CreatedAt); err != nil {
		return nil, err
	}
	if materialID.Valid {
		c.StudyMaterialID = &materialID.String
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
