package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ziadkadry99/studyaid/internal/db"
)

// Store persists users.
type Store struct {
	db *db.DB
}

// NewStore creates a new user store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Upsert creates the user for p on first sign-in. On later sign-ins only the
// display name and profile image are refreshed; the email stays as first
// recorded.
func (s *Store) Upsert(ctx context.Context, p Profile) (*User, error) {
	if p.Subject == "" {
		return nil, fmt.Errorf("upserting user: empty subject")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, profile_image, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, profile_image = excluded.profile_image`,
		p.Subject, p.Email, p.Name, p.Picture, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return s.GetByID(ctx, p.Subject)
}

// GetByID returns the user with the given id, or nil if none exists.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	return s.getOne(ctx, "id", id)
}

// GetByEmail returns the user with the given email, or nil if none exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getOne(ctx, "email", email)
}

func (s *Store) getOne(ctx context.Context, column, value string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, profile_image, created_at FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &u.Email, &u.Name, &u.ProfileImage, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}
