package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	createUserQuery = `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)`

	getUserByIDQuery = `SELECT id, username, email, password_hash FROM users WHERE id = ?`

	getUserByUsernameQuery = `SELECT id, username, email, password_hash FROM users WHERE username = ?`
)

// CreateUser stores a new user. The password must already be hashed.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(createUserQuery),
			user.ID, user.Username, user.Email, user.PasswordHash)
		if err != nil {
			return classify(fmt.Errorf("failed to create user: %w", err))
		}
		return nil
	})
}

// GetUserByID gets a user by ID
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByIDQuery), id); err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

// GetUserByUsername gets a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByUsernameQuery), username); err != nil {
		return nil, classify(err)
	}
	return &user, nil
}
