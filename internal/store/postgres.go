package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mathtutor/apiserver/types"
)

// PostgresStore persists users in a postgres table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `uid, user_email, user_name, password_hash, user_age, date_created, last_logged_in`

func (s *PostgresStore) Put(ctx context.Context, user types.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.UID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Age,
		user.CreatedAt,
		user.LastLoginAt,
	)
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, uid string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE uid = $1`
	return s.queryOne(ctx, query, uid)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_email = $1`
	return s.queryOne(ctx, query, email)
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, uid string, at time.Time) error {
	const query = `
		UPDATE users
		SET last_logged_in = $1
		WHERE uid = $2`
	result, err := s.db.ExecContext(ctx, query, at, uid)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Age,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
