package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

func Fetch(ctx context.Context, db *sqlx.DB, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := db.GetContext(ctx, &usr, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}

	return usr, nil
}

func FetchByEmail(ctx context.Context, db *sqlx.DB, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := db.GetContext(ctx, &usr, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return usr, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users (user_id, email, name, role, password_hash, created_at, updated_at)
	VALUES (:user_id, :email, :name, :role, :password_hash, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}
