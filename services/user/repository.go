package main

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var ErrUserExists = errors.New("username already exists")

type Repository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

func (r *sqliteRepo) Init(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
  username   TEXT PRIMARY KEY,
  password   TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name  TEXT NOT NULL,
  created_at INTEGER NOT NULL
);`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *sqliteRepo) Create(ctx context.Context, u *User) error {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(username,password,first_name,last_name,created_at)
		 VALUES(?,?,?,?,?)`,
		u.Username, u.Password, u.FirstName, u.LastName, u.CreatedAt.Unix())
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrUserExists
	}
	return err
}

// GetByUsername returns (nil, nil) when no such user exists.
func (r *sqliteRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT username,password,first_name,last_name,created_at FROM users WHERE username=?`, username)
	u := &User{}
	var createdAt int64
	if err := row.Scan(&u.Username, &u.Password, &u.FirstName, &u.LastName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

func (r *sqliteRepo) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username,password,first_name,last_name,created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*User, 0)
	for rows.Next() {
		u := &User{}
		var createdAt int64
		if err := rows.Scan(&u.Username, &u.Password, &u.FirstName, &u.LastName, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}
