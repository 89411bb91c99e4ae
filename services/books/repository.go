package main

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var ErrBookNotFound = errors.New("book not found")

type Repository interface {
	Init(ctx context.Context) error
	List(ctx context.Context) ([]*Book, error)
	Get(ctx context.Context, id int64) (*Book, error)
	ListByGenre(ctx context.Context, genre string) ([]*Book, error)
	Create(ctx context.Context, title, author, genre string) (*Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id int64) error
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

func (r *sqliteRepo) Init(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS books (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  title     TEXT    NOT NULL,
  author    TEXT    NOT NULL,
  genre     TEXT    NOT NULL,
  available BOOLEAN NOT NULL DEFAULT 1
);`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *sqliteRepo) List(ctx context.Context) ([]*Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,title,author,genre,available FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

func (r *sqliteRepo) Get(ctx context.Context, id int64) (*Book, error) {
	b := &Book{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id,title,author,genre,available FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *sqliteRepo) ListByGenre(ctx context.Context, genre string) ([]*Book, error) {
	qp := "%" + strings.ToLower(genre) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,title,author,genre,available FROM books
		 WHERE lower(genre) LIKE ? ORDER BY id`, qp)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

func (r *sqliteRepo) Create(ctx context.Context, title, author, genre string) (*Book, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO books(title,author,genre,available) VALUES(?,?,?,1)`,
		title, author, genre)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Book{ID: id, Title: title, Author: author, Genre: genre, Available: true}, nil
}

func (r *sqliteRepo) Update(ctx context.Context, b *Book) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET title=?, author=?, genre=?, available=? WHERE id=?`,
		b.Title, b.Author, b.Genre, b.Available, b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *sqliteRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

func scanBooks(rows *sql.Rows) ([]*Book, error) {
	defer rows.Close()
	out := make([]*Book, 0)
	for rows.Next() {
		b := &Book{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
