package main

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var (
	ErrAlreadyBorrowed = errors.New("book is already borrowed")
	ErrNoActiveBorrow  = errors.New("no active borrow found for this user and book")
)

type Repository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, username string, bookID int64) (*Borrow, error)
	Return(ctx context.Context, username string, bookID int64) (*Borrow, error)
	List(ctx context.Context) ([]*Borrow, error)
	ListByBook(ctx context.Context, bookID int64) ([]*Borrow, error)
	ActiveByUser(ctx context.Context, username string) ([]*Borrow, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

func (r *sqliteRepo) Init(ctx context.Context) error {
	// The partial unique index closes the check-then-insert race: two
	// concurrent borrows of the same book cannot both commit an open row.
	schema := `
CREATE TABLE IF NOT EXISTS borrows (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  username    TEXT    NOT NULL,
  book_id     INTEGER NOT NULL,
  borrow_date INTEGER NOT NULL,
  returned    BOOLEAN NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_borrows_open_book ON borrows(book_id) WHERE returned = 0;
`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *sqliteRepo) Create(ctx context.Context, username string, bookID int64) (*Borrow, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var open int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM borrows WHERE book_id=? AND returned=0`, bookID).Scan(&open); err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, ErrAlreadyBorrowed
	}

	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO borrows(username,book_id,borrow_date,returned) VALUES(?,?,?,0)`,
		username, bookID, now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyBorrowed
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyBorrowed
		}
		return nil, err
	}
	return &Borrow{ID: id, Username: username, BookID: bookID, BorrowDate: now}, nil
}

func (r *sqliteRepo) Return(ctx context.Context, username string, bookID int64) (*Borrow, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b := &Borrow{}
	var borrowedAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT id,username,book_id,borrow_date FROM borrows
		 WHERE username=? AND book_id=? AND returned=0`, username, bookID).
		Scan(&b.ID, &b.Username, &b.BookID, &borrowedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveBorrow
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE borrows SET returned=1 WHERE id=?`, b.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	b.BorrowDate = time.Unix(borrowedAt, 0).UTC()
	b.Returned = true
	return b, nil
}

func (r *sqliteRepo) List(ctx context.Context) ([]*Borrow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,username,book_id,borrow_date,returned FROM borrows ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanBorrows(rows)
}

func (r *sqliteRepo) ListByBook(ctx context.Context, bookID int64) ([]*Borrow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,username,book_id,borrow_date,returned FROM borrows WHERE book_id=? ORDER BY id`, bookID)
	if err != nil {
		return nil, err
	}
	return scanBorrows(rows)
}

func (r *sqliteRepo) ActiveByUser(ctx context.Context, username string) ([]*Borrow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,username,book_id,borrow_date,returned FROM borrows
		 WHERE username=? AND returned=0 ORDER BY id`, username)
	if err != nil {
		return nil, err
	}
	return scanBorrows(rows)
}

func scanBorrows(rows *sql.Rows) ([]*Borrow, error) {
	defer rows.Close()
	out := make([]*Borrow, 0)
	for rows.Next() {
		b := &Borrow{}
		var borrowedAt int64
		if err := rows.Scan(&b.ID, &b.Username, &b.BookID, &borrowedAt, &b.Returned); err != nil {
			return nil, err
		}
		b.BorrowDate = time.Unix(borrowedAt, 0).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
