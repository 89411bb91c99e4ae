package main

import "time"

// Borrow is one lending record. A book is out exactly while a row with
// Returned=false exists for it; returning flips the flag, rows are never
// deleted.
type Borrow struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	BookID     int64     `json:"book_id"`
	BorrowDate time.Time `json:"borrow_date"`
	Returned   bool      `json:"returned"`
}

type borrowRequest struct {
	Username string `json:"username"`
	BookID   int64  `json:"book_id"`
}
