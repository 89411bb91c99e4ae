package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// BorrowClient asks the borrow service which books are currently lent out.
// Every method fails open: when the borrow service is unreachable, slow, or
// answers with anything but 200, books are reported as available. The caller
// never sees the degradation, it is only logged.
type BorrowClient struct {
	baseURL string
	http    *http.Client
}

func NewBorrowClient(baseURL string) *BorrowClient {
	return &BorrowClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 3 * time.Second},
	}
}

type borrowRecord struct {
	BookID   int64 `json:"book_id"`
	Returned bool  `json:"returned"`
}

// BookAvailable reports whether the book has no open borrow. A book with zero
// borrow records is available by definition.
func (c *BorrowClient) BookAvailable(ctx context.Context, bookID int64) bool {
	records, err := c.fetch(ctx, fmt.Sprintf("%s/borrows/book/%d", c.baseURL, bookID))
	if err != nil {
		log.Warn().Err(err).Int64("book_id", bookID).
			Msg("borrow service unavailable, assuming book is available")
		return true
	}
	for _, rec := range records {
		if !rec.Returned {
			return false
		}
	}
	return true
}

// OpenBookIDs returns the set of book ids with an open borrow. On failure it
// returns an empty set, so every book resolves as available.
func (c *BorrowClient) OpenBookIDs(ctx context.Context) map[int64]bool {
	open := make(map[int64]bool)
	records, err := c.fetch(ctx, c.baseURL+"/borrows")
	if err != nil {
		log.Warn().Err(err).
			Msg("borrow service unavailable, assuming all books are available")
		return open
	}
	for _, rec := range records {
		if !rec.Returned {
			open[rec.BookID] = true
		}
	}
	return open
}

func (c *BorrowClient) fetch(ctx context.Context, url string) ([]borrowRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("borrow service returned status %d", resp.StatusCode)
	}
	var records []borrowRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}
