package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// borrowServiceStub stands in for the borrow service. Records can be swapped
// between requests, and failing=true makes it answer 500 to exercise the
// fail-open path.
type borrowServiceStub struct {
	mu      sync.Mutex
	records []borrowRecord
	failing bool
}

func (s *borrowServiceStub) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	out := s.records
	if strings.HasPrefix(r.URL.Path, "/borrows/book/") {
		var bookID int64
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/borrows/book/"), "%d", &bookID)
		out = nil
		for _, rec := range s.records {
			if rec.BookID == bookID {
				out = append(out, rec)
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if out == nil {
		out = []borrowRecord{}
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (s *borrowServiceStub) set(records []borrowRecord, failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.failing = failing
}

func newTestServer(t *testing.T) (*echo.Echo, *borrowServiceStub) {
	t.Helper()
	stub := &borrowServiceStub{}
	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)

	e := echo.New()
	NewBooksServer(newTestRepo(t), NewBorrowClient(srv.URL), &EventPublisher{}).Routes(e)
	return e, stub
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createBook(t *testing.T, e *echo.Echo, title, author, genre string) Book {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/books",
		fmt.Sprintf(`{"title":%q,"author":%q,"genre":%q}`, title, author, genre))
	require.Equal(t, http.StatusCreated, rec.Code)
	var b Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestCreateBook(t *testing.T) {
	e, _ := newTestServer(t)

	b := createBook(t, e, "1984", "George Orwell", "Dystopian")
	assert.True(t, b.Available)

	rec := doJSON(e, http.MethodPost, "/books", `{"title":"No Author"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookDerivesAvailability(t *testing.T) {
	e, stub := newTestServer(t)
	b := createBook(t, e, "1984", "George Orwell", "Dystopian")

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/books/%d", b.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Available)

	// An open borrow flips the projection.
	stub.set([]borrowRecord{{BookID: b.ID, Returned: false}}, false)
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/books/%d", b.ID), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Available)

	// Returned: available again.
	stub.set([]borrowRecord{{BookID: b.ID, Returned: true}}, false)
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/books/%d", b.ID), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Available)
}

func TestAvailabilityFailsOpen(t *testing.T) {
	e, stub := newTestServer(t)
	b := createBook(t, e, "1984", "George Orwell", "Dystopian")

	stub.set(nil, true)

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/books/%d", b.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Available)

	rec = doJSON(e, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.True(t, all[0].Available)
}

func TestListBooksAvailability(t *testing.T) {
	e, stub := newTestServer(t)
	b1 := createBook(t, e, "1984", "George Orwell", "Dystopian")
	b2 := createBook(t, e, "The Hobbit", "J.R.R. Tolkien", "Fantasy")

	stub.set([]borrowRecord{{BookID: b1.ID, Returned: false}}, false)

	rec := doJSON(e, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)
	byID := map[int64]Book{all[0].ID: all[0], all[1].ID: all[1]}
	assert.False(t, byID[b1.ID].Available)
	assert.True(t, byID[b2.ID].Available)
}

func TestGetBookNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/books/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book not found")
}

func TestGetBooksByGenre(t *testing.T) {
	e, _ := newTestServer(t)
	createBook(t, e, "1984", "George Orwell", "Dystopian")
	createBook(t, e, "Fahrenheit 451", "Ray Bradbury", "Dystopian")
	createBook(t, e, "The Hobbit", "J.R.R. Tolkien", "Fantasy")

	rec := doJSON(e, http.MethodGet, "/books/dystopian", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var books []Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	assert.Len(t, books, 2)

	rec = doJSON(e, http.MethodGet, "/books/romance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No books found in this genre")
}

func TestUpdateBookPartial(t *testing.T) {
	e, _ := newTestServer(t)
	b := createBook(t, e, "1984", "George Orwell", "Dystopian")

	rec := doJSON(e, http.MethodPut, fmt.Sprintf("/books/%d", b.ID), `{"available":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Available)
	// Untouched fields survive.
	assert.Equal(t, "1984", got.Title)
	assert.Equal(t, "George Orwell", got.Author)
	assert.Equal(t, "Dystopian", got.Genre)

	rec = doJSON(e, http.MethodPut, fmt.Sprintf("/books/%d", b.ID), `{"genre":"Classic"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Classic", got.Genre)
	assert.False(t, got.Available)

	rec = doJSON(e, http.MethodPut, "/books/999", `{"available":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBook(t *testing.T) {
	e, _ := newTestServer(t)
	b := createBook(t, e, "1984", "George Orwell", "Dystopian")

	rec := doJSON(e, http.MethodDelete, fmt.Sprintf("/books/%d", b.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book deleted")

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/books/%d", b.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
