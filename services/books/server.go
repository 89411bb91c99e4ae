package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type BooksServer struct {
	repo    Repository
	borrows *BorrowClient
	pub     *EventPublisher
}

func NewBooksServer(repo Repository, borrows *BorrowClient, pub *EventPublisher) *BooksServer {
	return &BooksServer{repo: repo, borrows: borrows, pub: pub}
}

func (s *BooksServer) Routes(e *echo.Echo) {
	e.GET("/", s.handleHello)
	e.GET("/books", s.handleList)
	e.GET("/books/:key", s.handleGetOrGenre)
	e.POST("/books", s.handleCreate)
	e.PUT("/books/:id", s.handleUpdate)
	e.DELETE("/books/:id", s.handleDelete)
}

func (s *BooksServer) handleHello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Hello, Welcome to my little library!"})
}

func (s *BooksServer) handleList(c echo.Context) error {
	ctx := c.Request().Context()
	books, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	open := s.borrows.OpenBookIDs(ctx)
	for _, b := range books {
		b.Available = !open[b.ID]
	}
	return c.JSON(http.StatusOK, books)
}

// A numeric key looks up one book, anything else filters by genre. Both live
// on the same path segment, matching the contract.
func (s *BooksServer) handleGetOrGenre(c echo.Context) error {
	ctx := c.Request().Context()
	key := c.Param("key")

	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		b, err := s.repo.Get(ctx, id)
		if errors.Is(err, ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Book not found")
		}
		if err != nil {
			return err
		}
		b.Available = s.borrows.BookAvailable(ctx, id)
		return c.JSON(http.StatusOK, b)
	}

	books, err := s.repo.ListByGenre(ctx, key)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No books found in this genre")
	}
	open := s.borrows.OpenBookIDs(ctx)
	for _, b := range books {
		b.Available = !open[b.ID]
	}
	return c.JSON(http.StatusOK, books)
}

func (s *BooksServer) handleCreate(c echo.Context) error {
	var req createBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Title == "" || req.Author == "" || req.Genre == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title, author and genre are required")
	}

	b, err := s.repo.Create(c.Request().Context(), req.Title, req.Author, req.Genre)
	if err != nil {
		return err
	}
	_ = s.pub.Publish("book.created", b)
	return c.JSON(http.StatusCreated, b)
}

func (s *BooksServer) handleUpdate(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Book not found")
	}
	var req updateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	ctx := c.Request().Context()
	b, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrBookNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Book not found")
	}
	if err != nil {
		return err
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.Genre != nil {
		b.Genre = *req.Genre
	}
	if req.Available != nil {
		b.Available = *req.Available
	}
	if err := s.repo.Update(ctx, b); err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Book not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *BooksServer) handleDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Book not found")
	}
	if err := s.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Book not found")
		}
		return err
	}
	_ = s.pub.Publish("book.deleted", echo.Map{"id": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "Book deleted"})
}
