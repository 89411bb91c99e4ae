package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type BorrowServer struct {
	repo Repository
	pub  *EventPublisher
}

func NewBorrowServer(repo Repository, pub *EventPublisher) *BorrowServer {
	return &BorrowServer{repo: repo, pub: pub}
}

func (s *BorrowServer) Routes(e *echo.Echo) {
	e.GET("/", s.handleHello)
	e.POST("/borrowbook", s.handleBorrow)
	e.POST("/return", s.handleReturn)
	e.GET("/borrows", s.handleList)
	e.GET("/borrows/book/:book_id", s.handleListByBook)
	e.GET("/borrows/user/:username", s.handleListByUser)
}

func (s *BorrowServer) handleHello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Hello, Welcome to Borrow Service!"})
}

func (s *BorrowServer) handleBorrow(c echo.Context) error {
	var req borrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.BookID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and book_id are required")
	}

	b, err := s.repo.Create(c.Request().Context(), req.Username, req.BookID)
	if errors.Is(err, ErrAlreadyBorrowed) {
		return echo.NewHTTPError(http.StatusConflict, "Book is already borrowed")
	}
	if err != nil {
		return err
	}
	_ = s.pub.Publish("borrow.created", b)
	return c.JSON(http.StatusCreated, b)
}

func (s *BorrowServer) handleReturn(c echo.Context) error {
	var req borrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.BookID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and book_id are required")
	}

	b, err := s.repo.Return(c.Request().Context(), req.Username, req.BookID)
	if errors.Is(err, ErrNoActiveBorrow) {
		return echo.NewHTTPError(http.StatusNotFound, "No active borrow found for this user and book")
	}
	if err != nil {
		return err
	}
	_ = s.pub.Publish("borrow.returned", b)
	return c.JSON(http.StatusOK, b)
}

func (s *BorrowServer) handleList(c echo.Context) error {
	borrows, err := s.repo.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, borrows)
}

func (s *BorrowServer) handleListByBook(c echo.Context) error {
	bookID, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid book_id")
	}
	borrows, err := s.repo.ListByBook(c.Request().Context(), bookID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, borrows)
}

func (s *BorrowServer) handleListByUser(c echo.Context) error {
	username := c.Param("username")
	borrows, err := s.repo.ActiveByUser(c.Request().Context(), username)
	if err != nil {
		return err
	}
	if len(borrows) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No active borrows found for user: "+username)
	}
	return c.JSON(http.StatusOK, borrows)
}
