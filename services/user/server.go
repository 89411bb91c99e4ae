package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type UserServer struct {
	repo   Repository
	pub    *EventPublisher
	secret string
}

func NewUserServer(repo Repository, pub *EventPublisher, secret string) *UserServer {
	return &UserServer{repo: repo, pub: pub, secret: secret}
}

func (s *UserServer) Routes(e *echo.Echo) {
	e.GET("/", s.handleHello)
	e.POST("/register", s.handleRegister)
	e.POST("/login", s.handleLogin)
	e.GET("/users", s.handleList)
	e.GET("/users/:username", s.handleGet)
}

func (s *UserServer) handleHello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Hello, Welcome to User Service!"})
}

func (s *UserServer) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return echo.NewHTTPError(http.StatusBadRequest,
			"Username, password, first_name, and last_name are required to register")
	}

	ctx := c.Request().Context()
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := &User{
		Username:  req.Username,
		Password:  string(hash),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return echo.NewHTTPError(http.StatusBadRequest,
				"Username already exists. Please choose a different username.")
		}
		return err
	}
	_ = s.pub.Publish("user.registered", echo.Map{"username": u.Username})
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"data":    u,
	})
}

func (s *UserServer) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required to login")
	}

	// Same message for unknown usernames and bad passwords, so the endpoint
	// cannot be used to enumerate accounts.
	u, err := s.repo.GetByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := generateToken(u, s.secret)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   token,
		"user":    u,
	})
}

func (s *UserServer) handleList(c echo.Context) error {
	users, err := s.repo.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (s *UserServer) handleGet(c echo.Context) error {
	u, err := s.repo.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	if u == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, u)
}
