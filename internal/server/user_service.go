package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vboard/internal/api"
	"vboard/internal/auth"
	"vboard/internal/models"
	"vboard/internal/store"
)

var errInvalidCredentials = errors.New("invalid credentials")

const maxFullNameLength = 100

// UserService handles registration, login and profile lookups.
type UserService struct {
	store store.UserStore
}

// NewUserService constructs a UserService.
func NewUserService(st store.UserStore) *UserService {
	return &UserService{store: st}
}

// Register validates and stores a new account.
func (s *UserService) Register(ctx context.Context, req api.RegisterRequest, now time.Time) (api.UserResponse, error) {
	username, err := auth.NormalizeUsername(req.Username)
	if err != nil {
		return api.UserResponse{}, badRequestCode(err, ErrCodeInvalidUsername)
	}
	email, err := auth.ValidateEmail(req.Email)
	if err != nil {
		return api.UserResponse{}, badRequestCode(err, ErrCodeInvalidEmail)
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return api.UserResponse{}, badRequestCode(err, ErrCodeInvalidPassword)
	}
	fullName := valueOrEmpty(req.FullName)
	if len(fullName) > maxFullNameLength {
		return api.UserResponse{}, badRequest(fmt.Errorf("full_name must be at most %d characters", maxFullNameLength))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return api.UserResponse{}, internalError(err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		CreatedAt:    now.UTC(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			return api.UserResponse{}, conflictCode(err, ErrCodeUsernameTaken)
		case errors.Is(err, store.ErrEmailTaken):
			return api.UserResponse{}, conflictCode(err, ErrCodeEmailTaken)
		default:
			return api.UserResponse{}, storeFailure(err)
		}
	}
	return toUserResponse(user), nil
}

// Login verifies credentials against a username or email and stamps last_login.
func (s *UserService) Login(ctx context.Context, login, password string, now time.Time) (api.UserResponse, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return api.UserResponse{}, badRequestCode(fmt.Errorf("username_or_email and password are required"), ErrCodeMissingRequired)
	}

	user, err := s.store.GetUserByLogin(ctx, login)
	if err != nil {
		return api.UserResponse{}, storeFailure(err)
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, password) {
		return api.UserResponse{}, errInvalidCredentials
	}

	at := now.UTC()
	if err := s.store.TouchLastLogin(ctx, user.ID, at); err != nil {
		return api.UserResponse{}, storeFailure(err)
	}
	user.LastLogin = &at
	return toUserResponse(*user), nil
}

// Profile returns the public profile of username.
func (s *UserService) Profile(ctx context.Context, username string) (api.UserResponse, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return api.UserResponse{}, storeFailure(err)
	}
	if user == nil {
		return api.UserResponse{}, notFoundCode(fmt.Errorf("user not found"), ErrCodeUserNotFound)
	}
	return toUserResponse(*user), nil
}

// Available reports whether username can still be registered.
func (s *UserService) Available(ctx context.Context, username string) (api.UsernameCheckResponse, error) {
	resp := api.UsernameCheckResponse{Username: username}
	normalized, err := auth.NormalizeUsername(username)
	if err != nil {
		return resp, nil
	}
	exists, err := s.store.UsernameExists(ctx, normalized)
	if err != nil {
		return resp, storeFailure(err)
	}
	resp.Available = !exists
	return resp, nil
}

func toUserResponse(user models.User) api.UserResponse {
	var fullName *string
	if user.FullName != "" {
		value := user.FullName
		fullName = &value
	}
	return api.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  fullName,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}
