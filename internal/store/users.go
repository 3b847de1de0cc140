package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vboard/internal/models"
)

var (
	ErrUsernameTaken = errors.New("username already registered")
	ErrEmailTaken    = errors.New("email already registered")
)

const userColumns = `id, username, email, full_name, password_hash, created_at, last_login`

// CreateUser inserts a user account.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(user.PasswordHash) == "" {
		return fmt.Errorf("password hash is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, full_name, password_hash, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, NULL)
	`, user.Username, user.Email, nullIfEmpty(user.FullName), user.PasswordHash, dbFormatTime(user.CreatedAt))
	if err != nil {
		return mapUserConstraintErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUserByUsername returns a user by exact username, or nil.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username)
	return scanUser(row)
}

// GetUserByLogin resolves a login name that may be either a username or an email.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE username = ? OR email = ?
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		LIMIT 1
	`, login, strings.ToLower(login), login)
	return scanUser(row)
}

// UsernameExists reports whether the username is registered.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", strings.TrimSpace(username)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", dbFormatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanUser(scanner interface {
	Scan(dest ...any) error
}) (*models.User, error) {
	var user models.User
	var fullName, lastLogin sql.NullString
	var createdAt string

	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&fullName,
		&user.PasswordHash,
		&createdAt,
		&lastLogin,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	user.FullName = fullName.String
	var err error
	if user.CreatedAt, err = dbParseTime(createdAt); err != nil {
		return nil, err
	}
	if user.LastLogin, err = dbParseNullTime(lastLogin); err != nil {
		return nil, err
	}
	return &user, nil
}

func mapUserConstraintErr(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrUsernameTaken
	case strings.Contains(msg, "users.email"):
		return ErrEmailTaken
	}
	return err
}
