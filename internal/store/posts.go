package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vboard/internal/models"
)

const postColumns = `id, title, description, image_url, user_id, tags, is_active, last_image_check, created_at, updated_at`

// PostFilter selects a page of the active feed.
type PostFilter struct {
	UserID       string
	CreatedAfter *time.Time
	Limit        int
	Offset       int
}

// PostUpdate holds the optional fields of a partial post update.
type PostUpdate struct {
	Title       *string
	Description *string
	ImageURL    *string
	Tags        *[]string
	UpdatedAt   time.Time
}

// CreatePost inserts a post. New posts start active and unchecked.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if post == nil {
		return fmt.Errorf("post is required")
	}
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return err
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (title, description, image_url, user_id, tags, is_active, last_image_check, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, NULL, ?, NULL)
	`,
		post.Title,
		nullIfEmpty(post.Description),
		post.ImageURL,
		post.UserID,
		tags,
		dbFormatTime(post.CreatedAt),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	post.ID = id
	post.IsActive = true
	post.LastImageCheck = nil
	post.UpdatedAt = nil
	post.CreatedAt = post.CreatedAt.UTC()
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return nil
}

// GetPost returns a post by id, or nil when it does not exist.
func (s *Store) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	return scanPost(row)
}

// ReplacePost overwrites the content fields of a post. Lifecycle fields are left alone.
func (s *Store) ReplacePost(ctx context.Context, post *models.Post) error {
	if post == nil {
		return fmt.Errorf("post is required")
	}
	tags := post.Tags
	return s.PatchPost(ctx, post.ID, PostUpdate{
		Title:       &post.Title,
		Description: &post.Description,
		ImageURL:    &post.ImageURL,
		Tags:        &tags,
		UpdatedAt:   derefTime(post.UpdatedAt),
	})
}

// PatchPost updates the provided content fields of a post.
func (s *Store) PatchPost(ctx context.Context, id int64, update PostUpdate) error {
	set := []string{}
	args := []any{}

	if update.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		set = append(set, "description = ?")
		args = append(args, nullIfEmpty(*update.Description))
	}
	if update.ImageURL != nil {
		set = append(set, "image_url = ?")
		args = append(args, *update.ImageURL)
	}
	if update.Tags != nil {
		tags, err := encodeTags(*update.Tags)
		if err != nil {
			return err
		}
		set = append(set, "tags = ?")
		args = append(args, tags)
	}

	updatedAt := update.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set = append(set, "updated_at = ?")
	args = append(args, dbFormatTime(updatedAt))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = ?", strings.Join(set, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListActivePosts returns one page of active posts, newest first, and the total match count.
func (s *Store) ListActivePosts(ctx context.Context, filter PostFilter) ([]models.Post, int, error) {
	where, args := buildPostFeedWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + postColumns + " FROM posts" + where + " ORDER BY created_at DESC, id DESC"
	pageArgs := append([]any{}, args...)
	if filter.Limit > 0 {
		query += " LIMIT ?"
		pageArgs = append(pageArgs, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			pageArgs = append(pageArgs, filter.Offset)
		}
	}

	posts, err := s.queryPosts(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func buildPostFeedWhere(filter PostFilter) (string, []any) {
	conditions := []string{"is_active = 1"}
	args := []any{}

	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, userID)
	}
	if filter.CreatedAfter != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, dbFormatTime(*filter.CreatedAfter))
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		if post != nil {
			posts = append(posts, *post)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func scanPost(scanner interface {
	Scan(dest ...any) error
}) (*models.Post, error) {
	var post models.Post
	var description, lastCheck, updatedAt sql.NullString
	var tags, createdAt string
	var isActive int

	if err := scanner.Scan(
		&post.ID,
		&post.Title,
		&description,
		&post.ImageURL,
		&post.UserID,
		&tags,
		&isActive,
		&lastCheck,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	post.Description = description.String
	post.IsActive = isActive != 0

	var err error
	if post.Tags, err = decodeTags(tags); err != nil {
		return nil, fmt.Errorf("post %d tags: %w", post.ID, err)
	}
	if post.CreatedAt, err = dbParseTime(createdAt); err != nil {
		return nil, err
	}
	if post.UpdatedAt, err = dbParseNullTime(updatedAt); err != nil {
		return nil, err
	}
	if post.LastImageCheck, err = dbParseNullTime(lastCheck); err != nil {
		return nil, err
	}
	return &post, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if strings.TrimSpace(raw) == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
