package api

import "time"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Health  string `json:"health" yaml:"health"`
	Metrics string `json:"metrics" yaml:"metrics"`
}

// HealthServices reports per-dependency availability.
type HealthServices struct {
	API      bool `json:"api" yaml:"api"`
	Database bool `json:"database" yaml:"database"`
	Unsplash bool `json:"unsplash" yaml:"unsplash"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string         `json:"status" yaml:"status"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Services  HealthServices `json:"services" yaml:"services"`
}

// PostCreateRequest is the body of POST and PUT /api/posts.
type PostCreateRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags,omitempty"`
}

// PostPatchRequest is the body of PATCH /api/posts/{id}. Nil fields are left as they are.
type PostPatchRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// PostResponse is the wire form of a post.
type PostResponse struct {
	ID             int64      `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Description    *string    `json:"description" yaml:"description"`
	ImageURL       string     `json:"image_url" yaml:"image_url"`
	Tags           []string   `json:"tags" yaml:"tags"`
	UserID         string     `json:"user_id" yaml:"user_id"`
	Author         string     `json:"author" yaml:"author"`
	IsActive       bool       `json:"is_active" yaml:"is_active"`
	LastImageCheck *time.Time `json:"last_image_check" yaml:"last_image_check"`
	CreatedAt      time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at" yaml:"updated_at"`
}

// PostListResponse is a page of the active post feed.
type PostListResponse struct {
	Items      []PostResponse `json:"items" yaml:"items"`
	Total      int            `json:"total" yaml:"total"`
	Page       int            `json:"page" yaml:"page"`
	PerPage    int            `json:"per_page" yaml:"per_page"`
	TotalPages int            `json:"total_pages" yaml:"total_pages"`
}

// RegisterRequest is the body of POST /api/users/register.
type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
	Password string  `json:"password"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64      `json:"id" yaml:"id"`
	Username  string     `json:"username" yaml:"username"`
	Email     string     `json:"email" yaml:"email"`
	FullName  *string    `json:"full_name" yaml:"full_name"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	LastLogin *time.Time `json:"last_login" yaml:"last_login"`
}

// UsernameCheckResponse is returned by GET /api/users/check/{username}.
type UsernameCheckResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// UploadResponse describes a stored upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ImageCheckAckResponse acknowledges a scheduled verification batch.
type ImageCheckAckResponse struct {
	Message string `json:"message" yaml:"message"`
	Scope   string `json:"scope" yaml:"scope"`
}

// ImageHealthStatusResponse is the health snapshot of the post collection.
type ImageHealthStatusResponse struct {
	TotalPosts       int     `json:"total_posts" yaml:"total_posts"`
	ActivePosts      int     `json:"active_posts" yaml:"active_posts"`
	InactivePosts    int     `json:"inactive_posts" yaml:"inactive_posts"`
	UncheckedPosts   int     `json:"unchecked_posts" yaml:"unchecked_posts"`
	HealthPercentage float64 `json:"health_percentage" yaml:"health_percentage"`
}

// SingleCheckResponse is the verdict of a one-post verification.
type SingleCheckResponse struct {
	PostID       int64  `json:"post_id" yaml:"post_id"`
	ImageURL     string `json:"image_url" yaml:"image_url"`
	IsAccessible bool   `json:"is_accessible" yaml:"is_accessible"`
	IsActive     bool   `json:"is_active" yaml:"is_active"`
}

// ReactivateRequest is the optional JSON body of POST /api/image-health/reactivate/{id}.
type ReactivateRequest struct {
	NewImageURL *string `json:"new_image_url,omitempty"`
}

// ReactivateResponse confirms a reactivated post.
type ReactivateResponse struct {
	PostID   int64  `json:"post_id" yaml:"post_id"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
	ImageURL string `json:"image_url" yaml:"image_url"`
	Message  string `json:"message" yaml:"message"`
}
