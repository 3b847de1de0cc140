package models

import "time"

// Post is one image post on the board.
type Post struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	ImageURL       string     `json:"image_url"`
	UserID         string     `json:"user_id"`
	Tags           []string   `json:"tags"`
	IsActive       bool       `json:"is_active"`
	LastImageCheck *time.Time `json:"last_image_check,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Activation returns the lifecycle pair currently stored on the post.
func (p Post) Activation() Activation {
	return Activation{IsActive: p.IsActive, CheckedAt: p.LastImageCheck}
}

// Author mirrors UserID for clients that display the creator.
func (p Post) Author() string {
	return p.UserID
}
