package imagehealth

import "errors"

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrForbidden        = errors.New("not authorized to reactivate this post")
	ErrInvalidReference = errors.New("new image url is not accessible")
)
