package models

// DiscoverSourceUnsplash tags items fetched from the Unsplash API.
const DiscoverSourceUnsplash = "unsplash"

// DiscoverItem is one photo suggested by the discovery feed.
type DiscoverItem struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	ImageURL  string `json:"image_url"`
	Author    string `json:"author"`
	AuthorURL string `json:"author_url"`
	Likes     int    `json:"likes"`
	Source    string `json:"source"`
}
