package api

import "time"

// User is the immutable summary of the authenticated user,
// fetched once per session from the who-am-I endpoint.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Post is a published blog post as the server reports it.
// LikedBy is a set: the server never returns duplicate user ids.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	AuthorID  string    `json:"author_id"`
	LikedBy   []string  `json:"liked_by"`
	CreatedAt time.Time `json:"created_at"`
}

// PostDraft is the client-side payload for creating or updating a post.
// ImagePath points at a local file to upload; empty means no image.
type PostDraft struct {
	Title     string
	Summary   string
	Content   string
	ImagePath string
}

// Comment is a comment scoped to a single post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is a message in the community chat
type ChatMessage struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
