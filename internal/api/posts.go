package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/schoolblog/blogctl/internal/errors"
)

// ListPosts retrieves all posts
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	resp, err := c.do(ctx, "GET", "/api/posts", nil)
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := c.parse(resp, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// NewsPosts retrieves the news feed subset of posts
func (c *Client) NewsPosts(ctx context.Context) ([]Post, error) {
	resp, err := c.do(ctx, "GET", "/api/posts/news", nil)
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := c.parse(resp, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost retrieves a single post by id
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	resp, err := c.do(ctx, "GET", fmt.Sprintf("/api/posts/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.parse(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a new post. The backend expects multipart form
// data so the optional image can ride along with the text fields.
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (*Post, error) {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRaw(ctx, "POST", "/api/posts", contentType, body)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.parse(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces the text fields of an existing post
func (c *Client) UpdatePost(ctx context.Context, id string, draft PostDraft) (*Post, error) {
	payload := map[string]string{
		"title":   draft.Title,
		"summary": draft.Summary,
		"content": draft.Content,
	}

	resp, err := c.do(ctx, "PUT", fmt.Sprintf("/api/posts/%s", id), payload)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.parse(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post
func (c *Client) DeletePost(ctx context.Context, id string) error {
	resp, err := c.do(ctx, "DELETE", fmt.Sprintf("/api/posts/%s", id), nil)
	if err != nil {
		return err
	}
	return c.parse(resp, nil)
}

// ToggleLike flips the current user's like on a post and returns the
// server's canonical copy.
func (c *Client) ToggleLike(ctx context.Context, id string) (*Post, error) {
	resp, err := c.do(ctx, "PUT", fmt.Sprintf("/api/posts/%s/like", id), nil)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.parse(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// encodeDraft builds the multipart body for post creation
func encodeDraft(draft PostDraft) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":   draft.Title,
		"summary": draft.Summary,
		"content": draft.Content,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot encode post fields", err)
		}
	}

	if draft.ImagePath != "" {
		f, err := os.Open(draft.ImagePath)
		if err != nil {
			return nil, "", errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot open image file", err)
		}
		defer f.Close()

		part, err := w.CreateFormFile("image", filepath.Base(draft.ImagePath))
		if err != nil {
			return nil, "", errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot encode image field", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot read image file", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot finish multipart body", err)
	}
	return &buf, w.FormDataContentType(), nil
}
