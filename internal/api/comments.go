package api

import (
	"context"
	"fmt"
)

// ListComments retrieves all comments for a post
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	resp, err := c.do(ctx, "GET", fmt.Sprintf("/api/comments/%s", postID), nil)
	if err != nil {
		return nil, err
	}

	var comments []Comment
	if err := c.parse(resp, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a new comment on a post
func (c *Client) AddComment(ctx context.Context, postID, content string) (*Comment, error) {
	payload := map[string]string{"content": content}

	resp, err := c.do(ctx, "POST", fmt.Sprintf("/api/comments/%s", postID), payload)
	if err != nil {
		return nil, err
	}

	var comment Comment
	if err := c.parse(resp, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment by its own id
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	resp, err := c.do(ctx, "DELETE", fmt.Sprintf("/api/comments/%s", id), nil)
	if err != nil {
		return err
	}
	return c.parse(resp, nil)
}
