package api

import "context"

// ListChat retrieves the chat history, newest first
func (c *Client) ListChat(ctx context.Context) ([]ChatMessage, error) {
	resp, err := c.do(ctx, "GET", "/api/chat", nil)
	if err != nil {
		return nil, err
	}

	var messages []ChatMessage
	if err := c.parse(resp, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendChat posts a message to the community chat
func (c *Client) SendChat(ctx context.Context, content string) (*ChatMessage, error) {
	payload := map[string]string{"content": content}

	resp, err := c.do(ctx, "POST", "/api/chat", payload)
	if err != nil {
		return nil, err
	}

	var message ChatMessage
	if err := c.parse(resp, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
