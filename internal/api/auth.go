package api

import "context"

// registerRequest is the payload for the registration endpoint
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the payload for the login endpoint
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse carries the bearer token issued on login and register
type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates a new account. The server issues a usable token
// right away, so registration doubles as a login.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	resp, err := c.do(ctx, "POST", "/api/auth/register", registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	var tok tokenResponse
	if err := c.parse(resp, &tok); err != nil {
		return "", err
	}
	return tok.Token, nil
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.do(ctx, "POST", "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	var tok tokenResponse
	if err := c.parse(resp, &tok); err != nil {
		return "", err
	}
	return tok.Token, nil
}

// CurrentUser resolves the bearer token to the user it belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, "GET", "/api/auth/user", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := c.parse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
