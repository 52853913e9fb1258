// Package api wraps outbound requests to the Backend API.
//
// The client attaches the bearer token when the session has one, applies a
// local rate limit, and normalizes every failure into a coded error so that
// callers can tell "server said no" apart from "could not reach server".
// It never retries: retry policy belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/schoolblog/blogctl/internal/errors"
	"github.com/schoolblog/blogctl/internal/log"
)

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the Backend API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	log        *log.Logger
}

// NewClient creates a new Backend API client
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		log:     log.DefaultLogger().With("component", "api"),
	}
}

// WithTimeout sets the per-request timeout
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithLogger sets the logger used for request tracing
func (c *Client) WithLogger(logger *log.Logger) *Client {
	c.log = logger
	return c
}

// errorResponse is the error body shape the backend returns on non-2xx
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs a JSON request against the backend
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}
	return c.doRaw(ctx, method, path, "application/json", reqBody)
}

// doRaw performs a request with an arbitrary content type.
// Used directly for multipart uploads.
func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "request aborted", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(errors.KindUnknown, errors.CodeAPIRequest, "cannot create request", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	c.log.Debug("request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, DNS failures and refused connections all land here.
		return nil, errors.Wrap(errors.KindNetwork, errors.CodeAPIUnreachable, "backend unreachable", err)
	}
	return resp, nil
}

// parse decodes a response into target, mapping non-2xx statuses
// to typed errors. A nil target discards the body.
func (c *Client) parse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return errors.Wrap(errors.KindUnknown, errors.CodeAPIDecode, "cannot decode response", err)
		}
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy.
// The server-provided message is kept verbatim so validation failures
// can be surfaced to the user unchanged.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	message := ""
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			message = errResp.Error
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if message == "" {
			message = "token rejected"
		}
		return errors.New(errors.KindUnauthorized, errors.CodeAuthRejected, message)
	case http.StatusNotFound:
		if message == "" {
			message = "not found"
		}
		return errors.New(errors.KindNotFound, errors.CodeAPINotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "invalid request"
		}
		return errors.New(errors.KindValidation, errors.CodeAPIValidation, message)
	default:
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return errors.New(errors.KindUnknown, errors.CodeAPIStatus, message)
	}
}
