package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/schoolblog/blogctl/internal/alerts"
	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/errors"
	"github.com/schoolblog/blogctl/internal/log"
)

// ChatAPI is the slice of the backend client the chat store uses
type ChatAPI interface {
	ListChat(ctx context.Context) ([]api.ChatMessage, error)
	SendChat(ctx context.Context, content string) (*api.ChatMessage, error)
}

// Chat caches the community chat history, newest first, the order the
// server returns it in.
type Chat struct {
	backend ChatAPI
	auth    Auth
	alerts  *alerts.Hub
	log     *log.Logger
	flight  singleflight.Group

	mu       sync.Mutex
	messages []api.ChatMessage
}

// NewChat creates an empty chat store
func NewChat(backend ChatAPI, auth Auth, hub *alerts.Hub) *Chat {
	return &Chat{
		backend: backend,
		auth:    auth,
		alerts:  hub,
		log:     log.DefaultLogger().With("component", "chat"),
	}
}

// List replaces the cached history with the server's.
// Concurrent calls share one request.
func (c *Chat) List(ctx context.Context) ([]api.ChatMessage, error) {
	v, err, _ := c.flight.Do("list", func() (any, error) {
		messages, err := c.backend.ListChat(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.messages = messages
		c.mu.Unlock()
		return messages, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]api.ChatMessage), nil
}

// Cached returns the cached history
func (c *Chat) Cached() []api.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send posts a message optimistically: it appears at the head of the
// history immediately, is replaced by the server's copy on success, and
// disappears again on failure.
func (c *Chat) Send(ctx context.Context, content string) (api.ChatMessage, error) {
	user, err := requireUser(c.auth)
	if err != nil {
		return api.ChatMessage{}, err
	}

	optimistic := api.ChatMessage{
		ID:         newLocalID(),
		AuthorID:   user.ID,
		AuthorName: user.Name,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	c.mu.Lock()
	c.messages = append([]api.ChatMessage{optimistic}, c.messages...)
	c.mu.Unlock()

	sent, err := c.backend.SendChat(ctx, content)
	if err != nil {
		c.drop(optimistic.ID)
		switch errors.KindOf(err) {
		case errors.KindUnauthorized:
			c.auth.ForceLogout()
		case errors.KindValidation:
			c.alerts.Error(errors.UserMessage(err))
		case errors.KindNetwork:
			c.alerts.Error("could not send message: backend unreachable, try again")
		default:
			c.alerts.Error("could not send message")
		}
		c.log.WithError(err).Debug("chat send failed")
		return api.ChatMessage{}, err
	}

	c.replace(optimistic.ID, *sent)
	return *sent, nil
}

// Reset drops the cached history
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

func (c *Chat) drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

func (c *Chat) replace(id string, canonical api.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.messages {
		if m.ID == id {
			c.messages[i] = canonical
			return
		}
	}
	// The optimistic entry vanished (logout reset); keep the cache as-is.
}
