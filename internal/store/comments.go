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

// CommentsAPI is the slice of the backend client the comments store uses
type CommentsAPI interface {
	ListComments(ctx context.Context, postID string) ([]api.Comment, error)
	AddComment(ctx context.Context, postID, content string) (*api.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// Comments caches comments per post. Comments are never orphaned from a
// displayed post: when a post is deleted its comment subset is
// invalidated wholesale.
type Comments struct {
	backend CommentsAPI
	auth    Auth
	alerts  *alerts.Hub
	log     *log.Logger
	flight  singleflight.Group

	mu     sync.Mutex
	byPost map[string]*cache[api.Comment]
}

// NewComments creates an empty comments store
func NewComments(backend CommentsAPI, auth Auth, hub *alerts.Hub) *Comments {
	return &Comments{
		backend: backend,
		auth:    auth,
		alerts:  hub,
		log:     log.DefaultLogger().With("component", "comments"),
		byPost:  make(map[string]*cache[api.Comment]),
	}
}

// List replaces the cached comments for one post with the server's
// collection. Concurrent calls for the same post share one request.
func (c *Comments) List(ctx context.Context, postID string) ([]api.Comment, error) {
	v, err, _ := c.flight.Do("list:"+postID, func() (any, error) {
		comments, err := c.backend.ListComments(ctx, postID)
		if err != nil {
			return nil, err
		}
		c.cacheFor(postID).ReplaceAll(comments)
		return comments, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]api.Comment), nil
}

// Cached returns the cached comments for a post
func (c *Comments) Cached(postID string) []api.Comment {
	return c.cacheFor(postID).Snapshot()
}

// Add posts a comment optimistically
func (c *Comments) Add(ctx context.Context, postID, content string) (api.Comment, error) {
	user, err := requireUser(c.auth)
	if err != nil {
		return api.Comment{}, err
	}

	cache := c.cacheFor(postID)
	optimistic := api.Comment{
		ID:        newLocalID(),
		PostID:    postID,
		AuthorID:  user.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	rev := cache.Put(optimistic)

	created, err := c.backend.AddComment(ctx, postID, content)
	if err != nil {
		cache.Revert(optimistic.ID, rev, api.Comment{}, false)
		if errors.IsNotFound(err) {
			// The post itself is gone; its comments go with it.
			c.InvalidatePost(postID)
			c.alerts.Error("that post no longer exists")
			return api.Comment{}, err
		}
		c.report(err, "could not add comment")
		return api.Comment{}, err
	}

	if !cache.Commit(optimistic.ID, rev, *created) {
		c.log.Debug("dropping stale comment reconciliation", "post", postID)
	}
	return *created, nil
}

// Remove deletes a comment optimistically
func (c *Comments) Remove(ctx context.Context, postID, commentID string) error {
	if err := c.auth.RequireAuth(); err != nil {
		return err
	}

	cache := c.cacheFor(postID)
	prev, idx, had := cache.Take(commentID)

	if err := c.backend.DeleteComment(ctx, commentID); err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		if had {
			cache.Restore(prev, idx)
		}
		c.report(err, "could not delete comment")
		return err
	}
	return nil
}

// InvalidatePost drops every cached comment scoped to a deleted post
func (c *Comments) InvalidatePost(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byPost, postID)
}

// Reset drops all cached comments
func (c *Comments) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byPost = make(map[string]*cache[api.Comment])
}

func (c *Comments) report(err error, consequence string) {
	switch errors.KindOf(err) {
	case errors.KindUnauthorized:
		c.auth.ForceLogout()
	case errors.KindValidation:
		c.alerts.Error(errors.UserMessage(err))
	case errors.KindNetwork:
		c.alerts.Error(consequence + ": backend unreachable, try again")
	default:
		c.alerts.Error(consequence)
	}
	c.log.WithError(err).Debug(consequence)
}

func (c *Comments) cacheFor(postID string) *cache[api.Comment] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cc, ok := c.byPost[postID]; ok {
		return cc
	}
	cc := newCache[api.Comment](func(cm api.Comment) string { return cm.ID })
	c.byPost[postID] = cc
	return cc
}
