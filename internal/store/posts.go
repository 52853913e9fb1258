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

// PostsAPI is the slice of the backend client the posts store depends on
type PostsAPI interface {
	ListPosts(ctx context.Context) ([]api.Post, error)
	NewsPosts(ctx context.Context) ([]api.Post, error)
	GetPost(ctx context.Context, id string) (*api.Post, error)
	CreatePost(ctx context.Context, draft api.PostDraft) (*api.Post, error)
	UpdatePost(ctx context.Context, id string, draft api.PostDraft) (*api.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (*api.Post, error)
}

// Auth is what the stores need from the session manager: the local gate
// for protected actions, the escalation path for rejected tokens, and
// the current user for optimistic authorship and like toggles.
type Auth interface {
	RequireAuth() error
	ForceLogout()
	CurrentUser() (*api.User, bool)
}

// requireUser gates a user-attributed action and snapshots the user in one
// step. A logout landing between the gate and the snapshot leaves the
// snapshot empty; that is the same unauthorized outcome, not a crash.
func requireUser(a Auth) (*api.User, error) {
	if err := a.RequireAuth(); err != nil {
		return nil, err
	}
	user, ok := a.CurrentUser()
	if !ok {
		return nil, errors.New(errors.KindUnauthorized, errors.CodeAuthRequired, "not logged in")
	}
	return user, nil
}

// Posts is the cached view of the posts collection
type Posts struct {
	backend PostsAPI
	auth    Auth
	alerts  *alerts.Hub
	log     *log.Logger
	cache   *cache[api.Post]
	flight  singleflight.Group

	// gates serialize like toggles per post so rapid double toggles
	// queue instead of racing
	gateMu sync.Mutex
	gates  map[string]*sync.Mutex

	onRemoved func(postID string)
}

// NewPosts creates an empty posts store
func NewPosts(backend PostsAPI, auth Auth, hub *alerts.Hub) *Posts {
	return &Posts{
		backend: backend,
		auth:    auth,
		alerts:  hub,
		log:     log.DefaultLogger().With("component", "posts"),
		cache:   newCache[api.Post](func(p api.Post) string { return p.ID }),
		gates:   make(map[string]*sync.Mutex),
	}
}

// OnRemoved registers a hook run after a post is confirmed deleted,
// used to invalidate the comments scoped to it.
func (p *Posts) OnRemoved(fn func(postID string)) {
	p.onRemoved = fn
}

// List replaces the cache with the server's collection.
// Concurrent calls coalesce into a single backend request whose result
// all callers share.
func (p *Posts) List(ctx context.Context) ([]api.Post, error) {
	v, err, _ := p.flight.Do("list", func() (any, error) {
		posts, err := p.backend.ListPosts(ctx)
		if err != nil {
			return nil, err
		}
		p.cache.ReplaceAll(posts)
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]api.Post), nil
}

// News fetches the news-feed subset and merges it into the cache
func (p *Posts) News(ctx context.Context) ([]api.Post, error) {
	v, err, _ := p.flight.Do("news", func() (any, error) {
		posts, err := p.backend.NewsPosts(ctx)
		if err != nil {
			return nil, err
		}
		p.cache.Merge(posts)
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]api.Post), nil
}

// Get returns a post, serving from cache when possible
func (p *Posts) Get(ctx context.Context, id string) (api.Post, error) {
	if post, ok := p.cache.Get(id); ok {
		return post, nil
	}

	post, err := p.backend.GetPost(ctx, id)
	if err != nil {
		return api.Post{}, err
	}
	p.cache.Merge([]api.Post{*post})
	return *post, nil
}

// Cached returns the current cache contents without touching the network
func (p *Posts) Cached() []api.Post {
	return p.cache.Snapshot()
}

// Create publishes a post optimistically: the cache gains a placeholder
// entry under a temporary local id immediately, replaced by the server's
// canonical copy (generated id, derived image URL) on success and removed
// on failure.
func (p *Posts) Create(ctx context.Context, draft api.PostDraft) (api.Post, error) {
	user, err := requireUser(p.auth)
	if err != nil {
		return api.Post{}, err
	}

	optimistic := api.Post{
		ID:        newLocalID(),
		Title:     draft.Title,
		Summary:   draft.Summary,
		Content:   draft.Content,
		AuthorID:  user.ID,
		LikedBy:   []string{},
		CreatedAt: time.Now(),
	}
	rev := p.cache.Put(optimistic)

	created, err := p.backend.CreatePost(ctx, draft)
	if err != nil {
		p.cache.Revert(optimistic.ID, rev, api.Post{}, false)
		p.report(err, "could not create post")
		return api.Post{}, err
	}

	if !p.cache.Commit(optimistic.ID, rev, *created) {
		p.log.Debug("dropping stale create reconciliation", "id", created.ID)
	}
	return *created, nil
}

// Update edits a post optimistically and reconciles with the server copy
func (p *Posts) Update(ctx context.Context, id string, draft api.PostDraft) (api.Post, error) {
	if err := p.auth.RequireAuth(); err != nil {
		return api.Post{}, err
	}

	prev, hadPrev := p.cache.Get(id)
	var rev uint64
	if hadPrev {
		optimistic := prev
		optimistic.Title = draft.Title
		optimistic.Summary = draft.Summary
		optimistic.Content = draft.Content
		rev = p.cache.Put(optimistic)
	}

	updated, err := p.backend.UpdatePost(ctx, id, draft)
	if err != nil {
		if errors.IsNotFound(err) {
			// Deleted by another session: nothing to roll back to.
			p.cache.Purge(id)
			p.alerts.Error("that post no longer exists")
			return api.Post{}, err
		}
		if hadPrev {
			p.cache.Revert(id, rev, prev, true)
		}
		p.report(err, "could not update post")
		return api.Post{}, err
	}

	if hadPrev && !p.cache.Commit(id, rev, *updated) {
		p.log.Debug("dropping stale update reconciliation", "id", id)
	} else if !hadPrev {
		p.cache.Merge([]api.Post{*updated})
	}
	return *updated, nil
}

// Remove deletes a post optimistically, restoring it in place on failure
func (p *Posts) Remove(ctx context.Context, id string) error {
	if err := p.auth.RequireAuth(); err != nil {
		return err
	}

	prev, idx, had := p.cache.Take(id)

	if err := p.backend.DeletePost(ctx, id); err != nil {
		if errors.IsNotFound(err) {
			// Already gone server-side; the optimistic removal stands.
			p.log.Debug("post already deleted", "id", id)
			return nil
		}
		if had {
			p.cache.Restore(prev, idx)
		}
		p.report(err, "could not delete post")
		return err
	}

	if p.onRemoved != nil {
		p.onRemoved(id)
	}
	return nil
}

// ToggleLike flips the current user's membership in the post's like set.
//
// Toggles on the same post are serialized: a second toggle issued before
// the first response returns waits its turn, so the final state reflects
// the parity of issued toggles rather than a race between responses.
func (p *Posts) ToggleLike(ctx context.Context, id string) (api.Post, error) {
	user, err := requireUser(p.auth)
	if err != nil {
		return api.Post{}, err
	}

	gate := p.gate(id)
	gate.Lock()
	defer gate.Unlock()

	prev, ok := p.cache.Get(id)
	if !ok {
		fetched, err := p.backend.GetPost(ctx, id)
		if err != nil {
			return api.Post{}, err
		}
		p.cache.Merge([]api.Post{*fetched})
		prev = *fetched
	}

	optimistic := prev
	optimistic.LikedBy = toggleMembership(prev.LikedBy, user.ID)
	rev := p.cache.Put(optimistic)

	canonical, err := p.backend.ToggleLike(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			p.cache.Purge(id)
			p.alerts.Error("that post no longer exists")
			return api.Post{}, err
		}
		p.cache.Revert(id, rev, prev, true)
		p.report(err, "could not update like")
		return api.Post{}, err
	}

	if !p.cache.Commit(id, rev, *canonical) {
		p.log.Debug("dropping stale like reconciliation", "id", id)
	}
	return *canonical, nil
}

// Reset drops the whole cache and the per-post like gates. Registered
// with the session manager so logout leaves no data scoped to the old
// session behind; no toggle can legitimately outlive a logout-reset.
func (p *Posts) Reset() {
	p.cache.Reset()
	p.gateMu.Lock()
	p.gates = make(map[string]*sync.Mutex)
	p.gateMu.Unlock()
}

// report surfaces a failure per the error taxonomy: rejected tokens
// escalate to a forced logout, everything else becomes a single alert
// describing the user-facing consequence.
func (p *Posts) report(err error, consequence string) {
	switch errors.KindOf(err) {
	case errors.KindUnauthorized:
		p.auth.ForceLogout()
	case errors.KindValidation:
		p.alerts.Error(errors.UserMessage(err))
	case errors.KindNetwork:
		p.alerts.Error(consequence + ": backend unreachable, try again")
	default:
		p.alerts.Error(consequence)
	}
	p.log.WithError(err).Debug(consequence)
}

func (p *Posts) gate(id string) *sync.Mutex {
	p.gateMu.Lock()
	defer p.gateMu.Unlock()
	if g, ok := p.gates[id]; ok {
		return g
	}
	g := &sync.Mutex{}
	p.gates[id] = g
	return g
}

// toggleMembership flips userID's membership in a like set, deduplicating
// along the way so the set invariant holds even on odd server data.
func toggleMembership(ids []string, userID string) []string {
	out := make([]string, 0, len(ids)+1)
	seen := make(map[string]bool, len(ids))
	found := false
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if id == userID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, userID)
	}
	return out
}
