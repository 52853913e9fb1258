package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolblog/blogctl/internal/alerts"
	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/errors"
	"github.com/schoolblog/blogctl/internal/session"
	"github.com/schoolblog/blogctl/internal/token"
)

// fakePostsAPI implements PostsAPI with pluggable behavior
type fakePostsAPI struct {
	listFn   func(ctx context.Context) ([]api.Post, error)
	newsFn   func(ctx context.Context) ([]api.Post, error)
	getFn    func(ctx context.Context, id string) (*api.Post, error)
	createFn func(ctx context.Context, draft api.PostDraft) (*api.Post, error)
	updateFn func(ctx context.Context, id string, draft api.PostDraft) (*api.Post, error)
	deleteFn func(ctx context.Context, id string) error
	toggleFn func(ctx context.Context, id string) (*api.Post, error)
}

func (f *fakePostsAPI) ListPosts(ctx context.Context) ([]api.Post, error) { return f.listFn(ctx) }
func (f *fakePostsAPI) NewsPosts(ctx context.Context) ([]api.Post, error) { return f.newsFn(ctx) }
func (f *fakePostsAPI) GetPost(ctx context.Context, id string) (*api.Post, error) {
	return f.getFn(ctx, id)
}
func (f *fakePostsAPI) CreatePost(ctx context.Context, draft api.PostDraft) (*api.Post, error) {
	return f.createFn(ctx, draft)
}
func (f *fakePostsAPI) UpdatePost(ctx context.Context, id string, draft api.PostDraft) (*api.Post, error) {
	return f.updateFn(ctx, id, draft)
}
func (f *fakePostsAPI) DeletePost(ctx context.Context, id string) error { return f.deleteFn(ctx, id) }
func (f *fakePostsAPI) ToggleLike(ctx context.Context, id string) (*api.Post, error) {
	return f.toggleFn(ctx, id)
}

// fakeAuth implements Auth for tests that don't need the real manager
type fakeAuth struct {
	mu     sync.Mutex
	authed bool
	user   api.User
	forced bool
}

func (f *fakeAuth) RequireAuth() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authed {
		return errors.New(errors.KindUnauthorized, errors.CodeAuthRequired, "not logged in")
	}
	return nil
}

func (f *fakeAuth) ForceLogout() {
	f.mu.Lock()
	f.forced = true
	f.mu.Unlock()
}

func (f *fakeAuth) CurrentUser() (*api.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authed {
		return nil, false
	}
	u := f.user
	return &u, true
}

func (f *fakeAuth) wasForced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forced
}

func loggedIn() *fakeAuth {
	return &fakeAuth{authed: true, user: api.User{ID: "u1", Name: "Alice", Email: "a@x.com"}}
}

func TestPosts_ListReplacesCache(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", Title: "one"}, {ID: "p2", Title: "two"}}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())

	got, err := posts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, got, posts.Cached())

	// A second list replaces, not merges.
	backend.listFn = func(ctx context.Context) ([]api.Post, error) {
		return []api.Post{{ID: "p3", Title: "three"}}, nil
	}
	got, err = posts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts.Cached(), 1)
	assert.Equal(t, "p3", posts.Cached()[0].ID)
}

func TestPosts_ListCoalescesConcurrentCalls(t *testing.T) {
	var calls int
	var mu sync.Mutex
	release := make(chan struct{})
	entered := make(chan struct{}, 2)

	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			entered <- struct{}{}
			<-release
			return []api.Post{{ID: "p1"}}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())

	var wg sync.WaitGroup
	results := make([][]api.Post, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := posts.List(context.Background())
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	// Wait until the first request is in flight, give the second caller
	// a moment to join it, then release.
	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "concurrent lists must share one request")
	assert.Equal(t, results[0], results[1])
}

func TestPosts_CreateReconcilesTempID(t *testing.T) {
	var sawDraft api.PostDraft
	backend := &fakePostsAPI{
		createFn: func(ctx context.Context, draft api.PostDraft) (*api.Post, error) {
			sawDraft = draft
			return &api.Post{
				ID:       "p99",
				Title:    draft.Title,
				Summary:  draft.Summary,
				Content:  draft.Content,
				ImageURL: "/uploads/p99.png",
				AuthorID: "u1",
				LikedBy:  []string{},
			}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())

	created, err := posts.Create(context.Background(), api.PostDraft{Title: "Hello", Summary: "s", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "p99", created.ID)
	assert.Equal(t, "Hello", sawDraft.Title)

	// Exactly one entry, keyed by the server id; no local placeholder left.
	cached := posts.Cached()
	require.Len(t, cached, 1)
	assert.Equal(t, "p99", cached[0].ID)
	for _, p := range cached {
		assert.False(t, IsLocalID(p.ID), "local placeholder survived reconciliation")
	}
}

func TestPosts_CreateRollbackRestoresExactCache(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", Title: "existing", LikedBy: []string{"u2"}}}, nil
		},
		createFn: func(ctx context.Context, draft api.PostDraft) (*api.Post, error) {
			return nil, errors.New(errors.KindValidation, errors.CodeAPIValidation, "title is required")
		},
	}
	hub := alerts.NewHub()
	posts := NewPosts(backend, loggedIn(), hub)
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	before := posts.Cached()

	_, err = posts.Create(context.Background(), api.PostDraft{})
	require.Error(t, err)

	// Cache after rollback equals cache before the call, exactly.
	assert.Equal(t, before, posts.Cached())

	// Validation reason surfaced verbatim.
	active := hub.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "title is required", active[0].Message)
	assert.Equal(t, alerts.SeverityError, active[0].Severity)
}

// vanishedAuth admits the gate but has lost the user snapshot, the state
// a forced logout leaves behind when it lands between the two reads.
type vanishedAuth struct{}

func (vanishedAuth) RequireAuth() error             { return nil }
func (vanishedAuth) ForceLogout()                   {}
func (vanishedAuth) CurrentUser() (*api.User, bool) { return nil, false }

func TestPosts_CreateLogoutMidCallFailsCleanly(t *testing.T) {
	var called bool
	backend := &fakePostsAPI{
		createFn: func(ctx context.Context, draft api.PostDraft) (*api.Post, error) {
			called = true
			return &api.Post{ID: "p1"}, nil
		},
	}
	posts := NewPosts(backend, vanishedAuth{}, alerts.NewHub())

	_, err := posts.Create(context.Background(), api.PostDraft{Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.False(t, called)
	assert.Empty(t, posts.Cached())
}

func TestPosts_ToggleLikeLogoutMidCallFailsCleanly(t *testing.T) {
	var called bool
	backend := &fakePostsAPI{
		toggleFn: func(ctx context.Context, id string) (*api.Post, error) {
			called = true
			return &api.Post{ID: id}, nil
		},
	}
	posts := NewPosts(backend, vanishedAuth{}, alerts.NewHub())

	_, err := posts.ToggleLike(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.False(t, called)
}

func TestPosts_CreateRequiresAuth(t *testing.T) {
	var called bool
	backend := &fakePostsAPI{
		createFn: func(ctx context.Context, draft api.PostDraft) (*api.Post, error) {
			called = true
			return &api.Post{ID: "p1"}, nil
		},
	}
	posts := NewPosts(backend, &fakeAuth{}, alerts.NewHub())

	_, err := posts.Create(context.Background(), api.PostDraft{Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.False(t, called, "unauthenticated action must not reach the network")
}

func TestPosts_UpdateNotFoundPurges(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", Title: "old"}}, nil
		},
		updateFn: func(ctx context.Context, id string, draft api.PostDraft) (*api.Post, error) {
			return nil, errors.New(errors.KindNotFound, errors.CodeAPINotFound, "post not found")
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	_, err = posts.Update(context.Background(), "p1", api.PostDraft{Title: "new"})
	require.Error(t, err)

	// Deleted by another session: the entry is purged, not rolled back.
	assert.Empty(t, posts.Cached())
}

func TestPosts_UpdateStaleResponseDiscarded(t *testing.T) {
	releaseFirst := make(chan struct{})
	firstEntered := make(chan struct{})
	var callMu sync.Mutex
	calls := 0

	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", Title: "v0"}}, nil
		},
		updateFn: func(ctx context.Context, id string, draft api.PostDraft) (*api.Post, error) {
			callMu.Lock()
			calls++
			n := calls
			callMu.Unlock()
			if n == 1 {
				close(firstEntered)
				<-releaseFirst
			}
			return &api.Post{ID: id, Title: draft.Title}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	// First update's response is delayed; a second update lands in the
	// meantime and moves the entry to a newer revision.
	done := make(chan struct{})
	go func() {
		defer close(done)
		posts.Update(context.Background(), "p1", api.PostDraft{Title: "first"})
	}()
	<-firstEntered

	_, err = posts.Update(context.Background(), "p1", api.PostDraft{Title: "second"})
	require.NoError(t, err)

	close(releaseFirst)
	<-done

	// The late response predates the current revision and is dropped:
	// last observed state wins over last response arrived.
	cached := posts.Cached()
	require.Len(t, cached, 1)
	assert.Equal(t, "second", cached[0].Title)
}

func TestPosts_RemoveRollbackOnFailure(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", Title: "a"}, {ID: "p2", Title: "b"}}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return errors.New(errors.KindNetwork, errors.CodeAPIUnreachable, "backend unreachable")
		},
	}
	hub := alerts.NewHub()
	posts := NewPosts(backend, loggedIn(), hub)
	_, err := posts.List(context.Background())
	require.NoError(t, err)
	before := posts.Cached()

	require.Error(t, posts.Remove(context.Background(), "p1"))

	// Restored in place, original order intact.
	assert.Equal(t, before, posts.Cached())
	require.Len(t, hub.Active(), 1)
}

func TestPosts_RemoveInvalidatesComments(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1"}}, nil
		},
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	var invalidated string
	posts.OnRemoved(func(postID string) { invalidated = postID })

	require.NoError(t, posts.Remove(context.Background(), "p1"))
	assert.Equal(t, "p1", invalidated)
	assert.Empty(t, posts.Cached())
}

func TestPosts_ToggleLikeOptimisticAndIdempotent(t *testing.T) {
	// The fake backend keeps authoritative like state, as the server would.
	var srvMu sync.Mutex
	serverLikes := map[string]bool{}
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", LikedBy: []string{}}}, nil
		},
		toggleFn: func(ctx context.Context, id string) (*api.Post, error) {
			srvMu.Lock()
			defer srvMu.Unlock()
			serverLikes["u1"] = !serverLikes["u1"]
			liked := []string{}
			if serverLikes["u1"] {
				liked = append(liked, "u1")
			}
			return &api.Post{ID: id, LikedBy: liked}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	got, err := posts.ToggleLike(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.LikedBy)

	got, err = posts.ToggleLike(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, got.LikedBy)
}

func TestPosts_DoubleToggleNetsToInitialState(t *testing.T) {
	var srvMu sync.Mutex
	liked := false
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", LikedBy: []string{}}}, nil
		},
		toggleFn: func(ctx context.Context, id string) (*api.Post, error) {
			srvMu.Lock()
			defer srvMu.Unlock()
			// Simulate a slow server so the second toggle is issued
			// while the first is outstanding.
			time.Sleep(20 * time.Millisecond)
			liked = !liked
			members := []string{}
			if liked {
				members = append(members, "u1")
			}
			return &api.Post{ID: id, LikedBy: members}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	// Two rapid toggles, as from a double-click. They are serialized,
	// not raced, so the final state reflects the even toggle count.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := posts.ToggleLike(context.Background(), "p1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cached := posts.Cached()
	require.Len(t, cached, 1)
	assert.Empty(t, cached[0].LikedBy, "even number of toggles must net to no change")
}

// A 401 on a like toggle reverts the optimistic flip and escalates to the
// session manager, which records the error alert and drops the session.
func TestPosts_ToggleLikeUnauthorizedForcesLogout(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", LikedBy: []string{"u2"}}}, nil
		},
		toggleFn: func(ctx context.Context, id string) (*api.Post, error) {
			return nil, errors.New(errors.KindUnauthorized, errors.CodeAuthRejected, "token expired")
		},
	}

	// Real session manager so the escalation path is the production one.
	hub := alerts.NewHub()
	tokens := token.NewStoreAt(filepath.Join(t.TempDir(), "credentials.json"))
	mgr := session.NewManager(&staticAuthAPI{}, tokens, hub)
	require.NoError(t, mgr.Login(context.Background(), "a@x.com", "pw"))

	posts := NewPosts(backend, mgr, hub)
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	_, err = posts.ToggleLike(context.Background(), "p1")
	require.Error(t, err)

	// Pre-toggle like set restored.
	cached := posts.Cached()
	require.Len(t, cached, 1)
	assert.Equal(t, []string{"u2"}, cached[0].LikedBy)

	// Session dropped, error alert recorded.
	assert.Equal(t, session.StatusUnauthenticated, mgr.Current().Status)
	active := hub.Active()
	require.Len(t, active, 1)
	assert.Equal(t, alerts.SeverityError, active[0].Severity)
}

func TestPosts_ResetClearsCache(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1"}}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)

	posts.Reset()
	assert.Empty(t, posts.Cached())
}

func TestPosts_ResetDropsLikeGates(t *testing.T) {
	backend := &fakePostsAPI{
		listFn: func(ctx context.Context) ([]api.Post, error) {
			return []api.Post{{ID: "p1", LikedBy: []string{}}}, nil
		},
		toggleFn: func(ctx context.Context, id string) (*api.Post, error) {
			return &api.Post{ID: id, LikedBy: []string{"u1"}}, nil
		},
	}
	posts := NewPosts(backend, loggedIn(), alerts.NewHub())
	_, err := posts.List(context.Background())
	require.NoError(t, err)
	_, err = posts.ToggleLike(context.Background(), "p1")
	require.NoError(t, err)

	posts.gateMu.Lock()
	before := len(posts.gates)
	posts.gateMu.Unlock()
	require.NotZero(t, before)

	posts.Reset()

	posts.gateMu.Lock()
	defer posts.gateMu.Unlock()
	assert.Empty(t, posts.gates, "gates must not accumulate across sessions")
}

func TestToggleMembership(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		user string
		want []string
	}{
		{"adds when absent", []string{"u2"}, "u1", []string{"u2", "u1"}},
		{"removes when present", []string{"u1", "u2"}, "u1", []string{"u2"}},
		{"empty set gains member", []string{}, "u1", []string{"u1"}},
		{"deduplicates stray doubles", []string{"u1", "u1", "u2"}, "u1", []string{"u2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toggleMembership(tt.in, tt.user))
		})
	}
}

// staticAuthAPI is a minimal happy-path session.AuthAPI
type staticAuthAPI struct{}

func (staticAuthAPI) Login(ctx context.Context, email, password string) (string, error) {
	return "T1", nil
}

func (staticAuthAPI) Register(ctx context.Context, name, email, password string) (string, error) {
	return "T1", nil
}

func (staticAuthAPI) CurrentUser(ctx context.Context) (*api.User, error) {
	return &api.User{ID: "u1", Name: "Alice", Email: "a@x.com"}, nil
}
