package session

import (
	"context"
	"sync"

	"github.com/schoolblog/blogctl/internal/alerts"
	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/errors"
	"github.com/schoolblog/blogctl/internal/log"
	"github.com/schoolblog/blogctl/internal/token"
)

// AuthAPI is the slice of the backend client the manager depends on
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Manager owns the Session and drives its state machine.
//
// At most one of LoadSession/Login/Register runs at a time; an overlapping
// call fails fast with a busy error instead of racing two writers. Logout
// is allowed from any state: it bumps an epoch counter, and an in-flight
// auth operation that completes afterwards finds its epoch stale and
// discards its result.
type Manager struct {
	mu        sync.Mutex
	sess      Session
	epoch     uint64
	inflight  bool
	resetters []func()

	backend AuthAPI
	tokens  *token.Store
	alerts  *alerts.Hub
	log     *log.Logger
}

// NewManager creates a manager in the Uninitialized state
func NewManager(backend AuthAPI, tokens *token.Store, hub *alerts.Hub) *Manager {
	return &Manager{
		sess:    Session{Status: StatusUninitialized},
		backend: backend,
		tokens:  tokens,
		alerts:  hub,
		log:     log.DefaultLogger().With("component", "session"),
	}
}

// OnReset registers a hook run on logout, used by the entity stores to
// drop caches that may hold data scoped to the old session.
func (m *Manager) OnReset(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetters = append(m.resetters, fn)
}

// Current returns a snapshot of the session
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Token implements api.TokenSource. The token is exposed while
// Authenticated and while Loading, so the who-am-I call that validates a
// stored token can carry it.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Token
}

// CurrentUser returns the authenticated user, if any
func (m *Manager) CurrentUser() (*api.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.Status != StatusAuthenticated || m.sess.User == nil {
		return nil, false
	}
	return m.sess.User, true
}

// RequireAuth gates protected actions locally: when the session is not
// Authenticated it fails without a network call.
func (m *Manager) RequireAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.Status != StatusAuthenticated {
		return errors.New(errors.KindUnauthorized, errors.CodeAuthRequired, "not logged in")
	}
	return nil
}

// LoadSession validates the stored token against the who-am-I endpoint.
//
// No stored token means Unauthenticated and is not an error. Any rejection
// of the token (expired, invalid, network failure) clears the token store
// and rests at Unauthenticated; a failed load is terminal for that token
// and is never retried automatically.
func (m *Manager) LoadSession(ctx context.Context) error {
	epoch, err := m.begin()
	if err != nil {
		return err
	}
	defer m.finish()

	creds, err := m.tokens.Load()
	if err != nil {
		m.rest(epoch)
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	m.adopt(epoch, creds.Token)
	m.log.Debug("validating stored token")

	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		// The token is gone either way: a rejected credential must not
		// linger on disk where it would fail again on every start.
		if clearErr := m.tokens.Clear(); clearErr != nil {
			m.log.WithError(clearErr).Warn("could not clear rejected token")
		}
		m.rest(epoch)
		m.log.WithError(err).Debug("stored session rejected")
		return errors.Wrap(errors.KindOf(err), errors.CodeAuthLoadFailed, "session expired, please log in again", err)
	}

	m.commit(epoch, creds.Token, user)
	m.log.Info("session restored", "user", user.Email)
	return nil
}

// Login exchanges credentials for a token and authenticates the session.
// On failure nothing is persisted, the session rests at Unauthenticated,
// and the server-provided reason is surfaced as an alert.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	epoch, err := m.begin()
	if err != nil {
		return err
	}
	defer m.finish()

	tok, err := m.backend.Login(ctx, email, password)
	if err != nil {
		m.rest(epoch)
		m.alerts.Error("login failed: " + errors.UserMessage(err))
		return err
	}

	return m.establish(ctx, epoch, tok)
}

// Register creates an account and, because the server returns a usable
// token, logs the new user straight in.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	epoch, err := m.begin()
	if err != nil {
		return err
	}
	defer m.finish()

	tok, err := m.backend.Register(ctx, name, email, password)
	if err != nil {
		m.rest(epoch)
		m.alerts.Error("registration failed: " + errors.UserMessage(err))
		return err
	}

	return m.establish(ctx, epoch, tok)
}

// Logout clears the token store, resets the session to Unauthenticated
// and drops every registered cache. Valid from any state and idempotent.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.epoch++
	m.sess = Session{Status: StatusUnauthenticated}
	resetters := make([]func(), len(m.resetters))
	copy(resetters, m.resetters)
	m.mu.Unlock()

	if err := m.tokens.Clear(); err != nil {
		return err
	}
	for _, reset := range resetters {
		reset()
	}
	m.log.Debug("logged out")
	return nil
}

// ForceLogout is the escalation path for a token rejected mid-session:
// any protected call that comes back 401 lands here.
func (m *Manager) ForceLogout() {
	if m.Current().Status == StatusUnauthenticated {
		return
	}
	if err := m.Logout(); err != nil {
		m.log.WithError(err).Warn("forced logout could not clear credentials")
	}
	m.alerts.Error("your session has expired, please log in again")
}

// establish finishes Login/Register once a token is in hand: fetch the
// user summary with it, persist, and commit the Authenticated state.
func (m *Manager) establish(ctx context.Context, epoch uint64, tok string) error {
	m.adopt(epoch, tok)

	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		m.rest(epoch)
		m.alerts.Error("login failed: " + errors.UserMessage(err))
		return err
	}

	if err := m.tokens.Save(token.Credentials{Token: tok, Email: user.Email}); err != nil {
		m.rest(epoch)
		return err
	}

	// A logout that ran while the request or the write was in flight
	// wins: discard the result and take the saved token back off disk,
	// otherwise the next start would silently re-authenticate.
	if !m.epochCurrent(epoch) {
		if err := m.tokens.Clear(); err != nil {
			m.log.WithError(err).Warn("could not discard superseded credentials")
		}
		return errors.New(errors.KindStale, errors.CodeAuthSuperseded, "authentication superseded by logout")
	}

	m.commit(epoch, tok, user)
	m.log.Info("authenticated", "user", user.Email)
	return nil
}

// begin claims the single in-flight auth slot
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight {
		return 0, errors.New(errors.KindBusy, errors.CodeAuthBusy, "another authentication operation is in progress")
	}
	m.inflight = true
	return m.epoch, nil
}

func (m *Manager) finish() {
	m.mu.Lock()
	m.inflight = false
	m.mu.Unlock()
}

func (m *Manager) epochCurrent(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch == epoch
}

// adopt moves to Loading with a candidate token, unless superseded
func (m *Manager) adopt(epoch uint64, tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.sess = Session{Status: StatusLoading, Token: tok}
}

// commit moves to Authenticated, unless a logout superseded this attempt
func (m *Manager) commit(epoch uint64, tok string, user *api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		m.log.Debug("discarding superseded auth result")
		return
	}
	m.sess = Session{Status: StatusAuthenticated, Token: tok, User: user}
}

// rest settles at Unauthenticated, unless superseded
func (m *Manager) rest(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.sess = Session{Status: StatusUnauthenticated}
}
