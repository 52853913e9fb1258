package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schoolblog/blogctl/internal/alerts"
	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/config"
	"github.com/schoolblog/blogctl/internal/log"
	"github.com/schoolblog/blogctl/internal/session"
	"github.com/schoolblog/blogctl/internal/store"
	"github.com/schoolblog/blogctl/internal/token"
	"github.com/schoolblog/blogctl/internal/tui"
)

// app bundles the wired client: config, backend client, session manager,
// the entity stores, and the alert hub the commands drain before exit.
type app struct {
	cfg      config.Config
	client   *api.Client
	tokens   *token.Store
	hub      *alerts.Hub
	session  *session.Manager
	posts    *store.Posts
	comments *store.Comments
	chat     *store.Chat
	styles   tui.Styles
}

var currentApp *app

// tokenSourceFunc adapts the session manager's Token method to the
// client's TokenSource without creating a construction cycle.
type tokenSourceFunc func() string

func (f tokenSourceFunc) Token() string { return f() }

// getApp wires the application once per process
func getApp() (*app, error) {
	if currentApp != nil {
		return currentApp, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log.SetDefaultLogger(log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: os.Stderr,
	}))

	tokens, err := token.NewStore()
	if err != nil {
		return nil, err
	}

	hub := alerts.NewHub()

	// The client reads the token through the manager, and the manager
	// authenticates through the client.
	var mgr *session.Manager
	client := api.NewClient(cfg.APIURL, tokenSourceFunc(func() string {
		if mgr == nil {
			return ""
		}
		return mgr.Token()
	})).WithTimeout(cfg.Timeout)
	mgr = session.NewManager(client, tokens, hub)

	posts := store.NewPosts(client, mgr, hub)
	comments := store.NewComments(client, mgr, hub)
	chat := store.NewChat(client, mgr, hub)

	// Logout leaves no data scoped to the old session behind.
	mgr.OnReset(posts.Reset)
	mgr.OnReset(comments.Reset)
	mgr.OnReset(chat.Reset)

	// A deleted post takes its comment subset with it.
	posts.OnRemoved(comments.InvalidatePost)

	currentApp = &app{
		cfg:      cfg,
		client:   client,
		tokens:   tokens,
		hub:      hub,
		session:  mgr,
		posts:    posts,
		comments: comments,
		chat:     chat,
		styles:   tui.DefaultStyles(),
	}
	return currentApp, nil
}

// getSession wires the app and restores the persisted session, if any.
// A stored token that the server rejects leaves the app logged out; the
// command then fails its own auth check with a clean message.
func getSession(ctx context.Context) (*app, error) {
	a, err := getApp()
	if err != nil {
		return nil, err
	}
	if a.session.Current().Status == session.StatusUninitialized {
		if err := a.session.LoadSession(ctx); err != nil {
			log.DefaultLogger().WithError(err).Debug("session restore failed")
		}
	}
	return a, nil
}

// flushAlerts prints and dismisses everything the stores raised during
// the command, so nothing the user should see is lost on exit.
func (a *app) flushAlerts() {
	for _, alert := range a.hub.Active() {
		fmt.Fprintln(os.Stderr, a.styles.RenderAlert(alert))
		a.hub.Dismiss(alert.ID)
	}
}
