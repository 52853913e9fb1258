package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schoolblog/blogctl/internal/alerts"
	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/store"
)

// chat refresh cadence while the view is open
const chatPollInterval = 3 * time.Second

// chatKeyMap defines the keyboard shortcuts
type chatKeyMap struct {
	Send key.Binding
	Quit key.Binding
}

var chatKeys = chatKeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "leave chat"),
	),
}

type (
	chatRefreshMsg []api.ChatMessage
	chatSentMsg    struct{}
	chatErrMsg     struct{ err error }
	chatTickMsg    time.Time
)

// ChatModel is the interactive community chat view
type ChatModel struct {
	chat   *store.Chat
	hub    *alerts.Hub
	styles Styles

	input    textinput.Model
	messages []api.ChatMessage
	width    int
	height   int
	ready    bool
	quitting bool
	lastErr  string
}

// NewChatModel creates the chat view backed by the chat store
func NewChatModel(chat *store.Chat, hub *alerts.Hub) ChatModel {
	input := textinput.New()
	input.Placeholder = "Say something..."
	input.CharLimit = 500
	input.Focus()

	return ChatModel{
		chat:   chat,
		hub:    hub,
		styles: DefaultStyles(),
		input:  input,
	}
}

// Init starts the first fetch and the poll loop
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), chatTick(), textinput.Blink)
}

// Update handles messages and updates the model state
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, chatKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, chatKeys.Send):
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.Reset()
			cmd := m.send(content)
			// Show the optimistic entry without waiting for the poll.
			m.messages = m.chat.Cached()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.ready = true
		return m, nil

	case chatRefreshMsg:
		m.messages = msg
		m.lastErr = ""
		return m, nil

	case chatSentMsg:
		m.messages = m.chat.Cached()
		return m, nil

	case chatErrMsg:
		m.lastErr = msg.err.Error()
		m.messages = m.chat.Cached()
		return m, nil

	case chatTickMsg:
		return m, tea.Batch(m.refresh(), chatTick())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat history above the input line
func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Connecting..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Community Chat"))
	b.WriteString("\n")

	// Render oldest first so the newest message sits above the input.
	visible := m.visibleMessages()
	for i := len(visible) - 1; i >= 0; i-- {
		msg := visible[i]
		author := m.styles.Author.Render(msg.AuthorName)
		stamp := m.styles.Muted.Render(msg.CreatedAt.Local().Format("15:04"))
		line := fmt.Sprintf("%s %s %s", stamp, author, msg.Content)
		if store.IsLocalID(msg.ID) {
			line = m.styles.Muted.Render(line + " (sending)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString(m.styles.Error.Render(m.lastErr))
		b.WriteString("\n")
	}
	for _, a := range m.hub.Active() {
		b.WriteString(m.styles.RenderAlert(a))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter: send • esc: leave"))
	return b.String()
}

// visibleMessages trims the history to what fits on screen
func (m ChatModel) visibleMessages() []api.ChatMessage {
	reserved := 6 // title, input, help, spacing
	max := m.height - reserved
	if max < 1 {
		max = 1
	}
	if len(m.messages) <= max {
		return m.messages
	}
	return m.messages[:max]
}

func (m ChatModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		messages, err := m.chat.List(ctx)
		if err != nil {
			return chatErrMsg{err: err}
		}
		return chatRefreshMsg(messages)
	}
}

func (m ChatModel) send(content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := m.chat.Send(ctx, content); err != nil {
			return chatErrMsg{err: err}
		}
		return chatSentMsg{}
	}
}

func chatTick() tea.Cmd {
	return tea.Tick(chatPollInterval, func(t time.Time) tea.Msg {
		return chatTickMsg(t)
	})
}

// RunChat opens the chat view and blocks until the user leaves
func RunChat(chat *store.Chat, hub *alerts.Hub) error {
	program := tea.NewProgram(NewChatModel(chat, hub), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
