package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schoolblog/blogctl/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the community chat",
	Long: `Open the interactive community chat.

The view polls the backend for new messages while open. Your own
messages appear immediately and are marked until the server confirms
them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		if err := a.session.RequireAuth(); err != nil {
			return err
		}
		return tui.RunChat(a.chat, a.hub)
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <text>...",
	Short: "Send one chat message without opening the view",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		msg, err := a.chat.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("Sent %s\n", msg.ID)
		return nil
	},
}

var chatLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the recent chat history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		messages, err := a.chat.List(cmd.Context())
		if err != nil {
			return err
		}
		// Oldest first reads naturally in a scrollback.
		for i := len(messages) - 1; i >= 0; i-- {
			m := messages[i]
			stamp := a.styles.Muted.Render(m.CreatedAt.Local().Format("2006-01-02 15:04"))
			author := a.styles.Author.Render(m.AuthorName)
			fmt.Printf("%s %s %s\n", stamp, author, m.Content)
		}
		return nil
	},
}

func init() {
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatLogCmd)
	rootCmd.AddCommand(chatCmd)
}
