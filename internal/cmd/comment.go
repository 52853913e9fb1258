package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Read and write comments on posts",
}

var commentListCmd = &cobra.Command{
	Use:   "list <post-id>",
	Short: "List the comments on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		comments, err := a.comments.List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(comments) == 0 {
			fmt.Println("No comments.")
			return nil
		}
		for _, c := range comments {
			stamp := a.styles.Muted.Render(c.CreatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Printf("%s  %s %s\n", c.ID, stamp, c.Content)
		}
		return nil
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <post-id> <text>...",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		content := strings.Join(args[1:], " ")
		comment, err := a.comments.Add(cmd.Context(), args[0], content)
		if err != nil {
			return err
		}
		fmt.Printf("Comment %s added.\n", comment.ID)
		return nil
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <post-id> <comment-id>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		if err := a.comments.Remove(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

func init() {
	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentDeleteCmd)
	rootCmd.AddCommand(commentCmd)
}
