package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/tui"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Browse and manage blog posts",
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		posts, err := a.posts.List(cmd.Context())
		if err != nil {
			return err
		}
		printPostList(a, posts)
		return nil
	},
}

var postNewsCmd = &cobra.Command{
	Use:   "news",
	Short: "List school news posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		posts, err := a.posts.News(cmd.Context())
		if err != nil {
			return err
		}
		printPostList(a, posts)
		return nil
	},
}

var postGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one post with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		post, err := a.posts.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(a.styles.Title.Render(post.Title))
		if post.Summary != "" {
			fmt.Println(a.styles.Subtitle.Render(post.Summary))
		}
		fmt.Println(post.Content)
		if post.ImageURL != "" {
			fmt.Println(a.styles.Muted.Render("image: " + post.ImageURL))
		}
		fmt.Println(a.styles.Liked.Render(fmt.Sprintf("♥ %d", len(post.LikedBy))))

		comments, err := a.comments.List(cmd.Context(), post.ID)
		if err != nil {
			return err
		}
		if len(comments) > 0 {
			fmt.Println(a.styles.Subtitle.Render(fmt.Sprintf("%d comment(s)", len(comments))))
			for _, c := range comments {
				fmt.Printf("  [%s] %s\n", c.ID, c.Content)
			}
		}
		return nil
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new post",
	Long: `Publish a new post.

Examples:
  blogctl post create --title "Sports day" --content "..." --image photo.jpg
  blogctl post create   (prompts interactively)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		draft, err := draftFromFlags(cmd)
		if err != nil {
			return err
		}
		if draft.Title == "" {
			draft, err = tui.PromptPostDraft(nil)
			if err != nil {
				return err
			}
		}

		post, err := a.posts.Create(cmd.Context(), draft)
		if err != nil {
			return err
		}
		fmt.Printf("Published %s (%s)\n", post.Title, post.ID)
		return nil
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit an existing post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		draft, err := draftFromFlags(cmd)
		if err != nil {
			return err
		}
		if draft.Title == "" {
			existing, err := a.posts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			draft, err = tui.PromptPostDraft(&existing)
			if err != nil {
				return err
			}
		}

		post, err := a.posts.Update(cmd.Context(), args[0], draft)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", post.ID)
		return nil
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		if len(args) != 1 {
			return fmt.Errorf("expected exactly one post id")
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			confirmed, err := tui.PromptConfirm("Delete this post and its comments?")
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := a.posts.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var postLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Toggle your like on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		post, err := a.posts.ToggleLike(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		user, _ := a.session.CurrentUser()
		liked := false
		for _, id := range post.LikedBy {
			if user != nil && id == user.ID {
				liked = true
				break
			}
		}
		if liked {
			fmt.Printf("Liked. %s\n", a.styles.Liked.Render(fmt.Sprintf("♥ %d", len(post.LikedBy))))
		} else {
			fmt.Printf("Unliked. ♥ %d\n", len(post.LikedBy))
		}
		return nil
	},
}

func draftFromFlags(cmd *cobra.Command) (api.PostDraft, error) {
	title, _ := cmd.Flags().GetString("title")
	summary, _ := cmd.Flags().GetString("summary")
	content, _ := cmd.Flags().GetString("content")
	image, _ := cmd.Flags().GetString("image")

	return api.PostDraft{
		Title:     title,
		Summary:   summary,
		Content:   content,
		ImagePath: image,
	}, nil
}

func printPostList(a *app, posts []api.Post) {
	if len(posts) == 0 {
		fmt.Println("No posts.")
		return
	}
	for _, p := range posts {
		title := a.styles.Author.Render(p.Title)
		likes := a.styles.Liked.Render(fmt.Sprintf("♥ %d", len(p.LikedBy)))
		summary := p.Summary
		if summary == "" {
			summary = firstLine(p.Content)
		}
		fmt.Printf("%s  %s %s\n", p.ID, title, likes)
		if summary != "" {
			fmt.Printf("    %s\n", a.styles.Muted.Render(summary))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

func init() {
	for _, c := range []*cobra.Command{postCreateCmd, postUpdateCmd} {
		c.Flags().String("title", "", "post title")
		c.Flags().String("summary", "", "short summary shown in lists")
		c.Flags().String("content", "", "post body")
		c.Flags().String("image", "", "path to a header image")
	}
	postDeleteCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	postCmd.AddCommand(postListCmd)
	postCmd.AddCommand(postNewsCmd)
	postCmd.AddCommand(postGetCmd)
	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postUpdateCmd)
	postCmd.AddCommand(postDeleteCmd)
	postCmd.AddCommand(postLikeCmd)
	rootCmd.AddCommand(postCmd)
}
