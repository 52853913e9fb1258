package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schoolblog/blogctl/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your login session",
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long: `Register a new account with the blog backend.

After registration you are automatically logged in.

Examples:
  blogctl auth register --name "Jane Doe" --email jane@example.com --password secret
  blogctl auth register   (prompts interactively)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if name == "" || email == "" || password == "" {
			reg, err := tui.PromptRegister()
			if err != nil {
				return err
			}
			name, email, password = reg.Name, reg.Email, reg.Password
		}

		if err := a.session.Register(cmd.Context(), name, email, password); err != nil {
			return err
		}

		user, _ := a.session.CurrentUser()
		fmt.Printf("Registered and logged in as %s (%s)\n", user.Name, user.Email)
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the blog",
	Long: `Log in with your email and password.

The session token is stored under ~/.blogctl and reused until you log
out or the server rejects it.

Examples:
  blogctl auth login --email jane@example.com --password secret
  blogctl auth login   (prompts interactively)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" || password == "" {
			creds, err := tui.PromptLogin()
			if err != nil {
				return err
			}
			email, password = creds.Email, creds.Password
		}

		if err := a.session.Login(cmd.Context(), email, password); err != nil {
			return err
		}

		user, _ := a.session.CurrentUser()
		fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Email)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who you are logged in as",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getSession(cmd.Context())
		if err != nil {
			return err
		}
		defer a.flushAlerts()

		user, ok := a.session.CurrentUser()
		if !ok {
			fmt.Println("Not logged in.")
			fmt.Println("Use 'blogctl auth login' to authenticate.")
			return nil
		}

		fmt.Println("Logged in")
		fmt.Printf("User ID: %s\n", user.ID)
		fmt.Printf("Name:    %s\n", user.Name)
		fmt.Printf("Email:   %s\n", user.Email)
		return nil
	},
}

func init() {
	authRegisterCmd.Flags().String("name", "", "display name")
	authRegisterCmd.Flags().String("email", "", "account email")
	authRegisterCmd.Flags().String("password", "", "account password")

	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
