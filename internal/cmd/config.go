package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schoolblog/blogctl/internal/config"
	"github.com/schoolblog/blogctl/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change the client configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Printf("api_url:    %s\n", cfg.APIURL)
		fmt.Printf("timeout:    %s\n", cfg.Timeout)
		fmt.Printf("log_level:  %s\n", cfg.LogLevel)
		fmt.Printf("log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one configuration value",
	Long: `Change one configuration value and write it back to
~/.blogctl/config.yaml.

Keys: api_url, log_level, log_format

Examples:
  blogctl config set api_url https://blog.example.com
  blogctl config set log_level debug`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "api_url":
			cfg.APIURL = value
		case "log_level":
			cfg.LogLevel = value
		case "log_format":
			cfg.LogFormat = value
		default:
			return errors.New(errors.KindValidation, errors.CodeConfigParse, "unknown config key: "+key)
		}

		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
