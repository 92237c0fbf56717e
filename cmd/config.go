package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prnudge/prnudge/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

When run without arguments, shows the current merged configuration.

Subcommands:
  init      Create a starter config file
  path      Show config file locations
  show      Show current merged config (same as bare 'prnudge config')`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	cmd.AddCommand(NewCmdConfigInit())
	cmd.AddCommand(NewCmdConfigPath())
	cmd.AddCommand(NewCmdConfigShow())

	return cmd
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Create a starter config file at the global location with the default
policy values. Edit it to add your organizations, tracked users, and
the GitHub-to-Slack identity map.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit()
		},
	}
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		Long:  `Show the paths to global and local config files and indicate which exist.`,
		RunE:  runConfigPath,
	}
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current merged configuration",
		Long:  `Show the current configuration after merging defaults, global, and local configs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

func runConfigInit() error {
	path := config.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'prnudge config show' to view current config", path)
	}

	starter := config.Default()
	starter.Orgs = []string{"your-org"}
	starter.TrackedUsers = []string{"your-github-user"}
	starter.IdentityMap = []config.IdentityEntry{
		{GitHub: "your-github-user", SlackID: "U0000000000"},
	}

	if err := starter.Save(); err != nil {
		return err
	}

	fmt.Printf("Created config file: %s\n\n", path)
	fmt.Println("Edit this file to set your organizations, tracked users, and")
	fmt.Println("Slack identity map. Tokens are read from the GITHUB_TOKEN and")
	fmt.Println("SLACK_BOT_TOKEN environment variables, never from config files.")

	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	fmt.Println("Configuration file locations:")
	fmt.Println()

	globalPath := config.ConfigPath()
	globalStatus := "not found"
	if _, err := os.Stat(globalPath); err == nil {
		globalStatus = "exists"
	}
	fmt.Printf("  Global: %s (%s)\n", globalPath, globalStatus)

	localPath := config.LocalConfigPath()
	localStatus := "not found"
	if _, err := os.Stat(localPath); err == nil {
		localStatus = "exists"
	}
	fmt.Printf("  Local:  %s (%s)\n", localPath, localStatus)

	fmt.Println()
	fmt.Println("Load order: defaults -> global -> local (local overrides global)")

	return nil
}

func runConfigShow(format string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Print(string(data))
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}

	return nil
}
