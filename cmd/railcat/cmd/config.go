package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/railcat/internal/config"
	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the project and user configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/railcat/config.yaml)
  3. Project config (.railcat.yaml)
  4. Environment variables (RAILCAT_*)
  5. Command line flags`,
		Example: `  railcat config init
  railcat config show --json
  railcat config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with the defaults",
		Long: `Write the default configuration to .railcat.yaml in the project root,
or to the user configuration file with --user.

An existing file is kept unless --force is given; it is then backed up
before being replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configInitPath(user)
			if err != nil {
				return err
			}
			return runConfigInit(output.New(cmd.OutOrStdout()), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user configuration instead of the project one")
	return cmd
}

func configInitPath(user bool) (string, error) {
	if user {
		return config.GetUserConfigPath(), nil
	}
	dir := configDir
	if dir == "" {
		root, err := config.FindProjectRoot(".")
		if err != nil {
			return "", err
		}
		dir = root
	}
	path, _ := config.ProjectConfigPath(dir)
	return path, nil
}

func runConfigInit(out *output.Writer, path string, force bool) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if exists && !force {
		out.Warning("Configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Newline()
		out.Status("💡", "Use --force to replace it with the defaults (a backup is kept)")
		return nil
	}

	var backup string
	if exists {
		var err error
		if backup, err = config.BackupFile(path); err != nil {
			return railerr.ConfigError("failed to back up config", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return railerr.ConfigError("failed to create config directory", err)
	}
	if err := config.NewConfig().WriteYAML(path); err != nil {
		return railerr.ConfigError("failed to write config", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	if backup != "" {
		out.Statusf("💾", "Backup: %s", backup)
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set corpus.path to your corpus directory")
	out.Status("", "  2. Run 'railcat doctor' to verify")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging defaults, the user and project
files, environment variables and flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if jsonOutput {
				return output.New(cmd.OutOrStdout()).JSON(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := configInitPath(false)
			if err != nil {
				return err
			}
			_, ok := config.ProjectConfigPath(filepath.Dir(project))
			out := output.New(cmd.OutOrStdout())
			out.KeyValue(
				[2]string{"User", pathState(config.GetUserConfigPath(), config.UserConfigExists())},
				[2]string{"Project", pathState(project, ok)},
			)
			return nil
		},
	}
}

func pathState(path string, exists bool) string {
	if exists {
		return path
	}
	return path + " (not found)"
}
