package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pmplanner/pkg/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage pmplanner profiles",
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in your $EDITOR",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := ensureConfigFile(configPath)
		if err != nil {
			return err
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}
		logger.Debug("Opening config", zap.String("path", cfgPath), zap.String("editor", editor))

		c := exec.CommandContext(cmd.Context(), editor, cfgPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("failed to open editor %q: %w", editor, err)
		}
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return printProfiles(cmd.OutOrStdout(), cfg)
	},
}

// ensureConfigFile resolves the config path (explicit or default) and
// writes config.Template there when no file exists yet.
func ensureConfigFile(path string) (string, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return "", fmt.Errorf("failed to resolve user config dir: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat config file: %w", err)
		}
		if filepath.Ext(path) == ".toml" {
			if err := config.Default().Save(path); err != nil {
				return "", err
			}
		} else if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return "", fmt.Errorf("failed to create config file: %w", err)
		}
	}
	return path, nil
}

func init() {
	profileCmd.AddCommand(profileEditCmd)
	profileCmd.AddCommand(profileListCmd)
	rootCmd.AddCommand(profileCmd)
}

func printProfiles(w io.Writer, cfg *config.File) error {
	if len(cfg.Profiles) == 0 {
		_, err := fmt.Fprintln(w, "no profiles configured")
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Profiles)) {
		p := cfg.Profiles[name]
		mark := " "
		if name == cfg.DefaultProfile {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s\t%s\t%s\n", mark, name, ifEmpty(p.Provider, "openai"), ifEmpty(p.Model, "-")); err != nil {
			return err
		}
	}
	return nil
}
