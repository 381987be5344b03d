package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pmplanner/pkg/config"
	"pmplanner/pkg/encoder"
	"pmplanner/pkg/llm"
	"pmplanner/pkg/planner"
	"pmplanner/pkg/prompt"
	"pmplanner/pkg/version"
)

func ifEmpty(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

var (
	configPath  string
	profileName string
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pmplanner",
	Short: "Generate preventive maintenance plans with an LLM",
	Long: `pmplanner turns asset metadata (name, model, usage hours and cycles,
operating environment) into a twelve-month preventive maintenance plan.

Run "pmplanner serve" for the HTTP backend or "pmplanner generate" for a
one-off plan on the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads the config file (--config or the default path) and
// selects the profile named by --profile.
func loadConfig() (*config.File, config.Profile, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, config.Profile{}, err
	}
	prof, err := cfg.Profile(profileName)
	if err != nil {
		return nil, config.Profile{}, err
	}
	return cfg, prof, nil
}

// newPlanner wires prompt builder, completer and normalizer for prof.
func newPlanner(prof config.Profile, log *zap.Logger) (*planner.Service, error) {
	settings, err := prof.Settings()
	if err != nil {
		return nil, err
	}
	completer, err := llm.New(settings, log)
	if err != nil {
		return nil, err
	}
	builder, err := prompt.New()
	if err != nil {
		return nil, err
	}
	log.Debug("LLM configured",
		zap.String("provider", settings.Provider),
		zap.String("model", ifEmpty(settings.Model, "(provider default)")),
	)
	return planner.New(builder, completer, log), nil
}

func newExporter(cfg *config.File, log *zap.Logger) *encoder.Exporter {
	return encoder.NewExporter(cfg.Server.OutputDir, cfg.Server.KeepExports, log)
}

func init() {
	rootCmd.Version = version.String()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to ~/.config/pmplanner/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "profile name (default_profile if empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}
