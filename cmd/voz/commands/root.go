package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agustinroig/voz/cmd/voz/internal/config"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "voz",
	Short: "Voice-driven conversational assistant",
	Long: `voz - a voice-driven conversational assistant.

The assistant stays dormant until the activation phrase is spoken, then
answers single utterances: deterministic quick actions, learned response
shortcuts, or a generative model, optionally followed by media playback
or a web search. It learns from every interaction.

Configuration lives in the OS config directory:
  macOS:   ~/Library/Application Support/voz/config.yaml
  Linux:   ~/.config/voz/config.yaml
  Windows: %AppData%/voz/config.yaml

Examples:
  # Run with the default config (console input, local model endpoint)
  voz run

  # Run against an explicit config file
  voz run --config ./voz.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: OS config dir)")
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves the configuration from the --config flag or the
// default location.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}
