package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agustinroig/voz/cmd/voz/internal/config"
	"github.com/agustinroig/voz/pkg/actions"
	"github.com/agustinroig/voz/pkg/assistant"
	"github.com/agustinroig/voz/pkg/gen"
	"github.com/agustinroig/voz/pkg/kv"
	"github.com/agustinroig/voz/pkg/prefs"
	"github.com/agustinroig/voz/pkg/voice"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the assistant until interrupted",
	Long: `Run starts the assistant loop: dormant until the activation phrase
is heard, then answering utterances until the idle delay passes.

Without a recognizer daemon configured, utterances are read as lines
from stdin and responses are printed as a transcript. Interrupt with
Ctrl-C; the assistant says goodbye and flushes its state before
exiting.`,
	RunE: runAssistant,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAssistant(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	store, err := kv.OpenBadger(kv.BadgerOptions{Dir: dataDir})
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	defer store.Close()

	model, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	var listener voice.Listener
	if cfg.RecognizerURL != "" {
		rec := voice.NewRemoteRecognizer(cfg.RecognizerURL)
		defer rec.Close()
		listener = rec
	} else {
		listener = voice.NewConsoleListener(os.Stdin)
	}

	speech := voice.NewQueue(&voice.ConsoleSynthesizer{Name: cfg.Assistant, W: os.Stdout}, 16)

	mux := actions.NewMux()
	mux.Handle(actions.KindMedia, actions.MediaPlayer{})
	mux.Handle(actions.KindSearch, actions.WebSearch{})

	a, err := assistant.New(assistant.Config{
		Name:                 cfg.Assistant,
		UserName:             cfg.UserName,
		ActivationPhrase:     cfg.ActivationPhrase,
		ResponseDelay:        cfg.ResponseDelay,
		ActiveListenTimeout:  cfg.ActiveListenTimeout,
		DormantListenTimeout: cfg.DormantListenTimeout,
		QuietAfter:           cfg.QuietAfter,
		ModelTimeout:         cfg.Model.Timeout,
	}, assistant.Deps{
		Listener: listener,
		Speech:   speech,
		Model:    model,
		Learning: prefs.Open(ctx, store, cfg.UserName),
		Actions:  mux,
	})
	if err != nil {
		return err
	}

	a.Run(ctx)

	// Drain the farewell before the store closes.
	speech.Close()
	slog.Info("assistant stopped")
	return nil
}

// newModel builds the generative backend selected by the config.
func newModel(ctx context.Context, cfg *config.Config) (gen.Generator, error) {
	switch cfg.Model.Backend {
	case "", "openai":
		return gen.NewOpenAI(gen.OpenAIConfig{
			BaseURL: cfg.Model.BaseURL,
			APIKey:  cfg.Model.APIKey,
			Model:   cfg.Model.Name,
		})
	case "gemini":
		return gen.NewGemini(ctx, gen.GeminiConfig{
			APIKey: cfg.Model.APIKey,
			Model:  cfg.Model.Name,
		})
	default:
		return nil, fmt.Errorf("unknown model backend %q (want openai or gemini)", cfg.Model.Backend)
	}
}
