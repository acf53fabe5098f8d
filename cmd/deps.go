package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"

	"github.com/v7h-lab/Nomen-origins/internal/config"
	"github.com/v7h-lab/Nomen-origins/internal/provider"
	"github.com/v7h-lab/Nomen-origins/internal/speech"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
)

// newProvider builds the configured content provider behind the shared
// rate limiter.
func newProvider(ctx context.Context) (provider.Provider, error) {
	var p provider.Provider
	switch cfg.Provider.Kind {
	case config.ProviderProxy:
		px, err := provider.NewProxy(cfg.Provider.Endpoint, cfg.Provider.Timeout.Std())
		if err != nil {
			return nil, err
		}
		p = px
	default:
		if cfg.Provider.APIKey == "" {
			return nil, errors.New("no API key: set GEMINI_API_KEY or provider.api_key, or use provider.kind = \"proxy\"")
		}
		g, err := provider.NewGemini(ctx, cfg.Provider.APIKey, cfg.Provider.Model, cfg.Provider.Timeout.Std())
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		p = g
	}
	return provider.NewLimited(p, cfg.Provider.RateLimit), nil
}

func tourOptions() tour.Options {
	return tour.Options{
		Dwell: cfg.Tour.Dwell.Std(),
		Voices: tour.VoicePolicy{
			Preferred:  cfg.Tour.PreferredVoice,
			LangPrefix: cfg.Tour.LangPrefix,
		},
		Rate:   cfg.Tour.Rate,
		Pitch:  cfg.Tour.Pitch,
		Logger: logger,
	}
}

// newSynth builds the terminal speech backend. Console captions go to w.
func newSynth(w io.Writer, clock clockwork.Clock) (tour.Synthesizer, error) {
	switch cfg.Speech.Backend {
	case config.SpeechCommand:
		return speech.NewCommand(cfg.Speech.Command, nil, logger)
	default:
		return speech.NewConsole(w, clock, cfg.Speech.WordsPerMinute), nil
	}
}
