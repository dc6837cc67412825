package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/pitchdesk/internal/model"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Options selects and configures a generator backend.
type Options struct {
	Provider   string
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

// NewProvider returns the generator for opts.Provider. With no API key it
// returns a NopGenerator, so every stage falls back to its degraded output.
func NewProvider(ctx context.Context, opts Options, logger *slog.Logger) (model.Generator, error) {
	if opts.APIKey == "" || opts.Provider == ProviderNone {
		logger.Warn("generator disabled, pipeline stages will use fallbacks")
		return NewNopGenerator(), nil
	}
	switch opts.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(opts.BaseURL, opts.APIKey, opts.Model, opts.HTTPClient), nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, opts.APIKey, opts.Model, opts.HTTPClient)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", opts.Provider)
	}
}
