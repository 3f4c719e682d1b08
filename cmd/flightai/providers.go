package main

import (
	"errors"
	"fmt"
	"log/slog"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/ZuhaMK/Flight-AI/internal/app"
	"github.com/ZuhaMK/Flight-AI/internal/config"
	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm/anyllm"
	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm/openai"
)

// registerBuiltinProviders wires all built-in LLM factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// openai uses the first-party SDK directly.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// Every other vendor goes through any-llm-go.
	for _, providerName := range anyllm.Backends() {
		if providerName == "openai" {
			continue
		}
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	slog.Debug("registered llm providers", "names", reg.LLMNames())
}

// buildProviders instantiates the primary LLM and its fallbacks using the
// registry.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	create := func(entry config.ProviderEntry) (app.NamedLLM, error) {
		p, err := reg.CreateLLM(entry)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			return app.NamedLLM{}, fmt.Errorf("llm provider %q is not supported (known: %v)", entry.Name, reg.LLMNames())
		}
		if err != nil {
			return app.NamedLLM{}, fmt.Errorf("create llm provider %q: %w", entry.Name, err)
		}
		slog.Info("provider created", "kind", "llm", "name", entry.Name, "model", entry.Model)
		return app.NamedLLM{Name: entry.Name, Provider: p}, nil
	}

	primary, err := create(cfg.Providers.LLM)
	if err != nil {
		return nil, err
	}
	ps := &app.Providers{LLM: primary}

	for _, entry := range cfg.Providers.Fallbacks {
		fb, err := create(entry)
		if err != nil {
			return nil, err
		}
		ps.Fallbacks = append(ps.Fallbacks, fb)
	}
	return ps, nil
}
