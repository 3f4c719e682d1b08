// Package anyllm adapts github.com/mozilla-ai/any-llm-go to [llm.Provider],
// giving flightai access to every vendor that library speaks (Anthropic,
// Gemini, DeepSeek, Mistral, Groq and the local Ollama / llama.cpp /
// llamafile servers).
//
// These backends usually sit behind the primary OpenAI adapter as fallbacks.
// any-llm-go chooses the tool mode itself: offering tools implies "auto" and
// omitting them implies "none", which is all the orchestrator relies on.
//
//	p, err := anyllm.New("anthropic", "claude-3-5-sonnet-latest", anyllmlib.WithAPIKey(key))
package anyllm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ErrNoChoices is returned when a backend answers without any choice.
var ErrNoChoices = errors.New("anyllm: response has no choices")

type backendFunc func(opts ...anyllmlib.Option) (anyllmlib.Provider, error)

// backends maps a configured provider name to its any-llm-go constructor.
// Names without credentials in opts fall back to the vendor's environment
// variable (ANTHROPIC_API_KEY, GEMINI_API_KEY, ...).
var backends = map[string]backendFunc{
	"openai":    func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return anyllmoai.New(o...) },
	"anthropic": func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return anthropic.New(o...) },
	"gemini":    func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return gemini.New(o...) },
	"deepseek":  func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return deepseek.New(o...) },
	"mistral":   func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return mistral.New(o...) },
	"groq":      func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return groq.New(o...) },
	"ollama":    func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return ollama.New(o...) },
	"llamacpp":  func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return llamacpp.New(o...) },
	"llamafile": func(o ...anyllmlib.Option) (anyllmlib.Provider, error) { return llamafile.New(o...) },
}

// Backends lists the provider names accepted by [New], sorted.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Provider implements llm.Provider on top of one any-llm-go backend.
type Provider struct {
	backend anyllmlib.Provider
	name    string
	model   string
}

var _ llm.Provider = (*Provider)(nil)

// New builds a Provider for the named backend (see [Backends]) and model.
// opts are passed to the backend unchanged, typically anyllmlib.WithAPIKey
// and anyllmlib.WithBaseURL.
func New(name, model string, opts ...anyllmlib.Option) (*Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, errors.New("anyllm: provider name must not be empty")
	}
	if model == "" {
		return nil, errors.New("anyllm: model must not be empty")
	}
	mk, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("anyllm: unsupported provider %q (supported: %s)", name, strings.Join(Backends(), ", "))
	}
	backend, err := mk(opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %s backend: %w", name, err)
	}
	return &Provider{backend: backend, name: name, model: model}, nil
}

// Name returns the backend name the provider was built for.
func (p *Provider) Name() string { return p.name }

// Complete implements llm.Provider. Only the first choice is used.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := p.backend.Completion(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	out := &llm.CompletionResponse{Content: msg.ContentString()}
	if u := resp.Usage; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	if len(msg.ToolCalls) > 0 {
		out.ToolCalls = make([]types.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			out.ToolCalls[i] = types.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		}
	}
	return out, nil
}

// CountTokens implements llm.Provider with the shared character estimate.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	return llm.EstimateTokens(messages), nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	return modelCapabilities(p.model)
}

func (p *Provider) buildParams(req llm.CompletionRequest) anyllmlib.CompletionParams {
	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: make([]anyllmlib.Message, len(req.Messages)),
	}
	for i, m := range req.Messages {
		params.Messages[i] = convertMessage(m)
	}
	if req.Temperature != 0 {
		params.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = &req.MaxTokens
	}
	for _, td := range req.Tools {
		params.Tools = append(params.Tools, anyllmlib.Tool{
			Type:     "function",
			Function: anyllmlib.Function{Name: td.Name, Description: td.Description, Parameters: td.Parameters},
		})
	}
	return params
}

func convertMessage(m types.Message) anyllmlib.Message {
	out := anyllmlib.Message{
		Role:       m.Role,
		Content:    m.Content,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, anyllmlib.ToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: anyllmlib.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
		})
	}
	return out
}

// capRule overrides the default capabilities for models whose lower-cased
// name matches. Rules are checked in order; the first match wins.
type capRule struct {
	match     func(model string) bool
	window    int
	maxOutput int
	noTools   bool
}

func prefix(p string) func(string) bool   { return func(m string) bool { return strings.HasPrefix(m, p) } }
func contains(s string) func(string) bool { return func(m string) bool { return strings.Contains(m, s) } }

var capRules = []capRule{
	{match: prefix("gpt-4o"), maxOutput: 16_384},
	{match: prefix("gpt-4-turbo")},
	{match: prefix("gpt-4"), window: 8_192},
	{match: prefix("o1-mini"), maxOutput: 65_536, noTools: true},
	{match: prefix("o1"), window: 200_000, maxOutput: 100_000},
	{match: prefix("o3"), window: 200_000, maxOutput: 100_000},
	{match: prefix("claude"), window: 200_000, maxOutput: 8_192},
	{match: contains("gemini-1.5-pro"), window: 2_097_152, maxOutput: 8_192},
	{match: contains("gemini-1.5-flash"), window: 1_048_576, maxOutput: 8_192},
	{match: contains("gemini-2.0-flash"), window: 1_048_576, maxOutput: 8_192},
	{match: prefix("gemini"), maxOutput: 8_192},
	{match: prefix("deepseek"), window: 64_000, maxOutput: 8_192},
	{match: prefix("llama"), window: 32_768},
	{match: prefix("mistral"), window: 32_768},
	{match: prefix("qwen"), window: 32_768},
}

// modelCapabilities looks model up in capRules. Unknown models get a 128k
// window, 4k output and tool calling.
func modelCapabilities(model string) types.ModelCapabilities {
	caps := types.ModelCapabilities{SupportsToolCalling: true, ContextWindow: 128_000, MaxOutputTokens: 4_096}
	lower := strings.ToLower(model)
	for _, r := range capRules {
		if !r.match(lower) {
			continue
		}
		if r.window > 0 {
			caps.ContextWindow = r.window
		}
		if r.maxOutput > 0 {
			caps.MaxOutputTokens = r.maxOutput
		}
		caps.SupportsToolCalling = !r.noTools
		break
	}
	return caps
}
