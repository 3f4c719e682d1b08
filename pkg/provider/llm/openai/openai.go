// Package openai implements [llm.Provider] on the OpenAI Chat Completions
// API using the first-party openai-go SDK. It is the default primary model
// for flightai; any OpenAI-compatible endpoint works through [WithBaseURL].
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// ErrNoChoices is returned when the API answers without any choice.
var ErrNoChoices = errors.New("openai: response has no choices")

// Provider talks to one OpenAI model.
type Provider struct {
	client oai.Client
	model  string
}

var _ llm.Provider = (*Provider)(nil)

// Option adds SDK request options to a [Provider].
type Option func(*[]option.RequestOption)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *[]option.RequestOption) { *o = append(*o, option.WithBaseURL(url)) }
}

// WithOrganization sends the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return func(o *[]option.RequestOption) { *o = append(*o, option.WithOrganization(org)) }
}

// WithTimeout bounds every HTTP round trip made by the SDK, retries included.
func WithTimeout(d time.Duration) Option {
	return func(o *[]option.RequestOption) {
		*o = append(*o, option.WithHTTPClient(&http.Client{Timeout: d}))
	}
}

// New returns a Provider for model authenticated with apiKey.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	switch {
	case apiKey == "":
		return nil, errors.New("openai: api key must not be empty")
	case model == "":
		return nil, errors.New("openai: model must not be empty")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, o := range opts {
		o(&reqOpts)
	}
	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Complete implements llm.Provider. A refusal from the model is returned as
// its text content so the caller can show it.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	out := &llm.CompletionResponse{
		Content: msg.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	if out.Content == "" && len(msg.ToolCalls) == 0 {
		out.Content = msg.Refusal
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
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

// modelLimits lists context window and output limits by model-name prefix,
// most specific first. Unlisted models get 128k / 4k.
var modelLimits = []struct {
	prefix    string
	window    int
	maxOutput int
}{
	{"gpt-4o", 128_000, 16_384},
	{"gpt-4.1", 1_047_576, 32_768},
	{"gpt-4-turbo", 128_000, 4_096},
	{"gpt-4", 8_192, 4_096},
	{"gpt-3.5-turbo", 16_385, 4_096},
	{"o1-mini", 128_000, 65_536},
	{"o1", 200_000, 100_000},
	{"o3", 200_000, 100_000},
}

func modelCapabilities(model string) types.ModelCapabilities {
	lower := strings.ToLower(model)
	caps := types.ModelCapabilities{
		ContextWindow:   128_000,
		MaxOutputTokens: 4_096,
		// o1-mini rejects the tools parameter.
		SupportsToolCalling: !strings.HasPrefix(lower, "o1-mini"),
	}
	for _, l := range modelLimits {
		if strings.HasPrefix(lower, l.prefix) {
			caps.ContextWindow, caps.MaxOutputTokens = l.window, l.maxOutput
			break
		}
	}
	return caps
}

func (p *Provider) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: make([]oai.ChatCompletionMessageParamUnion, len(req.Messages)),
	}
	for i, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, fmt.Errorf("openai: message %d: %w", i, err)
		}
		params.Messages[i] = msg
	}

	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	// tool_choice without tools is rejected by the API.
	if len(req.Tools) == 0 {
		return params, nil
	}
	params.Tools = make([]oai.ChatCompletionToolParam, len(req.Tools))
	for i, td := range req.Tools {
		params.Tools[i] = oai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        td.Name,
				Description: param.NewOpt(td.Description),
				Parameters:  shared.FunctionParameters(td.Parameters),
			},
		}
	}
	if req.ToolChoice != llm.ToolChoiceDefault {
		params.ToolChoice = oai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt(string(req.ToolChoice)),
		}
	}
	return params, nil
}

func convertMessage(m types.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case types.RoleSystem:
		return oai.SystemMessage(m.Content), nil
	case types.RoleUser:
		return oai.UserMessage(m.Content), nil
	case types.RoleTool:
		if m.ToolCallID == "" {
			return oai.ChatCompletionMessageParamUnion{}, errors.New("tool message without tool_call_id")
		}
		return oai.ToolMessage(m.Content, m.ToolCallID), nil
	case types.RoleAssistant:
		return assistantMessage(m), nil
	}
	return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unknown message role %q", m.Role)
}

// assistantMessage replays an assistant turn, including any tool calls it
// requested, so the following tool messages pair with their ids.
func assistantMessage(m types.Message) oai.ChatCompletionMessageParamUnion {
	var asst oai.ChatCompletionAssistantMessageParam
	if m.Content != "" {
		asst.Content.OfString = oai.String(m.Content)
	}
	if m.Name != "" {
		asst.Name = oai.String(m.Name)
	}
	if len(m.ToolCalls) > 0 {
		asst.ToolCalls = make([]oai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			asst.ToolCalls[i] = oai.ChatCompletionMessageToolCallParam{
				ID:       tc.ID,
				Function: oai.ChatCompletionMessageToolCallFunctionParam{Name: tc.Name, Arguments: tc.Arguments},
			}
		}
	}
	return oai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
}
