// Package mock is a scripted [llm.Provider] for tests.
//
// Queue the model's turns in Responses and inspect the requests afterwards:
//
//	p := &mock.Provider{Responses: []mock.Response{
//	    mock.ToolCalls(mock.Call("call_1", "get_flight_prices", `{"origin":"LHR","destination":"JFK"}`)),
//	    mock.Text("✈️ LHR → JFK\nPrice: 200"),
//	}}
//	...
//	second := p.Calls()[1].Req.Messages // includes the tool result
package mock

import (
	"context"
	"sync"

	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// Response is one scripted result of Complete.
type Response struct {
	Resp *llm.CompletionResponse
	Err  error
}

// Text scripts a plain assistant reply.
func Text(content string) Response {
	return Response{Resp: &llm.CompletionResponse{Content: content}}
}

// ToolCalls scripts an assistant turn that requests tools.
func ToolCalls(calls ...types.ToolCall) Response {
	return Response{Resp: &llm.CompletionResponse{ToolCalls: calls}}
}

// Fail scripts a provider error.
func Fail(err error) Response { return Response{Err: err} }

// Call builds a tool call request.
func Call(id, name, args string) types.ToolCall {
	return types.ToolCall{ID: id, Name: name, Arguments: args}
}

// CompleteCall is one recorded Complete invocation. Req is a deep copy, so
// later mutation of the conversation does not change it.
type CompleteCall struct {
	Ctx context.Context
	Req llm.CompletionRequest
}

// CountTokensCall is one recorded CountTokens invocation.
type CountTokensCall struct {
	Messages []types.Message
}

// Provider replays Responses in order, then falls back to CompleteResponse
// and CompleteErr. Set fields before use; read records after the calls
// under test return, or through [Provider.Calls] while they may still run.
type Provider struct {
	mu sync.Mutex

	Responses        []Response
	CompleteResponse *llm.CompletionResponse
	CompleteErr      error

	TokenCount        int
	CountTokensErr    error
	ModelCapabilities types.ModelCapabilities

	CompleteCalls    []CompleteCall
	CountTokensCalls []CountTokensCall
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: cloneRequest(req)})
	if len(p.Responses) == 0 {
		return p.CompleteResponse, p.CompleteErr
	}
	next := p.Responses[0]
	p.Responses = p.Responses[1:]
	return next.Resp, next.Err
}

// CountTokens implements llm.Provider.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CountTokensCalls = append(p.CountTokensCalls, CountTokensCall{Messages: append([]types.Message(nil), messages...)})
	return p.TokenCount, p.CountTokensErr
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ModelCapabilities
}

// Calls returns a copy of the recorded Complete calls.
func (p *Provider) Calls() []CompleteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CompleteCall(nil), p.CompleteCalls...)
}

func cloneRequest(req llm.CompletionRequest) llm.CompletionRequest {
	out := req
	out.Messages = make([]types.Message, len(req.Messages))
	for i, m := range req.Messages {
		out.Messages[i] = m.Clone()
	}
	out.Tools = append([]types.ToolDefinition(nil), req.Tools...)
	return out
}
