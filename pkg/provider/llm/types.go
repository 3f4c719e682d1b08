package llm

import "github.com/ZuhaMK/Flight-AI/pkg/types"

// Aliases so callers that only deal with the LLM port do not need to import
// pkg/types directly.
type (
	Message           = types.Message
	ToolCall          = types.ToolCall
	ToolDefinition    = types.ToolDefinition
	ModelCapabilities = types.ModelCapabilities
)
