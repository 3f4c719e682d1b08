package types

import (
	"bytes"
	"encoding/json"
)

// ErrorPayload renders msg as the JSON error object returned to the model in
// place of a tool result, e.g. {"error": "Unknown tool: foo"}.
func ErrorPayload(msg string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(msg)
	return `{"error": ` + string(bytes.TrimRight(buf.Bytes(), "\n")) + `}`
}
