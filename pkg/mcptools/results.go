package mcptools

import (
	"encoding/json"
	"fmt"
)

// JSONResult creates a success result carrying payload as both a JSON text
// block and structured details.
func JSONResult(payload any) *Result {
	return &Result{
		Status:  ResultSuccess,
		Content: []ContentBlock{{Type: "text", Text: mustJSON(payload)}},
		Details: toMap(payload),
	}
}

// TextResult creates a success result with a plain text block.
func TextResult(text string) *Result {
	return &Result{
		Status:  ResultSuccess,
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

// ErrorResult creates an error result. Tools return these instead of Go
// errors for anything the caller should see and handle as tool output.
func ErrorResult(toolName, message string) *Result {
	return &Result{
		Status:  ResultError,
		Content: []ContentBlock{{Type: "text", Text: message}},
		Details: map[string]any{"tool": toolName, "error": message},
		Error:   message,
	}
}

// ErrorResultf creates an error result with a formatted message.
func ErrorResultf(toolName, format string, args ...any) *Result {
	return ErrorResult(toolName, fmt.Sprintf(format, args...))
}

// mustJSON marshals payload to JSON, returning an error envelope on failure.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal: %s"}`, err.Error())
	}
	return string(data)
}

// toMap converts a struct to map[string]any for the Details field.
func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
