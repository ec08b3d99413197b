package mcptools

import (
	"fmt"
	"strings"
)

// ReadString reads a string parameter from args, trimming surrounding
// whitespace. Use ReadText for document content where whitespace is
// meaningful.
func ReadString(args map[string]any, key string, required bool) (string, error) {
	s, err := ReadText(args, key, required)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// ReadStringDefault reads a string parameter with a default value.
func ReadStringDefault(args map[string]any, key, defaultVal string) string {
	s, err := ReadString(args, key, false)
	if err != nil || s == "" {
		return defaultVal
	}
	return s
}

// ReadText reads a string parameter verbatim. Positions reported against the
// value stay valid because nothing is stripped.
func ReadText(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("parameter %q is required", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		if required {
			return "", fmt.Errorf("parameter %q must be a string", key)
		}
		return "", nil
	}
	return s, nil
}
