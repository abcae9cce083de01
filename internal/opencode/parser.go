package opencode

import (
	"encoding/json"
	"fmt"
	"os"
)

// UsagePart is one raw usage event as written by OpenCode into its
// storage/part tree. Only parts carrying a tokens object contribute to
// aggregation; in practice those are the "step-finish" parts.
type UsagePart struct {
	ID        string      `json:"id"`
	MessageID string      `json:"messageID"`
	SessionID string      `json:"sessionID"`
	EventType string      `json:"type"`
	Tokens    *TokenUsage `json:"tokens,omitempty"`
	Cost      float64     `json:"cost"`
}

type TokenUsage struct {
	Input     int64      `json:"input"`
	Output    int64      `json:"output"`
	Reasoning int64      `json:"reasoning"`
	Cache     CacheUsage `json:"cache"`
}

type CacheUsage struct {
	Write int64 `json:"write"`
	Read  int64 `json:"read"`
}

// ParseBytes decodes a single usage part. A nil part with a nil error
// means the file is valid JSON but carries no token data, so it has
// nothing to contribute. Structurally broken JSON is an error; the
// caller decides whether to skip or abort.
func ParseBytes(data []byte) (*UsagePart, error) {
	var part UsagePart
	if err := json.Unmarshal(data, &part); err != nil {
		return nil, fmt.Errorf("opencode: decode usage part: %w", err)
	}
	if part.Tokens == nil {
		return nil, nil
	}
	return &part, nil
}

func ParseFile(path string) (*UsagePart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opencode: read usage part %s: %w", path, err)
	}
	return ParseBytes(data)
}
