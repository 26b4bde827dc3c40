package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/crpq/internal/ir"
)

// marshalNames converts answer variable names to canonical JSON TEXT.
func marshalNames(names []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.Strings(names...))
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalNames parses a JSON array of names. Always returns a non-nil slice.
func unmarshalNames(data string) ([]string, error) {
	names := []string{}
	if data == "" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
