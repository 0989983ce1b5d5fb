// Package decode maps dynamic JSON payloads into typed structs. Decoding is
// strict: a type mismatch fails the whole decode rather than leaving a
// partially-populated result.
package decode

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeMap decodes a generic JSON object into T. Struct fields are matched
// by `json` tag.
func DecodeMap[T any](m map[string]any) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("map is nil")
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: false,
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return &out, nil
}
