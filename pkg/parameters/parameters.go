// Package parameters resolves node parameters for each input item and converts
// the loosely typed values the host supplies into Go types.
package parameters

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/callmelater/operion-callmelater/pkg/protocol"
)

var ErrWrongType = errors.New("parameter has wrong type")

// Static is a ParameterSource backed by fixed values. A key present on an item
// overrides the node-level value of the same name for that item only.
type Static struct {
	Node  map[string]any   `json:"parameters"`
	Items []map[string]any `json:"items"`
}

var _ protocol.ParameterSource = (*Static)(nil)

func (s *Static) Parameter(name string, itemIndex int) (any, bool) {
	if itemIndex >= 0 && itemIndex < len(s.Items) {
		if v, ok := s.Items[itemIndex][name]; ok && v != nil {
			return v, true
		}
	}

	v, ok := s.Node[name]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// ItemCount is at least one so a node without input data still runs once.
func (s *Static) ItemCount() int {
	return max(len(s.Items), 1)
}

// String returns the named parameter as a string, or fallback when it is unset.
func String(src protocol.ParameterSource, name string, itemIndex int, fallback string) (string, error) {
	v, ok := src.Parameter(name, itemIndex)
	if !ok {
		return fallback, nil
	}

	return AsString(name, v)
}

// StringSlice accepts a JSON array of strings or a single string.
func StringSlice(src protocol.ParameterSource, name string, itemIndex int) ([]string, bool, error) {
	v, ok := src.Parameter(name, itemIndex)
	if !ok {
		return nil, false, nil
	}

	switch val := v.(type) {
	case []string:
		return val, true, nil
	case string:
		return []string{val}, true, nil
	case []any:
		out := make([]string, 0, len(val))

		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, true, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrWrongType, name, i, item)
			}

			out = append(out, s)
		}

		return out, true, nil
	default:
		return nil, true, fmt.Errorf("%w: %s must be a list of strings, got %T", ErrWrongType, name, v)
	}
}

// Collection returns a nested options object. Unset yields an empty map.
func Collection(src protocol.ParameterSource, name string, itemIndex int) (map[string]any, error) {
	v, ok := src.Parameter(name, itemIndex)
	if !ok {
		return map[string]any{}, nil
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object, got %T", ErrWrongType, name, v)
	}

	return m, nil
}

func AsString(name string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrWrongType, name, v)
	}
}

// AsInt accepts any JSON number representation plus numeric strings.
func AsInt(name string, v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int32:
		return int(val), nil
	case int64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrWrongType, name, val)
		}

		return int(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrWrongType, name, err)
		}

		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrWrongType, name, err)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrWrongType, name, v)
	}
}
