package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-wiki/internal/node"
)

// NodeAttrs validates raw attributes for a node type, dropping unknown keys
// and filling defaults.
func (r *Registry) NodeAttrs(typ string, raw map[string]any) (node.Attrs, error) {
	spec, ok := r.Node(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typ)
	}
	return coerceAttrs(spec.Attrs, raw)
}

// MarkAttrs validates raw attributes for a mark type.
func (r *Registry) MarkAttrs(typ string, raw map[string]any) (node.Attrs, error) {
	spec, ok := r.Mark(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarkType, typ)
	}
	return coerceAttrs(spec.Attrs, raw)
}

func coerceAttrs(specs map[string]AttrSpec, raw map[string]any) (node.Attrs, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(node.Attrs, len(specs))
	for _, name := range slices.Sorted(maps.Keys(specs)) {
		spec := specs[name]
		value, present := raw[name]
		if !present || value == nil {
			if spec.Required {
				return nil, fmt.Errorf("%w: %q", ErrAttrRequired, name)
			}
			out[name] = spec.Default
			continue
		}
		coerced, err := coerceAttr(spec, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q %v", ErrAttrType, name, err)
		}
		if len(spec.Enum) > 0 {
			if s, ok := coerced.(string); !ok || !slices.Contains(spec.Enum, s) {
				coerced = spec.Default
			}
		}
		if f, ok := coerced.(float64); ok && !spec.inRange(f) {
			coerced = spec.Default
		}
		out[name] = coerced
	}
	return out, nil
}

func coerceAttr(spec AttrSpec, value any) (any, error) {
	switch spec.Type {
	case AttrString:
		return coerceString(value)
	case AttrNumber:
		return coerceNumber(value)
	case AttrBool:
		return coerceBool(value)
	case AttrAny:
		switch value.(type) {
		case string, float64, bool, nil:
			return value, nil
		}
		if f, err := coerceNumber(value); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("expected primitive, got %T", value)
	default:
		return nil, fmt.Errorf("unsupported attribute type %q", spec.Type)
	}
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, fmt.Errorf("expected string, got %T", value)
	}
}

func coerceNumber(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected number, got %T", value)
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %q", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("expected boolean, got %T", value)
	}
}
