package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const envelopeResource = "wiki-document.json"

// envelopeSchema describes the persisted node format recursively. Per-type
// rules are enforced by the registry during construction.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$ref": "#/$defs/node",
  "$defs": {
    "attrs": {"type": ["object", "null"]},
    "mark": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "attrs": {"$ref": "#/$defs/attrs"}
      }
    },
    "node": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "attrs": {"$ref": "#/$defs/attrs"},
        "content": {"type": ["array", "null"], "items": {"$ref": "#/$defs/node"}},
        "marks": {"type": ["array", "null"], "items": {"$ref": "#/$defs/mark"}},
        "text": {"type": "string"}
      }
    }
  }
}`

func (r *Registry) envelopeSchema() (*jsonschema.Schema, error) {
	r.envelopeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(envelopeResource, strings.NewReader(envelopeSchema)); err != nil {
			r.envelopeErr = err
			return
		}
		r.envelope, r.envelopeErr = compiler.Compile(envelopeResource)
	})
	return r.envelope, r.envelopeErr
}

// ValidateEnvelope checks that value, in generic JSON form, has the shape of
// a persisted document node.
func (r *Registry) ValidateEnvelope(value any) error {
	compiled, err := r.envelopeSchema()
	if err != nil {
		return fmt.Errorf("%w: compile: %v", ErrInvalidEnvelope, err)
	}
	if err := compiled.Validate(value); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &EnvelopeError{Issues: collectIssues(validationErr), Cause: err}
		}
		return &EnvelopeError{Cause: err}
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []EnvelopeIssue {
	var issues []EnvelopeIssue
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if v == nil {
			return
		}
		if len(v.Causes) == 0 {
			issues = append(issues, EnvelopeIssue{
				Location: strings.TrimSpace(v.InstanceLocation),
				Message:  strings.TrimSpace(v.Message),
			})
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

// ToJSONValue normalises any JSON-marshalable value into its generic form
// (maps, slices, float64, string, bool, nil).
func ToJSONValue(value any) (any, error) {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	var out any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
