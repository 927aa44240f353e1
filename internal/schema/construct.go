package schema

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-wiki/internal/node"
)

// NodeFromJSON strictly constructs a tree from its generic JSON form. The
// input is first checked against the persisted envelope, then every node is
// validated against its spec: unknown types, children outside the declared
// content rule and bad attributes are errors. Unknown attributes are
// dropped and missing ones defaulted.
func (r *Registry) NodeFromJSON(raw map[string]any) (*node.Node, error) {
	if raw == nil {
		return nil, &EnvelopeError{Issues: []EnvelopeIssue{{Message: "document is null"}}}
	}
	normalized, err := ToJSONValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := r.ValidateEnvelope(normalized); err != nil {
		return nil, err
	}
	obj, _ := normalized.(map[string]any)
	return r.build(obj, nil, nil)
}

// Check validates a typed tree and returns a normalised copy.
func (r *Registry) Check(n *node.Node) (*node.Node, error) {
	if n == nil {
		return nil, &EnvelopeError{Issues: []EnvelopeIssue{{Message: "document is null"}}}
	}
	raw, err := n.ToMap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return r.NodeFromJSON(raw)
}

func (r *Registry) build(raw map[string]any, parent *NodeSpec, path []string) (*node.Node, error) {
	typ, _ := raw["type"].(string)
	spec, ok := r.Node(typ)
	if !ok {
		return nil, constructionError(path, ErrUnknownNodeType, "%q", typ)
	}
	if parent != nil && !parent.Content.allows(spec) {
		return nil, constructionError(path, ErrContentNotAllowed, "%s cannot contain %s", parent.Name, typ)
	}

	rawAttrs, _ := raw["attrs"].(map[string]any)
	attrs, err := coerceAttrs(spec.Attrs, rawAttrs)
	if err != nil {
		return nil, constructionError(path, err, "%s attributes", typ)
	}

	out := &node.Node{Type: typ, Attrs: attrs}

	if typ == node.TypeText {
		text, _ := raw["text"].(string)
		if text == "" {
			return nil, constructionError(path, ErrEmptyText, "")
		}
		out.Text = text
		if parent == nil || parent.Marks {
			marks, err := r.buildMarks(raw["marks"], path)
			if err != nil {
				return nil, err
			}
			out.Marks = marks
		} else if rawMarks, _ := raw["marks"].([]any); len(rawMarks) > 0 {
			r.logger.Debug("schema.marks.dropped", "parent", parent.Name, "count", len(rawMarks))
		}
		return out, nil
	}

	children, _ := raw["content"].([]any)
	if len(children) > 0 && spec.IsLeaf() {
		return nil, constructionError(path, ErrContentNotAllowed, "%s is a leaf node", typ)
	}
	if len(children) > 0 {
		out.Content = make([]*node.Node, 0, len(children))
	}
	for i, child := range children {
		childMap, _ := child.(map[string]any)
		built, err := r.build(childMap, spec, subPath(path, "content", i))
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, built)
	}
	return out, nil
}

func (r *Registry) buildMarks(value any, path []string) ([]node.Mark, error) {
	rawMarks, _ := value.([]any)
	if len(rawMarks) == 0 {
		return nil, nil
	}
	marks := make([]node.Mark, 0, len(rawMarks))
	for i, item := range rawMarks {
		rawMark, _ := item.(map[string]any)
		typ, _ := rawMark["type"].(string)
		markPath := subPath(path, "marks", i)
		if _, ok := r.Mark(typ); !ok {
			return nil, constructionError(markPath, ErrUnknownMarkType, "%q", typ)
		}
		rawAttrs, _ := rawMark["attrs"].(map[string]any)
		attrs, err := r.MarkAttrs(typ, rawAttrs)
		if err != nil {
			return nil, constructionError(markPath, err, "%s attributes", typ)
		}
		marks = r.AddMark(marks, node.Mark{Type: typ, Attrs: attrs})
	}
	return marks, nil
}

// AddMark adds m to set, keeping canonical rank order. A mark of the same
// type is replaced; a mark excluded by an existing one is not added and
// existing marks excluded by m are removed.
func (r *Registry) AddMark(set []node.Mark, m node.Mark) []node.Mark {
	spec, ok := r.Mark(m.Type)
	if !ok {
		return set
	}
	out := make([]node.Mark, 0, len(set)+1)
	for _, existing := range set {
		if existing.Type == m.Type {
			continue
		}
		if other, ok := r.Mark(existing.Type); ok && other.excludes(m.Type) {
			return set
		}
		if spec.excludes(existing.Type) {
			continue
		}
		out = append(out, existing)
	}
	rank := r.MarkRank(m.Type)
	idx := len(out)
	for i, existing := range out {
		if r.MarkRank(existing.Type) > rank {
			idx = i
			break
		}
	}
	out = append(out, node.Mark{})
	copy(out[idx+1:], out[idx:])
	out[idx] = m
	return out
}

func subPath(path []string, field string, index int) []string {
	out := make([]string, len(path), len(path)+2)
	copy(out, path)
	return append(out, field, strconv.Itoa(index))
}
