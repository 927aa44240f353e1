package references

import "github.com/goliatone/go-wiki/internal/node"

// MentionTypeDocument is the mention type that refers to another document.
const MentionTypeDocument = "document"

// MentionAttrs are the attributes of a mention node.
type MentionAttrs struct {
	ID      string
	Type    string
	ModelID string
	Label   string
	ActorID string
}

// MentionFilter narrows ParseMentions. Empty fields match everything.
type MentionFilter struct {
	Type    string
	ModelID string
}

func (f MentionFilter) match(m MentionAttrs) bool {
	if f.Type != "" && f.Type != m.Type {
		return false
	}
	if f.ModelID != "" && f.ModelID != m.ModelID {
		return false
	}
	return true
}

// ParseMentions returns the first occurrence of every mention id in
// document order.
func ParseMentions(doc *node.Node, filter MentionFilter) []MentionAttrs {
	var out []MentionAttrs
	seen := map[string]struct{}{}

	node.Walk(doc, func(n *node.Node, _ *node.Node) node.WalkStatus {
		if n.Type != node.TypeMention {
			if len(n.Content) == 0 {
				return node.WalkSkipChildren
			}
			return node.WalkContinue
		}
		attrs := mentionAttrs(n)
		if _, dup := seen[attrs.ID]; dup || !filter.match(attrs) {
			return node.WalkSkipChildren
		}
		seen[attrs.ID] = struct{}{}
		out = append(out, attrs)
		return node.WalkSkipChildren
	})
	return out
}

func mentionAttrs(n *node.Node) MentionAttrs {
	return MentionAttrs{
		ID:      n.StringAttr("id"),
		Type:    n.StringAttr("type"),
		ModelID: n.StringAttr("modelId"),
		Label:   n.StringAttr("label"),
		ActorID: n.StringAttr("actorId"),
	}
}
