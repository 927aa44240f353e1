package doctree

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/internal/node"
)

// NewMentionID returns a random mention id.
func NewMentionID() string {
	return uuid.NewString()
}

// RepairMentionIDs returns a copy of doc in which every mention has a
// unique id. Mentions with an empty id, or an id already used earlier in
// document order, get a fresh one from newID.
func RepairMentionIDs(doc *node.Node, newID func() string) *node.Node {
	if newID == nil {
		newID = NewMentionID
	}
	seen := map[string]struct{}{}
	return node.Transform(doc, func(n *node.Node) {
		if n.Type != node.TypeMention {
			return
		}
		id := n.StringAttr("id")
		if _, dup := seen[id]; id == "" || dup {
			id = newID()
			for {
				if _, taken := seen[id]; !taken {
					break
				}
				id = newID()
			}
			n.SetAttr("id", id)
		}
		seen[id] = struct{}{}
	})
}
