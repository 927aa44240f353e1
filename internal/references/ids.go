package references

import (
	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/internal/node"
)

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// ParseDocumentIDs returns the documents referenced by document mentions and
// by internal links, in first-seen order. Links are reported by slug. hosts
// lists the absolute hosts that count as internal.
func ParseDocumentIDs(doc *node.Node, hosts ...string) []string {
	var ids orderedSet
	node.Walk(doc, func(n *node.Node, _ *node.Node) node.WalkStatus {
		switch {
		case n.Type == node.TypeMention:
			if n.StringAttr("type") == MentionTypeDocument {
				ids.add(n.StringAttr("modelId"))
			}
		case n.IsText():
			for _, m := range n.Marks {
				if m.Type != node.MarkLink {
					continue
				}
				if slug, ok := links.DocumentSlug(m.Attrs.String("href"), hosts...); ok {
					ids.add(slug)
				}
			}
		}
		return node.WalkContinue
	})
	return ids.items
}

// ParseAttachmentIDs returns the ids of the stored attachments referenced
// from links, images, videos and attachment blocks, in first-seen order.
func ParseAttachmentIDs(doc *node.Node) []string {
	var ids orderedSet
	add := func(href string) {
		if id, ok := links.AttachmentID(href); ok {
			ids.add(id)
		}
	}
	node.Walk(doc, func(n *node.Node, _ *node.Node) node.WalkStatus {
		for _, href := range urlAttrs(n) {
			add(href)
		}
		return node.WalkContinue
	})
	return ids.items
}

// urlAttrs lists the URL valued attributes of n and its link marks.
func urlAttrs(n *node.Node) []string {
	var out []string
	switch n.Type {
	case node.TypeImage, node.TypeVideo:
		out = append(out, n.StringAttr("src"))
	case node.TypeAttachment, node.TypePDFEmbed:
		out = append(out, n.StringAttr("href"))
	}
	for _, m := range n.Marks {
		if m.Type == node.MarkLink {
			out = append(out, m.Attrs.String("href"))
		}
	}
	return out
}
