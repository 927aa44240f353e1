package references

import (
	"context"
	"errors"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/internal/node"
)

// BasePrefixInvalidCode tags rejected rewrite prefixes.
const BasePrefixInvalidCode = "BASE_PREFIX_INVALID"

// ErrBasePrefixInvalid is returned when a rewrite prefix ends with "/".
var ErrBasePrefixInvalid = errors.New("references: base prefix must not end with a slash")

// RemoveMarks returns a copy of doc with every mark named in names removed
// from its text nodes.
func RemoveMarks(doc *node.Node, names ...string) *node.Node {
	if doc == nil {
		return nil
	}
	return node.Transform(doc, func(n *node.Node) {
		if len(n.Marks) == 0 {
			return
		}
		n.Marks = slices.DeleteFunc(n.Marks, func(m node.Mark) bool {
			return slices.Contains(names, m.Type)
		})
		if len(n.Marks) == 0 {
			n.Marks = nil
		}
	})
}

// URLRewriter rewrites internal document links so they resolve under a
// different base path, such as a public share.
type URLRewriter struct {
	hosts []string
}

// RewriterOption configures a URLRewriter.
type RewriterOption func(*URLRewriter)

// WithInternalHosts adds absolute hosts whose links count as internal.
func WithInternalHosts(hosts ...string) RewriterOption {
	return func(r *URLRewriter) {
		r.hosts = append(r.hosts, hosts...)
	}
}

// NewURLRewriter builds a rewriter.
func NewURLRewriter(opts ...RewriterOption) *URLRewriter {
	r := &URLRewriter{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ReplaceInternalURLs rewrites internal links with only root-relative
// paths treated as internal.
func ReplaceInternalURLs(ctx context.Context, doc *node.Node, basePrefix string) (*node.Node, error) {
	return NewURLRewriter().Replace(ctx, doc, basePrefix)
}

// Replace returns a copy of doc where every internal href gains basePrefix
// in front of its "/doc/" segment. Node href attributes and link marks are
// rewritten.
func (r *URLRewriter) Replace(ctx context.Context, doc *node.Node, basePrefix string) (*node.Node, error) {
	if strings.HasSuffix(basePrefix, "/") {
		return nil, goerrors.Wrap(ErrBasePrefixInvalid, goerrors.CategoryValidation, "invalid base prefix").
			WithTextCode(BasePrefixInvalidCode)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	out := node.Transform(doc, func(n *node.Node) {
		if href, ok := n.Attrs["href"].(string); ok {
			n.Attrs["href"] = r.rewrite(href, basePrefix)
		}
		for i, m := range n.Marks {
			if m.Type != node.MarkLink {
				continue
			}
			if href, ok := m.Attrs["href"].(string); ok {
				n.Marks[i].Attrs["href"] = r.rewrite(href, basePrefix)
			}
		}
	})
	return out, nil
}

func (r *URLRewriter) rewrite(href, basePrefix string) string {
	if basePrefix == "" || !links.IsInternal(href, r.hosts...) {
		return href
	}
	idx := strings.Index(href, links.DocumentPathSegment)
	if idx < 0 {
		return href
	}
	if strings.HasSuffix(href[:idx], basePrefix) {
		return href
	}
	return href[:idx] + basePrefix + href[idx:]
}
