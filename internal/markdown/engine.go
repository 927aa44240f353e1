package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultExtensions are enabled when no extension list is configured.
// Linkify is left out so plain URLs in text survive a round trip unchanged.
var DefaultExtensions = []string{"table", "strikethrough", "tasklist", "math", "notice"}

var extensionRegistry = map[string]goldmark.Extender{
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"math":          Math,
	"notice":        Notice,
}

// newEngine builds the goldmark instance used for parsing. Unknown
// extension names are ignored.
func newEngine(names []string) goldmark.Markdown {
	exts := collectExtensions(names)
	if len(exts) == 0 {
		return goldmark.New()
	}
	return goldmark.New(goldmark.WithExtensions(exts...))
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		names = DefaultExtensions
	}

	var extenders []goldmark.Extender
	seen := map[goldmark.Extender]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[ext] = struct{}{}
	}

	return extenders
}
