package markdown

import (
	"fmt"
	"regexp"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/internal/node"
)

var classNames = regexp.MustCompile(`^[\w\- ]+$`)

// HTMLImporter converts HTML into documents by sanitising it, translating
// it to Markdown and parsing the result.
type HTMLImporter struct {
	parser    *Parser
	policy    *bluemonday.Policy
	converter *htmltomd.Converter
}

// NewHTMLImporter returns an importer feeding parser.
func NewHTMLImporter(parser *Parser) *HTMLImporter {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(classNames).OnElements("span", "div", "pre", "code")
	policy.AllowDataAttributes()

	converter := htmltomd.NewConverter("", true, &htmltomd.Options{
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "*",
		StrongDelimiter:  "**",
	})
	converter.Use(plugin.GitHubFlavored())
	converter.AddRules(importRules()...)

	return &HTMLImporter{parser: parser, policy: policy, converter: converter}
}

// Import converts html into a document.
func (i *HTMLImporter) Import(html string) (*node.Node, error) {
	clean := i.policy.Sanitize(html)
	markdown, err := i.converter.ConvertString(clean)
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}
	return i.parser.Parse(markdown)
}

// importRules map the markup produced by the wiki renderer back onto the
// custom Markdown syntax.
func importRules() []htmltomd.Rule {
	mention := htmltomd.Rule{
		Filter: []string{"span"},
		Replacement: func(content string, selec *goquery.Selection, _ *htmltomd.Options) *string {
			if !selec.HasClass("mention") {
				return nil
			}
			label := strings.TrimPrefix(strings.TrimSpace(selec.Text()), "@")
			href := links.MentionURL(links.Mention{
				ID:      selec.AttrOr("data-id", ""),
				Type:    selec.AttrOr("data-type", "user"),
				ModelID: selec.AttrOr("data-model-id", ""),
			})
			return htmltomd.String("@[" + escapeText(label, false, false) + "](" + href + ")")
		},
	}

	notice := htmltomd.Rule{
		Filter: []string{"div"},
		Replacement: func(content string, selec *goquery.Selection, _ *htmltomd.Options) *string {
			if !selec.HasClass("notice-block") {
				return nil
			}
			style := selec.AttrOr("data-style", "info")
			return htmltomd.String("\n\n:::" + style + "\n" + strings.TrimSpace(content) + "\n:::\n\n")
		},
	}

	math := htmltomd.Rule{
		Filter: []string{"span", "div"},
		Replacement: func(content string, selec *goquery.Selection, _ *htmltomd.Options) *string {
			source, ok := selec.Attr("data-math")
			if !ok {
				return nil
			}
			if selec.Is("div") {
				return htmltomd.String("\n\n$$\n" + source + "\n$$\n\n")
			}
			return htmltomd.String("$" + source + "$")
		},
	}

	del := htmltomd.Rule{
		Filter: []string{"del", "s", "strike"},
		Replacement: func(content string, _ *goquery.Selection, _ *htmltomd.Options) *string {
			return htmltomd.String("~~" + strings.TrimSpace(content) + "~~")
		},
	}

	return []htmltomd.Rule{math, mention, notice, del}
}
