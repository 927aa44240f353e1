package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wiki/internal/markdown"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/schema"
)

func text(s string, marks ...node.Mark) *node.Node { return node.NewText(s, marks...) }

func para(content ...*node.Node) *node.Node { return node.New(node.TypeParagraph, nil, content...) }

func document(content ...*node.Node) *node.Node { return node.New(node.TypeDoc, nil, content...) }

func linkMark(href string) node.Mark {
	return node.Mark{Type: node.MarkLink, Attrs: node.Attrs{"href": href}}
}

func codeBlock(language, source string) *node.Node {
	return node.New(node.TypeCodeBlock, node.Attrs{"language": language}, text(source))
}

func mathInline(source string) *node.Node {
	return text(source, node.Mark{Type: node.MarkMathInline})
}

func mustHTML(t *testing.T, doc *node.Node, opts Options) string {
	t.Helper()
	out, err := NewRenderer().ToHTML(doc, opts)
	require.NoError(t, err)
	return out
}

func mustPdfHTML(t *testing.T, doc *node.Node, opts Options) string {
	t.Helper()
	out, err := NewRenderer().ToPdfHTML(doc, opts)
	require.NoError(t, err)
	return out
}

func TestToHTMLRendersStandalonePage(t *testing.T) {
	doc := document(
		node.New(node.TypeHeading, node.Attrs{"level": float64(2)}, text("Hello World")),
		para(text("bold", node.Mark{Type: node.MarkBold}), text(" and "), text("link", linkMark("https://example.com"))),
		para(node.New(node.TypeMention, node.Attrs{"id": "m1", "type": "user", "modelId": "u1", "label": "Ada"})),
		node.New(node.TypeNotice, node.Attrs{"style": "warning"}, para(text("careful"))),
		node.New(node.TypeHeading, node.Attrs{"level": float64(2)}, text("Hello World")),
	)

	opts := DefaultOptions()
	opts.Title = "Release <notes>"
	out := mustHTML(t, doc, opts)

	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	require.Contains(t, out, `<html lang="en">`)
	require.Contains(t, out, "<title>Release &lt;notes&gt;</title>")
	require.Contains(t, out, `<h1 class="document-title">Release &lt;notes&gt;</h1>`)
	require.Contains(t, out, `<main class="document centered">`)
	require.Contains(t, out, "--wiki-text")
	require.Contains(t, out, `<h2 id="hello-world">Hello World</h2>`)
	require.Contains(t, out, `<h2 id="hello-world-2">Hello World</h2>`)
	require.Contains(t, out, "<strong>bold</strong>")
	require.Contains(t, out, `<a href="https://example.com" rel="noopener noreferrer nofollow">link</a>`)
	require.Contains(t, out, `<span class="mention" data-id="m1" data-type="user" data-model-id="u1">@Ada</span>`)
	require.Contains(t, out, `<div class="notice-block warning" data-style="warning"><p>careful</p></div>`)
	require.NotContains(t, out, contentAnchor)
	require.NotContains(t, out, readyAttr)
}

func TestToHTMLWithoutStylesOrCentering(t *testing.T) {
	out := mustHTML(t, document(para(text("x"))), Options{})

	require.NotContains(t, out, "--wiki-text")
	require.Contains(t, out, `<main class="document">`)
	require.NotContains(t, out, "document-title")
}

func TestToHTMLDropsUnsafeURLs(t *testing.T) {
	doc := document(
		para(text("click", linkMark("javascript:alert(1)"))),
		para(node.New(node.TypeImage, node.Attrs{"src": "javascript:alert(1)", "alt": "x"})),
		node.New(node.TypeEmbed, node.Attrs{"href": "data:text/html,hi"}),
	)

	out := mustHTML(t, doc, DefaultOptions())
	require.NotContains(t, out, "javascript:")
	require.NotContains(t, out, "data:text/html")
	require.Contains(t, out, "<p>click</p>")
}

func TestToHTMLAbsolutisesRootRelativeURLs(t *testing.T) {
	doc := document(
		para(text("doc", linkMark("/doc/intro-A1b2C3d4E5"))),
		para(text("ext", linkMark("https://example.com/doc/x"))),
		para(text("proto", linkMark("//cdn.example.com/a.js"))),
		para(node.New(node.TypeImage, node.Attrs{"src": "/api/attachments.redirect?id=a1"})),
		node.New(node.TypeVideo, node.Attrs{"src": "/api/attachments.redirect?id=v1"}),
	)

	opts := DefaultOptions()
	opts.BaseURL = "https://wiki.example.com/"
	out := mustHTML(t, doc, opts)

	require.Contains(t, out, `href="https://wiki.example.com/doc/intro-A1b2C3d4E5"`)
	require.Contains(t, out, `href="https://example.com/doc/x"`)
	require.Contains(t, out, `href="//cdn.example.com/a.js"`)
	require.Contains(t, out, `src="https://wiki.example.com/api/attachments.redirect?id=a1"`)
	require.Contains(t, out, `src="https://wiki.example.com/api/attachments.redirect?id=v1"`)
}

func TestToHTMLMermaidDiagrams(t *testing.T) {
	source := "graph TD; A-->B"
	doc := document(codeBlock("mermaid", source), codeBlock("go", "package main"))

	opts := DefaultOptions()
	opts.IncludeMermaid = true
	out := mustHTML(t, doc, opts)

	require.Contains(t, out, `<div class="mermaid-diagram" id="diagram-`)
	require.Contains(t, out, "graph TD; A--&gt;B</div>")
	require.NotContains(t, out, `data-language="mermaid"`)
	require.Contains(t, out, `data-language="go"`)
	require.Contains(t, out, mermaidScript)
	require.Equal(t, 1, strings.Count(out, readyAttr))
	require.Equal(t, 1, strings.Count(out, readyStatement))

	require.Equal(t, out, mustHTML(t, doc, opts), "diagram ids must be stable")
}

func TestToHTMLMermaidWithoutDiagramsSignalsReady(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeMermaid = true
	out := mustHTML(t, document(para(text("plain"))), opts)

	require.Equal(t, 1, strings.Count(out, readyAttr))
	require.Equal(t, 1, strings.Count(out, readyStatement))
	require.NotContains(t, out, mermaidScript)
}

func TestToPdfHTMLReadinessExactlyOnce(t *testing.T) {
	cases := map[string]struct {
		doc     *node.Node
		mermaid bool
	}{
		"mermaid without diagrams": {doc: document(para(text("plain"))), mermaid: true},
		"mermaid with diagrams":    {doc: document(codeBlock("mermaid", "graph LR; A-->B")), mermaid: true},
		"no mermaid":               {doc: document(para(text("plain")))},
		"empty document":           {doc: node.EmptyDoc()},
		"nil document":             {},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.IncludeMermaid = tc.mermaid
			out := mustPdfHTML(t, tc.doc, opts)
			require.Equal(t, 1, strings.Count(out, readyAttr))
			require.Equal(t, 1, strings.Count(out, readyStatement))
		})
	}
}

func TestToPdfHTMLRendersMathAndCode(t *testing.T) {
	doc := document(
		para(text("area "), mathInline(`\pi r^2`)),
		node.New(node.TypeMathBlock, nil, text(`\frac{a}{b}`)),
		para(mathInline(`\notacommand{x}`)),
		codeBlock("go", "package main\n\nfunc main() {}"),
	)

	out := mustPdfHTML(t, doc, DefaultOptions())

	require.Contains(t, out, `<span class="math-inline" data-math="\pi r^2"><math`)
	require.Contains(t, out, "<mi>π</mi>")
	require.Contains(t, out, `<div class="math-block" data-math="\frac{a}{b}"><math`)
	require.Contains(t, out, "<mfrac>")
	require.Contains(t, out, `<span class="math-error"`)
	require.Contains(t, out, `\notacommand{x}</span>`)
	require.Contains(t, out, `<pre class="code-block chroma" data-language="go">`)
	require.Contains(t, out, "func")

	editor := strings.Index(out, "--wiki-text")
	print := strings.Index(out, "font-size: 22pt")
	require.Positive(t, editor)
	require.Greater(t, print, editor, "print styles must follow editor styles")
}

func TestToHTMLLeavesMathForClientScripts(t *testing.T) {
	out := mustHTML(t, document(para(mathInline("x^2"))), DefaultOptions())

	require.Contains(t, out, `<span class="math-inline" data-math="x^2">x^2</span>`)
	require.NotContains(t, out, "<math")
}

type failingTypesetter struct{}

func (failingTypesetter) Typeset(string, bool) (string, error) {
	return "", ErrTeX
}

func TestToPdfHTMLTypesetterFailureDegrades(t *testing.T) {
	r := NewRenderer(WithTypesetter(failingTypesetter{}))
	out, err := r.ToPdfHTML(document(
		node.New(node.TypeMathBlock, nil, text("a+b")),
		para(text("after")),
	), DefaultOptions())

	require.NoError(t, err)
	require.Contains(t, out, `<span class="math-error"`)
	require.Contains(t, out, "<p>after</p>")
}

func TestOptionsValidation(t *testing.T) {
	r := NewRenderer()
	for _, base := range []string{"/relative", "ftp://files.example.com", "https://"} {
		opts := DefaultOptions()
		opts.BaseURL = base
		_, err := r.ToHTML(node.EmptyDoc(), opts)
		require.ErrorIs(t, err, ErrInvalidOptions, base)
	}

	opts := DefaultOptions()
	opts.Language = "not a language"
	_, err := r.ToPdfHTML(node.EmptyDoc(), opts)
	require.ErrorIs(t, err, ErrInvalidOptions)

	opts = DefaultOptions()
	opts.BaseURL = "http://localhost:3000"
	opts.Language = "pt-BR"
	require.NoError(t, opts.Validate())
}

func TestThemeDeclarations(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = Theme{Variables: map[string]string{
		"color-primary":  "#336699",
		"--font-body":    "Inter, sans-serif",
		"--bad":          "red; } body { display: none",
		"not a property": "1px",
	}}

	out := mustHTML(t, document(), opts)
	require.Contains(t, out, ":root { --font-body: Inter, sans-serif; --color-primary: #336699; }")
	require.NotContains(t, out, "display: none")
	require.Equal(t, Theme{}, ThemeFromSelection(nil, "wiki"))
}

func TestRenderTablesListsAndMedia(t *testing.T) {
	doc := document(
		node.New(node.TypeOrderedList, node.Attrs{"order": float64(3)},
			node.New(node.TypeListItem, nil, para(text("three")))),
		node.New(node.TypeCheckboxList, nil,
			node.New(node.TypeCheckboxItem, node.Attrs{"checked": true}, para(text("done")))),
		node.New(node.TypeTable, nil,
			node.New(node.TypeTableRow, nil,
				node.New(node.TypeTableHeader, node.Attrs{"alignment": "center"}, para(text("H"))),
				node.New(node.TypeTableCell, node.Attrs{"colspan": float64(2)}, para(text("C"))))),
		node.New(node.TypeAttachment, node.Attrs{"href": "/api/attachments.redirect?id=a1", "title": "report.pdf", "size": float64(2048)}),
		node.New(node.TypePDFEmbed, node.Attrs{"href": "/api/attachments.redirect?id=p1", "title": "spec"}),
		para(text("a"), node.New(node.TypeHardBreak, nil), text("b")),
		node.New(node.TypeHorizontalRule, nil),
	)

	out := mustHTML(t, doc, DefaultOptions())
	require.Contains(t, out, `<ol start="3"><li><p>three</p></li></ol>`)
	require.Contains(t, out, `<li class="checkbox-item checked"><input type="checkbox" checked="" disabled=""/>`)
	require.Contains(t, out, `<th style="text-align: center"><p>H</p></th>`)
	require.Contains(t, out, `<td colspan="2"><p>C</p></td>`)
	require.Contains(t, out, `title="2.0 KB" data-size="2048" download="report.pdf">report.pdf</a>`)
	require.Contains(t, out, `<iframe class="pdf-embed" src="/api/attachments.redirect?id=p1" title="spec"></iframe>`)
	require.Contains(t, out, "<p>a<br/>b</p>")
	require.Contains(t, out, "<hr/>")
}

func TestRenderedHTMLImportsBack(t *testing.T) {
	doc := document(
		para(
			text("Hi "),
			node.New(node.TypeMention, node.Attrs{"id": "m1", "type": "user", "modelId": "u1", "label": "Ada"}),
			text(" see "),
			mathInline("x^2"),
		),
		node.New(node.TypeNotice, node.Attrs{"style": "tip"}, para(text("remember"))),
	)

	page := mustHTML(t, doc, Options{})
	imported, err := markdown.NewCodec(schema.Default()).FromHTML(page)
	require.NoError(t, err)

	var mention, notice *node.Node
	var math bool
	node.Walk(imported, func(n *node.Node, _ *node.Node) node.WalkStatus {
		switch {
		case n.Type == node.TypeMention:
			mention = n
		case n.Type == node.TypeNotice:
			notice = n
		case n.IsText() && n.HasMark(node.MarkMathInline):
			math = n.Text == "x^2"
		}
		return node.WalkContinue
	})

	require.NotNil(t, mention)
	require.Equal(t, "m1", mention.StringAttr("id"))
	require.Equal(t, "u1", mention.StringAttr("modelId"))
	require.Equal(t, "Ada", mention.StringAttr("label"))
	require.NotNil(t, notice)
	require.Equal(t, "tip", notice.StringAttr("style"))
	require.True(t, math)
}

func TestHumanSize(t *testing.T) {
	require.Equal(t, "", humanSize(0))
	require.Equal(t, "512 B", humanSize(512))
	require.Equal(t, "1.5 KB", humanSize(1536))
	require.Equal(t, "3.0 MB", humanSize(3*1024*1024))
}
