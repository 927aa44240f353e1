package render

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-wiki/internal/identity"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

const (
	// ReadyExpression is true once a rendered page has finished its client
	// side work.
	ReadyExpression = `window.renderStatus === "ready"`

	readyAttr      = "data-render-ready"
	readyStatement = `window.renderStatus = "ready";`
	mermaidScript  = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
)

// ErrInvalidOptions wraps option validation failures.
var ErrInvalidOptions = errors.New("render: invalid options")

// Renderer converts documents to HTML pages.
type Renderer struct {
	rules       map[string]Rule
	typesetter  MathTypesetter
	highlighter *Highlighter
	logger      interfaces.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the logger used for degraded elements.
func WithLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithTypesetter replaces the TeX typesetter used for print output.
func WithTypesetter(typesetter MathTypesetter) RendererOption {
	return func(r *Renderer) {
		if typesetter != nil {
			r.typesetter = typesetter
		}
	}
}

// WithCodeStyle selects the chroma style for print output.
func WithCodeStyle(name string) RendererOption {
	return func(r *Renderer) {
		r.highlighter = NewHighlighter(name)
	}
}

// WithRule overrides or adds the rule for a node type.
func WithRule(typ string, rule Rule) RendererOption {
	return func(r *Renderer) {
		if rule != nil {
			r.rules[typ] = rule
		}
	}
}

// NewRenderer builds a renderer with the built-in rules.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		rules:       defaultRules(),
		typesetter:  TeXTypesetter{},
		highlighter: NewHighlighter(DefaultCodeStyle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.Ensure(r.logger)
	return r
}

// ToHTML renders doc as an interactive page. With IncludeMermaid, diagram
// code blocks become diagram containers and a readiness script is added.
func (r *Renderer) ToHTML(doc *node.Node, opts Options) (string, error) {
	return r.render(doc, opts, false)
}

// ToPdfHTML renders doc for a headless renderer. Math and code are
// rendered on the server, print styles are appended and the page always
// carries exactly one readiness script.
func (r *Renderer) ToPdfHTML(doc *node.Node, opts Options) (string, error) {
	return r.render(doc, opts, true)
}

func (r *Renderer) render(doc *node.Node, opts Options, forPrint bool) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if doc == nil {
		doc = node.EmptyDoc()
	}

	w := &Writer{renderer: r, opts: opts, print: forPrint, headingIDs: map[string]int{}}
	w.Render(doc)

	shell, err := renderShell(opts, r.styles(opts, forPrint))
	if err != nil {
		return "", fmt.Errorf("render shell: %w", err)
	}
	page := strings.Replace(shell, contentAnchor, w.String(), 1)

	dom, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	absolutize(dom, opts.BaseURL)
	if opts.IncludeMermaid {
		addDiagrams(dom)
	}
	if forPrint {
		ensureReady(dom)
	}

	out, err := dom.Html()
	if err != nil {
		return "", fmt.Errorf("serialize page: %w", err)
	}
	return out, nil
}

func (r *Renderer) styles(opts Options, forPrint bool) []string {
	var styles []string
	if opts.IncludeStyles {
		styles = append(styles, editorCSS)
	}
	styles = append(styles, opts.Theme.declarations())
	if forPrint {
		if css, err := r.highlighter.CSS(); err == nil {
			styles = append(styles, css)
		} else {
			r.logger.Warn("render.highlight.css_failed", "error", err)
		}
		styles = append(styles, printCSS)
	}
	return styles
}

// addDiagrams replaces mermaid code blocks with diagram containers and adds
// the script that draws them and then signals readiness. Pages without
// diagrams get a script that signals readiness at once.
func addDiagrams(dom *goquery.Document) {
	blocks := dom.Find(`pre.code-block[data-language="` + diagramLangID + `"]`)
	body := dom.Find("body")
	if blocks.Length() == 0 {
		appendReadyScript(body, readyStatement)
		return
	}

	blocks.Each(func(i int, pre *goquery.Selection) {
		source := pre.Text()
		pre.ReplaceWithHtml(fmt.Sprintf(`<div class="mermaid-diagram" id="%s">%s</div>`,
			identity.DiagramID(source, i), html.EscapeString(source)))
	})

	body.AppendHtml(`<script src="` + mermaidScript + `"></script>`)
	appendReadyScript(body, `mermaid.initialize({ startOnLoad: false });
mermaid.run({ querySelector: ".mermaid-diagram" }).finally(function () { `+readyStatement+` });`)
}

func appendReadyScript(body *goquery.Selection, script string) {
	body.AppendHtml("<script " + readyAttr + ">" + script + "</script>")
}

// ensureReady keeps the first readiness script and drops the others, adding
// one when the page has none.
func ensureReady(dom *goquery.Document) {
	scripts := dom.Find("script[" + readyAttr + "]")
	if scripts.Length() == 0 {
		appendReadyScript(dom.Find("body"), readyStatement)
		return
	}
	scripts.Slice(1, goquery.ToEnd).Remove()
}
