package render

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-wiki/internal/node"
)

// Rule writes the markup of one node type.
type Rule func(w *Writer, n *node.Node)

var (
	colorPattern  = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20})$`)
	classPattern  = regexp.MustCompile(`^[\w-]+$`)
	noticeStyles  = map[string]bool{"info": true, "warning": true, "success": true, "tip": true}
	diagramLangID = "mermaid"
)

// Writer accumulates the markup of one document.
type Writer struct {
	b          strings.Builder
	renderer   *Renderer
	opts       Options
	print      bool
	headingIDs map[string]int
}

// Raw writes markup verbatim.
func (w *Writer) Raw(s string) {
	w.b.WriteString(s)
}

// Text writes escaped text.
func (w *Writer) Text(s string) {
	w.b.WriteString(html.EscapeString(s))
}

// Open writes a start tag. attrs are name/value pairs; pairs with an empty
// value are skipped.
func (w *Writer) Open(tag string, attrs ...string) {
	w.b.WriteByte('<')
	w.b.WriteString(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		w.b.WriteByte(' ')
		w.b.WriteString(attrs[i])
		w.b.WriteString(`="`)
		w.b.WriteString(html.EscapeString(attrs[i+1]))
		w.b.WriteByte('"')
	}
	w.b.WriteByte('>')
}

// Close writes an end tag.
func (w *Writer) Close(tag string) {
	w.b.WriteString("</")
	w.b.WriteString(tag)
	w.b.WriteByte('>')
}

// Render writes n using the rule registered for its type. Types without a
// rule render their children.
func (w *Writer) Render(n *node.Node) {
	if n == nil {
		return
	}
	if rule, ok := w.renderer.rules[n.Type]; ok {
		rule(w, n)
		return
	}
	w.renderer.logger.Debug("render.rule.missing", "type", n.Type)
	w.Content(n)
}

// Content renders the children of n.
func (w *Writer) Content(n *node.Node) {
	for _, child := range n.Content {
		w.Render(child)
	}
}

// Print reports whether the writer renders for print.
func (w *Writer) Print() bool { return w.print }

func (w *Writer) String() string { return w.b.String() }

func element(tag string, attrs ...string) Rule {
	return func(w *Writer, n *node.Node) {
		w.Open(tag, attrs...)
		w.Content(n)
		w.Close(tag)
	}
}

func defaultRules() map[string]Rule {
	return map[string]Rule{
		node.TypeDoc:            func(w *Writer, n *node.Node) { w.Content(n) },
		node.TypeParagraph:      element("p"),
		node.TypeHeading:        renderHeading,
		node.TypeBlockquote:     element("blockquote"),
		node.TypeNotice:         renderNotice,
		node.TypeBulletList:     element("ul"),
		node.TypeOrderedList:    renderOrderedList,
		node.TypeCheckboxList:   element("ul", "class", "checkbox-list"),
		node.TypeListItem:       element("li"),
		node.TypeCheckboxItem:   renderCheckboxItem,
		node.TypeTable:          renderTable,
		node.TypeTableRow:       element("tr"),
		node.TypeTableHeader:    renderCell("th"),
		node.TypeTableCell:      renderCell("td"),
		node.TypeCodeBlock:      renderCodeBlock,
		node.TypeMathBlock:      renderMathBlock,
		node.TypeHorizontalRule: func(w *Writer, _ *node.Node) { w.Raw("<hr>") },
		node.TypeHardBreak:      func(w *Writer, _ *node.Node) { w.Raw("<br>") },
		node.TypeImage:          renderImage,
		node.TypeVideo:          renderVideo,
		node.TypeAttachment:     renderAttachment,
		node.TypePDFEmbed:       renderFrame("pdf-embed"),
		node.TypeEmbed:          renderFrame("embed"),
		node.TypeMention:        renderMention,
		node.TypeText:           renderText,
	}
}

func renderHeading(w *Writer, n *node.Node) {
	level := n.IntAttr("level")
	if level < 1 || level > 6 {
		level = 1
	}
	tag := "h" + strconv.Itoa(level)
	w.Open(tag, "id", w.headingID(n.TextContent()))
	w.Content(n)
	w.Close(tag)
}

// headingID returns a slug of text unique within the document.
func (w *Writer) headingID(text string) string {
	id, err := slug.Normalize(text)
	if err != nil || id == "" {
		id = "heading"
	}
	w.headingIDs[id]++
	if count := w.headingIDs[id]; count > 1 {
		id = id + "-" + strconv.Itoa(count)
	}
	return id
}

func renderNotice(w *Writer, n *node.Node) {
	style := n.StringAttr("style")
	if !noticeStyles[style] {
		style = "info"
	}
	w.Open("div", "class", "notice-block "+style, "data-style", style)
	w.Content(n)
	w.Close("div")
}

func renderOrderedList(w *Writer, n *node.Node) {
	start := ""
	if order := n.IntAttr("order"); order != 0 && order != 1 {
		start = strconv.Itoa(order)
	}
	w.Open("ol", "start", start)
	w.Content(n)
	w.Close("ol")
}

func renderCheckboxItem(w *Writer, n *node.Node) {
	checked := n.BoolAttr("checked")
	class := "checkbox-item"
	if checked {
		class += " checked"
	}
	w.Open("li", "class", class)
	if checked {
		w.Raw(`<input type="checkbox" checked disabled>`)
	} else {
		w.Raw(`<input type="checkbox" disabled>`)
	}
	w.Open("div")
	w.Content(n)
	w.Close("div")
	w.Close("li")
}

func renderTable(w *Writer, n *node.Node) {
	w.Open("div", "class", "table-wrapper")
	w.Open("table")
	w.Open("tbody")
	w.Content(n)
	w.Close("tbody")
	w.Close("table")
	w.Close("div")
}

func renderCell(tag string) Rule {
	return func(w *Writer, n *node.Node) {
		span := func(name string) string {
			if v := n.IntAttr(name); v > 1 {
				return strconv.Itoa(v)
			}
			return ""
		}
		style := ""
		switch align := n.StringAttr("alignment"); align {
		case "left", "center", "right":
			style = "text-align: " + align
		}
		w.Open(tag, "colspan", span("colspan"), "rowspan", span("rowspan"), "style", style)
		w.Content(n)
		w.Close(tag)
	}
}

func renderCodeBlock(w *Writer, n *node.Node) {
	language := n.StringAttr("language")
	if !classPattern.MatchString(language) {
		language = ""
	}
	source := n.TextContent()
	codeClass := ""
	if language != "" {
		codeClass = "language-" + language
	}

	if w.print && !(language == diagramLangID && w.opts.IncludeMermaid) {
		highlighted, err := w.renderer.highlighter.Highlight(source, language)
		if err == nil {
			w.Open("pre", "class", "code-block chroma", "data-language", language)
			w.Open("code", "class", codeClass)
			w.Raw(highlighted)
			w.Close("code")
			w.Close("pre")
			return
		}
		w.renderer.logger.Debug("render.highlight.fallback", "language", language, "error", err)
	}

	w.Open("pre", "class", "code-block", "data-language", language)
	w.Open("code", "class", codeClass)
	w.Text(source)
	w.Close("code")
	w.Close("pre")
}

func renderMathBlock(w *Writer, n *node.Node) {
	source := n.TextContent()
	w.Open("div", "class", "math-block", "data-math", source)
	w.math(source, true)
	w.Close("div")
}

// math writes typeset source in print mode and the raw source otherwise.
// Typesetting failures degrade to an error span holding the source.
func (w *Writer) math(source string, display bool) {
	if !w.print {
		w.Text(source)
		return
	}
	out, err := w.renderer.typesetter.Typeset(source, display)
	if err != nil {
		w.renderer.logger.Warn("render.math.failed", "source", source, "error", err)
		w.Open("span", "class", "math-error", "title", err.Error())
		w.Text(source)
		w.Close("span")
		return
	}
	w.Raw(out)
}

func dimension(n *node.Node, name string) string {
	if v := n.IntAttr(name); v > 0 {
		return strconv.Itoa(v)
	}
	return ""
}

func renderImage(w *Writer, n *node.Node) {
	src, ok := safeURL(n.StringAttr("src"))
	if !ok {
		return
	}
	class := ""
	if layout := n.StringAttr("layoutClass"); classPattern.MatchString(layout) {
		class = "image-" + layout
	}
	w.Open("img",
		"src", src,
		"alt", n.StringAttr("alt"),
		"title", n.StringAttr("title"),
		"width", dimension(n, "width"),
		"height", dimension(n, "height"),
		"class", class,
	)
}

func renderVideo(w *Writer, n *node.Node) {
	src, ok := safeURL(n.StringAttr("src"))
	if !ok {
		return
	}
	w.Open("video",
		"src", src,
		"title", n.StringAttr("title"),
		"width", dimension(n, "width"),
		"height", dimension(n, "height"),
		"controls", "controls",
	)
	w.Close("video")
}

func renderAttachment(w *Writer, n *node.Node) {
	href, ok := safeURL(n.StringAttr("href"))
	title := n.StringAttr("title")
	if title == "" {
		title = "Untitled"
	}
	w.Open("div", "class", "attachment")
	if ok {
		size := ""
		if v := n.IntAttr("size"); v > 0 {
			size = strconv.Itoa(v)
		}
		w.Open("a", "href", href, "title", humanSize(n.IntAttr("size")), "data-size", size, "download", title)
		w.Text(title)
		w.Close("a")
	} else {
		w.Text(title)
	}
	w.Close("div")
}

func humanSize(bytes int) string {
	if bytes <= 0 {
		return ""
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func renderFrame(class string) Rule {
	return func(w *Writer, n *node.Node) {
		href, ok := safeURL(n.StringAttr("href"))
		if !ok || strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return
		}
		w.Open("iframe", "class", class, "src", href, "title", n.StringAttr("title"))
		w.Close("iframe")
	}
}

func renderMention(w *Writer, n *node.Node) {
	w.Open("span",
		"class", "mention",
		"data-id", n.StringAttr("id"),
		"data-type", n.StringAttr("type"),
		"data-model-id", n.StringAttr("modelId"),
	)
	w.Text("@" + n.StringAttr("label"))
	w.Close("span")
}

func renderText(w *Writer, n *node.Node) {
	var closing []string
	var math bool
	for _, m := range n.Marks {
		switch m.Type {
		case node.MarkBold:
			w.Open("strong")
			closing = append(closing, "strong")
		case node.MarkItalic:
			w.Open("em")
			closing = append(closing, "em")
		case node.MarkStrikethrough:
			w.Open("del")
			closing = append(closing, "del")
		case node.MarkUnderline:
			w.Open("u")
			closing = append(closing, "u")
		case node.MarkCode:
			w.Open("code")
			closing = append(closing, "code")
		case node.MarkLink:
			href, ok := safeURL(m.Attrs.String("href"))
			if !ok {
				continue
			}
			w.Open("a", "href", href, "title", m.Attrs.String("title"), "rel", "noopener noreferrer nofollow")
			closing = append(closing, "a")
		case node.MarkColor:
			color := m.Attrs.String("color")
			if !colorPattern.MatchString(color) {
				continue
			}
			w.Open("mark", "style", "background-color: "+color)
			closing = append(closing, "mark")
		case node.MarkMathInline:
			math = true
		}
	}

	if math {
		w.Open("span", "class", "math-inline", "data-math", n.Text)
		w.math(n.Text, false)
		w.Close("span")
	} else {
		w.Text(n.Text)
	}

	for i := len(closing) - 1; i >= 0; i-- {
		w.Close(closing[i])
	}
}
