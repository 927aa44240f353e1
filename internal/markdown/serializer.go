package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/internal/node"
)

// NodeWriter writes one node. parent and index locate n among its siblings.
type NodeWriter func(w *Writer, n *node.Node, parent *node.Node, index int)

// Serializer turns document trees into Markdown using one writer per node
// type. Types without a writer render their text content.
type Serializer struct {
	writers map[string]NodeWriter
}

// NewSerializer returns a serializer with the built-in writers.
func NewSerializer() *Serializer {
	return &Serializer{writers: defaultWriters()}
}

// Register replaces or adds the writer for a node type.
func (s *Serializer) Register(typ string, fn NodeWriter) {
	s.writers[typ] = fn
}

// Serialize renders doc as Markdown without a trailing newline.
func (s *Serializer) Serialize(doc *node.Node) string {
	if doc == nil {
		return ""
	}
	w := &Writer{writers: s.writers}
	if doc.Type == node.TypeDoc {
		w.RenderContent(doc)
	} else {
		w.Render(doc, nil, 0)
	}
	return strings.TrimRight(string(w.out), "\n")
}

// Writer accumulates Markdown output. Block writers call CloseBlock when
// done; the separator before the next block is written lazily so that no
// blank lines pile up.
type Writer struct {
	writers     map[string]NodeWriter
	out         []byte
	delim       string
	closed      *node.Node
	inTightList bool
	inTable     bool
	singleLine  bool
}

func (w *Writer) atBlank() bool {
	return len(w.out) == 0 || w.out[len(w.out)-1] == '\n'
}

func (w *Writer) flushClose(size int) {
	if w.closed == nil {
		return
	}
	if !w.atBlank() {
		w.out = append(w.out, '\n')
	}
	if size > 1 {
		delim := strings.TrimRight(w.delim, " \t")
		for i := 1; i < size; i++ {
			w.out = append(w.out, delim...)
			w.out = append(w.out, '\n')
		}
	}
	w.closed = nil
}

// Write emits content, first flushing a pending block separator and the
// current line prefix.
func (w *Writer) Write(content string) {
	w.flushClose(2)
	if w.delim != "" && w.atBlank() {
		w.out = append(w.out, w.delim...)
	}
	w.out = append(w.out, content...)
}

// EnsureNewLine starts a new line unless the output already ends in one.
func (w *Writer) EnsureNewLine() {
	if !w.atBlank() {
		w.out = append(w.out, '\n')
	}
}

// CloseBlock marks n as finished; the blank line after it is written when
// more output follows.
func (w *Writer) CloseBlock(n *node.Node) {
	w.closed = n
}

// Text writes text line by line, escaping Markdown syntax when escape is set.
func (w *Writer) Text(text string, escape bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		startOfLine := w.atBlank() || w.closed != nil
		w.Write("")
		if escape {
			line = escapeText(line, startOfLine, w.inTable)
		}
		w.out = append(w.out, line...)
		if i != len(lines)-1 {
			w.out = append(w.out, '\n')
		}
	}
}

// WrapBlock renders fn with delim prefixed to every line; firstDelim, when
// not empty, replaces it on the first line.
func (w *Writer) WrapBlock(delim, firstDelim string, n *node.Node, fn func()) {
	old := w.delim
	if firstDelim == "" {
		firstDelim = delim
	}
	w.Write(firstDelim)
	w.delim += delim
	fn()
	w.delim = old
	w.CloseBlock(n)
}

// Render writes n with its registered writer.
func (w *Writer) Render(n, parent *node.Node, index int) {
	if fn, ok := w.writers[n.Type]; ok {
		fn(w, n, parent, index)
		return
	}
	if n.IsText() || len(n.Content) == 0 {
		w.Text(n.TextContent(), true)
		return
	}
	w.RenderContent(n)
	w.CloseBlock(n)
}

// RenderContent renders the block children of n.
func (w *Writer) RenderContent(n *node.Node) {
	for i, child := range n.Content {
		w.Render(child, n, i)
	}
}

// RenderList renders list items; firstDelim returns the marker of item i.
func (w *Writer) RenderList(n *node.Node, delim string, firstDelim func(int) string) {
	if prev := w.closed; prev != nil && prev.Type == n.Type {
		// Two adjacent lists of the same kind would merge into one.
		w.Write("<!-- -->")
		w.CloseBlock(prev)
	} else if w.inTightList {
		w.flushClose(1)
	}
	prevTight := w.inTightList
	w.inTightList = true
	for i, child := range n.Content {
		if i > 0 {
			w.flushClose(1)
		}
		w.WrapBlock(delim, firstDelim(i), n, func() { w.Render(child, n, i) })
	}
	w.inTightList = prevTight
}

var collapseNewlines = regexp.MustCompile(`[ \t]*\n[\s]*`)

// RenderInline writes the inline children of parent, opening and closing
// marks around runs of text.
func (w *Writer) RenderInline(parent *node.Node) {
	var (
		active  []node.Mark
		pending string
		mathEnd = -1
	)
	closeTo := func(keep int) {
		for len(active) > keep {
			m := active[len(active)-1]
			active = active[:len(active)-1]
			w.Write(closeMark(m))
		}
	}

	for i, child := range parent.Content {
		if child.IsText() && !child.HasMark(node.MarkCode) && strings.TrimSpace(child.Text) == "" {
			pending += child.Text
			continue
		}

		var marks []node.Mark
		lead, core, trail := "", "", ""
		if child.IsText() {
			marks = delimitedMarks(child.Marks)
			core = child.Text
			if !child.HasMark(node.MarkCode) {
				trimmed := strings.TrimLeft(core, " \t\n")
				lead = core[:len(core)-len(trimmed)]
				core = strings.TrimRight(trimmed, " \t\n")
				trail = trimmed[len(core):]
			}
		}

		keep := commonPrefix(active, marks)
		closeTo(keep)
		w.writeSpace(pending + lead)
		pending = ""
		for _, m := range marks[keep:] {
			w.Write(openMark(m))
			active = append(active, m)
		}

		switch {
		case !child.IsText():
			w.Render(child, parent, i)
		case child.HasMark(node.MarkCode):
			w.Write(codeSpan(child.Text, w.inTable))
		case child.HasMark(node.MarkMathInline):
			w.Write(mathSpan(core))
			mathEnd = len(w.out)
		default:
			if w.inTable || w.singleLine {
				core = strings.ReplaceAll(core, "\n", " ")
			}
			core = collapseNewlines.ReplaceAllString(core, "\n")
			if len(w.out) == mathEnd && core[0] >= '0' && core[0] <= '9' {
				// "$x$2" would not close the formula.
				w.Write("&#" + strconv.Itoa(int(core[0])) + ";")
				core = core[1:]
			}
			w.Text(core, true)
		}
		pending = trail
	}
	closeTo(0)
}

func (w *Writer) writeSpace(space string) {
	if space == "" {
		return
	}
	if w.atBlank() || w.closed != nil {
		return
	}
	space = strings.ReplaceAll(space, "\n", " ")
	w.Write(space)
}

// mathSpan writes an inline formula. Newlines become spaces and "$" is
// escaped so it cannot close the span.
func mathSpan(formula string) string {
	formula = strings.ReplaceAll(formula, "\n", " ")
	return "$" + strings.ReplaceAll(formula, "$", `\$`) + "$"
}

// delimitedMarks keeps the marks that have Markdown delimiters. Code and
// math are written as spans; underline and color have no Markdown form.
func delimitedMarks(marks []node.Mark) []node.Mark {
	var out []node.Mark
	for _, m := range marks {
		switch m.Type {
		case node.MarkLink, node.MarkBold, node.MarkItalic, node.MarkStrikethrough:
			out = append(out, m)
		}
	}
	return out
}

func commonPrefix(a, b []node.Mark) int {
	n := 0
	for n < len(a) && n < len(b) && markEqual(a[n], b[n]) {
		n++
	}
	return n
}

func openMark(m node.Mark) string {
	switch m.Type {
	case node.MarkBold:
		return "**"
	case node.MarkItalic:
		return "*"
	case node.MarkStrikethrough:
		return "~~"
	case node.MarkLink:
		return "["
	}
	return ""
}

func closeMark(m node.Mark) string {
	switch m.Type {
	case node.MarkLink:
		return "](" + destination(m.Attrs.String("href")) + linkTitle(m.Attrs.String("title")) + ")"
	default:
		return openMark(m)
	}
}

func destination(href string) string {
	if href == "" {
		return "<>"
	}
	if !strings.ContainsAny(href, " \t<>()\n") {
		return href
	}
	r := strings.NewReplacer("<", `\<`, ">", `\>`, "\n", " ")
	return "<" + r.Replace(href) + ">"
}

func linkTitle(title string) string {
	if title == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ")
	return ` "` + r.Replace(title) + `"`
}

func codeSpan(text string, inTable bool) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if inTable {
		text = strings.ReplaceAll(text, "|", `\|`)
	}
	fence := strings.Repeat("`", longestRun(text, '`')+1)
	pad := ""
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") ||
		(strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") && strings.TrimSpace(text) != "") {
		pad = " "
	}
	return fence + pad + text + pad + fence
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

var (
	lineStartMarker  = regexp.MustCompile(`^(\+ |[-*>=])`)
	lineStartHeading = regexp.MustCompile(`^(\s*)(#{1,6})(\s|$)`)
	lineStartOrdered = regexp.MustCompile(`^(\s*\d+)([.)])(\s|$)`)
	entityPattern    = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)
)

// escapeText backslash-escapes characters that Markdown would otherwise
// read as syntax.
func escapeText(s string, startOfLine, inTable bool) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '`', '*', '~', '[', ']', '$', '<':
			b.WriteByte('\\')
		case '_':
			if i == 0 || i == len(s)-1 || !isWordByte(s[i-1]) || !isWordByte(s[i+1]) {
				b.WriteByte('\\')
			}
		case '|':
			if inTable {
				b.WriteByte('\\')
			}
		case '&':
			if entityPattern.MatchString(s[i:]) {
				b.WriteByte('\\')
			}
		}
		b.WriteByte(c)
	}
	out := b.String()
	if startOfLine {
		out = lineStartMarker.ReplaceAllString(out, `\$1`)
		out = lineStartHeading.ReplaceAllString(out, `$1\$2$3`)
		out = lineStartOrdered.ReplaceAllString(out, `$1\$2$3`)
		if strings.HasPrefix(out, ":::") {
			out = `\` + out
		}
	}
	return out
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func defaultWriters() map[string]NodeWriter {
	return map[string]NodeWriter{
		node.TypeParagraph: func(w *Writer, n, _ *node.Node, _ int) {
			w.RenderInline(n)
			w.CloseBlock(n)
		},
		node.TypeHeading: func(w *Writer, n, _ *node.Node, _ int) {
			level := min(max(n.IntAttr("level"), 1), 6)
			w.Write(strings.Repeat("#", level) + " ")
			w.singleLine = true
			w.RenderInline(n)
			w.singleLine = false
			w.CloseBlock(n)
		},
		node.TypeBlockquote: func(w *Writer, n, _ *node.Node, _ int) {
			w.WrapBlock("> ", "", n, func() { w.RenderContent(n) })
		},
		node.TypeNotice:       writeNotice,
		node.TypeBulletList:   writeBulletList,
		node.TypeOrderedList:  writeOrderedList,
		node.TypeCheckboxList: writeCheckboxList,
		node.TypeListItem: func(w *Writer, n, _ *node.Node, _ int) {
			w.RenderContent(n)
		},
		node.TypeCheckboxItem: func(w *Writer, n, _ *node.Node, _ int) {
			w.RenderContent(n)
		},
		node.TypeTable:     writeTable,
		node.TypeCodeBlock: writeCodeBlock,
		node.TypeMathBlock: func(w *Writer, n, _ *node.Node, _ int) {
			writeFenced(w, n, "$$", "", EscapeMathFences(n.TextContent()))
		},
		node.TypeHorizontalRule: func(w *Writer, n, _ *node.Node, _ int) {
			w.Write("---")
			w.CloseBlock(n)
		},
		node.TypeHardBreak: writeHardBreak,
		node.TypeImage:     writeImage,
		node.TypeAttachment: func(w *Writer, n, _ *node.Node, _ int) {
			label := attachmentLabel(n) + " " + formatSize(n.Attr("size"))
			w.Write("[" + escapeText(label, false, false) + "](" + destination(n.StringAttr("href")) + ")")
			w.CloseBlock(n)
		},
		node.TypePDFEmbed: func(w *Writer, n, _ *node.Node, _ int) {
			label := attachmentLabel(n) + " pdf:" + formatSize(n.Attr("size"))
			w.Write("[" + escapeText(label, false, false) + "](" + destination(n.StringAttr("href")) + ")")
			w.CloseBlock(n)
		},
		node.TypeEmbed: func(w *Writer, n, _ *node.Node, _ int) {
			w.Write("[" + escapeText(n.StringAttr("title"), false, false) + "](" + destination(n.StringAttr("href")) + ` "embed")`)
			w.CloseBlock(n)
		},
		node.TypeVideo: writeVideo,
		node.TypeMention: func(w *Writer, n, _ *node.Node, _ int) {
			href := links.MentionURL(links.Mention{
				ID:      n.StringAttr("id"),
				Type:    n.StringAttr("type"),
				ModelID: n.StringAttr("modelId"),
			})
			w.Write("@[" + escapeText(n.StringAttr("label"), false, w.inTable) + "](" + destination(href) + ")")
		},
	}
}

func writeNotice(w *Writer, n, _ *node.Node, _ int) {
	style := n.StringAttr("style")
	if style == "" {
		style = "info"
	}
	w.Write(":::" + style)
	w.EnsureNewLine()
	w.RenderContent(n)
	w.Write(":::")
	w.CloseBlock(n)
}

func writeBulletList(w *Writer, n, _ *node.Node, _ int) {
	w.RenderList(n, "  ", func(int) string { return "- " })
}

func writeOrderedList(w *Writer, n, _ *node.Node, _ int) {
	start := 1
	if n.Attrs.Has("order") {
		start = n.IntAttr("order")
	}
	width := len(strconv.Itoa(start + len(n.Content) - 1))
	delim := strings.Repeat(" ", width+2)
	w.RenderList(n, delim, func(i int) string {
		num := strconv.Itoa(start + i)
		return strings.Repeat(" ", width-len(num)) + num + ". "
	})
}

func writeCheckboxList(w *Writer, n, _ *node.Node, _ int) {
	w.RenderList(n, "  ", func(i int) string {
		if n.Content[i].BoolAttr("checked") {
			return "- [x] "
		}
		return "- [ ] "
	})
}

func writeTable(w *Writer, n, _ *node.Node, _ int) {
	if len(n.Content) == 0 {
		return
	}
	w.inTable = true
	defer func() { w.inTable = false }()

	for r, row := range n.Content {
		w.Write("|")
		for _, cell := range row.Content {
			w.out = append(w.out, ' ')
			for j, para := range cell.Content {
				if j > 0 {
					w.Write("<br>")
				}
				w.RenderInline(para)
			}
			w.Write(" |")
		}
		w.EnsureNewLine()
		if r == 0 {
			w.Write("|")
			for _, cell := range row.Content {
				w.out = append(w.out, alignmentRule(cell.StringAttr("alignment"))...)
			}
			w.EnsureNewLine()
		}
	}
	w.CloseBlock(n)
}

func alignmentRule(alignment string) string {
	switch alignment {
	case "left":
		return " :--- |"
	case "center":
		return " :---: |"
	case "right":
		return " ---: |"
	}
	return " --- |"
}

func writeCodeBlock(w *Writer, n, _ *node.Node, _ int) {
	content := n.TextContent()
	fence := "```"
	if run := longestRun(content, '`'); run >= 3 {
		fence = strings.Repeat("`", run+1)
	}
	writeFenced(w, n, fence, n.StringAttr("language"), n.TextContent())
}

func writeFenced(w *Writer, n *node.Node, fence, info, content string) {
	w.Write(fence + info)
	w.out = append(w.out, '\n')
	if content = strings.TrimSuffix(content, "\n"); content != "" {
		w.Text(content, false)
		w.EnsureNewLine()
	}
	w.Write(fence)
	w.CloseBlock(n)
}

func writeHardBreak(w *Writer, n, parent *node.Node, index int) {
	if parent == nil {
		return
	}
	for _, sibling := range parent.Content[index+1:] {
		if sibling.Type != n.Type {
			switch {
			case w.inTable:
				w.Write("<br>")
			case w.singleLine:
				w.Write(" ")
			default:
				w.Write("\\\n")
			}
			return
		}
	}
}

func writeImage(w *Writer, n, _ *node.Node, _ int) {
	alt := escapeText(n.StringAttr("alt"), false, w.inTable)
	w.Write("![" + alt + "](" + destination(n.StringAttr("src")) + linkTitle(n.StringAttr("title")) + ")")
}

func writeVideo(w *Writer, n, _ *node.Node, _ int) {
	title := "video"
	width, height := n.IntAttr("width"), n.IntAttr("height")
	if width > 0 && height > 0 {
		title += " " + strconv.Itoa(width) + "x" + strconv.Itoa(height)
	}
	w.Write("[" + escapeText(n.StringAttr("title"), false, false) + "](" + destination(n.StringAttr("src")) + linkTitle(title) + ")")
	w.CloseBlock(n)
}

func attachmentLabel(n *node.Node) string {
	if title := n.StringAttr("title"); title != "" {
		return title
	}
	return UntitledAttachment
}

func formatSize(v any) string {
	switch size := v.(type) {
	case float64:
		return strconv.FormatFloat(max(size, 0), 'f', 0, 64)
	case int:
		return strconv.Itoa(max(size, 0))
	case int64:
		return strconv.FormatInt(max(size, 0), 10)
	}
	return "0"
}
