package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/schema"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// ErrParse reports Markdown that could not be turned into a document.
var ErrParse = errors.New("markdown: parse failed")

// UntitledAttachment is the title used when an attachment link carries no
// usable title.
const UntitledAttachment = "Untitled"

var (
	pdfTitlePattern   = regexp.MustCompile(`^(.*) pdf:(\d+)$`)
	sizeTitlePattern  = regexp.MustCompile(`^(.*) (\d+)$`)
	videoTitlePattern = regexp.MustCompile(`^video(?: (\d+)x(\d+))?$`)
	breakTagPattern   = regexp.MustCompile(`(?i)^<br\s*/?>$`)
	htmlCommentPrefix = []byte("<!--")
)

// Parser reads Markdown into document trees.
type Parser struct {
	registry *schema.Registry
	engine   goldmark.Markdown
	logger   interfaces.Logger
}

// NewParser builds a parser validating its output against registry. A nil
// registry uses schema.Default.
func NewParser(registry *schema.Registry, logger interfaces.Logger, extensions ...string) *Parser {
	if registry == nil {
		registry = schema.Default()
	}
	return &Parser{
		registry: registry,
		engine:   newEngine(extensions),
		logger:   logging.Ensure(logger),
	}
}

// Parse converts Markdown text into a document. Constructs without a
// dedicated mapping degrade to paragraphs and text.
func (p *Parser) Parse(src string) (doc *node.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	source := []byte(src)
	root := p.engine.Parser().Parse(text.NewReader(source))
	conv := &converter{source: source, registry: p.registry}
	tree := node.New(node.TypeDoc, nil, conv.blocks(root)...)

	checked, err := p.registry.Check(tree)
	if err != nil {
		p.logger.Warn("markdown.parse.invalid", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return checked, nil
}

type converter struct {
	source   []byte
	registry *schema.Registry
	// set after a task checkbox so the following space is not kept as text
	trimLeading bool
}

func (c *converter) blocks(parent ast.Node) []*node.Node {
	var out []*node.Node
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.block(child)...)
	}
	return out
}

func (c *converter) block(n ast.Node) []*node.Node {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if atom := c.blockAtom(v); atom != nil {
			return []*node.Node{atom}
		}
		inline := c.inlines(v, nil)
		if len(inline) == 0 {
			return nil
		}
		return []*node.Node{node.New(node.TypeParagraph, nil, inline...)}
	case *ast.Heading:
		return []*node.Node{node.New(node.TypeHeading, node.Attrs{"level": float64(v.Level)}, c.inlines(v, nil)...)}
	case *ast.Blockquote:
		return []*node.Node{node.New(node.TypeBlockquote, nil, c.blocks(v)...)}
	case *NoticeBlock:
		return []*node.Node{node.New(node.TypeNotice, node.Attrs{"style": v.Style}, c.blocks(v)...)}
	case *MathBlock:
		return []*node.Node{node.New(node.TypeMathBlock, nil, textChildren(v.Source(c.source))...)}
	case *ast.FencedCodeBlock:
		lang := ""
		if v.Info != nil {
			lang = string(v.Language(c.source))
		}
		return []*node.Node{node.New(node.TypeCodeBlock, node.Attrs{"language": lang}, textChildren(c.lines(v))...)}
	case *ast.CodeBlock:
		return []*node.Node{node.New(node.TypeCodeBlock, node.Attrs{"language": ""}, textChildren(c.lines(v))...)}
	case *ast.ThematicBreak:
		return []*node.Node{node.New(node.TypeHorizontalRule, nil)}
	case *ast.List:
		return []*node.Node{c.list(v)}
	case *extast.Table:
		return []*node.Node{c.table(v)}
	case *ast.HTMLBlock:
		raw := strings.TrimSpace(c.lines(v))
		if raw == "" || strings.HasPrefix(raw, string(htmlCommentPrefix)) {
			return nil
		}
		return []*node.Node{node.New(node.TypeParagraph, nil, node.NewText(raw))}
	default:
		if n.HasChildren() {
			return c.blocks(n)
		}
		return nil
	}
}

func (c *converter) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return strings.TrimRight(b.String(), "\n")
}

func textChildren(s string) []*node.Node {
	if s == "" {
		return nil
	}
	return []*node.Node{node.NewText(s)}
}

func (c *converter) list(l *ast.List) *node.Node {
	typ, itemType := node.TypeBulletList, node.TypeListItem
	var attrs node.Attrs
	switch {
	case l.IsOrdered():
		typ = node.TypeOrderedList
		attrs = node.Attrs{"order": float64(l.Start)}
	case isTaskList(l):
		typ, itemType = node.TypeCheckboxList, node.TypeCheckboxItem
	}

	list := node.New(typ, attrs)
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var itemAttrs node.Attrs
		if itemType == node.TypeCheckboxItem {
			itemAttrs = node.Attrs{"checked": taskChecked(item)}
		}
		content := c.blocks(item)
		if len(content) == 0 {
			content = []*node.Node{node.New(node.TypeParagraph, nil)}
		}
		list.Content = append(list.Content, node.New(itemType, itemAttrs, content...))
	}
	return list
}

func taskCheckBox(item ast.Node) *extast.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	box, _ := first.FirstChild().(*extast.TaskCheckBox)
	return box
}

func isTaskList(l *ast.List) bool {
	first := l.FirstChild()
	return first != nil && taskCheckBox(first) != nil
}

func taskChecked(item ast.Node) bool {
	if box := taskCheckBox(item); box != nil {
		return box.IsChecked
	}
	return false
}

func (c *converter) table(t *extast.Table) *node.Node {
	table := node.New(node.TypeTable, nil)
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		cellType := node.TypeTableCell
		if _, ok := row.(*extast.TableHeader); ok {
			cellType = node.TypeTableHeader
		}
		tr := node.New(node.TypeTableRow, nil)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			attrs := node.Attrs{}
			if tc, ok := cell.(*extast.TableCell); ok {
				switch tc.Alignment {
				case extast.AlignLeft:
					attrs["alignment"] = "left"
				case extast.AlignCenter:
					attrs["alignment"] = "center"
				case extast.AlignRight:
					attrs["alignment"] = "right"
				}
			}
			tr.Content = append(tr.Content, node.New(cellType, attrs, node.New(node.TypeParagraph, nil, c.inlines(cell, nil)...)))
		}
		if len(tr.Content) > 0 {
			table.Content = append(table.Content, tr)
		}
	}
	return table
}

// blockAtom maps a paragraph holding a single link onto attachment, pdf
// embed, embed or video nodes.
func (c *converter) blockAtom(p ast.Node) *node.Node {
	var link *ast.Link
	for child := p.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Link:
			if link != nil {
				return nil
			}
			link = v
		case *ast.Text:
			if strings.TrimSpace(string(v.Segment.Value(c.source))) != "" {
				return nil
			}
		default:
			return nil
		}
	}
	if link == nil {
		return nil
	}

	href := unescape(link.Destination)
	title := unescape(link.Title)
	label := c.plainText(link)

	if title == "embed" {
		return node.New(node.TypeEmbed, node.Attrs{"href": href, "title": label})
	}
	if m := videoTitlePattern.FindStringSubmatch(title); m != nil {
		attrs := node.Attrs{"src": href, "title": label}
		if m[1] != "" {
			attrs["width"], _ = strconv.ParseFloat(m[1], 64)
			attrs["height"], _ = strconv.ParseFloat(m[2], 64)
		}
		return node.New(node.TypeVideo, attrs)
	}
	if title != "" {
		return nil
	}
	id, ok := links.AttachmentID(href)
	if !ok {
		return nil
	}

	typ := node.TypeAttachment
	name, size := label, 0.0
	if m := pdfTitlePattern.FindStringSubmatch(label); m != nil {
		typ = node.TypePDFEmbed
		name, size = m[1], parseSize(m[2])
	} else if m := sizeTitlePattern.FindStringSubmatch(label); m != nil {
		name, size = m[1], parseSize(m[2])
	}
	name = attachmentTitle(name, href)
	return node.New(typ, node.Attrs{"id": id, "href": href, "title": name, "size": size})
}

func attachmentTitle(title, href string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if name := links.FileNameFromURL(href); name != "" {
		return name
	}
	return UntitledAttachment
}

func parseSize(s string) float64 {
	size, _ := strconv.ParseFloat(s, 64)
	return size
}

func (c *converter) inlines(parent ast.Node, marks []node.Mark) []*node.Node {
	var out []*node.Node
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		out = c.inline(child, marks, out)
	}
	return mergeTextNodes(out)
}

func (c *converter) inline(n ast.Node, marks []node.Mark, out []*node.Node) []*node.Node {
	switch v := n.(type) {
	case *ast.Text:
		value := string(v.Segment.Value(c.source))
		if !v.IsRaw() {
			value = unescape([]byte(value))
		}
		if c.trimLeading {
			value = strings.TrimLeft(value, " \t")
			c.trimLeading = false
		}
		out = appendText(out, value, marks)
		switch {
		case v.HardLineBreak():
			out = append(out, node.New(node.TypeHardBreak, nil))
		case v.SoftLineBreak():
			out = appendText(out, " ", marks)
		}
	case *ast.String:
		value := string(v.Value)
		if !v.IsCode() && !v.IsRaw() {
			value = unescape(v.Value)
		}
		out = appendText(out, value, marks)
	case *ast.CodeSpan:
		out = appendText(out, c.rawText(v), c.registry.AddMark(marks, node.Mark{Type: node.MarkCode}))
	case *MathInline:
		out = appendText(out, v.Formula(), c.registry.AddMark(marks, node.Mark{Type: node.MarkMathInline}))
	case *ast.Emphasis:
		typ := node.MarkItalic
		if v.Level >= 2 {
			typ = node.MarkBold
		}
		for child := v.FirstChild(); child != nil; child = child.NextSibling() {
			out = c.inline(child, c.registry.AddMark(marks, node.Mark{Type: typ}), out)
		}
	case *extast.Strikethrough:
		for child := v.FirstChild(); child != nil; child = child.NextSibling() {
			out = c.inline(child, c.registry.AddMark(marks, node.Mark{Type: node.MarkStrikethrough}), out)
		}
	case *ast.Link:
		href := unescape(v.Destination)
		if mention, ok := links.ParseMentionURL(href); ok {
			out = stripMentionPrefix(out)
			return append(out, node.New(node.TypeMention, node.Attrs{
				"id":      mention.ID,
				"type":    mention.Type,
				"modelId": mention.ModelID,
				"label":   c.plainText(v),
			}))
		}
		link := node.Mark{Type: node.MarkLink, Attrs: node.Attrs{"href": href}}
		if len(v.Title) > 0 {
			link.Attrs["title"] = unescape(v.Title)
		}
		for child := v.FirstChild(); child != nil; child = child.NextSibling() {
			out = c.inline(child, c.registry.AddMark(marks, link), out)
		}
	case *ast.AutoLink:
		label := string(v.Label(c.source))
		href := string(v.URL(c.source))
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		out = appendText(out, label, c.registry.AddMark(marks, node.Mark{Type: node.MarkLink, Attrs: node.Attrs{"href": href}}))
	case *ast.Image:
		attrs := node.Attrs{"src": unescape(v.Destination), "alt": c.plainText(v)}
		if len(v.Title) > 0 {
			attrs["title"] = unescape(v.Title)
		}
		out = append(out, node.New(node.TypeImage, attrs))
	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			raw.Write(seg.Value(c.source))
		}
		if breakTagPattern.MatchString(raw.String()) {
			return append(out, node.New(node.TypeHardBreak, nil))
		}
		out = appendText(out, raw.String(), marks)
	case *extast.TaskCheckBox:
		c.trimLeading = true
	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			out = c.inline(child, marks, out)
		}
	}
	return out
}

// plainText flattens the inline children of n into their unescaped text.
func (c *converter) plainText(n ast.Node) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			b.WriteString(unescape(v.Segment.Value(c.source)))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.WriteString(string(v.Value))
		case *ast.CodeSpan:
			b.WriteString(c.rawText(v))
		case *MathInline:
			b.WriteString(v.Formula())
		default:
			b.WriteString(c.plainText(child))
		}
	}
	return b.String()
}

func (c *converter) rawText(n ast.Node) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(c.source))
		case *ast.String:
			b.Write(v.Value)
		}
	}
	return b.String()
}

func stripMentionPrefix(out []*node.Node) []*node.Node {
	if len(out) == 0 {
		return out
	}
	last := out[len(out)-1]
	if !last.IsText() || !strings.HasSuffix(last.Text, "@") {
		return out
	}
	last.Text = strings.TrimSuffix(last.Text, "@")
	if last.Text == "" {
		return out[:len(out)-1]
	}
	return out
}

func appendText(out []*node.Node, value string, marks []node.Mark) []*node.Node {
	if value == "" {
		return out
	}
	t := node.NewText(value)
	if len(marks) > 0 {
		t.Marks = append([]node.Mark(nil), marks...)
	}
	return append(out, t)
}

func mergeTextNodes(nodes []*node.Node) []*node.Node {
	if len(nodes) < 2 {
		return nodes
	}
	out := make([]*node.Node, 0, len(nodes))
	for _, n := range nodes {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.IsText() && n.IsText() && marksEqual(prev.Marks, n.Marks) {
				prev.Text += n.Text
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func marksEqual(a, b []node.Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !markEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func markEqual(a, b node.Mark) bool {
	return a.Type == b.Type && maps.Equal(a.Attrs, b.Attrs)
}

// unescape resolves backslash escapes and character references in one
// pass so an escaped "&" is never read as the start of an entity.
func unescape(value []byte) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); {
		c := value[i]
		if c == '\\' && i+1 < len(value) && util.IsPunct(value[i+1]) {
			b.WriteByte(value[i+1])
			i += 2
			continue
		}
		if c == '&' {
			if end := bytes.IndexByte(value[i:], ';'); end > 1 && end <= 32 {
				ref := value[i : i+end+1]
				resolved := util.ResolveEntityNames(util.ResolveNumericReferences(ref))
				if !bytes.Equal(resolved, ref) {
					b.Write(resolved)
					i += end + 1
					continue
				}
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}
