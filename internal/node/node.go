package node

import (
	"encoding/json"
	"maps"
	"strconv"
	"strings"
)

// Node type names.
const (
	TypeDoc            = "doc"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeBlockquote     = "blockquote"
	TypeNotice         = "notice"
	TypeBulletList     = "bullet_list"
	TypeOrderedList    = "ordered_list"
	TypeCheckboxList   = "checkbox_list"
	TypeListItem       = "list_item"
	TypeCheckboxItem   = "checkbox_item"
	TypeTable          = "table"
	TypeTableRow       = "table_row"
	TypeTableHeader    = "table_header"
	TypeTableCell      = "table_cell"
	TypeCodeBlock      = "code_block"
	TypeMathBlock      = "math_block"
	TypeHorizontalRule = "horizontal_rule"
	TypeHardBreak      = "hard_break"
	TypeImage          = "image"
	TypeVideo          = "video"
	TypeAttachment     = "attachment"
	TypePDFEmbed       = "pdf_embed"
	TypeEmbed          = "embed"
	TypeMention        = "mention"
	TypeText           = "text"
)

// Mark type names.
const (
	MarkBold          = "bold"
	MarkItalic        = "italic"
	MarkStrikethrough = "strikethrough"
	MarkUnderline     = "underline"
	MarkCode          = "code"
	MarkLink          = "link"
	MarkColor         = "color"
	MarkMathInline    = "math_inline"
)

// Attrs maps attribute names to primitive values: string, float64, bool or nil.
type Attrs map[string]any

// Mark is an inline annotation on a text node.
type Mark struct {
	Type  string `json:"type"`
	Attrs Attrs  `json:"attrs,omitempty"`
}

// Node is one element of a document tree. The JSON form is the persisted
// document format.
type Node struct {
	Type    string  `json:"type"`
	Attrs   Attrs   `json:"attrs,omitempty"`
	Content []*Node `json:"content,omitempty"`
	Marks   []Mark  `json:"marks,omitempty"`
	Text    string  `json:"text,omitempty"`
}

// EmptyDoc returns a document with no content.
func EmptyDoc() *Node {
	return &Node{Type: TypeDoc, Content: []*Node{}}
}

// New builds a node of the given type with children.
func New(typ string, attrs Attrs, content ...*Node) *Node {
	return &Node{Type: typ, Attrs: attrs, Content: content}
}

// NewText builds a text node.
func NewText(text string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: text, Marks: marks}
}

func (n *Node) IsText() bool { return n != nil && n.Type == TypeText }

// IsEmptyDoc reports whether n is a doc without children.
func (n *Node) IsEmptyDoc() bool {
	return n != nil && n.Type == TypeDoc && len(n.Content) == 0
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Type:  n.Type,
		Attrs: maps.Clone(n.Attrs),
		Text:  n.Text,
	}
	if n.Content != nil {
		out.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = child.Clone()
		}
	}
	if n.Marks != nil {
		out.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			out.Marks[i] = Mark{Type: m.Type, Attrs: maps.Clone(m.Attrs)}
		}
	}
	return out
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Type == TypeText {
		return n.Text
	}
	var b strings.Builder
	Walk(n, func(child *Node, _ *Node) WalkStatus {
		if child.Type == TypeText {
			b.WriteString(child.Text)
		}
		return WalkContinue
	})
	return b.String()
}

// MarkOf returns the first mark of the given type.
func (n *Node) MarkOf(typ string) (Mark, bool) {
	if n == nil {
		return Mark{}, false
	}
	for _, m := range n.Marks {
		if m.Type == typ {
			return m, true
		}
	}
	return Mark{}, false
}

func (n *Node) HasMark(typ string) bool {
	_, ok := n.MarkOf(typ)
	return ok
}

// Attr returns the raw attribute value.
func (n *Node) Attr(name string) any {
	if n == nil {
		return nil
	}
	return n.Attrs[name]
}

func (n *Node) StringAttr(name string) string { return n.Attrs.String(name) }
func (n *Node) IntAttr(name string) int       { return n.Attrs.Int(name) }
func (n *Node) BoolAttr(name string) bool     { return n.Attrs.Bool(name) }

// SetAttr sets an attribute, allocating the map if needed.
func (n *Node) SetAttr(name string, value any) {
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	n.Attrs[name] = value
}

// String returns the attribute as a string. Numbers are formatted, nil and
// missing attributes yield "".
func (a Attrs) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the attribute as an int, parsing numeric strings. Missing or
// unparsable values yield 0.
func (a Attrs) Int(name string) int {
	switch v := a[name].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, _ := v.Float64()
			return int(f)
		}
		return int(i)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(v))
		return i
	default:
		return 0
	}
}

func (a Attrs) Bool(name string) bool {
	switch v := a[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Has reports whether the attribute is present and non-nil.
func (a Attrs) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// ToMap converts n to its generic JSON shape.
func (n *Node) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
