package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindNoticeBlock is the goldmark node kind of a ":::style" container.
var KindNoticeBlock = ast.NewNodeKind("Notice")

// NoticeBlock is a block container opened by ":::<style>" and closed by ":::".
type NoticeBlock struct {
	ast.BaseBlock
	Style string
}

// Kind implements ast.Node.
func (n *NoticeBlock) Kind() ast.NodeKind { return KindNoticeBlock }

// Dump implements ast.Node.
func (n *NoticeBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Style": n.Style}, nil)
}

var noticeFence = []byte(":::")

type noticeParser struct{}

func (p *noticeParser) Trigger() []byte { return []byte{':'} }

func (p *noticeParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], noticeFence) {
		return nil, parser.NoChildren
	}
	style := bytes.TrimSpace(line[pos+len(noticeFence):])
	if len(style) == 0 || bytes.ContainsAny(style, " \t:") {
		return nil, parser.NoChildren
	}
	advanceLine(reader, line, segment)
	return &NoticeBlock{Style: string(style)}, parser.HasChildren
}

func (p *noticeParser) Continue(n ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	if bytes.Equal(bytes.TrimSpace(line), noticeFence) {
		advanceLine(reader, line, segment)
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *noticeParser) Close(ast.Node, text.Reader, parser.Context) {}

func (p *noticeParser) CanInterruptParagraph() bool { return true }

func (p *noticeParser) CanAcceptIndentedLine() bool { return false }

type noticeExtension struct{}

// Notice adds ":::info" style callout containers.
var Notice goldmark.Extender = &noticeExtension{}

func (e *noticeExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&noticeParser{}, 760)),
	)
}
