package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMathBlock is the goldmark node kind of a "$$" math block.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathBlock is a display math block delimited by "$$" lines.
type MathBlock struct {
	ast.BaseBlock
	singleLine bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw keeps goldmark from running inline parsers over the formula.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Source returns the formula with the delimiters removed and escaped "$$"
// lines restored.
func (n *MathBlock) Source(source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := seg.Value(source)
		if !n.singleLine && isEscapedMathFence(line) {
			line = bytes.Replace(line, []byte(`\`), nil, 1)
		}
		buf.Write(line)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\r\n"))
}

var mathFence = []byte("$$")

// isEscapedMathFence reports whether line is "$$" preceded by backslashes
// and blanks, with at least one backslash.
func isEscapedMathFence(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	rest := bytes.TrimLeft(trimmed, " \t\\")
	return bytes.Equal(rest, mathFence) && bytes.IndexByte(trimmed[:len(trimmed)-len(rest)], '\\') >= 0
}

// EscapeMathFences prefixes a backslash to every formula line that would
// read as a "$$" delimiter, or as an escaped one.
func EscapeMathFences(formula string) string {
	lines := strings.Split(formula, "\n")
	for i, line := range lines {
		if bytes.Equal(bytes.TrimSpace([]byte(line)), mathFence) || isEscapedMathFence([]byte(line)) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

// KindMathInline is the goldmark node kind of "$…$" inline math.
var KindMathInline = ast.NewNodeKind("MathInline")

// MathInline is an inline formula.
type MathInline struct {
	ast.BaseInline
	Value []byte
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Formula returns the span's source with escaped dollar signs restored.
func (n *MathInline) Formula() string {
	return strings.ReplaceAll(string(n.Value), `\$`, "$")
}

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": string(n.Value)}, nil)
}

type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (p *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos+1 >= len(line) || line[pos] != '$' || line[pos+1] != '$' {
		return nil, parser.NoChildren
	}
	node := &MathBlock{}
	rest := bytes.TrimSpace(line[pos+2:])
	if len(rest) > 0 {
		// "$$x^2$$" on a single line.
		if !bytes.HasSuffix(rest, []byte("$$")) || len(rest) < 3 {
			return nil, parser.NoChildren
		}
		start := segment.Start + pos + 2 + bytes.Index(line[pos+2:], rest[:1])
		node.Lines().Append(text.NewSegment(start, start+len(rest)-2))
		node.singleLine = true
	}
	advanceLine(reader, line, segment)
	return node, parser.NoChildren
}

func (p *mathBlockParser) Continue(n ast.Node, reader text.Reader, pc parser.Context) parser.State {
	if block, ok := n.(*MathBlock); ok && block.singleLine {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		trimmed := bytes.TrimSpace(line[pos:])
		if bytes.Equal(trimmed, mathFence) {
			advanceLine(reader, line, segment)
			return parser.Close
		}
	}
	n.Lines().Append(segment)
	advanceLine(reader, line, segment)
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(ast.Node, text.Reader, parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool { return true }

func (p *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// advanceLine consumes the rest of the current line. The last line of the
// input may have no newline.
func advanceLine(reader text.Reader, line []byte, segment text.Segment) {
	n := segment.Len()
	if len(line) > 0 && line[len(line)-1] == '\n' {
		n--
	}
	reader.Advance(n)
}

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte { return []byte{'$'} }

// Parse accepts "$x$" where the opening "$" is not followed by a space or a
// second "$" and the closing "$" is not preceded by a space or followed by
// a digit, so prices such as "$5 and $6" stay text.
func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 3 || line[0] != '$' || line[1] == '$' || line[1] == ' ' {
		return nil
	}
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '$':
			if line[i-1] == ' ' {
				return nil
			}
			if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
				return nil
			}
			node := &MathInline{Value: append([]byte(nil), line[1:i]...)}
			block.Advance(i + 1)
			return node
		case '\n':
			return nil
		}
	}
	return nil
}

type mathExtension struct{}

// Math adds "$$" display blocks and "$…$" inline formulas.
var Math goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 750)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 150)),
	)
}
