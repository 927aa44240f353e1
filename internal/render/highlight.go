package render

import (
	"bytes"
	"errors"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultCodeStyle is the chroma style used for highlighted code.
const DefaultCodeStyle = "github"

// ErrNoLexer is returned when no lexer matches a code block.
var ErrNoLexer = errors.New("render: no lexer for code block")

// Highlighter renders code blocks with chroma using CSS classes.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter builds a highlighter for the named chroma style. Unknown
// names select the chroma fallback style.
func NewHighlighter(styleName string) *Highlighter {
	if strings.TrimSpace(styleName) == "" {
		styleName = DefaultCodeStyle
	}
	return &Highlighter{
		style: styles.Get(styleName),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Highlight returns highlighted markup for source. The lexer is chosen by
// language first and by content analysis second. ErrNoLexer is returned
// when neither finds one.
func (h *Highlighter) Highlight(source, language string) (string, error) {
	lexer := h.lexer(source, language)
	if lexer == nil {
		return "", ErrNoLexer
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (h *Highlighter) lexer(source, language string) chroma.Lexer {
	if language = strings.TrimSpace(language); language != "" {
		if lexer := lexers.Get(language); lexer != nil {
			return lexer
		}
	}
	return lexers.Analyse(source)
}

// CSS returns the stylesheet for the highlighter's classes.
func (h *Highlighter) CSS() (string, error) {
	var buf bytes.Buffer
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}
