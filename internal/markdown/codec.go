package markdown

import (
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/schema"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// Codec converts between document trees and Markdown (and HTML on import).
type Codec struct {
	parser     *Parser
	serializer *Serializer
	importer   *HTMLImporter
	logger     interfaces.Logger
}

// Option configures a Codec.
type Option func(*codecConfig)

type codecConfig struct {
	logger     interfaces.Logger
	extensions []string
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *codecConfig) {
		c.logger = logger
	}
}

// WithExtensions selects the goldmark extensions by name ("table",
// "strikethrough", "tasklist", "linkify", "math", "notice").
func WithExtensions(names ...string) Option {
	return func(c *codecConfig) {
		c.extensions = append([]string(nil), names...)
	}
}

// NewCodec builds a codec over registry; nil selects schema.Default.
func NewCodec(registry *schema.Registry, opts ...Option) *Codec {
	cfg := codecConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := logging.Ensure(cfg.logger)
	parser := NewParser(registry, logger, cfg.extensions...)
	return &Codec{
		parser:     parser,
		serializer: NewSerializer(),
		importer:   NewHTMLImporter(parser),
		logger:     logger,
	}
}

// ToMarkdown serializes doc.
func (c *Codec) ToMarkdown(doc *node.Node) string {
	return c.serializer.Serialize(doc)
}

// FromMarkdown parses Markdown text into a document.
func (c *Codec) FromMarkdown(text string) (*node.Node, error) {
	doc, err := c.parser.Parse(text)
	if err != nil {
		c.logger.Error("markdown.parse.failed", append([]any{"error", err}, logging.PayloadField(text)...)...)
		return nil, err
	}
	return doc, nil
}

// FromHTML imports an HTML fragment or page.
func (c *Codec) FromHTML(html string) (*node.Node, error) {
	return c.importer.Import(html)
}

// Parser exposes the Markdown reader.
func (c *Codec) Parser() *Parser {
	return c.parser
}

// Serializer exposes the Markdown writer so callers can register writers
// for custom node types.
func (c *Codec) Serializer() *Serializer {
	return c.serializer
}
