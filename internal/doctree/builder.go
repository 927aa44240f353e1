// Package doctree builds document trees from whatever the storage or import
// layers hand over: persisted JSON, Markdown text or nothing at all.
package doctree

import (
	"encoding/json"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/schema"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// DocumentInvalidCode is the text code attached to rejected documents.
const DocumentInvalidCode = "DOCUMENT_INVALID"

var (
	ErrMissingInput = errors.New("doctree: no document")
	ErrNotObject    = errors.New("doctree: document is not an object")
	ErrMissingType  = errors.New("doctree: document has no type")
	ErrNotDocument  = errors.New("doctree: root node is not a doc")
	ErrNoParser     = errors.New("doctree: no markdown parser configured")
)

// MarkdownParser reads Markdown into a tree.
type MarkdownParser interface {
	Parse(text string) (*node.Node, error)
}

// Builder turns raw input into document trees.
type Builder struct {
	registry       *schema.Registry
	parser         MarkdownParser
	logger         interfaces.Logger
	repairMentions bool
	newID          func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger receiving malformed-input reports.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithMarkdownParser enables Markdown string input.
func WithMarkdownParser(parser MarkdownParser) Option {
	return func(b *Builder) {
		b.parser = parser
	}
}

// WithMentionRepair assigns fresh ids to missing or duplicated mention ids
// in trees parsed from Markdown.
func WithMentionRepair(enabled bool) Option {
	return func(b *Builder) {
		b.repairMentions = enabled
	}
}

// WithIDGenerator overrides the mention id generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// NewBuilder returns a builder validating against registry; nil selects
// schema.Default.
func NewBuilder(registry *schema.Registry, opts ...Option) *Builder {
	if registry == nil {
		registry = schema.Default()
	}
	b := &Builder{
		registry:       registry,
		repairMentions: true,
		newID:          NewMentionID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.logger = logging.Ensure(b.logger)
	return b
}

// Build returns a valid document for any input. Missing or malformed input
// is logged and yields an empty document; Build never panics and never
// returns nil.
func (b *Builder) Build(input any) (doc *node.Node) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("doctree.build.panic", "panic", fmt.Sprint(r))
			doc = node.EmptyDoc()
		}
	}()

	doc, err := b.build(input)
	if err != nil {
		b.report(err, input)
		return node.EmptyDoc()
	}
	return doc
}

// BuildStrict is Build without the fallback: rejected input returns a
// validation error tagged DOCUMENT_INVALID.
func (b *Builder) BuildStrict(input any) (doc *node.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, Invalid(fmt.Errorf("doctree: panic: %v", r))
		}
	}()

	doc, err = b.build(input)
	if err != nil {
		return nil, Invalid(err)
	}
	return doc, nil
}

// Invalid tags err as a rejected document.
func Invalid(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid document").
		WithTextCode(DocumentInvalidCode)
}

func (b *Builder) build(input any) (*node.Node, error) {
	switch v := input.(type) {
	case nil:
		return nil, ErrMissingInput
	case string:
		return b.fromMarkdown(v)
	case []byte:
		return b.fromJSON(v)
	case json.RawMessage:
		return b.fromJSON(v)
	case *node.Node:
		if v == nil {
			return nil, ErrMissingInput
		}
		return b.fromValue(v)
	case map[string]any:
		return b.fromObject(v)
	default:
		return b.fromValue(v)
	}
}

func (b *Builder) fromMarkdown(text string) (*node.Node, error) {
	if b.parser == nil {
		return nil, ErrNoParser
	}
	doc, err := b.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrMissingInput
	}
	if b.repairMentions {
		doc = RepairMentionIDs(doc, b.newID)
	}
	return doc, nil
}

func (b *Builder) fromJSON(data []byte) (*node.Node, error) {
	if len(data) == 0 {
		return nil, ErrMissingInput
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidEnvelope, err)
	}
	if value == nil {
		return nil, ErrMissingInput
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return b.fromObject(obj)
}

func (b *Builder) fromValue(value any) (*node.Node, error) {
	normalized, err := schema.ToJSONValue(value)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, ErrMissingInput
	}
	obj, ok := normalized.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return b.fromObject(obj)
}

func (b *Builder) fromObject(obj map[string]any) (*node.Node, error) {
	if obj == nil {
		return nil, ErrMissingInput
	}
	if typ, _ := obj["type"].(string); typ == "" {
		return nil, ErrMissingType
	}
	doc, err := b.registry.NodeFromJSON(obj)
	if err != nil {
		return nil, err
	}
	if doc.Type != node.TypeDoc {
		return nil, fmt.Errorf("%w: got %q", ErrNotDocument, doc.Type)
	}
	return doc, nil
}

// report logs rejected input. Absent or shapeless input is a warning;
// input that looked like a document but failed construction is an error
// and carries the payload.
func (b *Builder) report(err error, input any) {
	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrNotObject), errors.Is(err, ErrMissingType):
		b.logger.Warn("doctree.build.missing", "error", err, "input_type", fmt.Sprintf("%T", input))
	default:
		args := append([]any{"error", err}, logging.PayloadField(payloadString(input))...)
		b.logger.Error("doctree.build.invalid", args...)
	}
}

func payloadString(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	}
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(data)
}
