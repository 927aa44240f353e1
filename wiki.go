// Package wiki is the document content core of a collaborative wiki: the
// node schema, tree building, Markdown conversion, reference extraction and
// HTML/PDF rendering.
package wiki

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/goliatone/go-command/dispatcher"

	exportcmd "github.com/goliatone/go-wiki/internal/commands/export"
	"github.com/goliatone/go-wiki/internal/di"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/references"
)

var (
	// ErrSigningDisabled is returned by SignAttachmentURLs without a URL signer.
	ErrSigningDisabled = errors.New("wiki: attachment signing is not configured")
	// ErrPDFDisabled is returned by ExportPDF without a PDF renderer.
	ErrPDFDisabled = errors.New("wiki: pdf export is not configured")
)

// Module is the top level façade over the document pipeline.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Close releases resources held by the module.
func (m *Module) Close() error {
	return m.container.Close()
}

// Build returns a valid document for any input: stored JSON ([]byte,
// json.RawMessage, decoded maps), Markdown text or nil. Invalid input is
// logged and yields an empty document.
func (m *Module) Build(input any) *Node {
	return m.container.Builder().Build(input)
}

// BuildStrict is Build returning a DOCUMENT_INVALID validation error
// instead of falling back to an empty document.
func (m *Module) BuildStrict(input any) (*Node, error) {
	return m.container.Builder().BuildStrict(input)
}

// ToMarkdown serializes doc.
func (m *Module) ToMarkdown(doc *Node) string {
	return m.container.Codec().ToMarkdown(doc)
}

// FromMarkdown parses Markdown into a document.
func (m *Module) FromMarkdown(text string) (*Node, error) {
	return m.container.Codec().FromMarkdown(text)
}

// FromHTML imports an HTML fragment or page.
func (m *Module) FromHTML(html string) (*Node, error) {
	return m.container.Codec().FromHTML(html)
}

// ParseMentions lists mentions in document order, first occurrence per id.
func (m *Module) ParseMentions(doc *Node, filter MentionFilter) []MentionAttrs {
	return references.ParseMentions(doc, filter)
}

// ParseDocumentIDs lists referenced document slugs, treating the configured
// internal hosts as local.
func (m *Module) ParseDocumentIDs(doc *Node) []string {
	return references.ParseDocumentIDs(doc, m.container.Config.Attachments.InternalHosts...)
}

// ParseAttachmentIDs lists referenced attachment ids.
func (m *Module) ParseAttachmentIDs(doc *Node) []string {
	return references.ParseAttachmentIDs(doc)
}

// RemoveMarks returns a copy of doc without marks of the named types.
func (m *Module) RemoveMarks(doc *Node, names ...string) *Node {
	return references.RemoveMarks(doc, names...)
}

// ReplaceInternalURLs returns a copy of doc whose internal document links
// are prefixed with basePrefix.
func (m *Module) ReplaceInternalURLs(ctx context.Context, doc *Node, basePrefix string) (*Node, error) {
	return m.container.URLRewriter().Replace(ctx, doc, basePrefix)
}

// SignAttachmentURLs returns a copy of doc with attachment links owned by
// scopeID replaced by signed URLs. A zero ttl selects the configured TTL.
func (m *Module) SignAttachmentURLs(ctx context.Context, doc *Node, scopeID string, ttl time.Duration) (*Node, error) {
	signer := m.container.Signer()
	if signer == nil {
		return nil, ErrSigningDisabled
	}
	if ttl == 0 {
		ttl = m.container.DefaultSigningTTL()
	}
	return signer.SignAttachmentURLs(ctx, doc, scopeID, ttl)
}

// DefaultRenderOptions returns the configured render defaults.
func (m *Module) DefaultRenderOptions() RenderOptions {
	return m.container.RenderOptions()
}

// ToHTML renders doc as a standalone page.
func (m *Module) ToHTML(doc *Node, opts RenderOptions) (string, error) {
	return m.container.Renderer().ToHTML(doc, opts)
}

// ToPdfHTML renders doc for a headless renderer. The page sets
// ReadyExpression once it has finished rendering.
func (m *Module) ToPdfHTML(doc *Node, opts RenderOptions) (string, error) {
	return m.container.Renderer().ToPdfHTML(doc, opts)
}

// ExportPDF renders doc through the configured PDF service. The caller
// closes the stream.
func (m *Module) ExportPDF(ctx context.Context, doc *Node, opts RenderOptions) (io.ReadCloser, error) {
	exporter := m.container.PDFExporter()
	if exporter == nil {
		return nil, ErrPDFDisabled
	}
	return exporter.Export(ctx, doc, opts)
}

// EmptyDocument returns a document with no content.
func EmptyDocument() *Node {
	return node.EmptyDoc()
}

// CommandRegistry records command handlers so hosts can expose them.
type CommandRegistry = exportcmd.CommandRegistry

// CommandSubscription releases a dispatcher subscription.
type CommandSubscription interface {
	Unsubscribe()
}

// RegisterCommands builds the export and signing handlers and registers
// them with reg. Results are delivered to sink.
func (m *Module) RegisterCommands(reg CommandRegistry, sink ResultSink) (*exportcmd.HandlerSet, error) {
	return m.container.RegisterCommands(reg, sink)
}

// SubscribeCommands subscribes the document handlers to the go-command
// dispatcher so hosts can use dispatcher.Dispatch.
func (m *Module) SubscribeCommands(sink ResultSink) ([]CommandSubscription, error) {
	set, err := m.container.RegisterCommands(nil, sink)
	if err != nil {
		return nil, err
	}
	subs := []CommandSubscription{dispatcher.SubscribeCommand(set.Export)}
	if set.Sign != nil {
		subs = append(subs, dispatcher.SubscribeCommand(set.Sign))
	}
	return subs, nil
}
