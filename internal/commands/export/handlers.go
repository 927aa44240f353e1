// Package exportcmd exposes document export and attachment signing as
// go-command handlers.
package exportcmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-wiki/internal/commands"
	"github.com/goliatone/go-wiki/internal/doctree"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/markdown"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/pdf"
	"github.com/goliatone/go-wiki/internal/references"
	"github.com/goliatone/go-wiki/internal/render"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

var (
	// ErrNoResultSink is returned when a handler has nowhere to deliver output.
	ErrNoResultSink = errors.New("exportcmd: result sink is required")
	// ErrPDFUnavailable is returned for FormatPDF when no exporter is wired.
	ErrPDFUnavailable = errors.New("exportcmd: pdf export is not configured")
	// ErrSigningUnavailable is returned when no attachment signer is wired.
	ErrSigningUnavailable = errors.New("exportcmd: attachment signing is not configured")
)

// Services are the document collaborators shared by the handlers.
type Services struct {
	Builder  *doctree.Builder
	Codec    *markdown.Codec
	Renderer *render.Renderer
	// Exporter enables FormatPDF.
	Exporter *pdf.Exporter
	// Signer enables SignAttachmentsCommand.
	Signer *references.Signer
	// SigningTTL applies when a command leaves TTL zero.
	SigningTTL time.Duration
	// Rewriter handles SharePrefix; nil treats only root-relative URLs as
	// internal.
	Rewriter *references.URLRewriter
	// Render holds the defaults merged with each command's options. Nil
	// selects render.DefaultOptions.
	Render *render.Options
}

// ExportDocumentHandler runs ExportDocumentCommand.
type ExportDocumentHandler struct {
	inner *commands.Handler[ExportDocumentCommand]
}

// NewExportDocumentHandler wires the export command to services, delivering
// output to sink.
func NewExportDocumentHandler(services Services, sink ResultSink, logger interfaces.Logger, opts ...commands.HandlerOption[ExportDocumentCommand]) *ExportDocumentHandler {
	baseLogger := logging.Ensure(logger)
	exporter := &documentExporter{services: services.withDefaults(baseLogger), logger: baseLogger}

	exec := func(ctx context.Context, msg ExportDocumentCommand) error {
		if sink == nil {
			return ErrNoResultSink
		}
		result, err := exporter.export(ctx, msg)
		if err != nil {
			return err
		}
		return sink(ctx, result)
	}

	handlerOpts := []commands.HandlerOption[ExportDocumentCommand]{
		commands.WithLogger[ExportDocumentCommand](baseLogger),
		commands.WithOperation[ExportDocumentCommand]("document.export"),
		commands.WithMessageFields(func(msg ExportDocumentCommand) map[string]any {
			fields := map[string]any{
				"format":        msg.Format,
				"source_format": msg.sourceFormat(),
			}
			if msg.DocumentID != "" {
				fields["document_id"] = msg.DocumentID
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExportDocumentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExportDocumentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ExportDocumentCommand].
func (h *ExportDocumentHandler) Execute(ctx context.Context, msg ExportDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SignAttachmentsHandler runs SignAttachmentsCommand. Partially signed
// documents are still delivered, with Result.Warning set.
type SignAttachmentsHandler struct {
	inner *commands.Handler[SignAttachmentsCommand]
}

// NewSignAttachmentsHandler wires the signing command to services.
func NewSignAttachmentsHandler(services Services, sink ResultSink, logger interfaces.Logger, opts ...commands.HandlerOption[SignAttachmentsCommand]) *SignAttachmentsHandler {
	baseLogger := logging.Ensure(logger)
	services = services.withDefaults(baseLogger)

	exec := func(ctx context.Context, msg SignAttachmentsCommand) error {
		if sink == nil {
			return ErrNoResultSink
		}
		if services.Signer == nil {
			return ErrSigningUnavailable
		}
		ttl := msg.TTL
		if ttl == 0 {
			ttl = services.SigningTTL
		}

		doc := services.Builder.Build(jsonInput(msg.Source))
		signed, err := services.Signer.SignAttachmentURLs(ctx, doc, msg.ScopeID, ttl)
		var warning error
		if err != nil {
			if !errors.Is(err, references.ErrPartialSigning) || signed == nil {
				return err
			}
			warning = err
			baseLogger.Warn("attachments.sign.partial", "document_id", msg.DocumentID, "error", err)
		}

		body, err := json.Marshal(signed)
		if err != nil {
			return fmt.Errorf("exportcmd: encode document: %w", err)
		}
		return sink(ctx, Result{
			DocumentID:  msg.DocumentID,
			Format:      FormatJSON,
			ContentType: contentType(FormatJSON),
			Body:        body,
			Warning:     warning,
		})
	}

	handlerOpts := []commands.HandlerOption[SignAttachmentsCommand]{
		commands.WithLogger[SignAttachmentsCommand](baseLogger),
		commands.WithOperation[SignAttachmentsCommand]("attachments.sign"),
		commands.WithMessageFields(func(msg SignAttachmentsCommand) map[string]any {
			return map[string]any{
				"document_id": msg.DocumentID,
				"scope_id":    msg.ScopeID,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SignAttachmentsCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SignAttachmentsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SignAttachmentsCommand].
func (h *SignAttachmentsHandler) Execute(ctx context.Context, msg SignAttachmentsCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (s Services) withDefaults(logger interfaces.Logger) Services {
	if s.Codec == nil {
		s.Codec = markdown.NewCodec(nil, markdown.WithLogger(logger))
	}
	if s.Builder == nil {
		s.Builder = doctree.NewBuilder(nil,
			doctree.WithLogger(logger),
			doctree.WithMarkdownParser(s.Codec.Parser()),
		)
	}
	if s.Renderer == nil {
		s.Renderer = render.NewRenderer(render.WithLogger(logger))
	}
	if s.SigningTTL <= 0 {
		s.SigningTTL = references.DefaultSigningTTL
	}
	if s.Rewriter == nil {
		s.Rewriter = references.NewURLRewriter()
	}
	if s.Render == nil {
		defaults := render.DefaultOptions()
		s.Render = &defaults
	}
	return s
}

type documentExporter struct {
	services Services
	logger   interfaces.Logger
}

func (e *documentExporter) export(ctx context.Context, msg ExportDocumentCommand) (Result, error) {
	doc, err := e.load(msg)
	if err != nil {
		return Result{}, err
	}
	if len(msg.StripMarks) > 0 {
		doc = references.RemoveMarks(doc, msg.StripMarks...)
	}
	if msg.SharePrefix != "" {
		doc, err = e.services.Rewriter.Replace(ctx, doc, msg.SharePrefix)
		if err != nil {
			return Result{}, err
		}
	}

	opts := *e.services.Render
	opts.Title = msg.Title
	opts.IncludeMermaid = msg.IncludeMermaid
	if msg.BaseURL != "" {
		opts.BaseURL = msg.BaseURL
	}

	body, err := e.encode(ctx, doc, msg.Format, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{
		DocumentID:  msg.DocumentID,
		Format:      msg.Format,
		ContentType: contentType(msg.Format),
		Body:        body,
	}, nil
}

func (e *documentExporter) load(msg ExportDocumentCommand) (*node.Node, error) {
	switch msg.sourceFormat() {
	case SourceHTML:
		if msg.Source == "" {
			return node.EmptyDoc(), nil
		}
		doc, err := e.services.Codec.FromHTML(msg.Source)
		if err != nil {
			return nil, fmt.Errorf("exportcmd: import html: %w", err)
		}
		return doc, nil
	case SourceMarkdown:
		if msg.Strict {
			return e.services.Builder.BuildStrict(msg.Source)
		}
		return e.services.Builder.Build(msg.Source), nil
	default:
		input := jsonInput(msg.Source)
		if msg.Strict {
			return e.services.Builder.BuildStrict(input)
		}
		return e.services.Builder.Build(input), nil
	}
}

func (e *documentExporter) encode(ctx context.Context, doc *node.Node, format string, opts render.Options) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return []byte(e.services.Codec.ToMarkdown(doc)), nil
	case FormatHTML:
		page, err := e.services.Renderer.ToHTML(doc, opts)
		return []byte(page), err
	case FormatPDFHTML:
		page, err := e.services.Renderer.ToPdfHTML(doc, opts)
		return []byte(page), err
	case FormatPDF:
		if e.services.Exporter == nil {
			return nil, ErrPDFUnavailable
		}
		stream, err := e.services.Exporter.Export(ctx, doc, opts)
		if err != nil {
			return nil, err
		}
		defer stream.Close()
		return io.ReadAll(stream)
	default:
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("exportcmd: encode document: %w", err)
		}
		return body, nil
	}
}

// jsonInput keeps empty sources nil so the builder reports missing input.
func jsonInput(source string) any {
	if source == "" {
		return nil
	}
	return json.RawMessage(source)
}
