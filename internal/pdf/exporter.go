// Package pdf exports documents as PDF through an external HTML-to-PDF
// service.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/render"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// ErrNoRenderer is returned when the exporter has no PDF renderer.
var ErrNoRenderer = errors.New("pdf: renderer is required")

// Exporter renders documents to print HTML and hands them to a PDF
// renderer.
type Exporter struct {
	html   *render.Renderer
	pdf    interfaces.PDFRenderer
	logger interfaces.Logger
}

// NewExporter builds an exporter. A nil html renderer selects the default.
func NewExporter(html *render.Renderer, pdf interfaces.PDFRenderer, logger interfaces.Logger) *Exporter {
	if html == nil {
		html = render.NewRenderer(render.WithLogger(logger))
	}
	return &Exporter{html: html, pdf: pdf, logger: logging.Ensure(logger)}
}

// Export returns the PDF for doc. The caller closes the stream.
func (e *Exporter) Export(ctx context.Context, doc *node.Node, opts render.Options) (io.ReadCloser, error) {
	if e.pdf == nil {
		return nil, ErrNoRenderer
	}
	page, err := e.html.ToPdfHTML(doc, opts)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithContext(ctx)
	logger.Debug("pdf.export.start", "title", opts.Title, "bytes", len(page))

	out, err := e.pdf.RenderPDF(ctx, interfaces.RenderRequest{
		HTML:            page,
		ReadyExpression: render.ReadyExpression,
		Title:           opts.Title,
	})
	if err != nil {
		logger.Error("pdf.export.failed", "title", opts.Title, "error", err)
		return nil, fmt.Errorf("pdf: export: %w", err)
	}
	return out, nil
}
