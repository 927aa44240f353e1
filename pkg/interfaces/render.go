package interfaces

import (
	"context"
	"io"
)

// RenderRequest carries a self-contained HTML document to an external
// HTML-to-PDF service.
type RenderRequest struct {
	HTML string
	// ReadyExpression is evaluated by the service until it returns true.
	ReadyExpression string
	Title           string
}

// PDFRenderer converts HTML into a PDF byte stream. Callers own the returned
// reader and must close it.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, req RenderRequest) (io.ReadCloser, error)
}
