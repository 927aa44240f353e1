package exportcmd

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Output formats accepted by ExportDocumentCommand.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatPDFHTML  = "pdf_html"
	FormatPDF      = "pdf"
)

// Source formats accepted by ExportDocumentCommand.
const (
	SourceJSON     = "json"
	SourceMarkdown = "markdown"
	SourceHTML     = "html"
)

const (
	exportMessageType = "wiki.document.export"
	signMessageType   = "wiki.attachments.sign"
)

// ExportDocumentCommand converts a stored or imported document into one of
// the output formats.
type ExportDocumentCommand struct {
	DocumentID string
	// Source is the raw document. An empty source exports an empty document.
	Source string
	// SourceFormat defaults to SourceJSON.
	SourceFormat string
	Format       string

	Title          string
	BaseURL        string
	IncludeMermaid bool
	// SharePrefix is inserted before internal document paths, e.g. "/share/abc".
	SharePrefix string
	// StripMarks lists mark types dropped before export, e.g. "comment".
	StripMarks []string
	// Strict rejects malformed JSON instead of exporting an empty document.
	Strict bool
}

// Type implements command.Message.
func (ExportDocumentCommand) Type() string { return exportMessageType }

// Validate implements command.Message.
func (m ExportDocumentCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Format,
			validation.Required,
			validation.In(FormatJSON, FormatMarkdown, FormatHTML, FormatPDFHTML, FormatPDF),
		),
		validation.Field(&m.SourceFormat, validation.In(SourceJSON, SourceMarkdown, SourceHTML)),
		validation.Field(&m.Title, validation.Length(0, 500)),
		validation.Field(&m.StripMarks, validation.Each(validation.Required)),
	)
}

func (m ExportDocumentCommand) sourceFormat() string {
	if m.SourceFormat == "" {
		return SourceJSON
	}
	return m.SourceFormat
}

// SignAttachmentsCommand replaces attachment URLs in a stored document with
// short-lived signed URLs for the given scope.
type SignAttachmentsCommand struct {
	DocumentID string
	// Source is the document JSON.
	Source  string
	ScopeID string
	// TTL defaults to the handler's configured signing TTL when zero.
	TTL time.Duration
}

// Type implements command.Message.
func (SignAttachmentsCommand) Type() string { return signMessageType }

// Validate implements command.Message.
func (m SignAttachmentsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ScopeID, validation.Required),
		validation.Field(&m.TTL, validation.Min(time.Duration(0))),
	)
}
