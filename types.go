package wiki

import (
	exportcmd "github.com/goliatone/go-wiki/internal/commands/export"
	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/references"
	"github.com/goliatone/go-wiki/internal/render"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// Node is one element of a document tree; its JSON form is the persisted
// document format.
type Node = node.Node

// Mark is an inline annotation on a text node.
type Mark = node.Mark

// Attrs holds node and mark attributes.
type Attrs = node.Attrs

// MentionAttrs are the attributes of a mention node.
type MentionAttrs = references.MentionAttrs

// MentionFilter narrows ParseMentions results.
type MentionFilter = references.MentionFilter

// RenderOptions control HTML output.
type RenderOptions = render.Options

// Theme supplies CSS variables to rendered pages.
type Theme = render.Theme

// Attachment is a stored file referenced from documents.
type Attachment = interfaces.Attachment

// AttachmentFinder resolves attachment ids for a scope.
type AttachmentFinder = interfaces.AttachmentFinder

// URLSigner produces short-lived URLs for storage keys.
type URLSigner = interfaces.URLSigner

// PDFRenderer converts print HTML into PDF.
type PDFRenderer = interfaces.PDFRenderer

type (
	ExportDocumentCommand  = exportcmd.ExportDocumentCommand
	SignAttachmentsCommand = exportcmd.SignAttachmentsCommand
	ExportResult           = exportcmd.Result
	ResultSink             = exportcmd.ResultSink
)

// Export formats.
const (
	FormatJSON     = exportcmd.FormatJSON
	FormatMarkdown = exportcmd.FormatMarkdown
	FormatHTML     = exportcmd.FormatHTML
	FormatPDFHTML  = exportcmd.FormatPDFHTML
	FormatPDF      = exportcmd.FormatPDF
)

// ReadyExpression is the JavaScript condition a headless renderer waits on
// before printing.
const ReadyExpression = render.ReadyExpression

var (
	ErrPartialSigning    = references.ErrPartialSigning
	ErrBasePrefixInvalid = references.ErrBasePrefixInvalid
	ErrInvalidOptions    = render.ErrInvalidOptions
)
