package exportcmd

import "context"

// Result is the output of a document command.
type Result struct {
	DocumentID  string
	Format      string
	ContentType string
	Body        []byte
	// Warning reports a non-fatal problem, e.g. attachments that could not
	// be signed. Body is still usable.
	Warning error
}

// ResultSink receives command output. Commands only report errors, so
// callers collect results through the sink.
type ResultSink func(ctx context.Context, result Result) error

func contentType(format string) string {
	switch format {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML, FormatPDFHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}
