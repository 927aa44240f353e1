package logging

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// ModulePrefix namespaces every module logger name.
const ModulePrefix = rootModule + "."

const (
	rootModule       = "wiki"
	schemaModule     = ModulePrefix + "schema"
	doctreeModule    = ModulePrefix + "doctree"
	markdownModule   = ModulePrefix + "markdown"
	referencesModule = ModulePrefix + "references"
	renderModule     = ModulePrefix + "render"
	pdfModule        = ModulePrefix + "pdf"
	commandsModule   = ModulePrefix + "commands"
)

const (
	fieldDocumentID = "document_id"
	fieldOperation  = "operation"
	fieldPayload    = "payload"
)

// MaxPayloadLength bounds the size of payload excerpts attached to log entries.
const MaxPayloadLength = 2048

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

func SchemaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schemaModule)
}

// DocTreeLogger returns the logger used by the tree builder.
func DocTreeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, doctreeModule)
}

func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

func ReferencesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, referencesModule)
}

func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

func PDFLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pdfModule)
}

func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithDocumentContext enriches the logger with the document id and the
// operation being performed. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, documentID, operation string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(documentID); trimmed != "" {
		fields[fieldDocumentID] = trimmed
	}
	if trimmed := strings.TrimSpace(operation); trimmed != "" {
		fields[fieldOperation] = trimmed
	}
	return WithFields(logger, fields)
}

// PayloadField returns the key/value pair used to log an offending payload,
// truncated to MaxPayloadLength bytes on a rune boundary.
func PayloadField(payload string) []any {
	return []any{fieldPayload, Truncate(payload, MaxPayloadLength)}
}

// Truncate shortens s to at most limit bytes without splitting a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
