package exportcmd

import (
	"github.com/goliatone/go-wiki/internal/commands"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers produced by RegisterCommands. Sign is nil
// when no attachment signer is configured.
type HandlerSet struct {
	Export *ExportDocumentHandler
	Sign   *SignAttachmentsHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	exportHandlerOpts []commands.HandlerOption[ExportDocumentCommand]
	signHandlerOpts   []commands.HandlerOption[SignAttachmentsCommand]
}

// WithExportHandlerOptions forwards options to the export handler.
func WithExportHandlerOptions(opts ...commands.HandlerOption[ExportDocumentCommand]) Option {
	return func(cfg *options) {
		cfg.exportHandlerOpts = append(cfg.exportHandlerOpts, opts...)
	}
}

// WithSignHandlerOptions forwards options to the signing handler.
func WithSignHandlerOptions(opts ...commands.HandlerOption[SignAttachmentsCommand]) Option {
	return func(cfg *options) {
		cfg.signHandlerOpts = append(cfg.signHandlerOpts, opts...)
	}
}

// RegisterCommands builds the document handlers and registers them with
// reg when it is not nil.
func RegisterCommands(reg CommandRegistry, services Services, sink ResultSink, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	set := &HandlerSet{
		Export: NewExportDocumentHandler(services, sink, commands.CommandLogger(provider, "export"), cfg.exportHandlerOpts...),
	}
	if services.Signer != nil {
		set.Sign = NewSignAttachmentsHandler(services, sink, commands.CommandLogger(provider, "attachments"), cfg.signHandlerOpts...)
	}

	if reg == nil {
		return set, nil
	}
	if err := reg.RegisterCommand(set.Export); err != nil {
		return nil, err
	}
	if set.Sign != nil {
		if err := reg.RegisterCommand(set.Sign); err != nil {
			return nil, err
		}
	}
	return set, nil
}
