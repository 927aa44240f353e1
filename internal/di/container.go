package di

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	exportcmd "github.com/goliatone/go-wiki/internal/commands/export"
	"github.com/goliatone/go-wiki/internal/doctree"
	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/internal/logging/console"
	"github.com/goliatone/go-wiki/internal/logging/gologger"
	"github.com/goliatone/go-wiki/internal/markdown"
	"github.com/goliatone/go-wiki/internal/pdf"
	"github.com/goliatone/go-wiki/internal/references"
	"github.com/goliatone/go-wiki/internal/render"
	"github.com/goliatone/go-wiki/internal/runtimeconfig"
	"github.com/goliatone/go-wiki/internal/schema"
	"github.com/goliatone/go-wiki/internal/storage/attachments"
	"github.com/goliatone/go-wiki/internal/storage/s3signer"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// ErrNoAttachmentStore is returned by AttachmentRepository when attachments
// are not stored in SQL.
var ErrNoAttachmentStore = errors.New("di: attachments are not backed by a sql store")

// Container wires the document pipeline and its collaborators from
// configuration. Options override any collaborator the configuration would
// otherwise build.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	registry *schema.Registry
	codec    *markdown.Codec
	builder  *doctree.Builder
	renderer *render.Renderer
	theme    render.Theme
	rewriter *references.URLRewriter

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	finder      interfaces.AttachmentFinder
	attachments *attachments.BunRepository
	memoryStore *attachments.MemoryStore

	urlSigner   interfaces.URLSigner
	signer      *references.Signer
	pdfRenderer interfaces.PDFRenderer
	exporter    *pdf.Exporter
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithSchemaRegistry replaces schema.Default.
func WithSchemaRegistry(registry *schema.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithBunDB supplies the attachment database instead of opening
// Config.Storage.DSN. The caller keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithAttachmentFinder bypasses the configured attachment store.
func WithAttachmentFinder(finder interfaces.AttachmentFinder) Option {
	return func(c *Container) {
		c.finder = finder
	}
}

// WithURLSigner overrides the configured URL signer.
func WithURLSigner(signer interfaces.URLSigner) Option {
	return func(c *Container) {
		c.urlSigner = signer
	}
}

// WithPDFRenderer overrides the HTTP conversion client.
func WithPDFRenderer(renderer interfaces.PDFRenderer) Option {
	return func(c *Container) {
		c.pdfRenderer = renderer
	}
}

// WithTheme sets the render theme instead of loading Config.Render.Theme.
func WithTheme(theme render.Theme) Option {
	return func(c *Container) {
		c.theme = theme
	}
}

// NewContainer validates cfg and builds every collaborator it describes.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureDocumentPipeline()
	if err := c.configureTheme(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	if err := c.configureSigning(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configurePDF(); err != nil {
		c.Close()
		return nil, err
	}

	logging.ModuleLogger(c.loggerProvider, "wiki.di").Debug("container.configured",
		"storage", c.Config.StorageDriver(),
		"signing", c.signer != nil,
		"pdf", c.exporter != nil,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{Writer: os.Stderr}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureDocumentPipeline() {
	if c.registry == nil {
		c.registry = schema.Default()
	}
	c.codec = markdown.NewCodec(c.registry,
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
		markdown.WithExtensions(c.Config.Markdown.Extensions...),
	)
	c.builder = doctree.NewBuilder(c.registry,
		doctree.WithLogger(logging.DocTreeLogger(c.loggerProvider)),
		doctree.WithMarkdownParser(c.codec.Parser()),
		doctree.WithMentionRepair(c.Config.Markdown.RepairMentions),
	)
	c.renderer = render.NewRenderer(
		render.WithLogger(logging.RenderLogger(c.loggerProvider)),
		render.WithCodeStyle(c.Config.Render.CodeStyle),
	)
	c.rewriter = references.NewURLRewriter(references.WithInternalHosts(c.Config.Attachments.InternalHosts...))
}

func (c *Container) configureTheme() error {
	themeCfg := c.Config.Render.Theme
	if c.theme.Variables != nil || strings.TrimSpace(themeCfg.Dir) == "" {
		return nil
	}
	theme, err := render.LoadTheme(os.DirFS(themeCfg.Dir), themeCfg.Name, themeCfg.Variant, themeCfg.Prefix)
	if err != nil {
		return err
	}
	c.theme = theme
	return nil
}

func (c *Container) configureStorage() error {
	if c.finder != nil {
		return nil
	}
	redirectBase := c.Config.Attachments.RedirectBase

	driver := c.Config.StorageDriver()
	if driver == "memory" && c.bunDB == nil {
		c.memoryStore = attachments.NewMemoryStore(redirectBase)
		c.finder = c.memoryStore
		return nil
	}

	if c.bunDB == nil {
		db, err := attachments.Open(driver, c.Config.Storage.DSN)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
		if err := attachments.EnsureSchema(context.Background(), db); err != nil {
			c.Close()
			return err
		}
	}

	c.configureCacheDefaults()
	c.attachments = attachments.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer, redirectBase)
	c.finder = c.attachments
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Storage.Cache {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Storage.CacheTTL > 0 {
			cfg.TTL = c.Config.Storage.CacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureSigning() error {
	if c.urlSigner == nil && c.Config.SigningEnabled() {
		signing := c.Config.Signing
		signer, err := s3signer.NewFromConfig(context.Background(), s3signer.Config{
			Bucket:       signing.Bucket,
			Region:       signing.Region,
			Endpoint:     signing.Endpoint,
			UsePathStyle: signing.UsePathStyle,
		})
		if err != nil {
			return err
		}
		c.urlSigner = signer
	}
	if c.urlSigner == nil {
		return nil
	}
	c.signer = references.NewSigner(c.finder, c.urlSigner,
		references.WithSignerLogger(logging.ReferencesLogger(c.loggerProvider)),
		references.WithConcurrency(c.Config.Signing.Concurrency),
	)
	return nil
}

func (c *Container) configurePDF() error {
	if c.pdfRenderer == nil && strings.TrimSpace(c.Config.PDF.Endpoint) != "" {
		client, err := pdf.NewHTTPClient(c.Config.PDF.Endpoint,
			pdf.WithHTTPClient(&http.Client{Timeout: c.Config.PDF.Timeout}),
			pdf.WithClientLogger(logging.PDFLogger(c.loggerProvider)),
		)
		if err != nil {
			return err
		}
		c.pdfRenderer = client
	}
	if c.pdfRenderer == nil {
		return nil
	}
	c.exporter = pdf.NewExporter(c.renderer, c.pdfRenderer, logging.PDFLogger(c.loggerProvider))
	return nil
}

// Close releases the database opened by the container.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

// RenderOptions returns the configured render defaults.
func (c *Container) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.IncludeStyles = c.Config.Render.IncludeStyles
	opts.Centered = c.Config.Render.Centered
	opts.BaseURL = c.Config.Render.BaseURL
	opts.Theme = c.theme
	if lang := strings.TrimSpace(c.Config.Render.Language); lang != "" {
		opts.Language = lang
	}
	return opts
}

// ExportServices bundles the collaborators used by the document commands.
func (c *Container) ExportServices() exportcmd.Services {
	opts := c.RenderOptions()
	return exportcmd.Services{
		Builder:    c.builder,
		Codec:      c.codec,
		Renderer:   c.renderer,
		Exporter:   c.exporter,
		Signer:     c.signer,
		SigningTTL: c.DefaultSigningTTL(),
		Rewriter:   c.rewriter,
		Render:     &opts,
	}
}

// RegisterCommands builds the document command handlers, applying the
// configured command timeout, and registers them with reg.
func (c *Container) RegisterCommands(reg exportcmd.CommandRegistry, sink exportcmd.ResultSink) (*exportcmd.HandlerSet, error) {
	timeout := c.Config.Commands.Timeout
	return exportcmd.RegisterCommands(reg, c.ExportServices(), sink, c.loggerProvider,
		exportcmd.WithExportHandlerOptions(commandsTimeout[exportcmd.ExportDocumentCommand](timeout)),
		exportcmd.WithSignHandlerOptions(commandsTimeout[exportcmd.SignAttachmentsCommand](timeout)),
	)
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) SchemaRegistry() *schema.Registry { return c.registry }

func (c *Container) Codec() *markdown.Codec { return c.codec }

func (c *Container) Builder() *doctree.Builder { return c.builder }

func (c *Container) Renderer() *render.Renderer { return c.renderer }

func (c *Container) URLRewriter() *references.URLRewriter { return c.rewriter }

func (c *Container) AttachmentFinder() interfaces.AttachmentFinder { return c.finder }

// MemoryAttachments returns the in-memory store, nil for SQL storage.
func (c *Container) MemoryAttachments() *attachments.MemoryStore { return c.memoryStore }

// AttachmentRepository returns the SQL-backed attachment repository.
func (c *Container) AttachmentRepository() (*attachments.BunRepository, error) {
	if c.attachments == nil {
		return nil, ErrNoAttachmentStore
	}
	return c.attachments, nil
}

// Signer returns the attachment URL signer, nil when signing is disabled.
func (c *Container) Signer() *references.Signer { return c.signer }

// PDFExporter returns the PDF exporter, nil when no endpoint is configured.
func (c *Container) PDFExporter() *pdf.Exporter { return c.exporter }

// DefaultSigningTTL returns the configured signing TTL, falling back to
// references.DefaultSigningTTL.
func (c *Container) DefaultSigningTTL() time.Duration {
	if c.Config.Signing.TTL > 0 {
		return c.Config.Signing.TTL
	}
	return references.DefaultSigningTTL
}
