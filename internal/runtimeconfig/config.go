package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrLoggingProviderRequired   = errors.New("wiki config: logging provider is required")
	ErrLoggingProviderUnknown    = errors.New("wiki config: logging provider is invalid")
	ErrLoggingLevelInvalid       = errors.New("wiki config: logging level is invalid")
	ErrLoggingFormatInvalid      = errors.New("wiki config: logging format is invalid")
	ErrMarkdownExtensionUnknown  = errors.New("wiki config: markdown extension is invalid")
	ErrStorageDriverUnknown      = errors.New("wiki config: storage driver is invalid")
	ErrStorageDSNRequired        = errors.New("wiki config: storage dsn is required for sql drivers")
	ErrSigningProviderUnknown    = errors.New("wiki config: signing provider is invalid")
	ErrSigningBucketRequired     = errors.New("wiki config: s3 signing requires a bucket")
	ErrSigningTTLInvalid         = errors.New("wiki config: signing ttl must be zero or positive")
	ErrSigningConcurrencyInvalid = errors.New("wiki config: signing concurrency must be zero or positive")
	ErrPDFEndpointInvalid        = errors.New("wiki config: pdf endpoint must be an absolute http(s) url")
	ErrRenderThemeNameRequired   = errors.New("wiki config: render theme directory requires a theme name")
)

// Config aggregates the document pipeline settings and collaborator
// bindings of the wiki module.
type Config struct {
	Logging     LoggingConfig
	Markdown    MarkdownConfig
	Render      RenderConfig
	Attachments AttachmentsConfig
	Signing     SigningConfig
	Storage     StorageConfig
	PDF         PDFConfig
	Commands    CommandsConfig
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// MarkdownConfig controls the Markdown codec.
type MarkdownConfig struct {
	// Extensions selects goldmark extensions; empty selects the codec defaults.
	Extensions []string
	// RepairMentions assigns fresh ids to mentions parsed from Markdown.
	RepairMentions bool
}

// RenderConfig holds renderer defaults applied to every export.
type RenderConfig struct {
	IncludeStyles bool
	Centered      bool
	Language      string
	BaseURL       string
	// CodeStyle is a chroma style name used for PDF code blocks.
	CodeStyle string
	Theme     ThemeConfig
}

// ThemeConfig points at a go-theme manifest directory.
type ThemeConfig struct {
	Dir     string
	Name    string
	Variant string
	// Prefix namespaces the generated CSS variables, e.g. "wiki".
	Prefix string
}

// AttachmentsConfig describes how attachment URLs look inside documents.
type AttachmentsConfig struct {
	RedirectBase  string
	InternalHosts []string
}

// SigningConfig configures the URL signer used for attachment links.
type SigningConfig struct {
	// Provider is "none" or "s3".
	Provider     string
	TTL          time.Duration
	Concurrency  int
	Bucket       string
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// StorageConfig selects the attachment store.
type StorageConfig struct {
	// Driver is "memory", "sqlite" or "postgres".
	Driver   string
	DSN      string
	Cache    bool
	CacheTTL time.Duration
}

// PDFConfig points at the HTML-to-PDF conversion service. An empty
// endpoint disables PDF export.
type PDFConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	Timeout time.Duration
}

// DefaultConfig returns an in-memory setup with console logging, styled
// output and signing disabled.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Markdown: MarkdownConfig{
			RepairMentions: true,
		},
		Render: RenderConfig{
			IncludeStyles: true,
			Centered:      true,
			Language:      "en",
			CodeStyle:     "github",
			Theme: ThemeConfig{
				Prefix: "wiki",
			},
		},
		Attachments: AttachmentsConfig{
			RedirectBase: "/api",
		},
		Signing: SigningConfig{
			Provider: "none",
			TTL:      time.Minute,
		},
		Storage: StorageConfig{
			Driver:   "memory",
			CacheTTL: time.Minute,
		},
		PDF: PDFConfig{
			Timeout: 30 * time.Second,
		},
		Commands: CommandsConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	for _, ext := range cfg.Markdown.Extensions {
		if !isSupportedExtension(ext) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, ext)
		}
	}

	if strings.TrimSpace(cfg.Render.Theme.Dir) != "" && strings.TrimSpace(cfg.Render.Theme.Name) == "" {
		return ErrRenderThemeNameRequired
	}

	switch normalize(cfg.Storage.Driver) {
	case "", "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}

	switch normalize(cfg.Signing.Provider) {
	case "", "none":
	case "s3":
		if strings.TrimSpace(cfg.Signing.Bucket) == "" {
			return ErrSigningBucketRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrSigningProviderUnknown, cfg.Signing.Provider)
	}
	if cfg.Signing.TTL < 0 {
		return ErrSigningTTLInvalid
	}
	if cfg.Signing.Concurrency < 0 {
		return ErrSigningConcurrencyInvalid
	}

	if endpoint := strings.TrimSpace(cfg.PDF.Endpoint); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s", ErrPDFEndpointInvalid, endpoint)
		}
	}
	return nil
}

// StorageDriver returns the normalised storage driver, "memory" when unset.
func (cfg Config) StorageDriver() string {
	if driver := normalize(cfg.Storage.Driver); driver != "" {
		return driver
	}
	return "memory"
}

// SigningEnabled reports whether a URL signer is configured.
func (cfg Config) SigningEnabled() bool {
	return normalize(cfg.Signing.Provider) == "s3"
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

func isSupportedExtension(name string) bool {
	switch normalize(name) {
	case "table", "tables", "strikethrough", "tasklist", "linkify", "autolink", "math", "notice":
		return true
	default:
		return false
	}
}
