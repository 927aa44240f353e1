package wiki

import "github.com/goliatone/go-wiki/internal/runtimeconfig"

var (
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
	ErrMarkdownExtensionUnknown  = runtimeconfig.ErrMarkdownExtensionUnknown
	ErrStorageDriverUnknown      = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired        = runtimeconfig.ErrStorageDSNRequired
	ErrSigningProviderUnknown    = runtimeconfig.ErrSigningProviderUnknown
	ErrSigningBucketRequired     = runtimeconfig.ErrSigningBucketRequired
	ErrSigningTTLInvalid         = runtimeconfig.ErrSigningTTLInvalid
	ErrSigningConcurrencyInvalid = runtimeconfig.ErrSigningConcurrencyInvalid
	ErrPDFEndpointInvalid        = runtimeconfig.ErrPDFEndpointInvalid
	ErrRenderThemeNameRequired   = runtimeconfig.ErrRenderThemeNameRequired
)

type (
	Config            = runtimeconfig.Config
	LoggingConfig     = runtimeconfig.LoggingConfig
	MarkdownConfig    = runtimeconfig.MarkdownConfig
	RenderConfig      = runtimeconfig.RenderConfig
	ThemeConfig       = runtimeconfig.ThemeConfig
	AttachmentsConfig = runtimeconfig.AttachmentsConfig
	SigningConfig     = runtimeconfig.SigningConfig
	StorageConfig     = runtimeconfig.StorageConfig
	PDFConfig         = runtimeconfig.PDFConfig
	CommandsConfig    = runtimeconfig.CommandsConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
