package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-wiki/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.StorageDriver() != "memory" {
		t.Fatalf("expected memory storage by default, got %q", cfg.StorageDriver())
	}
	if cfg.SigningEnabled() {
		t.Fatal("expected signing to be disabled by default")
	}
}

func TestConfigValidate_Logging(t *testing.T) {
	cases := map[string]struct {
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		"missing provider": {func(c *runtimeconfig.Config) { c.Logging.Provider = " " }, runtimeconfig.ErrLoggingProviderRequired},
		"unknown provider": {func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		"unknown level":    {func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		"gologger format": {func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidate_ConsoleIgnoresFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("console provider should ignore format, got %v", err)
	}
}

func TestConfigValidate_MarkdownExtensions(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Extensions = []string{"table", "Autolink", "math"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Markdown.Extensions = []string{"footnote"}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrMarkdownExtensionUnknown) {
		t.Fatalf("expected ErrMarkdownExtensionUnknown, got %v", err)
	}
}

func TestConfigValidate_Storage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "sqlite"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}

	cfg.Storage.DSN = "file::memory:?cache=shared"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver() != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.StorageDriver())
	}

	cfg.Storage.Driver = "mongo"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestConfigValidate_Signing(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Signing.Provider = "s3"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSigningBucketRequired) {
		t.Fatalf("expected ErrSigningBucketRequired, got %v", err)
	}

	cfg.Signing.Bucket = "wiki-attachments"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SigningEnabled() {
		t.Fatal("expected signing to be enabled")
	}

	cfg.Signing.TTL = -time.Second
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSigningTTLInvalid) {
		t.Fatalf("expected ErrSigningTTLInvalid, got %v", err)
	}

	cfg.Signing.TTL = 0
	cfg.Signing.Concurrency = -1
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSigningConcurrencyInvalid) {
		t.Fatalf("expected ErrSigningConcurrencyInvalid, got %v", err)
	}

	cfg.Signing.Concurrency = 0
	cfg.Signing.Provider = "gcs"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSigningProviderUnknown) {
		t.Fatalf("expected ErrSigningProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_PDFEndpoint(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	for _, endpoint := range []string{"gotenberg:3000", "ftp://pdf.internal", "http://"} {
		cfg.PDF.Endpoint = endpoint
		if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrPDFEndpointInvalid) {
			t.Fatalf("%s: expected ErrPDFEndpointInvalid, got %v", endpoint, err)
		}
	}

	cfg.PDF.Endpoint = "http://gotenberg:3000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigValidate_ThemeDirectoryNeedsName(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Render.Theme.Dir = "themes/paper"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrRenderThemeNameRequired) {
		t.Fatalf("expected ErrRenderThemeNameRequired, got %v", err)
	}
}
