package wiki_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	wiki "github.com/goliatone/go-wiki"
	"github.com/goliatone/go-wiki/internal/commands/fixtures"
	"github.com/goliatone/go-wiki/internal/di"
	"github.com/goliatone/go-wiki/internal/logging/console"
	"github.com/goliatone/go-wiki/internal/storage/attachments"
)

type fixedURLSigner struct{}

func (fixedURLSigner) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://files.example.com/" + key + "?expires=" + ttl.String(), nil
}

func newModule(t *testing.T, cfg wiki.Config, opts ...di.Option) *wiki.Module {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]di.Option{di.WithLoggerProvider(console.NewProvider(console.Options{Writer: &buf}))}, opts...)
	module, err := wiki.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestModuleMarkdownRoundTrip(t *testing.T) {
	module := newModule(t, wiki.DefaultConfig())

	doc := module.Build("# Plan\n\nShip **it** today.")
	require.Equal(t, "doc", doc.Type)

	out := module.ToMarkdown(doc)
	require.Contains(t, out, "# Plan")
	require.Contains(t, out, "**it**")

	again, err := module.FromMarkdown(out)
	require.NoError(t, err)
	require.Equal(t, out, module.ToMarkdown(again))
}

func TestModuleBuildFallsBackToEmptyDocument(t *testing.T) {
	module := newModule(t, wiki.DefaultConfig())

	doc := module.Build([]byte(`{"type":"paragraph"}`))
	require.True(t, doc.IsEmptyDoc())

	_, err := module.BuildStrict([]byte(`{"type":"paragraph"}`))
	require.Error(t, err)
}

func TestModuleParseDocumentIDsUsesConfiguredHosts(t *testing.T) {
	cfg := wiki.DefaultConfig()
	cfg.Attachments.InternalHosts = []string{"wiki.example.com"}
	module := newModule(t, cfg)

	doc := module.Build("See [a](/doc/first-A1b2C3d4E5) and [b](https://wiki.example.com/doc/second-B1b2C3d4E5).")
	require.Equal(t, []string{"first-A1b2C3d4E5", "second-B1b2C3d4E5"}, module.ParseDocumentIDs(doc))
}

func TestModuleReplaceInternalURLs(t *testing.T) {
	module := newModule(t, wiki.DefaultConfig())
	doc := module.Build("See [a](/doc/first-A1b2C3d4E5).")

	shared, err := module.ReplaceInternalURLs(context.Background(), doc, "/share/abc")
	require.NoError(t, err)
	require.Contains(t, module.ToMarkdown(shared), "(/share/abc/doc/first-A1b2C3d4E5)")
	require.Contains(t, module.ToMarkdown(doc), "(/doc/first-A1b2C3d4E5)")

	_, err = module.ReplaceInternalURLs(context.Background(), doc, "/share/abc/")
	require.ErrorIs(t, err, wiki.ErrBasePrefixInvalid)
}

func TestModuleSignAttachmentURLs(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		module := newModule(t, wiki.DefaultConfig())
		_, err := module.SignAttachmentURLs(context.Background(), wiki.EmptyDocument(), "team-1", 0)
		require.ErrorIs(t, err, wiki.ErrSigningDisabled)
	})

	t.Run("enabled", func(t *testing.T) {
		module := newModule(t, wiki.DefaultConfig(), di.WithURLSigner(fixedURLSigner{}))
		store := module.Container().MemoryAttachments()
		require.NotNil(t, store)

		record := store.Put(attachments.Record{Key: "uploads/plan.pdf", Name: "plan.pdf", OwnerID: "team-1"})
		redirect := record.Attachment(attachments.DefaultRedirectBase).RedirectURL

		doc := module.Build("Download [plan](" + redirect + ").")
		require.Equal(t, []string{record.ID.String()}, module.ParseAttachmentIDs(doc))

		signed, err := module.SignAttachmentURLs(context.Background(), doc, "team-1", 0)
		require.NoError(t, err)
		require.Contains(t, module.ToMarkdown(signed), "https://files.example.com/uploads/plan.pdf")
	})
}

func TestModuleRendering(t *testing.T) {
	module := newModule(t, wiki.DefaultConfig())
	doc := module.Build("# Plan\n\nShip it.")

	opts := module.DefaultRenderOptions()
	opts.Title = "Plan"

	page, err := module.ToHTML(doc, opts)
	require.NoError(t, err)
	require.Contains(t, page, "Ship it.")

	printable, err := module.ToPdfHTML(doc, opts)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(printable, "renderStatus = \"ready\""))

	_, err = module.ExportPDF(context.Background(), doc, opts)
	require.True(t, errors.Is(err, wiki.ErrPDFDisabled))
}

func TestModuleRegisterCommands(t *testing.T) {
	module := newModule(t, wiki.DefaultConfig())
	reg := fixtures.NewRecordingRegistry()

	var results []wiki.ExportResult
	set, err := module.RegisterCommands(reg, func(_ context.Context, result wiki.ExportResult) error {
		results = append(results, result)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, reg.Handlers, 1)
	require.Nil(t, set.Sign)

	err = set.Export.Execute(context.Background(), wiki.ExportDocumentCommand{
		DocumentID:   "doc-1",
		Source:       "# Plan",
		SourceFormat: "markdown",
		Format:       wiki.FormatMarkdown,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "# Plan", string(results[0].Body))
}
