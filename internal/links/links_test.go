package links_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wiki/internal/links"
)

func TestAttachmentID(t *testing.T) {
	cases := map[string]string{
		"/api/attachments.redirect?id=abc-123":                    "abc-123",
		"https://wiki.example.com/api/attachments.redirect?id=x1": "x1",
		"/api/attachments.redirect?v=2&id=a%2Fb#frag":             "a/b",
	}
	for href, want := range cases {
		got, ok := links.AttachmentID(href)
		require.True(t, ok, href)
		require.Equal(t, want, got, href)
	}

	for _, href := range []string{"https://example.com/file.pdf", "/api/attachments.redirect", ""} {
		_, ok := links.AttachmentID(href)
		require.False(t, ok, href)
	}
}

func TestAttachmentURLRoundTrip(t *testing.T) {
	href := links.AttachmentURL("/api/", "a b")
	require.Equal(t, "/api/attachments.redirect?id=a+b", href)
	id, ok := links.AttachmentID(href)
	require.True(t, ok)
	require.Equal(t, "a b", id)
}

func TestMentionURL(t *testing.T) {
	m := links.Mention{ID: "m1", Type: "user", ModelID: "u-9"}
	href := links.MentionURL(m)
	require.Equal(t, "mention://m1/user/u-9", href)

	parsed, ok := links.ParseMentionURL(href)
	require.True(t, ok)
	require.Equal(t, m, parsed)

	parsed, ok = links.ParseMentionURL("mention:///document/d1")
	require.True(t, ok)
	require.Equal(t, "", parsed.ID)

	_, ok = links.ParseMentionURL("mention://m1/user")
	require.False(t, ok)
	_, ok = links.ParseMentionURL("https://m1/user/x")
	require.False(t, ok)
}

func TestIsInternalAndDocumentSlug(t *testing.T) {
	require.True(t, links.IsInternal("/doc/hello-abc"))
	require.False(t, links.IsInternal("//cdn.example.com/x"))
	require.False(t, links.IsInternal("https://other.com/doc/x"))
	require.True(t, links.IsInternal("https://wiki.example.com/doc/x", "wiki.example.com"))

	slug, ok := links.DocumentSlug("/doc/my-page-A1b2C3d4E5#heading")
	require.True(t, ok)
	require.Equal(t, "my-page-A1b2C3d4E5", slug)
	require.Equal(t, "A1b2C3d4E5", links.DocumentURLID(slug))

	_, ok = links.DocumentSlug("https://other.com/doc/x")
	require.False(t, ok)
}

func TestFileNameFromURL(t *testing.T) {
	require.Equal(t, "my report.pdf", links.FileNameFromURL("https://x/files/my%20report.pdf"))
	require.Equal(t, "", links.FileNameFromURL("https://x/attachments.redirect?id=abc"))
	require.Equal(t, "", links.FileNameFromURL("https://x/"))
}

func TestPathAndQuery(t *testing.T) {
	require.Equal(t, "/api/attachments.redirect?id=1", links.PathAndQuery("https://wiki.example.com/api/attachments.redirect?id=1"))
	require.Equal(t, "/api/attachments.redirect?id=1", links.PathAndQuery("/api/attachments.redirect?id=1"))
}
