// Package links recognises the URL conventions embedded in documents:
// attachment redirects, mention URIs and internal document links.
package links

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// MentionScheme is the URI scheme used to encode mentions in Markdown.
const MentionScheme = "mention"

// DocumentPathSegment is the path segment that introduces internal document
// links ("/doc/<slug>").
const DocumentPathSegment = "/doc/"

const attachmentRedirect = "attachments.redirect"

var (
	attachmentPattern = regexp.MustCompile(`attachments\.redirect\?(?:[^#\s]*&)?id=([^&#\s]+)`)
	documentPattern   = regexp.MustCompile(`/doc/([^/?#\s]+)`)
	// Document url ids end with a 10 character url id after the last dash.
	documentURLIDPattern = regexp.MustCompile(`-([a-zA-Z0-9]{10,15})$`)
)

// AttachmentID extracts the attachment id from an attachment redirect URL.
func AttachmentID(href string) (string, bool) {
	match := attachmentPattern.FindStringSubmatch(href)
	if match == nil {
		return "", false
	}
	id, err := url.QueryUnescape(match[1])
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// IsAttachmentURL reports whether href points at a stored attachment.
func IsAttachmentURL(href string) bool {
	_, ok := AttachmentID(href)
	return ok
}

// AttachmentURL builds the redirect URL for an attachment id under base
// (e.g. "/api").
func AttachmentURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + attachmentRedirect + "?id=" + url.QueryEscape(id)
}

// Mention is the decoded form of a mention URI.
type Mention struct {
	ID      string
	Type    string
	ModelID string
}

// MentionURL encodes a mention as mention://<id>/<type>/<modelId>.
func MentionURL(m Mention) string {
	return fmt.Sprintf("%s://%s/%s/%s", MentionScheme,
		url.PathEscape(m.ID), url.PathEscape(m.Type), url.PathEscape(m.ModelID))
}

// ParseMentionURL decodes a mention URI. The id segment may be empty.
func ParseMentionURL(href string) (Mention, bool) {
	rest, ok := strings.CutPrefix(href, MentionScheme+"://")
	if !ok {
		return Mention{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return Mention{}, false
	}
	for i, part := range parts {
		unescaped, err := url.PathUnescape(part)
		if err != nil {
			return Mention{}, false
		}
		parts[i] = unescaped
	}
	if parts[1] == "" || parts[2] == "" {
		return Mention{}, false
	}
	return Mention{ID: parts[0], Type: parts[1], ModelID: parts[2]}, true
}

// IsInternal reports whether href refers to this wiki: root-relative paths
// or absolute URLs on one of the given hosts.
func IsInternal(href string, hosts ...string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	for _, host := range hosts {
		if strings.EqualFold(u.Host, strings.TrimSpace(host)) {
			return true
		}
	}
	return false
}

// DocumentSlug returns the slug of an internal document link.
func DocumentSlug(href string, hosts ...string) (string, bool) {
	if !IsInternal(href, hosts...) {
		return "", false
	}
	match := documentPattern.FindStringSubmatch(href)
	if match == nil {
		return "", false
	}
	slug, err := url.PathUnescape(match[1])
	if err != nil || slug == "" {
		return "", false
	}
	return slug, true
}

// DocumentURLID returns the trailing url id of a document slug such as
// "my-doc-A1b2C3d4E5", or the slug itself when it carries none.
func DocumentURLID(slug string) string {
	if match := documentURLIDPattern.FindStringSubmatch(slug); match != nil {
		return match[1]
	}
	return slug
}

// FileNameFromURL returns the URL-decoded last path segment of href,
// ignoring the attachment redirect endpoint itself.
func FileNameFromURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == attachmentRedirect {
		return ""
	}
	if decoded, err := url.PathUnescape(base); err == nil {
		return decoded
	}
	return base
}

// PathAndQuery reduces href to its path and query so absolute and relative
// forms of the same stored URL compare equal.
func PathAndQuery(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	out := u.EscapedPath()
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}
