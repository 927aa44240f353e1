package render

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var allowedSchemes = map[string]bool{"http": true, "https": true, "mailto": true}

// safeURL returns raw when it is relative or uses an allowed scheme.
func safeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme == "" {
		// "javascript:" with leading control characters parses as a path.
		if strings.ContainsAny(raw[:min(len(raw), 16)], "\x00\t\n\r") {
			return "", false
		}
		return raw, true
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", false
	}
	return raw, true
}

// urlAttributes lists the elements whose URL attributes are absolutised.
var urlAttributes = []struct{ selector, attr string }{
	{"a[href]", "href"},
	{"link[href]", "href"},
	{"img[src]", "src"},
	{"video[src]", "src"},
	{"audio[src]", "src"},
	{"source[src]", "src"},
	{"script[src]", "src"},
	{"iframe[src]", "src"},
}

// absolutize rewrites root-relative URLs in dom against base. Absolute,
// protocol-relative and page-relative URLs are left alone.
func absolutize(dom *goquery.Document, base string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return
	}
	for _, target := range urlAttributes {
		dom.Find(target.selector).Each(func(_ int, sel *goquery.Selection) {
			value, _ := sel.Attr(target.attr)
			if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
				sel.SetAttr(target.attr, base+value)
			}
		})
	}
}
