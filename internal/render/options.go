package render

import (
	"errors"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	gotheme "github.com/goliatone/go-theme"
)

var (
	// ErrBaseURLNotAbsolute is returned when Options.BaseURL is not an
	// absolute http(s) URL.
	ErrBaseURLNotAbsolute = errors.New("render: base url must be an absolute http(s) url")

	languagePattern = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)
	cssNamePattern  = regexp.MustCompile(`^--[a-zA-Z0-9_-]+$`)
)

// Options control a single render.
type Options struct {
	// Title is rendered as the page title and a leading heading.
	Title string
	// IncludeStyles inlines the editor stylesheet.
	IncludeStyles bool
	// IncludeMermaid turns mermaid code blocks into diagrams rendered by a
	// client script.
	IncludeMermaid bool
	// Centered constrains the content width.
	Centered bool
	// BaseURL absolutises root-relative URLs when set.
	BaseURL string
	// Theme supplies CSS variables for the page.
	Theme Theme
	// Language is the page language, "en" when empty.
	Language string
}

// DefaultOptions returns styled, centered output without diagrams.
func DefaultOptions() Options {
	return Options{
		IncludeStyles: true,
		Centered:      true,
		Language:      "en",
	}
}

// Validate checks the option values.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Title, validation.Length(0, 500)),
		validation.Field(&o.BaseURL, validation.By(func(value any) error {
			raw, _ := value.(string)
			if raw == "" {
				return nil
			}
			u, err := url.Parse(raw)
			if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
				return ErrBaseURLNotAbsolute
			}
			return nil
		})),
		validation.Field(&o.Language, validation.Match(languagePattern)),
	)
}

func (o Options) language() string {
	if strings.TrimSpace(o.Language) == "" {
		return "en"
	}
	return o.Language
}

// Theme is a set of CSS custom properties written to the page root.
type Theme struct {
	Name      string
	Variant   string
	Variables map[string]string
}

// ThemeFromSelection builds a Theme from a go-theme selection. Token names
// become CSS variables under prefix.
func ThemeFromSelection(selection *gotheme.Selection, prefix string) Theme {
	if selection == nil {
		return Theme{}
	}
	return Theme{
		Name:      selection.Theme,
		Variant:   selection.Variant,
		Variables: maps.Clone(selection.CSSVariables(prefix)),
	}
}

// declarations renders the theme as CSS declarations sorted by name.
// Entries with unsafe names or values are skipped.
func (t Theme) declarations() string {
	if len(t.Variables) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(t.Variables)) {
		prop := name
		if !strings.HasPrefix(prop, "--") {
			prop = "--" + prop
		}
		value := strings.TrimSpace(t.Variables[name])
		if !cssNamePattern.MatchString(prop) || value == "" || strings.ContainsAny(value, "<>{};") {
			continue
		}
		b.WriteString(prop)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("; ")
	}
	if b.Len() == 0 {
		return ""
	}
	return ":root { " + strings.TrimSpace(b.String()) + " }"
}
