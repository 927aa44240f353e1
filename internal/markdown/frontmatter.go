package markdown

import (
	"bytes"
	"fmt"
	"maps"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-wiki/internal/node"
)

// FrontMatter is the YAML metadata block of an imported Markdown file.
type FrontMatter struct {
	Title   string
	Summary string
	Tags    []string
	Author  string
	Date    time.Time
	Custom  map[string]any
}

// Document is an imported Markdown file: its metadata and parsed tree.
type Document struct {
	FrontMatter FrontMatter
	Body        string
	Tree        *node.Node
}

type frontMatterEnvelope struct {
	Title   string         `yaml:"title"`
	Summary string         `yaml:"summary"`
	Tags    []string       `yaml:"tags"`
	Author  string         `yaml:"author"`
	Date    time.Time      `yaml:"date"`
	Custom  map[string]any `yaml:",inline"`
}

// ParseFrontMatter splits source into its front matter and Markdown body.
// Sources without front matter return an empty FrontMatter and the input.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	custom := map[string]any{}
	maps.Copy(custom, meta.Custom)
	return FrontMatter{
		Title:   meta.Title,
		Summary: meta.Summary,
		Tags:    append([]string(nil), meta.Tags...),
		Author:  meta.Author,
		Date:    meta.Date,
		Custom:  custom,
	}, body, nil
}

// FromMarkdownDocument parses a Markdown file that may start with front
// matter. The tree excludes the metadata block.
func (c *Codec) FromMarkdownDocument(source []byte) (*Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	tree, err := c.FromMarkdown(string(body))
	if err != nil {
		return nil, err
	}
	return &Document{FrontMatter: fm, Body: string(body), Tree: tree}, nil
}
