package schema

import "github.com/goliatone/go-wiki/internal/node"

var (
	blockContent  = ContentRule{Groups: []string{GroupBlock}}
	inlineContent = ContentRule{Groups: []string{GroupInline}}
	textContent   = ContentRule{Types: []string{node.TypeText}}
)

func str(def string) AttrSpec { return AttrSpec{Type: AttrString, Default: def} }
func num(def float64) AttrSpec { return AttrSpec{Type: AttrNumber, Default: def} }
func numRange(def, lo, hi float64) AttrSpec {
	return AttrSpec{Type: AttrNumber, Default: def, Min: &lo, Max: &hi}
}
func nullable(t AttrType) AttrSpec { return AttrSpec{Type: t} }
func required(t AttrType) AttrSpec { return AttrSpec{Type: t, Required: true} }

// DefaultNodes returns the wiki document node types.
func DefaultNodes() []NodeSpec {
	cellAttrs := map[string]AttrSpec{
		"colspan":   num(1),
		"rowspan":   num(1),
		"alignment": {Type: AttrString, Enum: []string{"left", "center", "right"}},
	}
	return []NodeSpec{
		{Name: node.TypeDoc, Content: blockContent},
		{Name: node.TypeParagraph, Group: GroupBlock, Content: inlineContent, Marks: true},
		{
			Name: node.TypeHeading, Group: GroupBlock, Content: inlineContent, Marks: true,
			Attrs: map[string]AttrSpec{"level": numRange(1, 1, 6)},
		},
		{Name: node.TypeBlockquote, Group: GroupBlock, Content: blockContent},
		{
			Name: node.TypeNotice, Group: GroupBlock, Content: blockContent,
			Attrs: map[string]AttrSpec{
				"style": {Type: AttrString, Default: "info", Enum: []string{"info", "warning", "success", "tip"}},
			},
		},
		{Name: node.TypeBulletList, Group: GroupBlock, Content: ContentRule{Types: []string{node.TypeListItem}}},
		{
			Name: node.TypeOrderedList, Group: GroupBlock, Content: ContentRule{Types: []string{node.TypeListItem}},
			Attrs: map[string]AttrSpec{"order": num(1)},
		},
		{Name: node.TypeCheckboxList, Group: GroupBlock, Content: ContentRule{Types: []string{node.TypeCheckboxItem}}},
		{Name: node.TypeListItem, Content: blockContent},
		{
			Name: node.TypeCheckboxItem, Content: blockContent,
			Attrs: map[string]AttrSpec{"checked": {Type: AttrBool, Default: false}},
		},
		{Name: node.TypeTable, Group: GroupBlock, Content: ContentRule{Types: []string{node.TypeTableRow}}},
		{Name: node.TypeTableRow, Content: ContentRule{Types: []string{node.TypeTableCell, node.TypeTableHeader}}},
		{Name: node.TypeTableHeader, Content: ContentRule{Types: []string{node.TypeParagraph}}, Attrs: cellAttrs},
		{Name: node.TypeTableCell, Content: ContentRule{Types: []string{node.TypeParagraph}}, Attrs: cellAttrs},
		{
			Name: node.TypeCodeBlock, Group: GroupBlock, Content: textContent, Code: true,
			Attrs: map[string]AttrSpec{"language": str("")},
		},
		{Name: node.TypeMathBlock, Group: GroupBlock, Content: textContent, Code: true},
		{Name: node.TypeHorizontalRule, Group: GroupBlock},
		{
			Name: node.TypeAttachment, Group: GroupBlock, Atom: true,
			Attrs: map[string]AttrSpec{
				"id":          str(""),
				"href":        required(AttrString),
				"title":       str(""),
				"size":        num(0),
				"contentType": str(""),
			},
		},
		{
			Name: node.TypePDFEmbed, Group: GroupBlock, Atom: true,
			Attrs: map[string]AttrSpec{
				"id":    str(""),
				"href":  required(AttrString),
				"title": str(""),
				"size":  num(0),
			},
		},
		{
			Name: node.TypeEmbed, Group: GroupBlock, Atom: true,
			Attrs: map[string]AttrSpec{
				"href":  required(AttrString),
				"title": str(""),
			},
		},
		{
			Name: node.TypeVideo, Group: GroupBlock, Atom: true,
			Attrs: map[string]AttrSpec{
				"src":    required(AttrString),
				"title":  str(""),
				"width":  nullable(AttrNumber),
				"height": nullable(AttrNumber),
			},
		},
		{
			Name: node.TypeImage, Group: GroupInline, Inline: true, Atom: true,
			Attrs: map[string]AttrSpec{
				"src":         required(AttrString),
				"alt":         str(""),
				"title":       str(""),
				"width":       nullable(AttrNumber),
				"height":      nullable(AttrNumber),
				"layoutClass": nullable(AttrString),
			},
		},
		{
			Name: node.TypeMention, Group: GroupInline, Inline: true, Atom: true,
			Attrs: map[string]AttrSpec{
				"id":      str(""),
				"type":    str("user"),
				"modelId": str(""),
				"label":   str(""),
				"actorId": nullable(AttrString),
			},
		},
		{Name: node.TypeHardBreak, Group: GroupInline, Inline: true},
		{Name: node.TypeText, Group: GroupInline, Inline: true},
	}
}

// DefaultMarks returns the wiki mark types in canonical order.
func DefaultMarks() []MarkSpec {
	return []MarkSpec{
		{Name: node.MarkLink, Attrs: map[string]AttrSpec{"href": required(AttrString), "title": nullable(AttrString)}},
		{Name: node.MarkBold},
		{Name: node.MarkItalic},
		{Name: node.MarkUnderline},
		{Name: node.MarkStrikethrough},
		{Name: node.MarkColor, Attrs: map[string]AttrSpec{"color": nullable(AttrString)}},
		{
			Name:     node.MarkCode,
			Excludes: []string{node.MarkBold, node.MarkItalic, node.MarkUnderline, node.MarkStrikethrough, node.MarkColor, node.MarkMathInline},
		},
		{
			Name:     node.MarkMathInline,
			Excludes: []string{node.MarkBold, node.MarkItalic, node.MarkUnderline, node.MarkStrikethrough, node.MarkColor, node.MarkCode},
		},
	}
}

// Default returns a registry populated with the wiki node and mark types.
func Default(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for _, spec := range DefaultNodes() {
		if err := r.RegisterNode(spec); err != nil {
			panic(err)
		}
	}
	for _, spec := range DefaultMarks() {
		if err := r.RegisterMark(spec); err != nil {
			panic(err)
		}
	}
	return r
}
