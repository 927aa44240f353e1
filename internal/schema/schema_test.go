package schema_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wiki/internal/node"
	"github.com/goliatone/go-wiki/internal/schema"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestNodeFromJSONBuildsValidDocument(t *testing.T) {
	reg := schema.Default()
	doc, err := reg.NodeFromJSON(decode(t, `{
		"type": "doc",
		"content": [
			{"type": "heading", "attrs": {"level": 2, "bogus": "x"}, "content": [{"type": "text", "text": "Hi"}]},
			{"type": "paragraph", "content": [
				{"type": "text", "text": "link", "marks": [{"type": "bold"}, {"type": "link", "attrs": {"href": "/doc/a"}}]},
				{"type": "mention", "attrs": {"id": "m1", "type": "document", "modelId": "d1", "label": "Doc"}}
			]},
			{"type": "attachment", "attrs": {"href": "/api/attachments.redirect?id=a1", "size": "42"}}
		]
	}`))
	require.NoError(t, err)

	heading := doc.Content[0]
	require.Equal(t, 2, heading.IntAttr("level"))
	_, hasBogus := heading.Attrs["bogus"]
	require.False(t, hasBogus, "unknown attributes are dropped")

	text := doc.Content[1].Content[0]
	require.Len(t, text.Marks, 2)
	require.Equal(t, node.MarkLink, text.Marks[0].Type, "marks are stored in rank order")
	require.Nil(t, text.Marks[0].Attrs["title"])

	mention := doc.Content[1].Content[1]
	require.Equal(t, "d1", mention.StringAttr("modelId"))
	require.Nil(t, mention.Attrs["actorId"])

	attachment := doc.Content[2]
	require.Equal(t, float64(42), attachment.Attrs["size"])
	require.Equal(t, "", attachment.StringAttr("title"))
}

func TestNodeFromJSONErrors(t *testing.T) {
	reg := schema.Default()
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"unknown type", `{"type":"doc","content":[{"type":"marquee"}]}`, schema.ErrUnknownNodeType},
		{"disallowed child", `{"type":"table","content":[{"type":"paragraph"}]}`, schema.ErrContentNotAllowed},
		{"inline in doc", `{"type":"doc","content":[{"type":"text","text":"x"}]}`, schema.ErrContentNotAllowed},
		{"atom with children", `{"type":"doc","content":[{"type":"embed","attrs":{"href":"https://x"},"content":[{"type":"paragraph"}]}]}`, schema.ErrContentNotAllowed},
		{"missing required", `{"type":"doc","content":[{"type":"embed"}]}`, schema.ErrAttrRequired},
		{"bad attr type", `{"type":"doc","content":[{"type":"heading","attrs":{"level":{"n":1}}}]}`, schema.ErrAttrType},
		{"unknown mark", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"x","marks":[{"type":"blink"}]}]}]}`, schema.ErrUnknownMarkType},
		{"empty text", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":""}]}]}`, schema.ErrEmptyText},
		{"content not array", `{"type":"doc","content":"nope"}`, schema.ErrInvalidEnvelope},
		{"missing type", `{"content":[]}`, schema.ErrInvalidEnvelope},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.NodeFromJSON(decode(t, tc.raw))
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestConstructionErrorCarriesPath(t *testing.T) {
	_, err := schema.Default().NodeFromJSON(decode(t,
		`{"type":"doc","content":[{"type":"paragraph"},{"type":"bullet_list","content":[{"type":"paragraph"}]}]}`))
	var cerr *schema.ConstructionError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "/content/1/content/0", cerr.Path)
}

func TestMarksDroppedInsideCodeBlocks(t *testing.T) {
	doc, err := schema.Default().NodeFromJSON(decode(t,
		`{"type":"doc","content":[{"type":"code_block","content":[{"type":"text","text":"x := 1","marks":[{"type":"bold"}]}]}]}`))
	require.NoError(t, err)
	require.Empty(t, doc.Content[0].Content[0].Marks)
	require.Equal(t, "", doc.Content[0].StringAttr("language"))
}

func TestEnumFallsBackToDefault(t *testing.T) {
	attrs, err := schema.Default().NodeAttrs(node.TypeNotice, map[string]any{"style": "rainbow"})
	require.NoError(t, err)
	require.Equal(t, "info", attrs["style"])
}

func TestHeadingLevelOutsideRangeFallsBackToDefault(t *testing.T) {
	reg := schema.Default()
	for _, level := range []any{0, 7, -3, "12"} {
		attrs, err := reg.NodeAttrs(node.TypeHeading, map[string]any{"level": level})
		require.NoError(t, err)
		require.Equal(t, float64(1), attrs["level"], "level %v", level)
	}

	attrs, err := reg.NodeAttrs(node.TypeHeading, map[string]any{"level": 6})
	require.NoError(t, err)
	require.Equal(t, float64(6), attrs["level"])

	checked, err := reg.Check(node.New(node.TypeDoc, nil,
		node.New(node.TypeHeading, node.Attrs{"level": 9}, node.NewText("Deep")),
	))
	require.NoError(t, err)
	require.Equal(t, float64(1), checked.Content[0].Attrs["level"])
}

func TestAddMarkExclusion(t *testing.T) {
	reg := schema.Default()
	set := reg.AddMark(nil, node.Mark{Type: node.MarkBold})
	set = reg.AddMark(set, node.Mark{Type: node.MarkCode})
	require.Equal(t, []node.Mark{{Type: node.MarkCode}}, set, "code removes bold")

	set = reg.AddMark(set, node.Mark{Type: node.MarkItalic})
	require.Equal(t, []node.Mark{{Type: node.MarkCode}}, set, "italic is excluded by code")

	set = reg.AddMark(set, node.Mark{Type: node.MarkLink, Attrs: node.Attrs{"href": "x"}})
	require.Equal(t, node.MarkLink, set[0].Type)
	require.Equal(t, node.MarkCode, set[1].Type)
}

func TestRegistryRejectsDuplicatesAndBadDefinitions(t *testing.T) {
	reg := schema.Default()
	err := reg.RegisterNode(schema.NodeSpec{Name: node.TypeParagraph})
	require.ErrorIs(t, err, schema.ErrDuplicateType)

	err = reg.RegisterNode(schema.NodeSpec{Name: "callout", Attrs: map[string]schema.AttrSpec{"x": {Type: "date"}}})
	require.ErrorIs(t, err, schema.ErrInvalidDefinition)

	limit := 3.0
	err = reg.RegisterNode(schema.NodeSpec{Name: "callout", Attrs: map[string]schema.AttrSpec{"x": {Type: schema.AttrString, Max: &limit}}})
	require.ErrorIs(t, err, schema.ErrInvalidDefinition)

	require.NoError(t, reg.RegisterNode(schema.NodeSpec{Name: "callout", Group: schema.GroupBlock, Content: schema.ContentRule{Groups: []string{schema.GroupInline}}}))
	doc, err := reg.NodeFromJSON(map[string]any{
		"type":    "doc",
		"content": []any{map[string]any{"type": "callout", "content": []any{map[string]any{"type": "text", "text": "hi"}}}},
	})
	require.NoError(t, err)
	require.Equal(t, "callout", doc.Content[0].Type)
}

func TestCheckRoundTripsTypedTree(t *testing.T) {
	doc := node.New(node.TypeDoc, nil,
		node.New(node.TypeOrderedList, node.Attrs{"order": 3},
			node.New(node.TypeListItem, nil, node.New(node.TypeParagraph, nil, node.NewText("one"))),
		),
	)
	checked, err := schema.Default().Check(doc)
	require.NoError(t, err)
	require.Equal(t, float64(3), checked.Content[0].Attrs["order"])
}
