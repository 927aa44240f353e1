package schema

import "slices"

// Content groups.
const (
	GroupBlock  = "block"
	GroupInline = "inline"
)

// AttrType is the primitive kind an attribute holds.
type AttrType string

const (
	AttrString AttrType = "string"
	AttrNumber AttrType = "number"
	AttrBool   AttrType = "boolean"
	AttrAny    AttrType = "any"
)

// AttrSpec declares one attribute. A nil Default makes the attribute
// nullable. Values outside Enum or outside Min..Max fall back to Default.
type AttrSpec struct {
	Type     AttrType
	Default  any
	Required bool
	Enum     []string
	Min      *float64
	Max      *float64
}

// inRange reports whether a number satisfies Min and Max.
func (s AttrSpec) inRange(f float64) bool {
	return (s.Min == nil || f >= *s.Min) && (s.Max == nil || f <= *s.Max)
}

// ContentRule lists the child groups and types a node accepts. The zero
// value accepts no children.
type ContentRule struct {
	Groups []string
	Types  []string
}

func (r ContentRule) Empty() bool {
	return len(r.Groups) == 0 && len(r.Types) == 0
}

func (r ContentRule) allows(spec *NodeSpec) bool {
	if slices.Contains(r.Types, spec.Name) {
		return true
	}
	return spec.Group != "" && slices.Contains(r.Groups, spec.Group)
}

// NodeSpec describes a node type.
type NodeSpec struct {
	Name    string
	Group   string
	Content ContentRule
	Inline  bool
	// Atom nodes keep all state in attributes and never have children.
	Atom bool
	// Marks reports whether inline children may carry marks.
	Marks bool
	// Code nodes hold raw text (code and math blocks).
	Code  bool
	Attrs map[string]AttrSpec
}

// IsLeaf reports whether the node accepts no children.
func (s *NodeSpec) IsLeaf() bool {
	return s.Atom || s.Content.Empty()
}

// IsBlock reports whether the node is block level.
func (s *NodeSpec) IsBlock() bool {
	return !s.Inline
}

// MarkSpec describes a mark type. Excludes lists marks that cannot be
// combined with this one; "_" excludes every other mark.
type MarkSpec struct {
	Name     string
	Attrs    map[string]AttrSpec
	Excludes []string
}

func (s *MarkSpec) excludes(other string) bool {
	if s.Name == other {
		return false
	}
	return slices.Contains(s.Excludes, "_") || slices.Contains(s.Excludes, other)
}
