package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-wiki/internal/logging"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// Registry holds node and mark specifications. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	nodes     map[string]*NodeSpec
	marks     map[string]*MarkSpec
	markOrder []string
	logger    interfaces.Logger

	envelopeOnce sync.Once
	envelope     *jsonschema.Schema
	envelopeErr  error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report dropped marks and attributes.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		nodes:  map[string]*NodeSpec{},
		marks:  map[string]*MarkSpec{},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RegisterNode adds a node type.
func (r *Registry) RegisterNode(spec NodeSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("%w: node name is required", ErrInvalidDefinition)
	}
	if err := validateAttrSpecs(spec.Attrs); err != nil {
		return fmt.Errorf("%w: node %q: %v", ErrInvalidDefinition, name, err)
	}
	spec.Name = name
	spec.Attrs = maps.Clone(spec.Attrs)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("%w: node %q", ErrDuplicateType, name)
	}
	r.nodes[name] = &spec
	return nil
}

// RegisterMark adds a mark type. Marks rank in registration order, which
// is the canonical order marks are stored in.
func (r *Registry) RegisterMark(spec MarkSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("%w: mark name is required", ErrInvalidDefinition)
	}
	if err := validateAttrSpecs(spec.Attrs); err != nil {
		return fmt.Errorf("%w: mark %q: %v", ErrInvalidDefinition, name, err)
	}
	spec.Name = name
	spec.Attrs = maps.Clone(spec.Attrs)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.marks[name]; exists {
		return fmt.Errorf("%w: mark %q", ErrDuplicateType, name)
	}
	r.marks[name] = &spec
	r.markOrder = append(r.markOrder, name)
	return nil
}

// Node returns the spec registered for a node type.
func (r *Registry) Node(name string) (*NodeSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.nodes[name]
	return spec, ok
}

// Mark returns the spec registered for a mark type.
func (r *Registry) Mark(name string) (*MarkSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.marks[name]
	return spec, ok
}

// NodeTypes lists registered node type names, sorted.
func (r *Registry) NodeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.nodes))
}

// MarkTypes lists registered mark type names in rank order.
func (r *Registry) MarkTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.markOrder)
}

// MarkRank returns the canonical position of a mark, or -1 when unknown.
func (r *Registry) MarkRank(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Index(r.markOrder, name)
}

func validateAttrSpecs(specs map[string]AttrSpec) error {
	for name, spec := range specs {
		switch spec.Type {
		case AttrString, AttrNumber, AttrBool, AttrAny:
		default:
			return fmt.Errorf("attribute %q has unknown type %q", name, spec.Type)
		}
		if spec.Default != nil {
			if _, err := coerceAttr(spec, spec.Default); err != nil {
				return fmt.Errorf("attribute %q default: %v", name, err)
			}
		}
		if (spec.Min != nil || spec.Max != nil) && spec.Type != AttrNumber {
			return fmt.Errorf("attribute %q: range requires a number type", name)
		}
	}
	return nil
}
