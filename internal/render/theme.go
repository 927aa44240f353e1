package render

import (
	"fmt"
	"io/fs"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// LoadTheme reads the go-theme manifest at the root of fsys and selects
// variant of the theme called name. The manifest name wins when it is set.
func LoadTheme(fsys fs.FS, name, variant, prefix string) (Theme, error) {
	manifest, err := gotheme.LoadDir(fsys, ".")
	if err != nil {
		return Theme{}, fmt.Errorf("render: load theme %s: %w", name, err)
	}

	normalized := *manifest
	if strings.TrimSpace(normalized.Name) == "" {
		normalized.Name = strings.TrimSpace(name)
	}

	registry := gotheme.NewRegistry()
	if err := registry.Register(&normalized); err != nil {
		return Theme{}, fmt.Errorf("render: register theme %s: %w", normalized.Name, err)
	}

	selector := gotheme.Selector{
		Registry:       registry,
		DefaultTheme:   normalized.Name,
		DefaultVariant: strings.TrimSpace(variant),
	}
	selection, err := selector.Select(normalized.Name, strings.TrimSpace(variant))
	if err != nil {
		return Theme{}, fmt.Errorf("render: select theme %s: %w", normalized.Name, err)
	}
	return ThemeFromSelection(selection, prefix), nil
}
