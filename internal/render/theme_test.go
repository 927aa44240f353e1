package render

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadThemeWithoutManifest(t *testing.T) {
	_, err := LoadTheme(fstest.MapFS{}, "paper", "light", "wiki")
	require.Error(t, err)
	require.Contains(t, err.Error(), "render: load theme paper")
}
