package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbu/wikigraph/graph"
)

func TestParseQueryEmpty(t *testing.T) {
	for _, query := range []string{"", "   ", "\n", "\t"} {
		cfg, err := ParseQuery(query)
		require.NoError(t, err, "query %q", query)
		assert.Equal(t, DefaultConfig(), cfg)
	}
}

func TestParseQueryKinds(t *testing.T) {
	cfg, err := ParseQuery("kind=page,concept")
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeKind{graph.KindPage, graph.KindConcept}, cfg.Kinds)

	cfg, err = ParseQuery("kinds=all")
	require.NoError(t, err)
	assert.Equal(t, graph.AllNodeKinds(), cfg.Kinds)

	cfg, err = ParseQuery("type=none")
	require.NoError(t, err)
	assert.Empty(t, cfg.Kinds)

	_, err = ParseQuery("kind=page,unicorn")
	assert.Error(t, err)
}

func TestParseQueryTimestamps(t *testing.T) {
	cfg, err := ParseQuery(`since=2026-03-01 until="2026-03-10"`)
	require.NoError(t, err)
	require.NotNil(t, cfg.Since)
	require.NotNil(t, cfg.Until)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *cfg.Since)
	// Bare until dates snap to end of day so the window is inclusive
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Add(24*time.Hour-time.Nanosecond), *cfg.Until)

	cfg, err = ParseQuery("since=2026-03-01T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), *cfg.Since)

	_, err = ParseQuery("since=yesterday")
	assert.Error(t, err)
}

func TestParseQueryFocusDepthCap(t *testing.T) {
	cfg, err := ParseQuery("focus=getting-started depth=2 cap=200 orphans=hide")
	require.NoError(t, err)
	assert.Equal(t, "getting-started", cfg.Focus)
	assert.Equal(t, 2, cfg.Depth)
	assert.Equal(t, 200, cfg.MaxNodes)
	assert.True(t, cfg.HideOrphans)

	_, err = ParseQuery("depth=-1")
	assert.Error(t, err)

	_, err = ParseQuery("cap=lots")
	assert.Error(t, err)

	_, err = ParseQuery("orphans=maybe")
	assert.Error(t, err)
}

func TestParseQueryQuotedValues(t *testing.T) {
	cfg, err := ParseQuery(`focus="Getting Started"`)
	require.NoError(t, err)
	assert.Equal(t, "Getting Started", cfg.Focus)
}

func TestParseQueryUnknownKey(t *testing.T) {
	_, err := ParseQuery("color=red")
	assert.Error(t, err)

	_, err = ParseQuery("justaword")
	assert.Error(t, err)
}

func TestParseQueryWithBase(t *testing.T) {
	base := DefaultConfig()
	base.MaxNodes = 500
	base.Depth = 3

	// Silent keys keep the base values
	cfg, err := ParseQueryWith(base, "kind=page")
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxNodes)
	assert.Equal(t, 3, cfg.Depth)

	// Explicit keys override, including cap=0 meaning uncapped
	cfg, err = ParseQueryWith(base, "cap=0 depth=1")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxNodes)
	assert.Equal(t, 1, cfg.Depth)
}
