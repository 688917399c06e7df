package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ByLCY/papyrus-text/format"
	"github.com/ByLCY/papyrus-text/style"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.PageSpec()
	require.NoError(t, err)
	assert.InDelta(t, 595.3, p.Width, 0.1)
	assert.InDelta(t, 841.9, p.Height, 0.1)
	assert.InDelta(t, 51.0, p.Margin, 0.1)
	assert.Equal(t, style.Color{R: 255, G: 255, B: 255, A: 255}, p.Background)
	assert.Equal(t, format.TopToBottom, p.Fill)

	opts, err := cfg.FormatOptions(nil)
	require.NoError(t, err)
	assert.InDelta(t, p.Width-2*p.Margin, opts.Width, 1e-9)
	assert.True(t, opts.Wrap)
	assert.Equal(t, format.DefaultRendererCacheSize, opts.RendererCacheSize)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(`
[page]
width = "400"
height = "300"
margin = "0.5in"
background = "#00000000"

[format]
wrap = false
fill = "bottom-to-top"
renderer_cache_size = 4
disable_measurer_reuse = true

[render]
output = "png"
scale = 2.5
supersample = true
title = "Demo"

[render.fonts]
body = "fonts/Body.ttf"

[log]
level = "debug"
development = true
`)
	require.NoError(t, err)
	assert.Equal(t, "png", cfg.Render.Output)
	assert.Equal(t, 2.5, cfg.Render.Scale)
	assert.Equal(t, map[string]string{"body": "fonts/Body.ttf"}, cfg.Render.Fonts)

	p, err := cfg.PageSpec()
	require.NoError(t, err)
	assert.Equal(t, 36.0, p.Margin)
	assert.Equal(t, format.BottomToTop, p.Fill)
	assert.Equal(t, "Demo", p.Meta.Title)
	assert.Zero(t, p.Background.A)

	opts, err := cfg.FormatOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, 328.0, opts.Width)
	assert.False(t, opts.Wrap)
	assert.Equal(t, format.BottomToTop, opts.Fill)
	assert.Equal(t, 4, opts.RendererCacheSize)
	assert.True(t, opts.DisableMeasurerReuse)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, text string
	}{
		{"syntax", "[page\nwidth = 1"},
		{"unknown key", "[page]\ncolour = \"red\""},
		{"unknown section", "[paper]\nwidth = \"1in\""},
		{"bad length", "[page]\nwidth = \"wide\""},
		{"margin too big", "[page]\nwidth = \"100\"\nmargin = \"60\""},
		{"bad color", "[page]\nbackground = \"white\""},
		{"bad fill", "[format]\nfill = \"sideways\""},
		{"bad output", "[render]\noutput = \"svg\""},
		{"negative scale", "[render]\nscale = -1.0"},
		{"bad level", "[log]\nlevel = \"loud\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "papyrus.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "210mm", cfg.Page.Width)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
