// Package config 读取 TOML 配置文件，为命令行提供页面、排版、渲染与日志设置。
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ByLCY/papyrus-text/format"
	"github.com/ByLCY/papyrus-text/renderer"
	"github.com/ByLCY/papyrus-text/style"
)

// Config mirrors the TOML file. Lengths are strings with units ("18mm",
// "12pt", "1in", plain pixels).
type Config struct {
	Page   Page   `toml:"page"`
	Format Format `toml:"format"`
	Render Render `toml:"render"`
	Log    Log    `toml:"log"`
}

type Page struct {
	Width      string `toml:"width"`
	Height     string `toml:"height"`
	Margin     string `toml:"margin"`
	Background string `toml:"background"`
}

type Format struct {
	Wrap                 bool   `toml:"wrap"`
	Fill                 string `toml:"fill"`
	RendererCacheSize    int    `toml:"renderer_cache_size"`
	DisableMeasurerReuse bool   `toml:"disable_measurer_reuse"`
}

type Render struct {
	// Output is "pdf" or "png".
	Output      string            `toml:"output"`
	Scale       float64           `toml:"scale"`
	Supersample bool              `toml:"supersample"`
	Fonts       map[string]string `toml:"fonts"`
	Title       string            `toml:"title"`
	Author      string            `toml:"author"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns an A4 portrait page with 18mm margins, wrapped text and
// PDF output.
func Default() Config {
	return Config{
		Page:   Page{Width: "210mm", Height: "297mm", Margin: "18mm", Background: "#ffffff"},
		Format: Format{Wrap: true, Fill: "top-to-bottom", RendererCacheSize: format.DefaultRendererCacheSize},
		Render: Render{Output: "pdf", Scale: 1},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. Unknown keys are an error so that
// typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	if err := undecoded(md); err != nil {
		return Config{}, fmt.Errorf("配置 %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := undecoded(md); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func undecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	sort.Strings(names)
	return fmt.Errorf("未知的配置项: %s", strings.Join(names, ", "))
}

// Validate checks every value that later conversions would reject.
func (c Config) Validate() error {
	if _, err := c.PageSpec(); err != nil {
		return err
	}
	if _, err := c.fill(); err != nil {
		return err
	}
	switch c.Render.Output {
	case "pdf", "png":
	default:
		return fmt.Errorf("render.output 只能是 pdf 或 png: %q", c.Render.Output)
	}
	if c.Render.Scale < 0 {
		return fmt.Errorf("render.scale 不能为负: %g", c.Render.Scale)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

// PageSpec converts the page section to pixels.
func (c Config) PageSpec() (renderer.Page, error) {
	var p renderer.Page
	for _, f := range []struct {
		key string
		val string
		dst *float64
	}{
		{"page.width", c.Page.Width, &p.Width},
		{"page.height", c.Page.Height, &p.Height},
		{"page.margin", c.Page.Margin, &p.Margin},
	} {
		l, err := style.ParseLength(f.val)
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = l.Px()
	}
	if p.Body().Empty() {
		return p, fmt.Errorf("页边距 %s 超出页面 %sx%s", c.Page.Margin, c.Page.Width, c.Page.Height)
	}
	if c.Page.Background != "" {
		bg, err := style.ParseColor(c.Page.Background)
		if err != nil {
			return p, fmt.Errorf("page.background: %w", err)
		}
		p.Background = bg
	}
	fill, err := c.fill()
	if err != nil {
		return p, err
	}
	p.Fill = fill
	p.Meta = renderer.Meta{Title: c.Render.Title, Author: c.Render.Author, Creator: "papyrus-text"}
	return p, nil
}

func (c Config) fill() (format.Fill, error) {
	switch strings.ToLower(c.Format.Fill) {
	case "", "top-to-bottom":
		return format.TopToBottom, nil
	case "bottom-to-top":
		return format.BottomToTop, nil
	}
	return format.TopToBottom, fmt.Errorf("format.fill 只能是 top-to-bottom 或 bottom-to-top: %q", c.Format.Fill)
}

// FormatOptions returns formatter options for text filling the page body.
func (c Config) FormatOptions(log *zap.Logger) (format.Options, error) {
	p, err := c.PageSpec()
	if err != nil {
		return format.Options{}, err
	}
	return format.Options{
		Width:                p.Body().W,
		Wrap:                 c.Format.Wrap,
		Fill:                 p.Fill,
		Logger:               log,
		RendererCacheSize:    c.Format.RendererCacheSize,
		DisableMeasurerReuse: c.Format.DisableMeasurerReuse,
	}, nil
}

func (c Config) level() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Logger builds a production (JSON) or development (console) logger at
// the configured level.
func (c Config) Logger() (*zap.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
