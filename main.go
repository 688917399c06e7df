package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/papyrus-text/config"
	"github.com/ByLCY/papyrus-text/format"
	"github.com/ByLCY/papyrus-text/markup"
	"github.com/ByLCY/papyrus-text/renderer"
	canvasrenderer "github.com/ByLCY/papyrus-text/renderer/canvas"
	"github.com/ByLCY/papyrus-text/renderer/raster"
	"github.com/ByLCY/papyrus-text/shaping"
)

func main() {
	input := flag.String("in", "examples/demo.papyrus", "markup 文件路径")
	output := flag.String("out", "output/demo.pdf", "输出路径（.pdf 或 .png）")
	configPath := flag.String("config", "", "TOML 配置文件路径")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到 markup 的 JSON 数据")
	flag.Parse()

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("读取配置失败: %v", err)
		}
	}
	if strings.EqualFold(filepath.Ext(*output), ".png") {
		cfg.Render.Output = "png"
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("创建日志失败: %v", err)
	}
	defer logger.Sync()

	if err := run(*input, *output, *debug, inputData, cfg, logger); err != nil {
		log.Fatalf("生成 %s 失败: %v", strings.ToUpper(cfg.Render.Output), err)
	}
	fmt.Printf("已生成 %s：%s\n", strings.ToUpper(cfg.Render.Output), *output)
}

// run 串联解析、排版与渲染。
func run(inputPath, outputPath, debugPath string, data any, cfg config.Config, logger *zap.Logger) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开 markup 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	parsed, err := markup.Parse(inputPath, file)
	if err != nil {
		return fmt.Errorf("解析 markup 失败: %w", err)
	}
	doc, err := markup.Build(parsed, data)
	if err != nil {
		return fmt.Errorf("构建文档失败: %w", err)
	}

	page, err := cfg.PageSpec()
	if err != nil {
		return err
	}
	if page.Meta.Title == "" {
		page.Meta.Title = parsed.Name
	}
	opts, err := cfg.FormatOptions(logger)
	if err != nil {
		return err
	}

	r, faces := newRenderer(cfg, filepath.Dir(inputPath))
	f := format.New(doc, faces, opts)
	out, err := r.Render(f, page)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	logger.Info("rendered",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("chars", doc.Len()),
		zap.Int("lines", f.LineCount()),
		zap.Int("height", f.FormattedHeight()),
	)

	if debugPath != "" {
		if err := writeDebug(f, debugPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

// newRenderer picks the backend and the faces text must be measured with
// for it.
func newRenderer(cfg config.Config, baseDir string) (renderer.Renderer, shaping.FaceProvider) {
	if cfg.Render.Output == "png" {
		return raster.New(raster.Options{Scale: cfg.Render.Scale, Supersample: cfg.Render.Supersample}), shaping.NewGoFonts()
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: baseDir, Fonts: cfg.Render.Fonts})
	return r, r
}

func writeDebug(f *format.Formatter, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := f.WriteDebugJSON(debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
