package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"

	"github.com/ByLCY/dotpaper/compiler"
	"github.com/ByLCY/dotpaper/document"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/layout"
	canvasrenderer "github.com/ByLCY/dotpaper/renderer/canvas"
)

// traceKeys 是各个包使用的追踪键。
var traceKeys = []string{
	"dotpaper.document", "dotpaper.binding", "dotpaper.layout", "dotpaper.yoga",
	"dotpaper.escp", "dotpaper.virtual", "dotpaper.compiler",
}

// config 汇总命令行参数。
type config struct {
	input    string
	output   string
	debug    string
	preview  string
	data     string
	backend  string
	table    string
	tree     bool
	formFeed bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.input, "in", "examples/receipt.dotpaper", "DSL 文件路径")
	flag.StringVar(&cfg.output, "out", "output/receipt.prn", "打印机指令流输出路径")
	flag.StringVar(&cfg.debug, "debug", "", "布局调试 JSON 输出路径")
	flag.StringVar(&cfg.preview, "preview", "", "预览输出路径（.pdf 或 .png）")
	flag.StringVar(&cfg.data, "data", "", "绑定到 DSL 的 JSON 数据，以 @ 开头时从文件读取")
	flag.StringVar(&cfg.backend, "backend", "native", "布局后端 [native|yoga]")
	flag.StringVar(&cfg.table, "table", "", "覆盖文档的字符表 [ascii|pc437]")
	flag.BoolVar(&cfg.tree, "tree", false, "在标准输出打印盒子树")
	flag.BoolVar(&cfg.formFeed, "ff", false, "在指令流末尾追加 FF 退纸")
	level := flag.String("trace", "Error", "追踪级别 [Debug|Info|Error]")
	flag.Parse()

	if err := setupTracing(*level); err != nil {
		log.Fatalf("配置追踪失败: %v", err)
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalf("生成指令流失败: %v", err)
	}
	fmt.Printf("已生成指令流：%s\n", cfg.output)
}

func setupTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{"tracing.adapter": "go"}
	for _, key := range traceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// run 串联解析、绑定、布局与输出。
func run(cfg config, stdout io.Writer) error {
	file, err := os.Open(cfg.input)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", cfg.input, err)
	}
	defer file.Close()

	doc, err := document.Parse(file)
	if err != nil {
		return err
	}
	data, err := loadData(cfg.data)
	if err != nil {
		return err
	}
	backend, err := compiler.ParseBackend(cfg.backend)
	if err != nil {
		return err
	}
	opts := compiler.Options{Backend: backend, Data: data}
	opts.Emitter.FormFeed = cfg.formFeed
	if cfg.table != "" {
		t, err := escp.ParseCharTable(cfg.table)
		if err != nil {
			return err
		}
		doc.Page.CharTable = t
	}

	result, err := compiler.CompileDocument(doc, opts)
	if err != nil {
		return fmt.Errorf("编译失败: %w", err)
	}

	if cfg.debug != "" {
		if err := writeDebug(result.Box, cfg.debug); err != nil {
			return err
		}
	}
	if cfg.tree {
		fmt.Fprintln(stdout, layout.DebugTree(result.Box))
	}
	if err := writeFile(cfg.output, result.Stream); err != nil {
		return err
	}
	if cfg.preview != "" {
		if err := writePreview(doc, result, cfg.preview); err != nil {
			return err
		}
	}
	return nil
}

func loadData(src string) (any, error) {
	if src == "" {
		return nil, nil
	}
	raw := []byte(src)
	if strings.HasPrefix(src, "@") {
		b, err := os.ReadFile(src[1:])
		if err != nil {
			return nil, fmt.Errorf("读取 data 文件失败: %w", err)
		}
		raw = b
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return v, nil
}

// writePreview 回放指令流并按扩展名输出 PDF 或 PNG。
func writePreview(doc *document.Document, result *compiler.Result, path string) error {
	opts := canvasrenderer.Options{PageWidth: doc.Page.Width}
	opts.Emitter.CharTable = doc.Page.CharTable
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		opts.Format = canvasrenderer.PNG
	case ".pdf":
		opts.Format = canvasrenderer.PDF
	default:
		return fmt.Errorf("不支持的预览格式 %s", filepath.Ext(path))
	}
	out, err := canvasrenderer.NewRenderer(opts).Render(result.Box)
	if err != nil {
		return fmt.Errorf("渲染预览失败: %w", err)
	}
	return writeFile(path, out)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

func writeDebug(root *layout.Box, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(root, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
