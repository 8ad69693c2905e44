// Package compiler 串联整条流水线：数据绑定 → 布局 → 指令输出。
//
// 每个阶段的失败都以 *layout.Error 返回，带有阶段与节点信息；失败时不返回任何字节。
package compiler

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/dotpaper/binding"
	"github.com/ByLCY/dotpaper/document"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/fonts"
	"github.com/ByLCY/dotpaper/layout"
	"github.com/ByLCY/dotpaper/layout/yoga"
	escprenderer "github.com/ByLCY/dotpaper/renderer/escp"
)

// tracer traces with key 'dotpaper.compiler'.
func tracer() tracing.Trace {
	return tracing.Select("dotpaper.compiler")
}

// Backend 选择布局后端。
type Backend string

const (
	Native Backend = "native"
	Yoga   Backend = "yoga"
)

// ParseBackend 解析后端名称，空字符串表示 Native。
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", Native:
		return Native, nil
	case Yoga:
		return Yoga, nil
	}
	return Native, fmt.Errorf("%w: 未知的布局后端 %q", layout.ErrInvalidSpec, name)
}

// shared 是所有 yoga 后端共用的初始化句柄。
var shared = yoga.NewHandle(nil)

// Options 汇总各阶段的配置。
type Options struct {
	Layout  layout.Options
	Emitter escprenderer.Options
	Backend Backend
	// Handle 为 nil 时使用包级共享句柄。
	Handle *yoga.Handle
	// Data 是绑定到动态节点与 ${path} 的数据，通常来自 JSON。
	Data any
}

// 两个阶段必须使用同一张字宽表。
func (o Options) withDefaults() Options {
	switch {
	case o.Layout.Metrics == nil && o.Emitter.Metrics == nil:
		o.Layout.Metrics = fonts.Default
		o.Emitter.Metrics = fonts.Default
	case o.Layout.Metrics == nil:
		o.Layout.Metrics = o.Emitter.Metrics
	case o.Emitter.Metrics == nil:
		o.Emitter.Metrics = o.Layout.Metrics
	}
	if o.Handle == nil {
		o.Handle = shared
	}
	return o
}

// Result 是一次编译的输出。
type Result struct {
	Box    *layout.Box
	Stream []byte
}

// Engine 按配置创建布局后端。
func Engine(opts Options) (layout.Engine, error) {
	opts = opts.withDefaults()
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, layout.Fail(layout.PhaseLayout, nil, err)
	}
	if backend == Yoga {
		return yoga.NewWithHandle(opts.Layout, opts.Handle), nil
	}
	return layout.NewNative(opts.Layout), nil
}

// Compile 对节点树依次执行绑定、布局与输出。
func Compile(root layout.Node, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	engine, err := Engine(opts)
	if err != nil {
		return nil, err
	}
	bound, err := binding.Resolve(root, opts.Data)
	if err != nil {
		return nil, err
	}
	box, err := engine.Layout(bound)
	if err != nil {
		return nil, err
	}
	stream, err := escprenderer.NewRenderer(opts.Emitter).Render(box)
	if err != nil {
		return nil, err
	}
	tracer().Infof("compiler: %s 后端，%d 字节", backendName(opts.Backend), len(stream))
	return &Result{Box: box, Stream: stream}, nil
}

// CompileDocument 用文档的页面参数覆盖纸张宽高、字符表与走纸设置后编译。
func CompileDocument(doc *document.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, layout.Fail(layout.PhaseLayout, nil, fmt.Errorf("%w: 文档为空", layout.ErrInvalidSpec))
	}
	if doc.Page.Width > 0 {
		opts.Layout.PageWidth = doc.Page.Width
	}
	if doc.Page.Height > 0 {
		opts.Layout.PageHeight = doc.Page.Height
	}
	if doc.Page.CharTable != escp.ASCII {
		opts.Emitter.CharTable = doc.Page.CharTable
	}
	if doc.Page.FormFeed {
		opts.Emitter.FormFeed = true
	}
	return Compile(doc.Root, opts)
}

func backendName(b Backend) string {
	if b == "" {
		return string(Native)
	}
	return string(b)
}
