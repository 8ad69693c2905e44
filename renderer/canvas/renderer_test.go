package canvasrenderer

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/layout"
	"github.com/ByLCY/dotpaper/virtual"
)

func sampleBox(t *testing.T) *layout.Box {
	t.Helper()
	title := &layout.Text{Content: "INVOICE"}
	title.Style.Bold = layout.On
	title.Style.Underline = layout.On
	root := &layout.Stack{Gap: 30, Children: []layout.Node{
		title,
		&layout.Line{Char: '-', Length: layout.Fixed(720)},
		&layout.Text{Content: "Total 9.99"},
	}}
	box, err := layout.NewNative(layout.Options{}).Layout(root)
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	return box
}

func TestRenderPDF(t *testing.T) {
	r := NewRenderer(Options{})
	data, err := r.Render(sampleBox(t))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}

func TestRenderPNG(t *testing.T) {
	r := NewRenderer(Options{Format: PNG, DPI: 90, Margin: 36})
	data, err := r.Render(sampleBox(t))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("解码 PNG 失败: %v", err)
	}
	// 8 英寸纸宽加两侧各 0.1 英寸留白，90 DPI
	if w := img.Bounds().Dx(); w < 735 || w > 740 {
		t.Fatalf("PNG 宽度不符: %d", w)
	}
}

func TestRenderPDFPerVirtualPage(t *testing.T) {
	e := escp.NewEncoder(escp.ASCII)
	e.Init()
	e.Text("one")
	e.FormFeed()
	e.Text("two")
	pages, err := virtual.Replay(e.Bytes(), nil)
	if err != nil {
		t.Fatalf("回放失败: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(pages))
	}
	if _, err := NewRenderer(Options{}).RenderPDF(pages); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if _, err := NewRenderer(Options{}).RenderPDF(nil); err == nil {
		t.Fatalf("没有页面时应返回错误")
	}
}

func TestPageSizeCoversGlyphs(t *testing.T) {
	e := escp.NewEncoder(escp.ASCII)
	e.Init()
	e.Advance(600)
	e.Text("x")
	pages, _ := virtual.Replay(e.Bytes(), nil)
	r := NewRenderer(Options{PageWidth: 720})
	w, h := r.pageSize(pages[0])
	if w != dimen.Dots(720).Millimeters() {
		t.Fatalf("页宽不符: %g", w)
	}
	if h != dimen.Dots(1200+60).Millimeters() {
		t.Fatalf("页高不符: %g", h)
	}
}

func TestFontFamilyCache(t *testing.T) {
	r := NewRenderer(Options{Fonts: map[string]Resource{"mono": {Bytes: []byte("not a font")}}})
	a, err := r.fontFamily("mono")
	if err != nil {
		t.Fatalf("无效的自定义字体应回退到内置字体: %v", err)
	}
	b, _ := r.fontFamily("mono")
	if a != b {
		t.Fatalf("字体族应被缓存")
	}
	if _, err := r.fontFamily("serif"); err == nil {
		t.Fatalf("未知字体应返回错误")
	}
}
