package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/fonts"
	"github.com/ByLCY/dotpaper/layout"
	"github.com/ByLCY/dotpaper/renderer"
	escprenderer "github.com/ByLCY/dotpaper/renderer/escp"
	"github.com/ByLCY/dotpaper/virtual"
)

// Go Mono 的字形前进宽度为 0.6 em。
const monoAdvance = 0.6

// strokeWidth 是下划线的粗细（mm）。
const strokeWidth = 0.2

// Format 选择预览输出格式。
type Format int

const (
	PDF Format = iota
	PNG
)

// Renderer draws a preview of the printed result via github.com/tdewolff/canvas.
// The preview is reconstructed from the command stream itself, so it shows exactly
// what the printer would receive.
type Renderer struct {
	opts    Options
	emitter *escprenderer.Renderer

	fontBlobs    map[string][]byte
	fontMu       sync.Mutex
	fontFamilies map[string]*canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	Emitter escprenderer.Options
	Format  Format
	// PageWidth 为纸张宽度，默认 layout.DefaultPageWidth。
	PageWidth dimen.Dots
	// Margin 为预览四周的留白。
	Margin dimen.Dots
	// DPI 为 PNG 的分辨率，默认 180。
	DPI float64
	// Fonts 覆盖内置字体，键为 fonts.PreviewName 返回的名称。
	Fonts map[string]Resource
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a preview renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.PageWidth <= 0 {
		opts.PageWidth = layout.DefaultPageWidth
	}
	if opts.DPI <= 0 {
		opts.DPI = 180
	}
	if opts.Emitter.Metrics == nil {
		opts.Emitter.Metrics = fonts.Default
	}
	r := &Renderer{
		opts:         opts,
		emitter:      escprenderer.NewRenderer(opts.Emitter),
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*canvas.FontFamily{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时回退到内置字体
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Render emits the command stream for root, replays it and draws the pages.
func (r *Renderer) Render(root *layout.Box) ([]byte, error) {
	stream, err := r.emitter.Render(root)
	if err != nil {
		return nil, err
	}
	pages, err := virtual.Replay(stream, r.opts.Emitter.Metrics)
	if err != nil {
		return nil, err
	}
	if r.opts.Format == PNG {
		return r.RenderPNG(pages[0])
	}
	return r.RenderPDF(pages)
}

// RenderPDF draws every virtual page onto its own PDF page.
func (r *Renderer) RenderPDF(pages []*virtual.Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	var buf bytes.Buffer
	var writer *pdf.PDF
	for i, page := range pages {
		c, err := r.drawPage(page)
		if err != nil {
			return nil, err
		}
		w, h := c.Size()
		if i == 0 {
			writer = pdf.New(&buf, w, h, nil)
		} else {
			writer.NewPage(w, h)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPNG rasterizes one virtual page.
func (r *Renderer) RenderPNG(page *virtual.Page) ([]byte, error) {
	c, err := r.drawPage(page)
	if err != nil {
		return nil, err
	}
	img := rasterizer.Draw(c, canvas.DPI(r.opts.DPI), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("写入 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// pageSize 返回页面尺寸（mm）：宽度为纸宽，高度包住全部字形。
func (r *Renderer) pageSize(page *virtual.Page) (float64, float64) {
	m := r.opts.Margin
	bounds := page.Bounds()
	w := dimen.Max(r.opts.PageWidth, bounds.Right()) + 2*m
	h := dimen.Max(bounds.Bottom(), dimen.DefaultLineSpacing) + 2*m
	return w.Millimeters(), h.Millimeters()
}

func (r *Renderer) drawPage(page *virtual.Page) (*canvas.Canvas, error) {
	w, h := r.pageSize(page)
	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与打印头一致：左上角为原点，y 向下

	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(w, h))

	margin := r.opts.Margin.Millimeters()
	for _, g := range page.Glyphs() {
		if err := r.drawGlyph(ctx, g, margin); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *Renderer) drawGlyph(ctx *canvas.Context, g virtual.Glyph, margin float64) error {
	family, err := r.fontFamily(fonts.PreviewName(g.Style.Bold, g.Style.Italic))
	if err != nil {
		return err
	}
	cell := g.Advance - dimen.Dots(g.Style.CharSpacing)*dimen.DotsPerCharSpacingUnit
	if g.Style.DoubleHeight && !g.Style.DoubleWidth {
		cell *= 2
	}
	sizePt := (cell.Millimeters() / monoAdvance) * 72 / 25.4
	face := family.Face(sizePt, color.Black, canvas.FontRegular, canvas.FontNormal)

	x := g.X.Millimeters() + margin
	top := g.Y.Millimeters() + margin
	baseline := top + face.Metrics().Ascent
	ctx.DrawText(x, baseline, canvas.NewTextLine(face, string(g.Rune), canvas.Left))
	if g.Style.DoubleStrike {
		ctx.DrawText(x+strokeWidth/2, baseline, canvas.NewTextLine(face, string(g.Rune), canvas.Left))
	}
	if g.Style.Underline {
		ctx.SetStrokeColor(color.Black)
		ctx.SetStrokeWidth(strokeWidth)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(g.Advance.Millimeters(), 0)
		ctx.DrawPath(x, baseline+strokeWidth*2, p)
	}
	return nil
}

// fontFamily 按名称加载并缓存字体族，自定义字体加载失败时回退到内置字体。
func (r *Renderer) fontFamily(name string) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if family, ok := r.fontFamilies[name]; ok {
		return family, nil
	}
	family := canvas.NewFontFamily(name)
	data, ok := r.fontBlobs[name]
	if !ok || family.LoadFont(data, 0, canvas.FontRegular) != nil {
		builtin, err := fonts.Load(name)
		if err != nil {
			return nil, err
		}
		family = canvas.NewFontFamily(name)
		if err := family.LoadFont(builtin, 0, canvas.FontRegular); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
		}
	}
	r.fontFamilies[name] = family
	return family, nil
}
