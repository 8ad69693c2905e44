package escprenderer

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/fonts"
	"github.com/ByLCY/dotpaper/layout"
	"github.com/ByLCY/dotpaper/renderer"
)

func tracer() tracing.Trace {
	return tracing.Select("dotpaper.escp")
}

// Options configures the command emitter.
type Options struct {
	// Metrics 必须与布局阶段使用的字宽表一致，默认为 fonts.Default。
	Metrics fonts.Metrics
	// CharTable 选择文本编码使用的字符表。
	CharTable escp.CharTable
	// FormFeed 为 true 时在指令流末尾追加 FF 退纸。
	FormFeed bool
}

// Renderer linearizes a positioned box tree into a printer command stream.
// It keeps no state between calls; each Render starts from a freshly initialized printer.
type Renderer struct {
	opts Options
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates an emitter.
func NewRenderer(opts Options) *Renderer {
	if opts.Metrics == nil {
		opts.Metrics = fonts.Default
	}
	return &Renderer{opts: opts}
}

// pen 是打印头的已知状态，显式地在各个输出步骤之间传递。
type pen struct {
	x, y     dimen.Dots
	lineOpen bool // 当前行已打印内容，换行时可以使用 LF
	style    layout.Style
}

// clipEdge 是叶子的裁剪约束：从表格单元格继承的右边界 right，
// 以及受约束文本自身的宽度 limit。
type clipEdge struct {
	right   dimen.Dots
	mode    layout.Overflow
	set     bool
	limit   dimen.Dots
	limited bool
}

// budget 返回一段文本可用的宽度。单元格边界从实际落点 landing 算起；
// 自身宽度从盒子左边算起，量化误差不会吞掉恰好放得下的字。
func (c clipEdge) budget(landing dimen.Dots) (dimen.Dots, bool) {
	switch {
	case c.set && c.limited:
		return dimen.Min(c.right-landing, c.limit), true
	case c.set:
		return c.right - landing, true
	case c.limited:
		return c.limit, true
	}
	return 0, false
}

// walk 是遍历中向下传递的上下文。
type walk struct {
	offset dimen.Point // 祖先 relative 偏移的累加
	clip   clipEdge
}

// emitter 只在一次 Render 调用内存在。
type emitter struct {
	enc     *escp.Encoder
	metrics fonts.Metrics
	glyphs  int
	moves   int
}

// Render 以先序遍历输出所有叶子盒子。失败时返回 nil，从不返回部分指令流。
func (r *Renderer) Render(root *layout.Box) ([]byte, error) {
	if root == nil {
		return nil, layout.Fail(layout.PhaseEmission, nil, fmt.Errorf("%w: 盒子树为空", layout.ErrUnresolvedContent))
	}
	e := &emitter{enc: escp.NewEncoder(r.opts.CharTable), metrics: r.opts.Metrics}
	e.enc.Init()
	p := pen{style: layout.DefaultStyle()}
	p, err := e.box(root, walk{}, p)
	if err != nil {
		return nil, err
	}
	if p.lineOpen {
		e.enc.LineFeed()
	}
	if r.opts.FormFeed {
		e.enc.FormFeed()
	}
	tracer().Debugf("escp: %d glyphs, %d moves, %d bytes", e.glyphs, e.moves, e.enc.Len())
	return e.enc.Bytes(), nil
}

func (e *emitter) box(b *layout.Box, w walk, p pen) (pen, error) {
	if b.Node == nil || b.Kind.Dynamic() {
		return p, layout.Fail(layout.PhaseEmission, b.Node, fmt.Errorf("%w: %s", layout.ErrUnresolvedContent, b.Kind))
	}
	w.offset = w.offset.Add(b.RelativeOffset)
	if b.Clip {
		right := b.X + w.offset.X + b.ClipWidth
		if !w.clip.set || right < w.clip.right {
			w.clip.right = right
		}
		w.clip.mode = b.ClipMode
		w.clip.set = true
	}
	var err error
	switch b.Kind {
	case layout.KindText:
		return e.text(b, w, p)
	case layout.KindLine:
		return e.line(b, w, p)
	case layout.KindSpacer:
		return p, nil
	}
	for _, child := range b.Children {
		if p, err = e.box(child, w, p); err != nil {
			return p, err
		}
	}
	return p, nil
}

// origin 返回盒子叠加 relative 偏移后的输出位置，负坐标钳制为 0。
func origin(b *layout.Box, w walk) dimen.Point {
	return dimen.Point{
		X: (b.X + w.offset.X).NonNegative(),
		Y: (b.Y + w.offset.Y).NonNegative(),
	}
}

func (e *emitter) advance(b *layout.Box) (dimen.Dots, error) {
	adv, err := b.Style.Advance(e.metrics)
	if err != nil {
		return 0, layout.Fail(layout.PhaseEmission, b.Node, err)
	}
	return adv, nil
}

// policy 决定叶子的裁剪边界与截断方式：文本自身的 clip/ellipsis 优先，
// 否则沿用单元格的方式；受约束宽度的文本不会超出自身宽度，visible 除外。
func policy(b *layout.Box, w walk) clipEdge {
	edge := w.clip
	if b.WidthConstrained && b.Overflow != layout.OverflowVisible {
		edge.limit = b.Width
		edge.limited = true
	}
	switch b.Overflow {
	case layout.OverflowClip, layout.OverflowEllipsis:
		edge.mode = b.Overflow
	}
	if edge.mode != layout.OverflowEllipsis {
		edge.mode = layout.OverflowClip
	}
	return edge
}

func (e *emitter) text(b *layout.Box, w walk, p pen) (pen, error) {
	adv, err := e.advance(b)
	if err != nil {
		return p, err
	}
	at := origin(b, w)
	edge := policy(b, w)
	lh := b.Style.LineHeight()
	lines := layout.TextLines(b.Text)
	if orientation(b) == layout.Vertical {
		for i, line := range lines {
			x := at.X + dimen.Dots(i)*adv
			if edge.set && x+adv > edge.right+epsilon {
				break
			}
			if edge.limited && dimen.Dots(i+1)*adv > edge.limit+epsilon {
				break
			}
			j := 0
			for _, r := range line {
				y := at.Y + dimen.Dots(j)*lh
				p = e.moveTo(p, x, y)
				p = e.applyStyle(p, b.Style)
				p = e.print(p, string(r), adv)
				j++
			}
		}
		return p, nil
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		y := at.Y + dimen.Dots(i)*lh
		p, err = e.run(p, b, line, at.X, y, adv, edge)
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

// run 输出一段横排文本。
func (e *emitter) run(p pen, b *layout.Box, s string, x, y, adv dimen.Dots, edge clipEdge) (pen, error) {
	if budget, ok := edge.budget(landingX(p, x, y)); ok {
		s = truncate(s, budget, adv, edge.mode, e.metrics.Ellipsis())
	}
	if s == "" {
		return p, nil
	}
	p = e.moveTo(p, x, y)
	p = e.applyStyle(p, b.Style)
	return e.print(p, s, adv), nil
}

func (e *emitter) line(b *layout.Box, w walk, p pen) (pen, error) {
	adv, err := e.advance(b)
	if err != nil {
		return p, err
	}
	l, ok := b.Node.(*layout.Line)
	if !ok {
		return p, layout.Fail(layout.PhaseEmission, b.Node, fmt.Errorf("%w: line", layout.ErrUnresolvedContent))
	}
	ch := string(layout.LineChar(l))
	at := origin(b, w)
	if l.Direction == layout.Vertical {
		lh := b.Style.LineHeight()
		n := int(math.Floor(float64(b.Height/lh) + epsilon))
		if w.clip.set && at.X+adv > w.clip.right+epsilon {
			return p, nil
		}
		for j := 0; j < n; j++ {
			p = e.moveTo(p, at.X, at.Y+dimen.Dots(j)*lh)
			p = e.applyStyle(p, b.Style)
			p = e.print(p, ch, adv)
		}
		return p, nil
	}
	n := int(math.Floor(float64(b.Width/adv) + epsilon))
	if n <= 0 {
		return p, nil
	}
	s := repeat(ch, n)
	edge := w.clip
	edge.mode = layout.OverflowClip
	return e.run(p, b, s, at.X, at.Y, adv, edge)
}

func orientation(b *layout.Box) layout.Orientation {
	if t, ok := b.Node.(*layout.Text); ok {
		return t.Orientation
	}
	return layout.Horizontal
}

const epsilon = 1e-6

// truncate 把文本截断到 budget 以内：clip 直接截断，ellipsis 截断后追加标记，结果仍在预算内。
func truncate(s string, budget, adv dimen.Dots, mode layout.Overflow, marker string) string {
	if adv <= 0 {
		return s
	}
	fit := int(math.Floor(float64(budget/adv) + epsilon))
	if fit <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n <= fit {
		return s
	}
	runes := []rune(s)
	if mode != layout.OverflowEllipsis {
		return string(runes[:fit])
	}
	m := []rune(marker)
	if len(m) >= fit {
		return string(m[:fit])
	}
	return string(runes[:fit-len(m)]) + marker
}

func repeat(ch string, n int) string {
	out := make([]byte, 0, len(ch)*n)
	for i := 0; i < n; i++ {
		out = append(out, ch...)
	}
	return string(out)
}
