package layout

import (
	"fmt"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/fonts"
)

// MeasureMode 描述一个方向上的尺寸约束。
type MeasureMode int

const (
	Undefined MeasureMode = iota // 不限制，取自然尺寸
	Exactly                      // 必须等于给定值
	AtMost                       // 不超过给定值
)

func (m MeasureMode) String() string {
	switch m {
	case Exactly:
		return "exactly"
	case AtMost:
		return "at-most"
	}
	return "undefined"
}

// Constraint 是测量时父节点给出的可用尺寸。
type Constraint struct {
	Width      dimen.Dots
	WidthMode  MeasureMode
	Height     dimen.Dots
	HeightMode MeasureMode
}

// Within 返回宽度 AtMost w、高度不限的约束。
func Within(w dimen.Dots) Constraint {
	return Constraint{Width: w, WidthMode: AtMost}
}

// Engine 是可替换的布局后端：内置算法（Native）或外部 flexbox 适配器。
type Engine interface {
	// Measure 返回节点在约束下的外框尺寸（不含 margin）。
	Measure(n Node, c Constraint) (dimen.Dots, dimen.Dots, error)
	// Layout 为整棵树计算绝对位置，返回根盒子。
	Layout(root Node) (*Box, error)
}

// Native 是自包含的布局算法实现，无内部可变状态，可并发使用。
type Native struct {
	opts Options
}

var _ Engine = (*Native)(nil)

// NewNative 创建内置布局后端。
func NewNative(opts Options) *Native {
	return &Native{opts: opts.withDefaults()}
}

// Options 返回补全默认值后的配置。
func (e *Native) Options() Options { return e.opts }

// Measure 以默认样式测量节点。
func (e *Native) Measure(n Node, c Constraint) (dimen.Dots, dimen.Dots, error) {
	return e.MeasureWithin(n, DefaultStyle(), c)
}

// MeasureWithin 以给定的父样式测量节点，供外部后端的测量回调使用。
func (e *Native) MeasureWithin(n Node, parent Style, c Constraint) (dimen.Dots, dimen.Dots, error) {
	p := e.newPass(PhaseMeasurement)
	box, err := p.build(n, parent, c, Column)
	if err != nil {
		return 0, 0, err
	}
	return box.Width, box.Height, nil
}

// Layout 把根节点放在纸张左上角并计算整棵树。
func (e *Native) Layout(root Node) (*Box, error) {
	if root == nil {
		return nil, Fail(PhaseLayout, nil, fmt.Errorf("%w: 根节点为空", ErrInvalidSpec))
	}
	p := e.newPass(PhaseLayout)
	page := e.opts.Page()
	box, err := p.buildRoot(root, DefaultStyle(), page)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("layout: root %s %gx%g at (%g,%g)", box.Kind, float64(box.Width), float64(box.Height),
		float64(box.X), float64(box.Y))
	return box, nil
}

// Place 在给定约束下构建节点，并把外框左上角放在 at；cb 是定位后代使用的包含块。
func (e *Native) Place(n Node, parent Style, c Constraint, at dimen.Point, cb dimen.Rect) (*Box, error) {
	p := e.newPass(PhaseLayout)
	box, err := p.build(n, parent, c, Column)
	if err != nil {
		return nil, err
	}
	box.X, box.Y = at.X, at.Y
	if err := p.finalize(box, 0, 0, cb); err != nil {
		return nil, err
	}
	return box, nil
}

// PlaceAbsolute 按包含块 cb 与节点偏移放置一个 absolute 节点。
func (e *Native) PlaceAbsolute(n Node, parent Style, cb dimen.Rect) (*Box, error) {
	p := e.newPass(PhaseLayout)
	box, err := p.buildAbsolute(n, parent, cb)
	if err != nil {
		return nil, err
	}
	if err := p.finalize(box, 0, 0, cb); err != nil {
		return nil, err
	}
	return box, nil
}

// ---------------------------------------------------------------------------

// pass 保存一次调用的只读上下文。盒子在构建时使用相对父盒子的坐标，
// finalize 自上而下转换为绝对坐标并放置 absolute 子节点。
type pass struct {
	metrics fonts.Metrics
	phase   Phase
	page    dimen.Rect
}

func (e *Native) newPass(phase Phase) *pass {
	return &pass{metrics: e.opts.Metrics, phase: phase, page: e.opts.Page()}
}

func (p *pass) buildRoot(root Node, parent Style, page dimen.Rect) (*Box, error) {
	m := root.Base().Margin
	c := Constraint{Width: (page.Width - m.Horizontal()).NonNegative(), WidthMode: AtMost}
	if page.Height > 0 {
		c.Height = (page.Height - m.Vertical()).NonNegative()
		c.HeightMode = AtMost
	}
	if root.Base().Position == PositionAbsolute {
		box, err := p.buildAbsolute(root, parent, page)
		if err != nil {
			return nil, err
		}
		return box, p.finalize(box, 0, 0, page)
	}
	box, err := p.build(root, parent, c, Column)
	if err != nil {
		return nil, err
	}
	box.X = page.X + horizontalMarginOffset(m, page.Width, box.Width, AlignStart)
	box.Y = page.Y + m.Top
	cb := page
	if cb.Height <= 0 {
		cb.Height = box.Y + box.Height + m.Bottom
	}
	if err := p.finalize(box, 0, 0, cb); err != nil {
		return nil, err
	}
	return box, nil
}

// build 在约束 c 下构建节点，返回的盒子坐标为 0，子盒子坐标相对于该盒子的外框。
// axis 是父容器的主轴方向，只影响 Spacer。
func (p *pass) build(n Node, parent Style, c Constraint, axis Direction) (*Box, error) {
	if n == nil {
		return nil, Fail(p.phase, nil, fmt.Errorf("%w: 节点为空", ErrInvalidSpec))
	}
	if n.Kind().Dynamic() {
		return nil, unresolved(p.phase, n)
	}
	st, err := ResolveStyle(n, parent)
	if err != nil {
		return nil, Fail(PhaseStyle, n, err)
	}
	b := n.Base()
	box := &Box{Node: n, Kind: n.Kind(), ID: b.ID, Style: st}

	w, fixedW := resolveAxis(b.Width, c.Width, c.WidthMode)
	h, fixedH := resolveAxis(b.Height, c.Height, c.HeightMode)
	if fixedW {
		w = clamp(w, b.MinWidth, b.MaxWidth, c.Width, c.WidthMode != Undefined)
	}
	if fixedH {
		h = clamp(h, b.MinHeight, b.MaxHeight, c.Height, c.HeightMode != Undefined)
	}
	inner := Constraint{
		Width:      innerLimit(w, fixedW, c.Width, c.WidthMode, b.MaxWidth, b.Padding.Horizontal()),
		WidthMode:  innerMode(fixedW, c.WidthMode, b.MaxWidth),
		Height:     innerLimit(h, fixedH, c.Height, c.HeightMode, b.MaxHeight, b.Padding.Vertical()),
		HeightMode: innerMode(fixedH, c.HeightMode, b.MaxHeight),
	}

	cw, ch, err := p.content(box, n, st, inner, axis)
	if err != nil {
		return nil, err
	}
	constrained := fixedW
	if !fixedW {
		w = cw + b.Padding.Horizontal()
		if c.WidthMode == AtMost && w > c.Width {
			w = c.Width
			constrained = true
		}
		natural := w
		w = clamp(w, b.MinWidth, b.MaxWidth, c.Width, c.WidthMode != Undefined)
		if w < natural {
			constrained = true
		}
	}
	if !fixedH {
		h = ch + b.Padding.Vertical()
		if c.HeightMode == AtMost && h > c.Height {
			h = c.Height
		}
		h = clamp(h, b.MinHeight, b.MaxHeight, c.Height, c.HeightMode != Undefined)
	}
	box.Width, box.Height = w.NonNegative(), h.NonNegative()
	box.WidthConstrained = constrained

	contentW := (box.Width - b.Padding.Horizontal()).NonNegative()
	contentH := (box.Height - b.Padding.Vertical()).NonNegative()
	if err := p.arrange(box, n, st, contentW, contentH); err != nil {
		return nil, err
	}
	for _, child := range box.Children {
		if !child.pending {
			child.shift(b.Padding.Left, b.Padding.Top)
		}
	}
	return box, nil
}

// child 构建容器的一个子节点；absolute 子节点先占位，等 finalize 时按包含块放置。
func (p *pass) child(n Node, parent Style, c Constraint, axis Direction) (*Box, error) {
	if n != nil && !n.Kind().Dynamic() && n.Base().Position == PositionAbsolute {
		return &Box{Node: n, Kind: n.Kind(), ID: n.Base().ID, Style: parent, pending: true}, nil
	}
	return p.build(n, parent, c, axis)
}

// content 计算内容区的自然尺寸并构建子盒子。
func (p *pass) content(box *Box, n Node, st Style, inner Constraint, axis Direction) (dimen.Dots, dimen.Dots, error) {
	switch v := n.(type) {
	case *Text:
		box.Text = v.Content
		box.Overflow = v.Overflow
		return p.measureText(v, st)
	case *Line:
		return p.measureLine(v, st, inner)
	case *Spacer:
		if axis == Row {
			return v.Length.NonNegative(), 0, nil
		}
		return 0, v.Length.NonNegative(), nil
	case *Stack:
		return p.stackContent(box, v, st, inner)
	case *Flex:
		return p.flexContent(box, v, st, inner)
	case *Grid:
		return p.gridContent(box, v, st, inner)
	}
	return 0, 0, Fail(p.phase, n, fmt.Errorf("%w: 未知节点类型 %T", ErrInvalidSpec, n))
}

// arrange 在最终内容尺寸确定后放置子盒子。
func (p *pass) arrange(box *Box, n Node, st Style, cw, ch dimen.Dots) error {
	switch v := n.(type) {
	case *Stack:
		p.arrangeStack(box, v, cw, ch)
	case *Flex:
		return p.arrangeFlex(box, v, st, cw, ch)
	}
	return nil
}

// finalize 把相对坐标转换为绝对坐标，解析 relative 偏移并放置 absolute 子节点。
// box.X/Y 在调用时相对于 (ox, oy)。
func (p *pass) finalize(box *Box, ox, oy dimen.Dots, cb dimen.Rect) error {
	box.shift(ox, oy)
	b := box.Node.Base()
	if b.Position == PositionRelative {
		box.RelativeOffset = RelativeOffset(b, cb)
	}
	if b.Position != PositionStatic {
		cb = dimen.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}.
			Inset(b.Padding.Top, b.Padding.Right, b.Padding.Bottom, b.Padding.Left)
	}
	for i, child := range box.Children {
		if child.pending {
			placed, err := p.buildAbsolute(child.Node, box.Style, cb)
			if err != nil {
				return err
			}
			box.Children[i] = placed
			if err := p.finalize(placed, 0, 0, cb); err != nil {
				return err
			}
			continue
		}
		if err := p.finalize(child, box.X, box.Y, cb); err != nil {
			return err
		}
	}
	return nil
}

// buildAbsolute 构建 absolute 节点，返回的盒子坐标已是绝对坐标（不含后代）。
func (p *pass) buildAbsolute(n Node, parent Style, cb dimen.Rect) (*Box, error) {
	if n.Kind().Dynamic() {
		return nil, unresolved(p.phase, n)
	}
	b := n.Base()
	m := b.Margin
	off := b.Offsets
	left, hasLeft := off.Left.Resolve(cb.Width, true)
	right, hasRight := off.Right.Resolve(cb.Width, true)
	top, hasTop := off.Top.Resolve(cb.Height, true)
	bottom, hasBottom := off.Bottom.Resolve(cb.Height, true)

	c := Constraint{
		Width:      (cb.Width - m.Horizontal()).NonNegative(),
		WidthMode:  AtMost,
		Height:     (cb.Height - m.Vertical()).NonNegative(),
		HeightMode: AtMost,
	}
	if b.Width.IsAuto() && hasLeft && hasRight {
		c.Width = (cb.Width - left - right - m.Horizontal()).NonNegative()
		c.WidthMode = Exactly
	}
	if b.Height.IsAuto() && hasTop && hasBottom {
		c.Height = (cb.Height - top - bottom - m.Vertical()).NonNegative()
		c.HeightMode = Exactly
	}
	box, err := p.build(n, parent, c, Column)
	if err != nil {
		return nil, err
	}
	switch {
	case hasLeft:
		box.X = cb.X + left + m.Left
	case hasRight:
		box.X = cb.Right() - right - m.Right - box.Width
	default:
		box.X = cb.X + horizontalMarginOffset(m, cb.Width, box.Width, AlignStart)
	}
	switch {
	case hasTop:
		box.Y = cb.Y + top + m.Top
	case hasBottom:
		box.Y = cb.Bottom() - bottom - m.Bottom - box.Height
	default:
		box.Y = cb.Y + m.Top
	}
	tracer().Debugf("layout: absolute %s at (%g,%g)", box.Kind, float64(box.X), float64(box.Y))
	return box, nil
}

// RelativeOffset 解析 relative 定位的偏移；left/top 优先于 right/bottom。
func RelativeOffset(b *Common, cb dimen.Rect) dimen.Point {
	var pt dimen.Point
	if v, ok := resolveOffset(b.Offsets.Left, cb.Width); ok {
		pt.X = v
	} else if v, ok := resolveOffset(b.Offsets.Right, cb.Width); ok {
		pt.X = -v
	}
	if v, ok := resolveOffset(b.Offsets.Top, cb.Height); ok {
		pt.Y = v
	} else if v, ok := resolveOffset(b.Offsets.Bottom, cb.Height); ok {
		pt.Y = -v
	}
	return pt
}

// resolveOffset 与 Size.Resolve 不同，允许负偏移。
func resolveOffset(s Size, reference dimen.Dots) (dimen.Dots, bool) {
	switch s.Kind {
	case SizeFixed:
		return dimen.Dots(s.Value), true
	case SizePercent:
		return reference * dimen.Dots(s.Value) / 100, true
	}
	return 0, false
}

// resolveAxis 决定一个方向上的尺寸是否已由父节点或显式规格确定。
func resolveAxis(spec Size, avail dimen.Dots, mode MeasureMode) (dimen.Dots, bool) {
	if mode == Exactly {
		return avail.NonNegative(), true
	}
	return spec.Resolve(avail, mode != Undefined)
}

func innerLimit(v dimen.Dots, fixed bool, avail dimen.Dots, mode MeasureMode, max Size, padding dimen.Dots) dimen.Dots {
	limit := v
	if !fixed {
		limit = avail
		if m, ok := max.Resolve(avail, mode != Undefined); ok && !max.IsFill() && (mode == Undefined || m < limit) {
			limit = m
		}
	}
	return (limit - padding).NonNegative()
}

func innerMode(fixed bool, mode MeasureMode, max Size) MeasureMode {
	switch {
	case fixed:
		return Exactly
	case mode != Undefined:
		return AtMost
	case max.IsFixed():
		return AtMost
	}
	return Undefined
}

// childConstraint 给子节点的约束：宽度不超过内容区减去子节点的水平 margin，高度同理。
func childConstraint(inner Constraint, m Margin) Constraint {
	c := Constraint{}
	if inner.WidthMode != Undefined {
		c.Width = (inner.Width - m.Horizontal()).NonNegative()
		c.WidthMode = AtMost
	}
	if inner.HeightMode != Undefined {
		c.Height = (inner.Height - m.Vertical()).NonNegative()
		c.HeightMode = AtMost
	}
	return c
}

// alignOffset 计算 size 在 container 中按 align 对齐的偏移；放不下时从起点开始。
func alignOffset(container, size dimen.Dots, align Align) dimen.Dots {
	if container <= size {
		return 0
	}
	switch align {
	case AlignCenter:
		return (container - size) / 2
	case AlignEnd:
		return container - size
	default:
		return 0
	}
}

// horizontalMarginOffset 返回外框相对于内容区左侧的偏移，auto margin 优先于 align。
func horizontalMarginOffset(m Margin, container, width dimen.Dots, align Align) dimen.Dots {
	switch {
	case m.AutoLeft && m.AutoRight:
		return ((container - width) / 2).NonNegative()
	case m.AutoLeft:
		return (container - width - m.Right).NonNegative()
	case m.AutoRight:
		return m.Left
	}
	return alignOffset(container, width+m.Horizontal(), align) + m.Left
}

func flowChildren(children []*Box) []*Box {
	out := make([]*Box, 0, len(children))
	for _, c := range children {
		if !c.pending {
			out = append(out, c)
		}
	}
	return out
}

func marginOf(b *Box) Margin { return b.Node.Base().Margin }
