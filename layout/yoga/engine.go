// Package yoga is an alternative layout backend built on github.com/kjk/flex,
// a Go port of Facebook's Yoga flexbox engine.
//
// Stack and non-wrapping Flex containers become yoga nodes. Gaps are expressed as
// leading margins. Everything yoga has no equivalent for (text, lines, grids,
// wrapping or space-evenly flex rows) becomes a measured yoga leaf whose size and
// inner placement come from the native engine, so both backends share one set of
// leaf semantics.
package yoga

import (
	"fmt"
	"math"
	"sync"

	"github.com/kjk/flex"
	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/layout"
)

// tracer traces with key 'dotpaper.yoga'.
func tracer() tracing.Trace {
	return tracing.Select("dotpaper.yoga")
}

// calcMu 串行化对 flex.CalculateLayout 的调用：库内部的代数计数器是包级变量。
var calcMu sync.Mutex

// Engine 实现 layout.Engine。
type Engine struct {
	native *layout.Native
	handle *Handle
}

var _ layout.Engine = (*Engine)(nil)

// New 使用默认配置创建 yoga 后端。
func New(opts layout.Options) *Engine {
	return NewWithHandle(opts, nil)
}

// NewWithHandle 使用共享的 Handle 创建 yoga 后端；h 为 nil 时新建一个。
func NewWithHandle(opts layout.Options, h *Handle) *Engine {
	if h == nil {
		h = NewHandle(nil)
	}
	return &Engine{native: layout.NewNative(opts), handle: h}
}

// Measure 返回节点在约束下的外框尺寸（不含 margin）。
func (e *Engine) Measure(n layout.Node, c layout.Constraint) (dimen.Dots, dimen.Dots, error) {
	var w, h dimen.Dots
	err := e.run(n, c, func(_ *tree, it *item) error {
		if it.yn == nil {
			return nil
		}
		w = dots(it.yn.Layout.Dimensions[flex.DimensionWidth])
		h = dots(it.yn.Layout.Dimensions[flex.DimensionHeight])
		return nil
	})
	return w, h, err
}

// Layout 把根节点放在纸张左上角并计算整棵树。
func (e *Engine) Layout(root layout.Node) (*layout.Box, error) {
	if root == nil {
		return nil, layout.Fail(layout.PhaseLayout, nil, fmt.Errorf("%w: 根节点为空", layout.ErrInvalidSpec))
	}
	page := e.native.Options().Page()
	if !root.Kind().Dynamic() && root.Base().Position == layout.PositionAbsolute {
		return e.native.PlaceAbsolute(root, layout.DefaultStyle(), page)
	}
	m := root.Base().Margin
	c := layout.Constraint{Width: (page.Width - m.Horizontal()).NonNegative(), WidthMode: layout.AtMost}
	if page.Height > 0 {
		c.Height = (page.Height - m.Vertical()).NonNegative()
		c.HeightMode = layout.AtMost
	}
	var box *layout.Box
	err := e.run(root, c, func(t *tree, it *item) error {
		w := dots(it.yn.Layout.Dimensions[flex.DimensionWidth])
		h := dots(it.yn.Layout.Dimensions[flex.DimensionHeight])
		x := page.X + marginOffset(m, page.Width, w)
		y := page.Y + m.Top
		cb := page
		if cb.Height <= 0 {
			cb.Height = y + h + m.Bottom
		}
		var err error
		box, err = t.place(it, x, y, cb)
		return err
	})
	if err != nil {
		return nil, err
	}
	tracer().Debugf("yoga: root %s %gx%g", box.Kind, float64(box.Width), float64(box.Height))
	return box, nil
}

// run 构建 yoga 树、计算布局并调用 fn；无论成功与否，yoga 节点都在返回前释放。
// 库内部的断言失败（panic）转换为 ErrBackend。
func (e *Engine) run(root layout.Node, c layout.Constraint, fn func(*tree, *item) error) (err error) {
	cfg, err := e.handle.Config()
	if err != nil {
		return layout.Fail(layout.PhaseLayout, root, err)
	}
	t := &tree{native: e.native, config: cfg}
	var it *item

	calcMu.Lock()
	defer calcMu.Unlock()
	defer func() { release(it) }()
	defer func() {
		if r := recover(); r != nil {
			err = layout.Fail(layout.PhaseLayout, root, fmt.Errorf("%w: %v", layout.ErrBackend, r))
		}
	}()

	it, err = t.build(root, layout.DefaultStyle(), layout.Column, true)
	if err != nil {
		return err
	}
	constrainRoot(it, c)
	flex.CalculateLayout(it.yn, flex.Undefined, flex.Undefined, flex.DirectionLTR)
	if t.err != nil {
		return t.err
	}
	return fn(t, it)
}

// ---------------------------------------------------------------------------

type role int

const (
	roleContainer role = iota // Stack 或不换行的 Flex，映射为 yoga 容器
	roleMeasured              // 由内置引擎测量与放置的叶子
	roleSpacer                // 沿父容器主轴的固定空白
	roleAbsolute              // 不参与 yoga 计算，按包含块放置
)

func (r role) String() string {
	switch r {
	case roleContainer:
		return "container"
	case roleMeasured:
		return "measured"
	case roleSpacer:
		return "spacer"
	}
	return "absolute"
}

// item 对应布局树中的一个节点；absolute 节点没有 yoga 节点。
type item struct {
	node     layout.Node
	parent   layout.Style // 从父节点继承的样式
	style    layout.Style // 容器自身展平后的样式
	role     role
	yn       *flex.Node
	children []*item
}

// tree 保存一次调用的上下文；测量回调无法返回错误，第一个错误记在 err 中。
type tree struct {
	native *layout.Native
	config *flex.Config
	err    error
}

func roleOf(n layout.Node, root bool) role {
	if !root && n.Base().Position == layout.PositionAbsolute {
		return roleAbsolute
	}
	switch v := n.(type) {
	case *layout.Stack:
		return roleContainer
	case *layout.Flex:
		if !v.Wrap && v.Justify != layout.JustifySpaceEvenly {
			return roleContainer
		}
	case *layout.Spacer:
		return roleSpacer
	}
	return roleMeasured
}

// build 为节点创建 yoga 节点。返回的 item 即使伴随错误也可能非空，
// 调用方需要把它挂到树上，以便统一释放。
func (t *tree) build(n layout.Node, parent layout.Style, axis layout.Direction, root bool) (*item, error) {
	if n == nil {
		return nil, layout.Fail(layout.PhaseLayout, nil, fmt.Errorf("%w: 节点为空", layout.ErrInvalidSpec))
	}
	if n.Kind().Dynamic() {
		return nil, layout.Fail(layout.PhaseLayout, n, fmt.Errorf("%w: %s", layout.ErrUnresolvedNode, n.Kind()))
	}
	it := &item{node: n, parent: parent, role: roleOf(n, root)}
	if it.role == roleAbsolute {
		return it, nil
	}
	it.yn = flex.NewNodeWithConfig(t.config)
	it.yn.Context = it
	b := n.Base()
	s := &it.yn.Style
	setMargin(s, b.Margin)

	switch it.role {
	case roleSpacer:
		length := point(n.(*layout.Spacer).Length.NonNegative())
		if axis == layout.Row {
			s.Dimensions[flex.DimensionWidth] = length
			s.Dimensions[flex.DimensionHeight] = point(0)
		} else {
			s.Dimensions[flex.DimensionWidth] = point(0)
			s.Dimensions[flex.DimensionHeight] = length
		}
		return it, nil
	case roleMeasured:
		setSize(s, b, axis)
		it.yn.SetMeasureFunc(t.measure(it))
		return it, nil
	}

	st, err := layout.ResolveStyle(n, parent)
	if err != nil {
		return it, layout.Fail(layout.PhaseStyle, n, err)
	}
	it.style = st
	setSize(s, b, axis)
	setPadding(s, b.Padding)

	dir, gap := layout.Row, dimen.Zero
	switch v := n.(type) {
	case *layout.Stack:
		dir, gap = v.Direction, v.Gap
		if v.Direction == layout.Row {
			s.FlexDirection = flex.FlexDirectionRow
			s.JustifyContent = justifyOf(v.Align)
			s.AlignItems = alignOf(v.VAlign)
		} else {
			s.FlexDirection = flex.FlexDirectionColumn
			s.JustifyContent = justifyOf(v.VAlign)
			s.AlignItems = alignOf(v.Align)
		}
	case *layout.Flex:
		gap = v.Gap
		s.FlexDirection = flex.FlexDirectionRow
		s.FlexWrap = flex.WrapNoWrap
		s.JustifyContent = flexJustify(v.Justify)
		s.AlignItems = itemsOf(v.AlignItems)
	}

	flow := 0
	for _, cn := range layout.Children(n) {
		child, err := t.build(cn, st, dir, false)
		if child != nil {
			it.children = append(it.children, child)
		}
		if err != nil {
			return it, err
		}
		if child.yn == nil {
			continue
		}
		if flow > 0 && gap > 0 {
			addLeadingGap(child, dir, gap)
		}
		if dir == layout.Column && isFlexContainer(child) && cn.Base().Width.IsAuto() {
			// auto 宽度的 Flex 占满确定的可用宽度
			child.yn.Style.AlignSelf = flex.AlignStretch
		}
		it.yn.InsertChild(child.yn, len(it.yn.Children))
		flow++
	}
	return it, nil
}

// measure 返回叶子节点的测量回调：约束原样交给内置引擎。
func (t *tree) measure(it *item) flex.MeasureFunc {
	return func(_ *flex.Node, width float32, wm flex.MeasureMode, height float32, hm flex.MeasureMode) flex.Size {
		c := layout.Constraint{WidthMode: mode(wm), HeightMode: mode(hm)}
		if c.WidthMode != layout.Undefined {
			c.Width = dots(width).NonNegative()
		}
		if c.HeightMode != layout.Undefined {
			c.Height = dots(height).NonNegative()
		}
		w, h, err := t.native.MeasureWithin(it.node, it.parent, c)
		if err != nil {
			if t.err == nil {
				t.err = err
			}
			return flex.Size{}
		}
		return flex.Size{Width: float32(w), Height: float32(h)}
	}
}

// place 以 yoga 的结果生成盒子；(x, y) 为外框左上角的绝对坐标，cb 为定位后代的包含块。
func (t *tree) place(it *item, x, y dimen.Dots, cb dimen.Rect) (*layout.Box, error) {
	w := dots(it.yn.Layout.Dimensions[flex.DimensionWidth])
	h := dots(it.yn.Layout.Dimensions[flex.DimensionHeight])
	b := it.node.Base()
	tracer().Debugf("yoga: %s %s %gx%g at (%g,%g)", it.role, it.node.Kind(), float64(w), float64(h),
		float64(x), float64(y))

	if it.role == roleMeasured {
		c := layout.Constraint{Width: w, WidthMode: layout.Exactly, Height: h, HeightMode: layout.Exactly}
		return t.native.Place(it.node, it.parent, c, dimen.Point{X: x, Y: y}, cb)
	}

	box := &layout.Box{
		Node:   it.node,
		Kind:   it.node.Kind(),
		ID:     b.ID,
		Style:  it.parent,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
	}
	if b.Position == layout.PositionRelative {
		box.RelativeOffset = layout.RelativeOffset(b, cb)
	}
	if it.role == roleSpacer {
		return box, nil
	}
	box.Style = it.style
	box.WidthConstrained = !b.Width.IsAuto()

	inner := cb
	if b.Position != layout.PositionStatic {
		inner = box.Rect().Inset(b.Padding.Top, b.Padding.Right, b.Padding.Bottom, b.Padding.Left)
	}
	box.Children = make([]*layout.Box, 0, len(it.children))
	for _, child := range it.children {
		var cbox *layout.Box
		var err error
		if child.role == roleAbsolute {
			cbox, err = t.native.PlaceAbsolute(child.node, it.style, inner)
		} else {
			pos := child.yn.Layout.Position
			cbox, err = t.place(child, x+dots(pos[flex.EdgeLeft]), y+dots(pos[flex.EdgeTop]), inner)
		}
		if err != nil {
			return nil, err
		}
		box.Children = append(box.Children, cbox)
	}
	return box, nil
}

// release 自底向上把节点从父节点摘下并重置。
func release(it *item) {
	if it == nil || it.yn == nil {
		return
	}
	for _, child := range it.children {
		release(child)
	}
	if p := it.yn.Parent; p != nil {
		p.RemoveChild(it.yn)
	}
	it.yn.Context = nil
	it.yn.Reset()
}

// constrainRoot 把调用方的约束写入根节点样式：Exactly 固定尺寸，AtMost 作为上限。
func constrainRoot(it *item, c layout.Constraint) {
	b := it.node.Base()
	s := &it.yn.Style
	stretch := isFlexContainer(it) && b.Width.IsAuto()
	constrainAxis(s, flex.DimensionWidth, b.Width, c.Width, c.WidthMode, stretch)
	constrainAxis(s, flex.DimensionHeight, b.Height, c.Height, c.HeightMode, false)
}

func constrainAxis(s *flex.Style, d flex.Dimension, spec layout.Size, avail dimen.Dots, m layout.MeasureMode, stretch bool) {
	switch {
	case m == layout.Exactly:
		s.Dimensions[d] = point(avail)
		return
	case m == layout.Undefined:
		return
	}
	if v, ok := spec.Resolve(avail, true); ok {
		s.Dimensions[d] = point(v)
		return
	}
	if stretch {
		s.Dimensions[d] = point(avail)
		return
	}
	if max := s.MaxDimensions[d]; max.Unit != flex.UnitPoint || dimen.Dots(max.Value) > avail {
		s.MaxDimensions[d] = point(avail)
	}
}

func isFlexContainer(it *item) bool {
	_, ok := it.node.(*layout.Flex)
	return ok && it.role == roleContainer
}

func addLeadingGap(child *item, dir layout.Direction, gap dimen.Dots) {
	edge := flex.EdgeTop
	if dir == layout.Row {
		edge = flex.EdgeLeft
	}
	m := &child.yn.Style.Margin[edge]
	if m.Unit == flex.UnitAuto {
		return
	}
	*m = point(dots(m.Value) + gap)
}

// ---------------------------------------------------------------------------

func setSize(s *flex.Style, b *layout.Common, axis layout.Direction) {
	s.Dimensions[flex.DimensionWidth] = value(b.Width)
	s.Dimensions[flex.DimensionHeight] = value(b.Height)
	s.MinDimensions[flex.DimensionWidth] = limit(b.MinWidth)
	s.MinDimensions[flex.DimensionHeight] = limit(b.MinHeight)
	s.MaxDimensions[flex.DimensionWidth] = limit(b.MaxWidth)
	s.MaxDimensions[flex.DimensionHeight] = limit(b.MaxHeight)
	main, cross := b.Height, b.Width
	if axis == layout.Row {
		main, cross = b.Width, b.Height
	}
	if main.IsFill() {
		s.FlexGrow = 1
		s.FlexBasis = point(0)
	}
	if cross.IsFill() {
		s.AlignSelf = flex.AlignStretch
	}
}

func setPadding(s *flex.Style, p layout.Edges) {
	s.Padding[flex.EdgeTop] = point(p.Top)
	s.Padding[flex.EdgeRight] = point(p.Right)
	s.Padding[flex.EdgeBottom] = point(p.Bottom)
	s.Padding[flex.EdgeLeft] = point(p.Left)
}

func setMargin(s *flex.Style, m layout.Margin) {
	s.Margin[flex.EdgeTop] = point(m.Top)
	s.Margin[flex.EdgeRight] = point(m.Right)
	s.Margin[flex.EdgeBottom] = point(m.Bottom)
	s.Margin[flex.EdgeLeft] = point(m.Left)
	if m.AutoLeft {
		s.Margin[flex.EdgeLeft] = flex.Value{Value: flex.Undefined, Unit: flex.UnitAuto}
	}
	if m.AutoRight {
		s.Margin[flex.EdgeRight] = flex.Value{Value: flex.Undefined, Unit: flex.UnitAuto}
	}
}

func value(s layout.Size) flex.Value {
	switch s.Kind {
	case layout.SizeFixed:
		return point(dimen.Dots(s.Value).NonNegative())
	case layout.SizePercent:
		return flex.Value{Value: float32(s.Value), Unit: flex.UnitPercent}
	}
	return flex.Value{Value: flex.Undefined, Unit: flex.UnitAuto}
}

func limit(s layout.Size) flex.Value {
	switch s.Kind {
	case layout.SizeFixed, layout.SizePercent:
		return value(s)
	}
	return flex.Value{Value: flex.Undefined, Unit: flex.UnitUndefined}
}

func point(d dimen.Dots) flex.Value {
	return flex.Value{Value: float32(d), Unit: flex.UnitPoint}
}

func dots(v float32) dimen.Dots {
	if math.IsNaN(float64(v)) {
		return 0
	}
	return dimen.Dots(v)
}

func mode(m flex.MeasureMode) layout.MeasureMode {
	switch m {
	case flex.MeasureModeExactly:
		return layout.Exactly
	case flex.MeasureModeAtMost:
		return layout.AtMost
	}
	return layout.Undefined
}

func justifyOf(a layout.Align) flex.Justify {
	switch a {
	case layout.AlignCenter:
		return flex.JustifyCenter
	case layout.AlignEnd:
		return flex.JustifyFlexEnd
	}
	return flex.JustifyFlexStart
}

func alignOf(a layout.Align) flex.Align {
	switch a {
	case layout.AlignCenter:
		return flex.AlignCenter
	case layout.AlignEnd:
		return flex.AlignFlexEnd
	}
	return flex.AlignFlexStart
}

func flexJustify(j layout.Justify) flex.Justify {
	switch j {
	case layout.JustifyEnd:
		return flex.JustifyFlexEnd
	case layout.JustifyCenter:
		return flex.JustifyCenter
	case layout.JustifySpaceBetween:
		return flex.JustifySpaceBetween
	case layout.JustifySpaceAround:
		return flex.JustifySpaceAround
	}
	return flex.JustifyFlexStart
}

func itemsOf(a layout.AlignItems) flex.Align {
	switch a {
	case layout.ItemsCenter:
		return flex.AlignCenter
	case layout.ItemsEnd:
		return flex.AlignFlexEnd
	case layout.ItemsStretch:
		return flex.AlignStretch
	}
	return flex.AlignFlexStart
}

// marginOffset 返回根节点外框相对于纸张左侧的偏移，auto margin 使其居中或靠右。
func marginOffset(m layout.Margin, container, width dimen.Dots) dimen.Dots {
	switch {
	case m.AutoLeft && m.AutoRight:
		return ((container - width) / 2).NonNegative()
	case m.AutoLeft:
		return (container - width - m.Right).NonNegative()
	}
	return m.Left
}
