package layout

import (
	"github.com/ByLCY/dotpaper/dimen"
)

// Box 是布局输出（ResolvedBox）：绝对坐标与尺寸（dots）、展平样式与子盒子。
type Box struct {
	Node  Node   `json:"-"`
	Kind  Kind   `json:"kind"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text,omitempty"`
	Style Style  `json:"style"`

	X      dimen.Dots `json:"x"`
	Y      dimen.Dots `json:"y"`
	Width  dimen.Dots `json:"width"`
	Height dimen.Dots `json:"height"`

	Children []*Box `json:"children,omitempty"`

	// RelativeOffset 只在输出指令时叠加，从不计入几何。
	RelativeOffset dimen.Point `json:"relativeOffset"`
	// WidthConstrained 表示宽度来自显式规格或 AtMost 钳制，作为溢出裁剪的前提。
	// 表格单元格的列边界由 Clip 单独表达。
	WidthConstrained bool `json:"widthConstrained,omitempty"`

	// Overflow 是文本自身的溢出策略。
	Overflow Overflow `json:"overflow,omitempty"`
	// Clip 为 true 时，该盒子及其后代不得输出到 X+ClipWidth 及其右侧，
	// 截断方式由 ClipMode 决定（表格单元格）。
	Clip      bool       `json:"clip,omitempty"`
	ClipWidth dimen.Dots `json:"clipWidth,omitempty"`
	ClipMode  Overflow   `json:"clipMode,omitempty"`

	pending bool // absolute 子节点，等待按包含块定位
}

// Rect 返回边框盒矩形。
func (b *Box) Rect() dimen.Rect {
	return dimen.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// Walk 以先序遍历盒子树；fn 返回 false 时不再进入该盒子的子树。
func (b *Box) Walk(fn func(box *Box, depth int) bool) {
	b.walk(fn, 0)
}

func (b *Box) walk(fn func(*Box, int) bool, depth int) {
	if b == nil || !fn(b, depth) {
		return
	}
	for _, c := range b.Children {
		c.walk(fn, depth+1)
	}
}

// Leaves 按结构顺序返回所有叶子盒子。
func (b *Box) Leaves() []*Box {
	var out []*Box
	b.Walk(func(box *Box, _ int) bool {
		if box.Node != nil && isLeaf(box.Node) {
			out = append(out, box)
		}
		return true
	})
	return out
}

// Find 返回第一个 ID 匹配的盒子。
func (b *Box) Find(id string) *Box {
	var found *Box
	b.Walk(func(box *Box, _ int) bool {
		if found != nil {
			return false
		}
		if box.ID == id {
			found = box
			return false
		}
		return true
	})
	return found
}

func (b *Box) shift(dx, dy dimen.Dots) {
	b.X += dx
	b.Y += dy
}
