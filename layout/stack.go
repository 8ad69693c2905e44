package layout

import (
	"github.com/ByLCY/dotpaper/dimen"
)

// stackContent 构建 Stack 的子盒子并返回内容区自然尺寸：
// 主轴 = Σ子节点外框 + (n−1)·gap，交叉轴 = 最大子节点外框。
func (p *pass) stackContent(box *Box, s *Stack, st Style, inner Constraint) (dimen.Dots, dimen.Dots, error) {
	row := s.Direction == Row
	box.Children = make([]*Box, 0, len(s.Children))
	var fills []int
	for i, n := range s.Children {
		c := childConstraint(inner, marginOf0(n))
		child, err := p.child(n, st, c, s.Direction)
		if err != nil {
			return 0, 0, err
		}
		box.Children = append(box.Children, child)
		if !child.pending && mainSize(n, row).IsFill() {
			fills = append(fills, i)
		}
	}

	// fill 子节点平分主轴剩余空间（主轴有确定上限时）。
	mainMode, mainAvail := inner.HeightMode, inner.Height
	if row {
		mainMode, mainAvail = inner.WidthMode, inner.Width
	}
	if len(fills) > 0 && mainMode != Undefined {
		used := dimen.Zero
		flow := 0
		for i, child := range box.Children {
			if child.pending {
				continue
			}
			flow++
			m := marginOf(child)
			if isIn(fills, i) {
				used += mainMargin(m, row)
				continue
			}
			used += extent(child, row) + mainMargin(m, row)
		}
		used += s.Gap * dimen.Dots(max(flow-1, 0))
		share := ((mainAvail - used) / dimen.Dots(len(fills))).NonNegative()
		for _, i := range fills {
			n := s.Children[i]
			c := childConstraint(inner, marginOf0(n))
			if row {
				c.Width, c.WidthMode = share, Exactly
			} else {
				c.Height, c.HeightMode = share, Exactly
			}
			child, err := p.build(n, st, c, s.Direction)
			if err != nil {
				return 0, 0, err
			}
			box.Children[i] = child
		}
	}

	mainTotal, cross := stackExtent(box.Children, s.Gap, row)
	if row {
		return mainTotal, cross, nil
	}
	return cross, mainTotal, nil
}

// stackExtent 返回流内子节点的主轴总长与交叉轴最大值（均含 margin）。
func stackExtent(children []*Box, gap dimen.Dots, row bool) (dimen.Dots, dimen.Dots) {
	var mainTotal, cross dimen.Dots
	flow := flowChildren(children)
	for i, child := range flow {
		m := marginOf(child)
		if i > 0 {
			mainTotal += gap
		}
		mainTotal += extent(child, row) + mainMargin(m, row)
		cross = dimen.Max(cross, extent(child, !row)+mainMargin(m, !row))
	}
	return mainTotal, cross
}

// arrangeStack 依次放置子节点：相邻子节点之间恰好 gap，首尾不加。
// 交叉轴按 align/vAlign 相对内容区对齐；auto margin 使子节点水平居中。
func (p *pass) arrangeStack(box *Box, s *Stack, cw, ch dimen.Dots) {
	row := s.Direction == Row
	mainTotal, _ := stackExtent(box.Children, s.Gap, row)
	var cursor dimen.Dots
	if row {
		cursor = alignOffset(cw, mainTotal, s.Align)
	} else {
		cursor = alignOffset(ch, mainTotal, s.VAlign)
	}
	for _, child := range flowChildren(box.Children) {
		m := marginOf(child)
		if row {
			child.X = cursor + m.Left
			child.Y = alignOffset(ch, child.Height+m.Vertical(), s.VAlign) + m.Top
			cursor += m.Left + child.Width + m.Right + s.Gap
			continue
		}
		child.X = horizontalMarginOffset(m, cw, child.Width, s.Align)
		child.Y = cursor + m.Top
		cursor += m.Top + child.Height + m.Bottom + s.Gap
	}
}

func extent(b *Box, horizontal bool) dimen.Dots {
	if horizontal {
		return b.Width
	}
	return b.Height
}

func mainMargin(m Margin, horizontal bool) dimen.Dots {
	if horizontal {
		return m.Horizontal()
	}
	return m.Vertical()
}

func mainSize(n Node, horizontal bool) Size {
	if n == nil {
		return Auto
	}
	if horizontal {
		return n.Base().Width
	}
	return n.Base().Height
}

func marginOf0(n Node) Margin {
	if n == nil {
		return Margin{}
	}
	return n.Base().Margin
}

func isIn(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
