package layout

import (
	"github.com/ByLCY/dotpaper/dimen"
)

// flexContent 构建 Flex 子盒子。auto 宽度的 Flex 占满确定的可用宽度，
// 不换行时子节点可以溢出容器。
func (p *pass) flexContent(box *Box, f *Flex, st Style, inner Constraint) (dimen.Dots, dimen.Dots, error) {
	box.Children = make([]*Box, 0, len(f.Children))
	var fills []int
	for i, n := range f.Children {
		c := childConstraint(inner, marginOf0(n))
		c.Height, c.HeightMode = 0, Undefined
		child, err := p.child(n, st, c, Row)
		if err != nil {
			return 0, 0, err
		}
		box.Children = append(box.Children, child)
		if !child.pending && mainSize(n, true).IsFill() {
			fills = append(fills, i)
		}
	}
	flow := flowChildren(box.Children)

	var cw dimen.Dots
	if inner.WidthMode != Undefined {
		cw = inner.Width
	} else {
		cw = rowExtent(flow, f.Gap)
	}

	// 不换行时 fill 子节点平分剩余宽度；换行时 fill 即占满整行（构建时已按上限解析）。
	if !f.Wrap && len(fills) > 0 && inner.WidthMode != Undefined {
		used := f.Gap * dimen.Dots(max(len(flow)-1, 0))
		for i, child := range box.Children {
			if child.pending {
				continue
			}
			used += marginOf(child).Horizontal()
			if !isIn(fills, i) {
				used += child.Width
			}
		}
		share := ((cw - used) / dimen.Dots(len(fills))).NonNegative()
		for _, i := range fills {
			n := f.Children[i]
			c := Constraint{Width: share, WidthMode: Exactly}
			child, err := p.build(n, st, c, Row)
			if err != nil {
				return 0, 0, err
			}
			box.Children[i] = child
		}
		flow = flowChildren(box.Children)
	}

	rows := flexRows(flow, cw, f.Gap, f.Wrap)
	var ch dimen.Dots
	for i, r := range rows {
		if i > 0 {
			ch += f.RowGap
		}
		ch += rowHeight(flow, r)
	}
	return cw, ch, nil
}

// flexRows 把子节点分行：累计宽度加间距不超过行宽时留在当前行，否则另起一行。
// 每行至少一个子节点。返回每行的下标区间 [start, end)。
func flexRows(items []*Box, width, gap dimen.Dots, wrap bool) [][2]int {
	if len(items) == 0 {
		return nil
	}
	if !wrap {
		return [][2]int{{0, len(items)}}
	}
	var rows [][2]int
	start := 0
	var used dimen.Dots
	for i, item := range items {
		w := item.Width + marginOf(item).Horizontal()
		if i == start {
			used = w
			continue
		}
		if used+gap+w <= width+epsilon {
			used += gap + w
			continue
		}
		rows = append(rows, [2]int{start, i})
		start, used = i, w
	}
	return append(rows, [2]int{start, len(items)})
}

// epsilon 吸收浮点累加误差（远小于一个点）。
const epsilon dimen.Dots = 1e-6

func rowExtent(items []*Box, gap dimen.Dots) dimen.Dots {
	var w dimen.Dots
	for i, item := range items {
		if i > 0 {
			w += gap
		}
		w += item.Width + marginOf(item).Horizontal()
	}
	return w
}

func rowHeight(items []*Box, r [2]int) dimen.Dots {
	var h dimen.Dots
	for _, item := range items[r[0]:r[1]] {
		h = dimen.Max(h, item.Height+marginOf(item).Vertical())
	}
	return h
}

// justifySpacing 返回行首偏移与相邻子节点间距。
// 剩余空间为负时退化为从行首排列。
func justifySpacing(j Justify, free, gap dimen.Dots, n int) (lead, between dimen.Dots) {
	if free < 0 {
		free = 0
	}
	between = gap
	switch j {
	case JustifyEnd:
		lead = free
	case JustifyCenter:
		lead = free / 2
	case JustifySpaceBetween:
		if n > 1 {
			between = gap + free/dimen.Dots(n-1)
		}
	case JustifySpaceAround:
		per := free / dimen.Dots(n)
		lead = per / 2
		between = gap + per
	case JustifySpaceEvenly:
		per := free / dimen.Dots(n+1)
		lead = per
		between = gap + per
	}
	return lead, between
}

// arrangeFlex 逐行按 justify 分布子节点，行间距为 rowGap；
// alignItems 在行高内对齐子节点，stretch 把 auto 高度的子节点拉伸到行高。
func (p *pass) arrangeFlex(box *Box, f *Flex, st Style, cw, ch dimen.Dots) error {
	flow := flowChildren(box.Children)
	rows := flexRows(flow, cw, f.Gap, f.Wrap)
	var y dimen.Dots
	for ri, r := range rows {
		items := flow[r[0]:r[1]]
		rh := rowHeight(flow, r)
		if !f.Wrap && ch > rh {
			rh = ch
		}
		if ri > 0 {
			y += f.RowGap
		}
		free := cw - rowExtent(items, f.Gap)
		lead, between := justifySpacing(f.Justify, free, f.Gap, len(items))
		x := lead
		for _, item := range items {
			m := marginOf(item)
			if f.AlignItems == ItemsStretch && item.Node.Base().Height.IsAuto() {
				stretched, err := p.stretch(item, st, rh-m.Vertical())
				if err != nil {
					return err
				}
				*item = *stretched
			}
			item.X = x + m.Left
			outer := item.Height + m.Vertical()
			switch f.AlignItems {
			case ItemsCenter:
				item.Y = y + (rh-outer)/2 + m.Top
			case ItemsEnd:
				item.Y = y + rh - outer + m.Top
			default:
				item.Y = y + m.Top
			}
			x += m.Left + item.Width + m.Right + between
		}
		y += rh
	}
	return nil
}

// stretch 以固定宽度与行高重新构建子节点。
func (p *pass) stretch(item *Box, parent Style, height dimen.Dots) (*Box, error) {
	c := Constraint{
		Width:      item.Width,
		WidthMode:  Exactly,
		Height:     height.NonNegative(),
		HeightMode: Exactly,
	}
	b, err := p.build(item.Node, parent, c, Row)
	if err != nil {
		return nil, err
	}
	b.WidthConstrained = item.WidthConstrained
	return b, nil
}
