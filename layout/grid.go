package layout

import (
	"fmt"

	"github.com/ByLCY/dotpaper/dimen"
)

// ResolveColumns 解析列宽：固定值、百分比（相对内容宽度，超过 100% 按字面处理）、
// auto（由 natural 给出该列最宽单元格）、fill（平分剩余宽度）。
// width 不确定时百分比与 fill 退化为 auto。
func ResolveColumns(cols []Size, width dimen.Dots, definite bool, gap dimen.Dots, natural func(i int) dimen.Dots) []dimen.Dots {
	widths := make([]dimen.Dots, len(cols))
	var used dimen.Dots
	var fills []int
	for i, col := range cols {
		switch {
		case col.IsFixed():
			widths[i], _ = col.Resolve(width, definite)
		case col.IsPercent() && definite:
			widths[i], _ = col.Resolve(width, definite)
		case col.IsFill() && definite:
			fills = append(fills, i)
			continue
		default:
			widths[i] = natural(i).NonNegative()
		}
		used += widths[i]
	}
	if len(fills) > 0 {
		used += gap * dimen.Dots(max(len(cols)-1, 0))
		share := ((width - used) / dimen.Dots(len(fills))).NonNegative()
		for _, i := range fills {
			widths[i] = share
		}
	}
	return widths
}

// ColumnOffsets 返回每列的起点：Σwidth[0..i−1] + i·gap。
func ColumnOffsets(widths []dimen.Dots, gap dimen.Dots) []dimen.Dots {
	xs := make([]dimen.Dots, len(widths))
	var x dimen.Dots
	for i, w := range widths {
		xs[i] = x
		x += w + gap
	}
	return xs
}

func gridColumns(g *Grid) []Size {
	if len(g.Columns) > 0 {
		return g.Columns
	}
	n := 0
	for _, row := range g.Rows {
		n = max(n, len(row.Cells))
	}
	cols := make([]Size, n)
	for i := range cols {
		cols[i] = Auto
	}
	return cols
}

// gridContent 构建表格：列宽每个表格只解析一次；行高取单元格最大外框高度或显式行高；
// 单元格内容宽度 = min(自然宽度, 列宽)，默认按 clip 裁剪，默认顶部对齐。
func (p *pass) gridContent(box *Box, g *Grid, st Style, inner Constraint) (dimen.Dots, dimen.Dots, error) {
	cols := gridColumns(g)
	for ri, row := range g.Rows {
		if len(row.Cells) > len(cols) {
			return 0, 0, Fail(p.phase, g, fmt.Errorf("%w: 第 %d 行有 %d 个单元格，超过列数 %d",
				ErrInvalidSpec, ri+1, len(row.Cells), len(cols)))
		}
	}

	var naturalErr error
	natural := func(i int) dimen.Dots {
		var w dimen.Dots
		for _, row := range g.Rows {
			if i >= len(row.Cells) || row.Cells[i].Content == nil {
				continue
			}
			n := row.Cells[i].Content
			b, err := p.build(n, st, Constraint{}, Column)
			if err != nil {
				if naturalErr == nil {
					naturalErr = err
				}
				continue
			}
			w = dimen.Max(w, b.Width+n.Base().Margin.Horizontal())
		}
		return w
	}
	definite := inner.WidthMode != Undefined
	widths := ResolveColumns(cols, inner.Width, definite, g.ColumnGap, natural)
	if naturalErr != nil {
		return 0, 0, naturalErr
	}
	xs := ColumnOffsets(widths, g.ColumnGap)

	var cw dimen.Dots
	if definite {
		cw = inner.Width
	} else if len(widths) > 0 {
		cw = xs[len(xs)-1] + widths[len(widths)-1]
	}

	box.Children = nil
	var y dimen.Dots
	for ri, row := range g.Rows {
		if ri > 0 {
			y += g.RowGap
		}
		cells := make([]*Box, len(row.Cells))
		var rh dimen.Dots
		for ci, cell := range row.Cells {
			if cell.Content == nil {
				continue
			}
			m := cell.Content.Base().Margin
			c := Constraint{Width: (widths[ci] - m.Horizontal()).NonNegative(), WidthMode: AtMost}
			b, err := p.child(cell.Content, st, c, Column)
			if err != nil {
				return 0, 0, err
			}
			cells[ci] = b
			if !b.pending {
				rh = dimen.Max(rh, b.Height+m.Vertical())
			}
		}
		if row.Height > 0 {
			rh = row.Height
		}
		for ci, b := range cells {
			if b == nil {
				continue
			}
			box.Children = append(box.Children, b)
			if b.pending {
				continue
			}
			cell := row.Cells[ci]
			m := marginOf(b)
			b.X = xs[ci] + horizontalMarginOffset(m, widths[ci], b.Width, cell.Align)
			b.Y = y + alignOffset(rh, b.Height+m.Vertical(), cell.VAlign) + m.Top
			mode := cell.Overflow
			if mode == OverflowAuto {
				mode = OverflowClip
			}
			if mode != OverflowVisible {
				b.Clip = true
				b.ClipWidth = xs[ci] + widths[ci] - b.X
				b.ClipMode = mode
			}
		}
		y += rh
	}
	tracer().Debugf("layout: grid columns %v", widths)
	return cw, y, nil
}
