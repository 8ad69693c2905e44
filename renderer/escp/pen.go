package escprenderer

import (
	"math"
	"unicode/utf8"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/layout"
)

// horizontalTolerance 是不输出定位指令的最大偏差。
const horizontalTolerance dimen.Dots = 1

// moveTo 先处理纵向再处理横向。纸张只能向前走：目标在打印头之上或同一行时
// 不走纸，内容叠印在当前行，后输出的内容覆盖先前的内容。
func (e *emitter) moveTo(p pen, x, y dimen.Dots) pen {
	target := dimen.FromVerticalUnits(dimen.VerticalUnits(y))
	delta := target - p.y
	if delta > 0 {
		if p.lineOpen && delta >= dimen.DefaultLineSpacing {
			e.enc.LineFeed()
			p.y += dimen.DefaultLineSpacing
			p.x = 0
			delta -= dimen.DefaultLineSpacing
		}
		if units := dimen.VerticalUnits(delta); units > 0 {
			e.enc.Advance(units)
			p.y += dimen.FromVerticalUnits(units)
		}
		p.lineOpen = false
		e.moves++
	}
	if math.Abs(float64(p.x-x)) > float64(horizontalTolerance) {
		units := dimen.HorizontalUnits(x)
		e.enc.MoveTo(units)
		p.x = dimen.FromHorizontalUnits(units)
		e.moves++
	}
	return p
}

// landingX 返回移动到 (x, y) 之后打印头实际所在的横向位置，不输出任何指令。
func landingX(p pen, x, y dimen.Dots) dimen.Dots {
	delta := dimen.FromVerticalUnits(dimen.VerticalUnits(y)) - p.y
	if p.lineOpen && delta >= dimen.DefaultLineSpacing {
		p.x = 0
	}
	if math.Abs(float64(p.x-x)) > float64(horizontalTolerance) {
		return dimen.FromHorizontalUnits(dimen.HorizontalUnits(x))
	}
	return p.x
}

// print 输出文本，打印头按字数前进。
func (e *emitter) print(p pen, s string, adv dimen.Dots) pen {
	glyphs, replaced := e.enc.Text(s)
	if replaced > 0 {
		tracer().Infof("escp: %d 个字符无法映射到字符表 %s，以 '?' 代替", replaced, e.enc.Table())
	}
	e.glyphs += glyphs
	p.x += dimen.Dots(utf8.RuneCountInString(s)) * adv
	p.lineOpen = true
	return p
}

// applyStyle 只输出与当前已生效样式不同的属性，顺序固定。
func (e *emitter) applyStyle(p pen, st layout.Style) pen {
	cur := p.style
	if st.Typeface != cur.Typeface {
		e.enc.Typeface(st.Typeface)
	}
	if st.Quality != cur.Quality {
		e.enc.Quality(int(st.Quality))
	}
	if st.CPI != cur.CPI {
		if err := e.enc.Pitch(st.CPI); err != nil {
			// 样式解析已校验 cpi；保留打印机当前的 cpi
			st.CPI = cur.CPI
		}
	}
	if st.Condensed != cur.Condensed {
		e.enc.Condensed(st.Condensed)
	}
	if st.Bold != cur.Bold {
		e.enc.Bold(st.Bold)
	}
	if st.Italic != cur.Italic {
		e.enc.Italic(st.Italic)
	}
	if st.Underline != cur.Underline {
		e.enc.Underline(st.Underline)
	}
	if st.DoubleStrike != cur.DoubleStrike {
		e.enc.DoubleStrike(st.DoubleStrike)
	}
	if st.DoubleWidth != cur.DoubleWidth {
		e.enc.DoubleWidth(st.DoubleWidth)
	}
	if st.DoubleHeight != cur.DoubleHeight {
		e.enc.DoubleHeight(st.DoubleHeight)
	}
	if st.CharSpacing != cur.CharSpacing {
		e.enc.CharSpacing(st.CharSpacing)
	}
	p.style = st
	return p
}
