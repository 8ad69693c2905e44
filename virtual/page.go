// Package virtual 回放打印机指令流，得到每页的字形位置，用于预览和测试。
package virtual

import (
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/dotpaper/dimen"
)

// Style 是回放时打印机的字体状态。
type Style struct {
	CPI          int
	Typeface     int
	Quality      int
	Bold         bool
	Italic       bool
	Underline    bool
	DoubleStrike bool
	DoubleWidth  bool
	DoubleHeight bool
	Condensed    bool
	CharSpacing  int
}

func defaultStyle() Style { return Style{CPI: 10} }

// Glyph 是打印在纸上的一个字符。
type Glyph struct {
	X, Y    dimen.Dots
	Rune    rune
	Advance dimen.Dots
	Style   Style
}

// Page 按纵坐标保存字形行；同一位置后打印的字形覆盖先前的字形。
type Page struct {
	Number int
	rows   *treemap.Map // int(y) -> *treemap.Map: int(x) -> Glyph
}

func newPage(n int) *Page {
	return &Page{Number: n, rows: treemap.NewWith(utils.IntComparator)}
}

func (p *Page) put(g Glyph) {
	y := int(g.Y.Round())
	v, ok := p.rows.Get(y)
	if !ok {
		v = treemap.NewWith(utils.IntComparator)
		p.rows.Put(y, v)
	}
	v.(*treemap.Map).Put(int(g.X.Round()), g)
}

// Len 返回页面上的字形数。
func (p *Page) Len() int {
	n := 0
	for _, v := range p.rows.Values() {
		n += v.(*treemap.Map).Size()
	}
	return n
}

// Empty 报告页面上是否没有字形。
func (p *Page) Empty() bool { return p.rows.Empty() }

// Rows 按从上到下的顺序返回有字形的纵坐标。
func (p *Page) Rows() []dimen.Dots {
	keys := p.rows.Keys()
	out := make([]dimen.Dots, len(keys))
	for i, k := range keys {
		out[i] = dimen.Dots(k.(int))
	}
	return out
}

// Row 返回某一纵坐标上从左到右的字形。
func (p *Page) Row(y dimen.Dots) []Glyph {
	v, ok := p.rows.Get(int(y.Round()))
	if !ok {
		return nil
	}
	values := v.(*treemap.Map).Values()
	out := make([]Glyph, len(values))
	for i, g := range values {
		out[i] = g.(Glyph)
	}
	return out
}

// At 返回左上角恰好位于 (x, y) 的字形。
func (p *Page) At(x, y dimen.Dots) (Glyph, bool) {
	v, ok := p.rows.Get(int(y.Round()))
	if !ok {
		return Glyph{}, false
	}
	g, ok := v.(*treemap.Map).Get(int(x.Round()))
	if !ok {
		return Glyph{}, false
	}
	return g.(Glyph), true
}

// Glyphs 按行优先的顺序返回全部字形。
func (p *Page) Glyphs() []Glyph {
	var out []Glyph
	it := p.rows.Iterator()
	for it.Next() {
		for _, g := range it.Value().(*treemap.Map).Values() {
			out = append(out, g.(Glyph))
		}
	}
	return out
}

// Bounds 返回包含全部字形的矩形。
func (p *Page) Bounds() dimen.Rect {
	var r dimen.Rect
	for i, g := range p.Glyphs() {
		h := dimen.DefaultLineSpacing
		if g.Style.DoubleHeight {
			h *= 2
		}
		if i == 0 {
			r = dimen.Rect{X: g.X, Y: g.Y}
		}
		right := dimen.Max(r.Right(), g.X+g.Advance)
		bottom := dimen.Max(r.Bottom(), g.Y+h)
		r.X = dimen.Min(r.X, g.X)
		r.Y = dimen.Min(r.Y, g.Y)
		r.Width = right - r.X
		r.Height = bottom - r.Y
	}
	return r
}

// Text 把页面画成等宽文本：列宽 36 dots（10 CPI），行高 60 dots。
// 落在同一字符格的字形以后打印的为准。
func (p *Page) Text() string {
	const cell, line = 36, dimen.DefaultLineSpacing
	var b strings.Builder
	last := -1
	it := p.rows.Iterator()
	for it.Next() {
		y := it.Key().(int)
		n := int((dimen.Dots(y) / line).Round())
		if last >= 0 && n <= last {
			n = last + 1
		}
		for i := last + 1; i < n; i++ {
			b.WriteByte('\n')
		}
		if last >= 0 {
			b.WriteByte('\n')
		}
		var cols []rune
		for _, v := range it.Value().(*treemap.Map).Values() {
			g := v.(Glyph)
			col := int((g.X / cell).Round())
			for len(cols) <= col {
				cols = append(cols, ' ')
			}
			cols[col] = g.Rune
		}
		b.WriteString(strings.TrimRight(pad(cols), " "))
		last = n
	}
	return b.String()
}

// pad 按终端显示宽度拼接字符格，宽字符之后的格子不再补空格。
func pad(cols []rune) string {
	var b strings.Builder
	skip := 0
	for _, r := range cols {
		if skip > 0 {
			skip--
			if r == ' ' {
				continue
			}
		}
		b.WriteRune(r)
		if w := runewidth.RuneWidth(r); w > 1 {
			skip = w - 1
		}
	}
	return b.String()
}
