package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/fonts"
)

// TextLines 把内容按换行符拆分，每行单独输出。
func TextLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

// TextExtent 计算文本在样式下的自然尺寸。
// 横排：宽 = 最长行字数 × 字宽，高 = 行数 × 行高。
// 竖排：每行是一列，宽 = 列数 × 字宽（一个字符格，而不是行距），高 = 最长列字数 × 行高。
func TextExtent(content string, o Orientation, st Style, m fonts.Metrics) (dimen.Dots, dimen.Dots, error) {
	adv, err := st.Advance(m)
	if err != nil {
		return 0, 0, err
	}
	lines := TextLines(content)
	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	lh := st.LineHeight()
	if o == Vertical {
		return dimen.Dots(len(lines)) * adv, dimen.Dots(longest) * lh, nil
	}
	return dimen.Dots(longest) * adv, dimen.Dots(len(lines)) * lh, nil
}

func (p *pass) measureText(t *Text, st Style) (dimen.Dots, dimen.Dots, error) {
	w, h, err := TextExtent(t.Content, t.Orientation, st, p.metrics)
	if err != nil {
		return 0, 0, Fail(PhaseMeasurement, t, err)
	}
	return w, h, nil
}

func (p *pass) measureLine(l *Line, st Style, inner Constraint) (dimen.Dots, dimen.Dots, error) {
	adv, err := st.Advance(p.metrics)
	if err != nil {
		return 0, 0, Fail(PhaseMeasurement, l, err)
	}
	lh := st.LineHeight()
	if l.Direction == Vertical {
		length, ok := l.Length.Resolve(inner.Height, inner.HeightMode != Undefined)
		if !ok && !l.Length.IsFixed() && inner.HeightMode != Undefined {
			length = inner.Height
		}
		return adv, length, nil
	}
	length, ok := l.Length.Resolve(inner.Width, inner.WidthMode != Undefined)
	if !ok && !l.Length.IsFixed() && inner.WidthMode != Undefined {
		length = inner.Width
	}
	return length, lh, nil
}

// LineChar 返回分隔线使用的字符，默认为 '-'。
func LineChar(l *Line) rune {
	if l.Char == 0 {
		return '-'
	}
	return l.Char
}
