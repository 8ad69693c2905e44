package layout

import (
	"fmt"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/fonts"
)

// Quality 打印质量：草稿或近铅字（NLQ/LQ）。
type Quality int

const (
	QualityDraft Quality = iota
	QualityLetter
)

// Style 是展平后的文本样式（ResolvedStyle），自上而下继承。
type Style struct {
	CPI          int        `json:"cpi"`
	Typeface     int        `json:"typeface"`
	Quality      Quality    `json:"quality"`
	Bold         bool       `json:"bold,omitempty"`
	Italic       bool       `json:"italic,omitempty"`
	Underline    bool       `json:"underline,omitempty"`
	DoubleStrike bool       `json:"doubleStrike,omitempty"`
	DoubleWidth  bool       `json:"doubleWidth,omitempty"`
	DoubleHeight bool       `json:"doubleHeight,omitempty"`
	Condensed    bool       `json:"condensed,omitempty"`
	CharSpacing  int        `json:"charSpacing,omitempty"` // 1/120 英寸
	LineSpacing  dimen.Dots `json:"lineSpacing"`
}

// DefaultStyle 对应打印机初始化（ESC @）后的状态。
func DefaultStyle() Style {
	return Style{
		CPI:         10,
		LineSpacing: dimen.DefaultLineSpacing,
	}
}

// Toggle 是布尔样式的覆盖值，零值表示继承。
type Toggle int8

const (
	Inherit Toggle = iota
	On
	Off
)

func (t Toggle) apply(v bool) bool {
	switch t {
	case On:
		return true
	case Off:
		return false
	}
	return v
}

// StyleSpec 是节点上的样式覆盖；未设置的字段继承父样式。
type StyleSpec struct {
	CPI          int
	Typeface     *int
	Quality      *Quality
	Bold         Toggle
	Italic       Toggle
	Underline    Toggle
	DoubleStrike Toggle
	DoubleWidth  Toggle
	DoubleHeight Toggle
	Condensed    Toggle
	CharSpacing  *int
	LineSpacing  dimen.Dots
}

// ResolveStyle 用节点自身的覆盖值替换父样式中的对应属性。
// 只有文本渲染属性参与继承，尺寸与定位不受影响。
func ResolveStyle(n Node, parent Style) (Style, error) {
	st := parent
	if n == nil {
		return st, nil
	}
	spec := n.Base().Style
	if spec.CPI != 0 {
		switch spec.CPI {
		case 10, 12, 15:
			st.CPI = spec.CPI
		default:
			return parent, fmt.Errorf("%w: 不支持的 cpi %d", ErrInvalidSpec, spec.CPI)
		}
	}
	if spec.Typeface != nil {
		if *spec.Typeface < 0 || *spec.Typeface > 255 {
			return parent, fmt.Errorf("%w: 无效的字体编号 %d", ErrInvalidSpec, *spec.Typeface)
		}
		st.Typeface = *spec.Typeface
	}
	if spec.Quality != nil {
		st.Quality = *spec.Quality
	}
	st.Bold = spec.Bold.apply(st.Bold)
	st.Italic = spec.Italic.apply(st.Italic)
	st.Underline = spec.Underline.apply(st.Underline)
	st.DoubleStrike = spec.DoubleStrike.apply(st.DoubleStrike)
	st.DoubleWidth = spec.DoubleWidth.apply(st.DoubleWidth)
	st.DoubleHeight = spec.DoubleHeight.apply(st.DoubleHeight)
	st.Condensed = spec.Condensed.apply(st.Condensed)
	if spec.CharSpacing != nil {
		if *spec.CharSpacing < 0 || *spec.CharSpacing > 127 {
			return parent, fmt.Errorf("%w: 字符间距超出范围 %d", ErrInvalidSpec, *spec.CharSpacing)
		}
		st.CharSpacing = *spec.CharSpacing
	}
	if spec.LineSpacing < 0 {
		return parent, fmt.Errorf("%w: 行距不能为负数", ErrInvalidSpec)
	}
	if spec.LineSpacing > 0 {
		st.LineSpacing = spec.LineSpacing
	}
	return st, nil
}

// Advance 返回在该样式下单个字形的前进宽度：查表宽度，倍宽时翻倍，再加字符间距。
func (s Style) Advance(m fonts.Metrics) (dimen.Dots, error) {
	if m == nil {
		return 0, ErrMissingMetrics
	}
	adv, ok := m.Advance(s.CPI, s.Condensed)
	if !ok {
		return 0, fmt.Errorf("%w: cpi %d condensed=%v", ErrMissingMetrics, s.CPI, s.Condensed)
	}
	if s.DoubleWidth {
		adv *= 2
	}
	return adv + dimen.Dots(s.CharSpacing)*dimen.DotsPerCharSpacingUnit, nil
}

// LineHeight 返回一行文本占据的高度，倍高时翻倍。
func (s Style) LineHeight() dimen.Dots {
	h := s.LineSpacing
	if h <= 0 {
		h = dimen.DefaultLineSpacing
	}
	if s.DoubleHeight {
		h *= 2
	}
	return h
}

// IntPtr 与 QualityPtr 方便构造 StyleSpec。
func IntPtr(v int) *int             { return &v }
func QualityPtr(q Quality) *Quality { return &q }
