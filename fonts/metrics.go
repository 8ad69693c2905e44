package fonts

import (
	"github.com/ByLCY/dotpaper/dimen"
)

// Metrics 提供等宽字形的前进宽度查表，布局与指令生成共用同一份数据。
type Metrics interface {
	// Advance 返回给定 CPI 下单个字形的前进宽度（dots），
	// condensed 为 true 时使用压缩字宽表；表中不存在时 ok 为 false。
	Advance(cpi int, condensed bool) (dimen.Dots, bool)
	// Ellipsis 返回溢出截断时追加的标记文本。
	Ellipsis() string
}

// Table 是基于 CPI 的静态字宽表。
type Table struct {
	Pitch     map[int]dimen.Dots
	Condensed map[int]dimen.Dots
	Marker    string
}

var _ Metrics = (*Table)(nil)

// Dot-matrix 打印机在 360 DPI 下的默认字宽：
// 10 CPI = 36 dots，12 CPI = 30 dots，15 CPI = 24 dots。
// 压缩模式下 10 CPI 约为 17.14 CPI（21 dots），12 CPI 为 20 CPI（18 dots），
// 15 CPI 不支持压缩，保持 24 dots。
var Default = &Table{
	Pitch: map[int]dimen.Dots{
		10: 36,
		12: 30,
		15: 24,
	},
	Condensed: map[int]dimen.Dots{
		10: 21,
		12: 18,
		15: 24,
	},
	Marker: "...",
}

// Advance 实现 Metrics。
func (t *Table) Advance(cpi int, condensed bool) (dimen.Dots, bool) {
	if t == nil {
		return 0, false
	}
	table := t.Pitch
	if condensed && t.Condensed != nil {
		table = t.Condensed
	}
	adv, ok := table[cpi]
	if !ok || adv <= 0 {
		return 0, false
	}
	return adv, true
}

// Ellipsis 实现 Metrics。
func (t *Table) Ellipsis() string {
	if t == nil || t.Marker == "" {
		return "..."
	}
	return t.Marker
}
