package layout

import (
	"github.com/ByLCY/dotpaper/dimen"
)

// 该文件定义布局树的节点类型。节点集合是封闭的：只有本包中定义的类型实现 Node。

// Kind 标识节点变体。
type Kind int

const (
	KindText Kind = iota
	KindLine
	KindSpacer
	KindStack
	KindFlex
	KindGrid
	// 以下为动态节点，必须在布局前由 binding 展开。
	KindTemplate
	KindConditional
	KindSwitch
	KindEach
)

var kindNames = [...]string{
	KindText:        "text",
	KindLine:        "line",
	KindSpacer:      "spacer",
	KindStack:       "stack",
	KindFlex:        "flex",
	KindGrid:        "grid",
	KindTemplate:    "template",
	KindConditional: "conditional",
	KindSwitch:      "switch",
	KindEach:        "each",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Dynamic 报告该类型是否需要数据绑定阶段展开。
func (k Kind) Dynamic() bool {
	return k >= KindTemplate
}

// MarshalText 让调试 JSON 中输出可读的节点类型。
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Node 是布局树中的一个节点。
type Node interface {
	Kind() Kind
	// Base 返回所有节点共有的盒模型属性。
	Base() *Common
	node()
}

// Position 定位模式。
type Position int

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
)

// Edges 描述四边的数值（padding、margin）。
type Edges struct {
	Top, Right, Bottom, Left dimen.Dots
}

// Uniform 返回四边相同的 Edges。
func Uniform(v dimen.Dots) Edges { return Edges{v, v, v, v} }

// Horizontal 返回左右之和。
func (e Edges) Horizontal() dimen.Dots { return e.Left + e.Right }

// Vertical 返回上下之和。
func (e Edges) Vertical() dimen.Dots { return e.Top + e.Bottom }

// Margin 在 Edges 基础上允许水平方向为 auto（用于居中）。
type Margin struct {
	Edges
	AutoLeft  bool
	AutoRight bool
}

// Offsets 是 relative/absolute 定位使用的偏移，Auto 表示未设置。
type Offsets struct {
	Top, Right, Bottom, Left Size
}

// Common 是所有节点共有的属性。
type Common struct {
	// ID 用于错误信息与调试输出，通常由文档解析器填入源码位置。
	ID string

	Width, Height        Size
	MinWidth, MaxWidth   Size
	MinHeight, MaxHeight Size

	Padding Edges
	Margin  Margin

	Position Position
	Offsets  Offsets

	Style StyleSpec
}

func (c *Common) Base() *Common { return c }

// Align 表示水平或垂直方向上的对齐。
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Overflow 是内容超出宽度时的处理策略。
// OverflowAuto 对文本等价于 visible，对表格单元格等价于 clip。
type Overflow int

const (
	OverflowAuto Overflow = iota
	OverflowVisible
	OverflowClip
	OverflowEllipsis
)

func (o Overflow) String() string {
	switch o {
	case OverflowVisible:
		return "visible"
	case OverflowClip:
		return "clip"
	case OverflowEllipsis:
		return "ellipsis"
	default:
		return "auto"
	}
}

// MarshalText 实现 encoding.TextMarshaler。
func (o Overflow) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Orientation 文本方向。
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Direction 是 Stack 的主轴方向。
type Direction int

const (
	Column Direction = iota
	Row
)

// Justify 是 Flex 主轴上的分布方式。
type Justify int

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// AlignItems 是 Flex 行内的交叉轴对齐。
type AlignItems int

const (
	ItemsStart AlignItems = iota
	ItemsCenter
	ItemsEnd
	ItemsStretch
)

// --- 叶子节点 -------------------------------------------------------------

// Text 是一段文本，可以包含换行符（每行单独输出）。
type Text struct {
	Common
	Content     string
	Orientation Orientation
	Overflow    Overflow
}

// Line 使用重复字符绘制水平或竖直的分隔线。
type Line struct {
	Common
	Direction Orientation
	Char      rune
	// Length 为 Fixed 或 Fill；Auto 等价于 Fill。
	Length Size
}

// Spacer 在父容器主轴上占据固定空间，位于 Stack/Flex 之外时视为竖直空白。
type Spacer struct {
	Common
	Length dimen.Dots
}

// --- 容器 -----------------------------------------------------------------

// Stack 沿主轴依次排列子节点。
// Align 作用于水平方向，VAlign 作用于竖直方向。
type Stack struct {
	Common
	Children  []Node
	Direction Direction
	Gap       dimen.Dots
	Align     Align
	VAlign    Align
}

// Flex 是单向（行）弹性布局，可换行。
type Flex struct {
	Common
	Children   []Node
	Gap        dimen.Dots
	RowGap     dimen.Dots
	Justify    Justify
	AlignItems AlignItems
	Wrap       bool
}

// Grid 按列宽规格排列单元格。
type Grid struct {
	Common
	Columns   []Size
	ColumnGap dimen.Dots
	RowGap    dimen.Dots
	Rows      []GridRow
}

// GridRow 是表格的一行；Height 为 0 时取单元格最大高度。
type GridRow struct {
	Cells  []GridCell
	Height dimen.Dots
}

// GridCell 是一个单元格，Content 可以为空。
type GridCell struct {
	Content  Node
	Align    Align
	VAlign   Align
	Overflow Overflow
}

// --- 动态节点（由 binding 在布局前展开）-------------------------------------

// Template 在数据的子路径上展开 Body（对应 DSL 的 with）。
type Template struct {
	Common
	Path string
	Name string
	Body []Node
}

// Conditional 按条件选择 Then 或 Else。
type Conditional struct {
	Common
	Cond string
	Then []Node
	Else []Node
}

// Case 是 Switch 的一个分支。
type Case struct {
	Value string
	Body  []Node
}

// Switch 按路径取值匹配分支。
type Switch struct {
	Common
	Path    string
	Cases   []Case
	Default []Node
}

// Each 对数组中的每个元素展开 Body，元素以 As 命名。
type Each struct {
	Common
	Path string
	As   string
	Body []Node
}

func (*Text) Kind() Kind        { return KindText }
func (*Line) Kind() Kind        { return KindLine }
func (*Spacer) Kind() Kind      { return KindSpacer }
func (*Stack) Kind() Kind       { return KindStack }
func (*Flex) Kind() Kind        { return KindFlex }
func (*Grid) Kind() Kind        { return KindGrid }
func (*Template) Kind() Kind    { return KindTemplate }
func (*Conditional) Kind() Kind { return KindConditional }
func (*Switch) Kind() Kind      { return KindSwitch }
func (*Each) Kind() Kind        { return KindEach }

func (*Text) node()        {}
func (*Line) node()        {}
func (*Spacer) node()      {}
func (*Stack) node()       {}
func (*Flex) node()        {}
func (*Grid) node()        {}
func (*Template) node()    {}
func (*Conditional) node() {}
func (*Switch) node()      {}
func (*Each) node()        {}

// Children 返回容器节点的直接子节点；叶子与动态节点返回 nil。
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Stack:
		return v.Children
	case *Flex:
		return v.Children
	case *Grid:
		var out []Node
		for _, row := range v.Rows {
			for _, cell := range row.Cells {
				if cell.Content != nil {
					out = append(out, cell.Content)
				}
			}
		}
		return out
	}
	return nil
}

func isLeaf(n Node) bool {
	switch n.Kind() {
	case KindText, KindLine, KindSpacer:
		return true
	}
	return false
}
