package document

import (
	"fmt"
	"strings"

	"github.com/ByLCY/dotpaper/dsl"
	"github.com/ByLCY/dotpaper/layout"
)

type builder struct {
	styles map[string]Style
	sets   map[string]*dsl.Block
	using  []string // 正在展开的 page-set，用于发现循环引用
}

// fail 为命令错误加上源码位置。
func fail(cmd *dsl.Command, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDocument, cmd.Location(), err)
}

// block 把块中的命令转换为节点；else 必须紧跟 if，case/default 只能出现在 switch 中。
func (b *builder) block(block *dsl.Block) ([]layout.Node, error) {
	if block == nil {
		return nil, nil
	}
	var out []layout.Node
	var pending *layout.Conditional // 最近一个可以接 else 的 if
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil {
			pending = nil
			continue
		}
		if cmd.Name == "else" {
			if pending == nil {
				return nil, fail(cmd, fmt.Errorf("else 前面没有 if"))
			}
			if err := b.elseBranch(cmd, pending); err != nil {
				return nil, err
			}
			pending = nil
			continue
		}
		nodes, err := b.command(cmd)
		if err != nil {
			return nil, err
		}
		pending = nil
		if c, ok := lastConditional(nodes); ok && cmd.Name == "if" {
			pending = c
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func lastConditional(nodes []layout.Node) (*layout.Conditional, bool) {
	if len(nodes) != 1 {
		return nil, false
	}
	c, ok := nodes[0].(*layout.Conditional)
	return c, ok
}

// elseBranch 处理 else { ... } 与 else if cond { ... }。
func (b *builder) elseBranch(cmd *dsl.Command, target *layout.Conditional) error {
	if len(cmd.Args) > 0 && cmd.Args[0].IsIdent() && cmd.Args[0].Value == "if" {
		nested := &dsl.Command{Pos: cmd.Pos, Name: "if", Args: cmd.Args[1:], Block: cmd.Block}
		nodes, err := b.command(nested)
		if err != nil {
			return err
		}
		target.Else = nodes
		return nil
	}
	if len(cmd.Args) > 0 {
		return fail(cmd, fmt.Errorf("else 不接受参数"))
	}
	nodes, err := b.block(cmd.Block)
	if err != nil {
		return err
	}
	target.Else = nodes
	return nil
}

// command 转换一个命令，use 可能产生多个节点。
func (b *builder) command(cmd *dsl.Command) ([]layout.Node, error) {
	var (
		n   layout.Node
		err error
	)
	switch cmd.Name {
	case "text":
		n, err = b.text(cmd)
	case "line":
		n, err = b.line(cmd)
	case "spacer":
		n, err = b.spacer(cmd)
	case "stack", "hstack", "vstack":
		n, err = b.stack(cmd)
	case "flex":
		n, err = b.flex(cmd)
	case "grid":
		n, err = b.grid(cmd)
	case "with":
		n, err = b.with(cmd)
	case "if":
		n, err = b.conditional(cmd)
	case "switch":
		n, err = b.switchNode(cmd)
	case "each":
		n, err = b.each(cmd)
	case "use":
		return b.use(cmd)
	case "row", "cell":
		return nil, fail(cmd, fmt.Errorf("%s 只能出现在 grid 中", cmd.Name))
	case "case", "default":
		return nil, fail(cmd, fmt.Errorf("%s 只能出现在 switch 中", cmd.Name))
	default:
		return nil, fail(cmd, fmt.Errorf("未知命令 %s", cmd.Name))
	}
	if err != nil {
		return nil, err
	}
	return []layout.Node{n}, nil
}

// attributes 合并命令参数、块内赋值与具名样式。只检查内联属性的名称，
// 具名样式中与该命令无关的属性被忽略。
func (b *builder) attributes(cmd *dsl.Command, extra ...string) (attrs, []string, error) {
	a, positional, err := parseArgs(cmd.Args)
	if err != nil {
		return nil, nil, fail(cmd, err)
	}
	a.merge(cmd.Block)
	if err := a.check(extra...); err != nil {
		return nil, nil, fail(cmd, err)
	}
	if a, err = mergeStyleAttributes(a, b.styles); err != nil {
		return nil, nil, fail(cmd, err)
	}
	return a, positional, nil
}

func (b *builder) common(cmd *dsl.Command, a attrs, c *layout.Common) error {
	c.ID = cmd.Location()
	if err := a.common(c); err != nil {
		return fail(cmd, err)
	}
	return nil
}

func (b *builder) text(cmd *dsl.Command) (layout.Node, error) {
	a, positional, err := b.attributes(cmd, "overflow", "orientation")
	if err != nil {
		return nil, err
	}
	t := &layout.Text{Content: strings.Join(positional, "") + extractText(cmd.Block)}
	if err := b.common(cmd, a, &t.Common); err != nil {
		return nil, err
	}
	if t.Overflow, err = a.overflow(); err != nil {
		return nil, fail(cmd, err)
	}
	if t.Orientation, err = a.orientation("orientation"); err != nil {
		return nil, fail(cmd, err)
	}
	if err := noChildren(cmd); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *builder) line(cmd *dsl.Command) (layout.Node, error) {
	a, positional, err := b.attributes(cmd, "char", "direction", "length")
	if err != nil {
		return nil, err
	}
	l := &layout.Line{}
	if err := b.common(cmd, a, &l.Common); err != nil {
		return nil, err
	}
	if len(positional) > 0 {
		a["char"] = positional[0]
	}
	if ch, ok := a["char"]; ok {
		r := []rune(ch)
		if len(r) != 1 {
			return nil, fail(cmd, fmt.Errorf("char 必须是单个字符，得到 %q", ch))
		}
		l.Char = r[0]
	}
	if l.Direction, err = a.orientation("direction"); err != nil {
		return nil, fail(cmd, err)
	}
	if v, ok := a["length"]; ok {
		if l.Length, err = layout.ParseSize(v); err != nil {
			return nil, fail(cmd, err)
		}
	}
	return l, noChildren(cmd)
}

func (b *builder) spacer(cmd *dsl.Command) (layout.Node, error) {
	a, positional, err := b.attributes(cmd, "length")
	if err != nil {
		return nil, err
	}
	if len(positional) > 0 {
		a["length"] = positional[0]
	}
	s := &layout.Spacer{}
	if err := b.common(cmd, a, &s.Common); err != nil {
		return nil, err
	}
	if s.Length, err = a.dots("length", 0); err != nil {
		return nil, fail(cmd, err)
	}
	return s, noChildren(cmd)
}

func (b *builder) stack(cmd *dsl.Command) (layout.Node, error) {
	a, _, err := b.attributes(cmd, "direction", "gap", "align", "valign")
	if err != nil {
		return nil, err
	}
	s := &layout.Stack{}
	if err := b.common(cmd, a, &s.Common); err != nil {
		return nil, err
	}
	switch dir := strings.ToLower(a["direction"]); {
	case cmd.Name == "hstack" || dir == "row" || dir == "horizontal":
		s.Direction = layout.Row
	case dir == "" || dir == "column" || dir == "vertical":
		s.Direction = layout.Column
	default:
		return nil, fail(cmd, fmt.Errorf("direction 的值 %q 无效", a["direction"]))
	}
	if s.Gap, err = a.dots("gap", 0); err != nil {
		return nil, fail(cmd, err)
	}
	if s.Align, err = a.align("align"); err != nil {
		return nil, fail(cmd, err)
	}
	if s.VAlign, err = a.align("valign"); err != nil {
		return nil, fail(cmd, err)
	}
	if s.Children, err = b.block(cmd.Block); err != nil {
		return nil, err
	}
	return s, nil
}

func (b *builder) flex(cmd *dsl.Command) (layout.Node, error) {
	a, _, err := b.attributes(cmd, "gap", "rowgap", "justify", "items", "alignitems", "wrap")
	if err != nil {
		return nil, err
	}
	f := &layout.Flex{}
	if err := b.common(cmd, a, &f.Common); err != nil {
		return nil, err
	}
	if f.Gap, err = a.dots("gap", 0); err != nil {
		return nil, fail(cmd, err)
	}
	if f.RowGap, err = a.dots("rowgap", 0); err != nil {
		return nil, fail(cmd, err)
	}
	switch strings.ToLower(a["justify"]) {
	case "", "start", "flex-start":
		f.Justify = layout.JustifyStart
	case "end", "flex-end":
		f.Justify = layout.JustifyEnd
	case "center":
		f.Justify = layout.JustifyCenter
	case "space-between":
		f.Justify = layout.JustifySpaceBetween
	case "space-around":
		f.Justify = layout.JustifySpaceAround
	case "space-evenly":
		f.Justify = layout.JustifySpaceEvenly
	default:
		return nil, fail(cmd, fmt.Errorf("justify 的值 %q 无效", a["justify"]))
	}
	items := a["items"]
	if v, ok := a["alignitems"]; ok {
		items = v
	}
	switch strings.ToLower(items) {
	case "", "start", "flex-start":
		f.AlignItems = layout.ItemsStart
	case "center":
		f.AlignItems = layout.ItemsCenter
	case "end", "flex-end":
		f.AlignItems = layout.ItemsEnd
	case "stretch":
		f.AlignItems = layout.ItemsStretch
	default:
		return nil, fail(cmd, fmt.Errorf("items 的值 %q 无效", items))
	}
	if v, ok := a["wrap"]; ok {
		switch strings.ToLower(v) {
		case "wrap":
			f.Wrap = true
		case "nowrap":
		default:
			t, err := parseToggle(v)
			if err != nil {
				return nil, fail(cmd, fmt.Errorf("wrap: %w", err))
			}
			f.Wrap = t == layout.On
		}
	}
	if f.Children, err = b.block(cmd.Block); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *builder) grid(cmd *dsl.Command) (layout.Node, error) {
	a, _, err := b.attributes(cmd, "columns", "columngap", "rowgap", "gap")
	if err != nil {
		return nil, err
	}
	g := &layout.Grid{}
	if err := b.common(cmd, a, &g.Common); err != nil {
		return nil, err
	}
	for _, spec := range strings.Fields(a["columns"]) {
		s, err := layout.ParseSize(spec)
		if err != nil {
			return nil, fail(cmd, fmt.Errorf("columns: %w", err))
		}
		g.Columns = append(g.Columns, s)
	}
	if len(g.Columns) == 0 {
		return nil, fail(cmd, fmt.Errorf("grid 缺少 columns"))
	}
	gap, err := a.dots("gap", 0)
	if err != nil {
		return nil, fail(cmd, err)
	}
	if g.ColumnGap, err = a.dots("columngap", gap); err != nil {
		return nil, fail(cmd, err)
	}
	if g.RowGap, err = a.dots("rowgap", gap); err != nil {
		return nil, fail(cmd, err)
	}
	if cmd.Block == nil {
		return g, nil
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command == nil {
			continue
		}
		if stmt.Command.Name != "row" {
			return nil, fail(stmt.Command, fmt.Errorf("grid 中只允许 row"))
		}
		row, err := b.row(stmt.Command)
		if err != nil {
			return nil, err
		}
		g.Rows = append(g.Rows, row)
	}
	return g, nil
}

func (b *builder) row(cmd *dsl.Command) (layout.GridRow, error) {
	var row layout.GridRow
	a, _, err := parseArgs(cmd.Args)
	if err != nil {
		return row, fail(cmd, err)
	}
	a.merge(cmd.Block)
	if err := a.allow("height"); err != nil {
		return row, fail(cmd, err)
	}
	if row.Height, err = a.dots("height", 0); err != nil {
		return row, fail(cmd, err)
	}
	if cmd.Block == nil {
		return row, nil
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command == nil {
			continue
		}
		if stmt.Command.Name != "cell" {
			return row, fail(stmt.Command, fmt.Errorf("row 中只允许 cell"))
		}
		cell, err := b.cell(stmt.Command)
		if err != nil {
			return row, err
		}
		row.Cells = append(row.Cells, cell)
	}
	return row, nil
}

// cell 的多个子节点被包进一个竖直 Stack；空单元格的 Content 为 nil。
func (b *builder) cell(cmd *dsl.Command) (layout.GridCell, error) {
	var cell layout.GridCell
	a, _, err := parseArgs(cmd.Args)
	if err != nil {
		return cell, fail(cmd, err)
	}
	a.merge(cmd.Block)
	if err := a.allow("align", "valign", "overflow"); err != nil {
		return cell, fail(cmd, err)
	}
	if cell.Align, err = a.align("align"); err != nil {
		return cell, fail(cmd, err)
	}
	if cell.VAlign, err = a.align("valign"); err != nil {
		return cell, fail(cmd, err)
	}
	if cell.Overflow, err = a.overflow(); err != nil {
		return cell, fail(cmd, err)
	}
	children, err := b.block(cmd.Block)
	if err != nil {
		return cell, err
	}
	switch len(children) {
	case 0:
	case 1:
		cell.Content = children[0]
	default:
		cell.Content = &layout.Stack{Common: layout.Common{ID: cmd.Location()}, Children: children}
	}
	return cell, nil
}

// with path [as name] { ... }
func (b *builder) with(cmd *dsl.Command) (layout.Node, error) {
	path, name, err := pathAndName(cmd)
	if err != nil {
		return nil, err
	}
	t := &layout.Template{Common: layout.Common{ID: cmd.Location()}, Path: path, Name: name}
	if t.Body, err = b.block(cmd.Block); err != nil {
		return nil, err
	}
	return t, nil
}

// each path as name { ... }
func (b *builder) each(cmd *dsl.Command) (layout.Node, error) {
	path, name, err := pathAndName(cmd)
	if err != nil {
		return nil, err
	}
	e := &layout.Each{Common: layout.Common{ID: cmd.Location()}, Path: path, As: name}
	if e.Body, err = b.block(cmd.Block); err != nil {
		return nil, err
	}
	return e, nil
}

func (b *builder) conditional(cmd *dsl.Command) (layout.Node, error) {
	cond := dsl.JoinRaw(cmd.Args)
	if cond == "" {
		return nil, fail(cmd, fmt.Errorf("if 缺少条件"))
	}
	c := &layout.Conditional{Common: layout.Common{ID: cmd.Location()}, Cond: cond}
	var err error
	if c.Then, err = b.block(cmd.Block); err != nil {
		return nil, err
	}
	return c, nil
}

// switch path { case "a" { ... } default { ... } }
func (b *builder) switchNode(cmd *dsl.Command) (layout.Node, error) {
	path := dsl.JoinRaw(cmd.Args)
	if path == "" {
		return nil, fail(cmd, fmt.Errorf("switch 缺少路径"))
	}
	s := &layout.Switch{Common: layout.Common{ID: cmd.Location()}, Path: path}
	if cmd.Block == nil {
		return s, nil
	}
	seenDefault := false
	for _, stmt := range cmd.Block.Statements {
		c := stmt.Command
		if c == nil {
			continue
		}
		body, err := b.block(c.Block)
		if err != nil {
			return nil, err
		}
		switch c.Name {
		case "case":
			if len(c.Args) == 0 {
				return nil, fail(c, fmt.Errorf("case 缺少取值"))
			}
			for _, v := range c.Args {
				if v.Raw == "," {
					continue
				}
				s.Cases = append(s.Cases, layout.Case{Value: v.Value, Body: body})
			}
		case "default":
			if seenDefault {
				return nil, fail(c, fmt.Errorf("default 重复"))
			}
			seenDefault = true
			s.Default = body
		default:
			return nil, fail(c, fmt.Errorf("switch 中只允许 case 与 default"))
		}
	}
	return s, nil
}

// use Name 插入 page-set 定义的片段，每次使用都重新生成节点。
func (b *builder) use(cmd *dsl.Command) ([]layout.Node, error) {
	if len(cmd.Args) != 1 || !cmd.Args[0].IsIdent() {
		return nil, fail(cmd, fmt.Errorf("use 需要一个 page-set 名称"))
	}
	name := cmd.Args[0].Value
	set, ok := b.sets[name]
	if !ok {
		return nil, fail(cmd, fmt.Errorf("page-set %s 未定义", name))
	}
	for _, active := range b.using {
		if active == name {
			return nil, fail(cmd, fmt.Errorf("page-set 引用存在循环：%s", strings.Join(append(b.using, name), " → ")))
		}
	}
	b.using = append(b.using, name)
	defer func() { b.using = b.using[:len(b.using)-1] }()
	return b.block(set)
}

// pathAndName 解析 path [as name]。
func pathAndName(cmd *dsl.Command) (string, string, error) {
	args := cmd.Args
	name := ""
	for i, tok := range args {
		if tok.IsIdent() && tok.Value == "as" {
			if i != len(args)-2 || !args[i+1].IsIdent() {
				return "", "", fail(cmd, fmt.Errorf("as 后需要一个变量名"))
			}
			name = args[i+1].Value
			args = args[:i]
			break
		}
	}
	path := dsl.JoinRaw(args)
	if path == "" {
		return "", "", fail(cmd, fmt.Errorf("%s 缺少数据路径", cmd.Name))
	}
	return path, name, nil
}

func noChildren(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return nil
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command != nil {
			return fail(cmd, fmt.Errorf("%s 不能包含子节点", cmd.Name))
		}
	}
	return nil
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var builder strings.Builder
	for i, stmt := range block.Statements {
		if stmt.Text == nil {
			continue
		}
		if i > 0 && builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(string(stmt.Text.Value))
	}
	return builder.String()
}
