package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ByLCY/dotpaper/layout"
)

// 绑定阶段的错误根因。
var (
	ErrMissingPath = errors.New("数据路径不存在")
	ErrNotList     = errors.New("each 的数据不是数组")
	ErrCondition   = errors.New("无效的条件表达式")
)

// Resolve 返回展开后的新树，输入树不会被修改。
// 动态根节点展开为多个（或零个）节点时，用一个竖直 Stack 包住结果。
func Resolve(root layout.Node, data any) (layout.Node, error) {
	if root == nil {
		return nil, layout.Fail(layout.PhaseBinding, nil, fmt.Errorf("%w: 根节点为空", layout.ErrInvalidSpec))
	}
	nodes, err := expand(root, NewScope(data))
	if err != nil {
		return nil, err
	}
	out := collapse(root, nodes)
	if out == nil {
		out = &layout.Stack{Common: layout.Common{ID: root.Base().ID}}
	}
	tracer().Debugf("binding: %s 展开完成", root.Kind())
	return out, nil
}

// collapse 把展开结果变回单个节点；没有结果时返回 nil。
func collapse(origin layout.Node, nodes []layout.Node) layout.Node {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return &layout.Stack{Common: layout.Common{ID: origin.Base().ID}, Children: nodes}
}

func expandAll(nodes []layout.Node, scope *Scope) ([]layout.Node, error) {
	out := make([]layout.Node, 0, len(nodes))
	for _, n := range nodes {
		expanded, err := expand(n, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// expand 展开一个节点。具体节点被复制，动态节点被替换为其选中的内容。
func expand(n layout.Node, scope *Scope) ([]layout.Node, error) {
	switch v := n.(type) {
	case nil:
		return nil, layout.Fail(layout.PhaseBinding, nil, fmt.Errorf("%w: 节点为空", layout.ErrInvalidSpec))
	case *layout.Text:
		c := *v
		c.Content = scope.Interpolate(v.Content)
		return []layout.Node{&c}, nil
	case *layout.Line:
		c := *v
		return []layout.Node{&c}, nil
	case *layout.Spacer:
		c := *v
		return []layout.Node{&c}, nil
	case *layout.Stack:
		c := *v
		children, err := expandAll(v.Children, scope)
		if err != nil {
			return nil, err
		}
		c.Children = children
		return []layout.Node{&c}, nil
	case *layout.Flex:
		c := *v
		children, err := expandAll(v.Children, scope)
		if err != nil {
			return nil, err
		}
		c.Children = children
		return []layout.Node{&c}, nil
	case *layout.Grid:
		return expandGrid(v, scope)
	case *layout.Template:
		val, ok := scope.Lookup(v.Path)
		if !ok {
			return nil, layout.Fail(layout.PhaseBinding, n, fmt.Errorf("%w: %s", ErrMissingPath, v.Path))
		}
		return expandAll(v.Body, scope.With(bindName(v.Name, v.Path), val))
	case *layout.Conditional:
		ok, err := scope.Eval(v.Cond)
		if err != nil {
			return nil, layout.Fail(layout.PhaseBinding, n, err)
		}
		if ok {
			return expandAll(v.Then, scope)
		}
		return expandAll(v.Else, scope)
	case *layout.Switch:
		val, _ := scope.Lookup(v.Path)
		key := format(val)
		for _, c := range v.Cases {
			if c.Value == key {
				return expandAll(c.Body, scope)
			}
		}
		return expandAll(v.Default, scope)
	case *layout.Each:
		return expandEach(v, scope)
	}
	return nil, layout.Fail(layout.PhaseBinding, n, fmt.Errorf("%w: 未知节点类型 %T", layout.ErrInvalidSpec, n))
}

// expandEach 对数组中的每个元素展开循环体；路径不存在时不产生任何节点。
func expandEach(e *layout.Each, scope *Scope) ([]layout.Node, error) {
	val, ok := scope.Lookup(e.Path)
	if !ok || val == nil {
		tracer().Infof("binding: each 路径 %s 不存在", e.Path)
		return nil, nil
	}
	var items []any
	switch x := val.(type) {
	case []interface{}:
		items = x
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	default:
		return nil, layout.Fail(layout.PhaseBinding, e, fmt.Errorf("%w: %s 是 %T", ErrNotList, e.Path, val))
	}
	name := bindName(e.As, e.Path)
	var out []layout.Node
	for _, item := range items {
		nodes, err := expandAll(e.Body, scope.With(name, item))
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// expandGrid 复制表格；单元格内容展开为空时该单元格留空。
func expandGrid(g *layout.Grid, scope *Scope) ([]layout.Node, error) {
	c := *g
	c.Columns = append([]layout.Size(nil), g.Columns...)
	c.Rows = make([]layout.GridRow, len(g.Rows))
	for i, row := range g.Rows {
		cells := make([]layout.GridCell, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell
			if cell.Content == nil {
				continue
			}
			nodes, err := expand(cell.Content, scope)
			if err != nil {
				return nil, err
			}
			cells[j].Content = collapse(cell.Content, nodes)
		}
		c.Rows[i] = layout.GridRow{Cells: cells, Height: row.Height}
	}
	return []layout.Node{&c}, nil
}

// bindName 返回绑定的变量名，未命名时取路径的最后一段。
func bindName(name, path string) string {
	if name != "" {
		return name
	}
	path = strings.TrimSpace(path)
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.Index(path, "["); i >= 0 {
		path = path[:i]
	}
	return path
}
