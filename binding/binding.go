// Package binding 在布局前把数据绑定到节点树：展开 with/if/switch/each，
// 并把文本中的 ${path} 替换为数据中的值。输出的树只包含具体节点。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'dotpaper.binding'.
func tracer() tracing.Trace {
	return tracing.Select("dotpaper.binding")
}

// placeholder 匹配 ${path}。
var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Scope 是一层命名绑定（each/with 引入的变量），查找不到时回到外层，最外层是根数据。
type Scope struct {
	parent *Scope
	name   string
	value  any
}

// NewScope 以 data 作为根数据创建作用域。
func NewScope(data any) *Scope {
	return &Scope{value: data}
}

// With 返回一个把 name 绑定为 value 的子作用域。
func (s *Scope) With(name string, value any) *Scope {
	return &Scope{parent: s, name: name, value: value}
}

// Lookup 按路径取值，例如 item.name、items[0].qty。
// 路径的第一段优先匹配作用域中的变量名，其次从根数据开始查找。
func (s *Scope) Lookup(path string) (any, bool) {
	steps, ok := parsePath(strings.TrimSpace(path))
	if !ok || len(steps) == 0 {
		return nil, false
	}
	sc := s
	for ; sc.parent != nil; sc = sc.parent {
		if !steps[0].index && sc.name == steps[0].key {
			return walk(sc.value, steps[1:])
		}
	}
	return walk(sc.value, steps)
}

// Interpolate 将文本中的 ${path.to.value} 替换为作用域中的值。
// 路径不存在时保留原占位符。
func (s *Scope) Interpolate(text string) string {
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if v, ok := s.Lookup(path); ok {
			return format(v)
		}
		tracer().Infof("binding: 路径 %q 不存在，保留占位符", path)
		return match
	})
}

// Interpolate 是以 data 为根数据的 Scope.Interpolate；data 为空时原样返回。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return NewScope(data).Interpolate(text)
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// step 是路径中的一步：键名，或 index 为 true 时的数组下标 pos。
type step struct {
	key   string
	pos   int
	index bool
}

// parsePath 把 items[0].qty 拆成 items、[0]、qty 三步；下标不是整数或缺少 ] 时返回 false。
func parsePath(path string) ([]step, bool) {
	var steps []step
	for path != "" {
		switch path[0] {
		case '.':
			path = path[1:]
		case '[':
			end := strings.IndexByte(path, ']')
			if end < 0 {
				return nil, false
			}
			n, err := strconv.Atoi(strings.TrimSpace(path[1:end]))
			if err != nil {
				return nil, false
			}
			steps = append(steps, step{pos: n, index: true})
			path = path[end+1:]
		default:
			end := strings.IndexAny(path, ".[")
			if end < 0 {
				end = len(path)
			}
			steps = append(steps, step{key: path[:end]})
			path = path[end:]
		}
	}
	return steps, true
}

func walk(v any, steps []step) (any, bool) {
	for _, st := range steps {
		var ok bool
		if st.index {
			v, ok = element(v, st.pos)
		} else {
			v, ok = field(v, st.key)
		}
		if !ok {
			return nil, false
		}
	}
	return v, true
}

func field(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		x, ok := m[key]
		return x, ok
	case map[string]string:
		x, ok := m[key]
		return x, ok
	}
	return nil, false
}

func element(v any, i int) (any, bool) {
	switch l := v.(type) {
	case []any:
		if i >= 0 && i < len(l) {
			return l[i], true
		}
	case []string:
		if i >= 0 && i < len(l) {
			return l[i], true
		}
	}
	return nil, false
}
