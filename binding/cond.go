package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var comparePattern = regexp.MustCompile(`^(.+?)(==|!=|>=|<=|>|<)(.+)$`)

// Eval 计算 if 的条件。支持单个路径（按真值判断）、前缀 ! 取反，
// 以及路径或字面量之间的 == != > >= < <= 比较。
func (s *Scope) Eval(cond string) (bool, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false, fmt.Errorf("%w: 条件为空", ErrCondition)
	}
	if m := comparePattern.FindStringSubmatch(cond); m != nil {
		return s.compare(strings.TrimSpace(m[1]), m[2], strings.TrimSpace(m[3]))
	}
	if strings.HasPrefix(cond, "!") {
		v, err := s.Eval(cond[1:])
		return !v, err
	}
	return truthy(s.operand(cond)), nil
}

func (s *Scope) compare(left, op, right string) (bool, error) {
	if left == "" || right == "" {
		return false, fmt.Errorf("%w: 比较缺少操作数", ErrCondition)
	}
	a, b := s.operand(left), s.operand(right)
	x, xok := number(a)
	y, yok := number(b)
	switch op {
	case "==":
		if xok && yok {
			return x == y, nil
		}
		return format(a) == format(b), nil
	case "!=":
		if xok && yok {
			return x != y, nil
		}
		return format(a) != format(b), nil
	}
	if !xok || !yok {
		return false, fmt.Errorf("%w: %s %s %s 不是数值比较", ErrCondition, left, op, right)
	}
	switch op {
	case ">":
		return x > y, nil
	case ">=":
		return x >= y, nil
	case "<":
		return x < y, nil
	default:
		return x <= y, nil
	}
}

// operand 解析字面量（字符串、数字、true/false/null）或路径；不存在的路径为 nil。
func (s *Scope) operand(token string) any {
	if strings.HasPrefix(token, `"`) {
		if v, err := strconv.Unquote(token); err == nil {
			return v
		}
	}
	switch token {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f
	}
	v, _ := s.Lookup(token)
	return v
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x != ""
	case []interface{}:
		return len(x) > 0
	case map[string]interface{}:
		return len(x) > 0
	}
	return true
}
