package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/dsl"
	"github.com/ByLCY/dotpaper/layout"
)

// attrs 是命令参数与块内赋值合并后的属性，键统一为小写。
type attrs map[string]string

// multiValued 的属性在命令参数中可以连续给出多个长度，例如 margin 10 auto。
var multiValued = map[string]bool{"margin": true, "padding": true}

// parseArgs 把命令参数拆成键值对与位置参数。位置参数是字符串或数字
// （text "..."、spacer 30），负号与紧随的数字合并为一个值。
func parseArgs(args []*dsl.Lexeme) (attrs, []string, error) {
	out := attrs{}
	var positional []string
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !tok.IsIdent() {
			v, n, ok := argValue(args, i)
			if !ok {
				return nil, nil, fmt.Errorf("无法识别的参数 %q", tok.Raw)
			}
			positional = append(positional, v)
			i += n - 1
			continue
		}
		key := strings.ToLower(tok.Value)
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("参数 %s 缺少取值", tok.Value)
		}
		v, n, ok := argValue(args, i+1)
		if !ok {
			return nil, nil, fmt.Errorf("参数 %s 的取值 %q 无效", tok.Value, args[i+1].Raw)
		}
		i += n
		if multiValued[key] {
			vals := []string{v}
			for len(vals) < 4 && i+1 < len(args) && isLength(args[i+1]) {
				next, m, _ := argValue(args, i+1)
				vals = append(vals, next)
				i += m
			}
			v = strings.Join(vals, " ")
		}
		out[key] = v
	}
	return out, positional, nil
}

// argValue 读取位置 i 的一个取值，返回值与消耗的记号数。
func argValue(args []*dsl.Lexeme, i int) (string, int, bool) {
	tok := args[i]
	if tok.Type == "Symbol" {
		if tok.Raw == "-" && i+1 < len(args) && args[i+1].Type == "Number" {
			return "-" + args[i+1].Value, 2, true
		}
		return "", 1, false
	}
	return tok.Value, 1, true
}

func isLength(tok *dsl.Lexeme) bool {
	return tok.Type == "Number" || (tok.IsIdent() && tok.Value == "auto")
}

// merge 把块中的赋值并入属性；内联对象展开为带前缀的键，margin: { top: 10 } → margintop。
func (a attrs) merge(block *dsl.Block) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		as := stmt.Assignment
		if as == nil {
			continue
		}
		key := strings.ToLower(as.Key)
		if as.Value != nil && as.Value.Object != nil {
			for _, e := range as.Value.Object.Entries {
				a[key+strings.ToLower(e.Key)] = valueToString(e.Value)
			}
			continue
		}
		a[key] = valueToString(as.Value)
	}
}

// mergeStyleAttributes 先取具名样式的属性，再由内联属性覆盖。
func mergeStyleAttributes(inline attrs, styles map[string]Style) (attrs, error) {
	name, ok := inline["style"]
	if !ok {
		return inline, nil
	}
	s, ok := styles[name]
	if !ok {
		return nil, fmt.Errorf("style %s 未定义", name)
	}
	out := attrs{}
	for k, v := range s.Props {
		out[k] = v
	}
	for k, v := range inline {
		if k != "style" {
			out[k] = v
		}
	}
	return out, nil
}

var commonKeys = []string{
	"id", "width", "height", "minwidth", "maxwidth", "minheight", "maxheight",
	"padding", "paddingtop", "paddingright", "paddingbottom", "paddingleft",
	"margin", "margintop", "marginright", "marginbottom", "marginleft",
	"position", "top", "right", "bottom", "left",
	"cpi", "typeface", "quality", "bold", "italic", "underline", "doublestrike",
	"doublewidth", "doubleheight", "condensed", "charspacing", "linespacing",
}

// check 拒绝命令不认识的属性；盒模型、定位与样式属性总是允许的。
func (a attrs) check(extra ...string) error {
	return a.allow(append(append([]string{"style"}, commonKeys...), extra...)...)
}

// allow 只接受 keys 中列出的属性。
func (a attrs) allow(keys ...string) error {
	known := map[string]bool{}
	for _, k := range keys {
		known[k] = true
	}
	var unknown []string
	for k := range a {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("未知属性 %s", strings.Join(unknown, ", "))
	}
	return nil
}

// common 把盒模型、定位与样式属性写入 c。
func (a attrs) common(c *layout.Common) error {
	if id, ok := a["id"]; ok {
		c.ID = id
	}
	for key, dst := range map[string]*layout.Size{
		"width": &c.Width, "height": &c.Height,
		"minwidth": &c.MinWidth, "maxwidth": &c.MaxWidth,
		"minheight": &c.MinHeight, "maxheight": &c.MaxHeight,
		"top": &c.Offsets.Top, "right": &c.Offsets.Right,
		"bottom": &c.Offsets.Bottom, "left": &c.Offsets.Left,
	} {
		v, ok := a[key]
		if !ok {
			continue
		}
		s, err := layout.ParseSize(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = s
	}
	var err error
	if c.Padding, err = a.edges("padding"); err != nil {
		return err
	}
	if c.Margin, err = a.margin(); err != nil {
		return err
	}
	switch a["position"] {
	case "", "static":
		c.Position = layout.PositionStatic
	case "relative":
		c.Position = layout.PositionRelative
	case "absolute":
		c.Position = layout.PositionAbsolute
	default:
		return fmt.Errorf("position 的值 %q 无效", a["position"])
	}
	return a.style(&c.Style)
}

// edges 解析四边属性：简写 prefix 接受 1~4 个长度，prefixTop 等单边属性覆盖简写。
func (a attrs) edges(prefix string) (layout.Edges, error) {
	var e layout.Edges
	if v, ok := a[prefix]; ok {
		vals, err := lengths(v)
		if err != nil {
			return e, fmt.Errorf("%s: %w", prefix, err)
		}
		e = edgesOf(vals)
	}
	for side, dst := range map[string]*dimen.Dots{"top": &e.Top, "right": &e.Right, "bottom": &e.Bottom, "left": &e.Left} {
		v, ok := a[prefix+side]
		if !ok {
			continue
		}
		d, err := dimen.Parse(v)
		if err != nil {
			return e, fmt.Errorf("%s%s: %w", prefix, side, err)
		}
		*dst = d
	}
	return e, nil
}

// margin 与 edges 相同，但左右两边允许 auto。
func (a attrs) margin() (layout.Margin, error) {
	var m layout.Margin
	plain := attrs{}
	for k, v := range a {
		if !strings.HasPrefix(k, "margin") {
			continue
		}
		if k == "margin" {
			parts := strings.Fields(v)
			if len(parts) == 0 || len(parts) > 4 {
				return m, fmt.Errorf("margin 需要 1~4 个值")
			}
			// 展开为单边属性，auto 只允许出现在左右
			sides := expandSides(parts)
			for i, side := range []string{"top", "right", "bottom", "left"} {
				if _, explicit := a["margin"+side]; !explicit {
					plain["margin"+side] = sides[i]
				}
			}
			continue
		}
		plain[k] = v
	}
	for _, side := range []string{"left", "right"} {
		if plain["margin"+side] == "auto" {
			delete(plain, "margin"+side)
			if side == "left" {
				m.AutoLeft = true
			} else {
				m.AutoRight = true
			}
		}
	}
	e, err := plain.edges("margin")
	if err != nil {
		return m, err
	}
	m.Edges = e
	return m, nil
}

func expandSides(parts []string) [4]string {
	switch len(parts) {
	case 1:
		return [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		return [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		return [4]string{parts[0], parts[1], parts[2], parts[1]}
	}
	return [4]string{parts[0], parts[1], parts[2], parts[3]}
}

func lengths(v string) ([]dimen.Dots, error) {
	parts := strings.Fields(v)
	if len(parts) == 0 || len(parts) > 4 {
		return nil, fmt.Errorf("需要 1~4 个长度，得到 %q", v)
	}
	out := make([]dimen.Dots, 0, len(parts))
	for _, p := range parts {
		d, err := dimen.Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// style 解释文本样式属性。
func (a attrs) style(s *layout.StyleSpec) error {
	if v, ok := a["cpi"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cpi 的值 %q 无效", v)
		}
		s.CPI = n
	}
	if v, ok := a["typeface"]; ok {
		n, err := typeface(v)
		if err != nil {
			return err
		}
		s.Typeface = layout.IntPtr(n)
	}
	if v, ok := a["quality"]; ok {
		switch strings.ToLower(v) {
		case "draft":
			s.Quality = layout.QualityPtr(layout.QualityDraft)
		case "letter", "lq", "nlq":
			s.Quality = layout.QualityPtr(layout.QualityLetter)
		default:
			return fmt.Errorf("quality 的值 %q 无效", v)
		}
	}
	for key, dst := range map[string]*layout.Toggle{
		"bold": &s.Bold, "italic": &s.Italic, "underline": &s.Underline,
		"doublestrike": &s.DoubleStrike, "doublewidth": &s.DoubleWidth,
		"doubleheight": &s.DoubleHeight, "condensed": &s.Condensed,
	} {
		v, ok := a[key]
		if !ok {
			continue
		}
		t, err := parseToggle(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = t
	}
	if v, ok := a["charspacing"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("charSpacing 的值 %q 无效", v)
		}
		s.CharSpacing = layout.IntPtr(n)
	}
	if v, ok := a["linespacing"]; ok {
		d, err := dimen.Parse(v)
		if err != nil {
			return fmt.Errorf("lineSpacing: %w", err)
		}
		s.LineSpacing = d
	}
	return nil
}

func typeface(v string) (int, error) {
	switch strings.ToLower(v) {
	case "roman":
		return 0, nil
	case "sans", "sans-serif", "sansserif":
		return 1, nil
	case "courier":
		return 2, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("typeface 的值 %q 无效", v)
	}
	return n, nil
}

func isToggle(v string) bool {
	_, err := parseToggle(v)
	return err == nil
}

func parseToggle(v string) (layout.Toggle, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return layout.On, nil
	case "off", "false", "no", "0":
		return layout.Off, nil
	case "inherit":
		return layout.Inherit, nil
	}
	return layout.Inherit, fmt.Errorf("开关的值 %q 无效", v)
}

func (a attrs) dots(key string, def dimen.Dots) (dimen.Dots, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	d, err := dimen.Parse(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func (a attrs) align(key string) (layout.Align, error) {
	switch strings.ToLower(a[key]) {
	case "", "start", "left", "top":
		return layout.AlignStart, nil
	case "center", "middle":
		return layout.AlignCenter, nil
	case "end", "right", "bottom":
		return layout.AlignEnd, nil
	}
	return layout.AlignStart, fmt.Errorf("%s 的值 %q 无效", key, a[key])
}

func (a attrs) overflow() (layout.Overflow, error) {
	switch strings.ToLower(a["overflow"]) {
	case "", "auto":
		return layout.OverflowAuto, nil
	case "visible":
		return layout.OverflowVisible, nil
	case "clip", "hidden":
		return layout.OverflowClip, nil
	case "ellipsis":
		return layout.OverflowEllipsis, nil
	}
	return layout.OverflowAuto, fmt.Errorf("overflow 的值 %q 无效", a["overflow"])
}

func (a attrs) orientation(key string) (layout.Orientation, error) {
	switch strings.ToLower(a[key]) {
	case "", "horizontal":
		return layout.Horizontal, nil
	case "vertical":
		return layout.Vertical, nil
	}
	return layout.Horizontal, fmt.Errorf("%s 的值 %q 无效", key, a[key])
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Array != nil:
		return strings.Join(valueToStringSlice(val), " ")
	case val.Expr != nil:
		return val.Expr.Raw()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
