package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 词法规则。注释与空白在语法层面被忽略，换行保留为语句分隔符。
var rules = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Newline", Pattern: `\n+`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "HashComment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:dots|dt|pt|mm|cm|in|%)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
})

var elided = []string{"Whitespace", "LineComment", "BlockComment", "HashComment"}

// kinds 把词法器的记号类型映射回规则名。
var kinds = func() map[lexer.TokenType]string {
	out := map[lexer.TokenType]string{}
	for name, tt := range rules.Symbols() {
		out[tt] = name
	}
	return out
}()

func kindOf(tok *lexer.Token) string {
	if name, ok := kinds[tok.Type]; ok {
		return name
	}
	return fmt.Sprintf("#%d", tok.Type)
}

// Lexeme is one raw token kept for later interpretation: command arguments,
// page parameters and unparsed expressions are all sequences of lexemes.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse 读取一个参数记号；遇到换行、花括号或分号时停止，交还给外层语法。
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	var n nesting
	if n.stops(lex.Peek(), false) {
		return participle.NextMatch
	}
	next, err := take(lex)
	if err != nil {
		return err
	}
	*l = next
	return nil
}

// IsString 报告记号是否为字符串字面量。
func (l *Lexeme) IsString() bool { return l != nil && l.Type == "String" }

// IsIdent 报告记号是否为标识符。
func (l *Lexeme) IsIdent() bool { return l != nil && l.Type == "Ident" }

// JoinRaw 按源文本还原一串记号：符号两侧不加空格，其余记号之间用一个空格，
// 例如 data . items [ 0 ] 还原为 data.items[0]，status == "paid" 保持原样。
func JoinRaw(parts []*Lexeme) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 && p.Type != "Symbol" && parts[i-1].Type != "Symbol" {
			b.WriteByte(' ')
		}
		b.WriteString(p.Raw)
	}
	return b.String()
}

// Expression 是赋值右侧无法归入其他值类型的原始记号序列。
type Expression struct {
	Parts []*Lexeme
}

// Parse 吞入记号直到顶层的分隔符；圆括号与方括号内的逗号和换行不算分隔。
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var n nesting
	var parts []*Lexeme
	for !n.stops(lex.Peek(), true) {
		next, err := take(lex)
		if err != nil {
			return err
		}
		n.track(next.Raw)
		parts = append(parts, &next)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

// Raw 返回表达式的源文本。
func (e *Expression) Raw() string {
	if e == nil {
		return ""
	}
	return JoinRaw(e.Parts)
}

// nesting 记录表达式内的括号深度。
type nesting struct {
	paren, bracket int
}

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

// stops 判断 tok 是否结束当前的参数或表达式。expr 为 true 时逗号与
// 不成对的 ] 也作为结束符，以便表达式出现在数组中。
func (n *nesting) stops(tok *lexer.Token, expr bool) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	top := n.paren == 0 && n.bracket == 0
	switch kindOf(tok) {
	case "Newline", "LBrace", "RBrace":
		return top
	case "Symbol":
		switch tok.Value {
		case ";":
			return top
		case ",":
			return expr && top
		case "]":
			return expr && n.bracket == 0
		}
	}
	return false
}

// take 消费下一个记号；字符串记号的 Value 是去掉引号后的内容。
func take(lex *lexer.PeekingLexer) (Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return Lexeme{}, participle.NextMatch
	}
	out := Lexeme{Type: kindOf(tok), Value: tok.Value, Raw: tok.Value, Pos: tok.Pos}
	if out.Type == "String" {
		v, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, fmt.Errorf("%s: 非法的字符串字面量 %s: %w", tok.Pos, tok.Value, err)
		}
		out.Value = v
	}
	return out, nil
}

// StringLiteral 在捕获时去掉引号并处理转义。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串字面量缺少内容")
	}
	v, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(v)
	return nil
}
