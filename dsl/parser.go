// Package dsl 定义 dotpaper 文档的文本格式：participle 语法与词法规则，输出未解释的 AST。
// 命令名与参数的含义由 document 包解释。
package dsl

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var grammar = participle.MustBuild[Document](
	participle.Lexer(rules),
	participle.Elide(elided...),
)

// Parse 从 r 读取并解析一个文档。
func Parse(r io.Reader) (*Document, error) {
	return grammar.Parse("", r)
}

// ParseString 解析字符串形式的文档。
func ParseString(input string) (*Document, error) {
	return grammar.ParseString("", input)
}

// Document is the root of a dotpaper file:
//
//	doc <name> <version> { sections... }
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是一个顶层段落，四个字段中恰有一个非空。
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	PageSet   *PageSetSection   `parser:"| @@"`
	Page      *PageSection      `parser:"| @@"`
}

// Kind 返回段落关键字。
func (s *Section) Kind() string {
	if s != nil {
		if s.Meta != nil {
			return "meta"
		}
		if s.Resources != nil {
			return "resources"
		}
		if s.PageSet != nil {
			return "page-set"
		}
		if s.Page != nil {
			return "page"
		}
	}
	return "unknown"
}

// MetaSection 是文档元数据（key: value）。
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// ResourcesSection 声明具名样式等资源。
type ResourcesSection struct {
	Block *Block `parser:"'resources' @@"`
}

// PageSetSection 定义可以用 use 插入的具名片段。
type PageSetSection struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"'page-set' @Ident"`
	Block *Block         `parser:"@@"`
}

// PageSection 是要打印的内容，头部参数描述纸张（宽度、字符表、走纸）。
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@"`
}

// PageSpec 保存 page 关键字后的名称与参数。
type PageSpec struct {
	Name   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

// Block 是花括号内以换行或分号分隔的语句。
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 依次尝试赋值、命令与裸字符串。
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment 是块内的 key: value。
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command 是一个节点或控制结构：名称、参数与可选的子块。
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// Location 返回命令在源文件中的位置，用作节点 ID。
func (c *Command) Location() string {
	return fmt.Sprintf("%s@%d:%d", c.Name, c.Pos.Line, c.Pos.Column)
}

// TextLiteral 是块内的裸字符串，text 节点从中取得内容。
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value 是赋值右侧的值；不是字符串、数字、数组或对象时保留为原始表达式。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue 是 [ ... ]，例如 grid 的列定义。
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject 是 { key: value }，例如按边设置的 margin。
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}
