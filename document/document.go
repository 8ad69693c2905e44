// Package document 把 dsl 的 AST 解释为布局树：页面参数、具名样式、page-set 片段
// 以及包含动态节点（with/if/switch/each）的 layout.Node 树。
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/dsl"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/layout"
)

// tracer traces with key 'dotpaper.document'.
func tracer() tracing.Trace {
	return tracing.Select("dotpaper.document")
}

// ErrDocument 是文档结构错误（未知命令、缺少 page、非法参数）的根因。
var ErrDocument = errors.New("无效的文档")

// Document 是解释后的文档。Root 可能包含动态节点，需要先经 binding.Resolve 展开。
type Document struct {
	Name    string
	Version string
	Meta    Meta
	Page    Page
	Styles  map[string]Style
	Root    layout.Node
}

// Meta 是 meta 段中的元数据。
type Meta struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Keywords []string
}

// Page 描述 page 头部的纸张参数，长度单位为 dots。
type Page struct {
	Name string
	// Width 为 0 时使用 layout.DefaultPageWidth。
	Width dimen.Dots
	// Height 为 0 表示连续纸。
	Height    dimen.Dots
	Margin    layout.Edges
	CharTable escp.CharTable
	FormFeed  bool
}

// Style 是 resources 中声明的具名样式，Props 为展平继承后的属性。
type Style struct {
	Name    string
	Extends string
	Props   map[string]string
}

// Parse 读取 DSL 文本并解释为文档。
func Parse(r io.Reader) (*Document, error) {
	ast, err := dsl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}
	return Build(ast)
}

// ParseString 与 Parse 相同，输入为字符串。
func ParseString(input string) (*Document, error) {
	ast, err := dsl.ParseString(input)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}
	return Build(ast)
}

// Build 解释 AST。文档必须恰好包含一个 page 段。
func Build(ast *dsl.Document) (*Document, error) {
	if ast == nil {
		return nil, fmt.Errorf("%w: 文档为空", ErrDocument)
	}
	styles, err := collectStyles(ast)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Name:    ast.Name,
		Version: ast.Version,
		Meta:    collectMeta(ast),
		Styles:  styles,
	}
	b := &builder{styles: styles, sets: map[string]*dsl.Block{}}
	var page *dsl.PageSection
	for _, section := range ast.Sections {
		switch {
		case section.PageSet != nil:
			if _, dup := b.sets[section.PageSet.Name]; dup {
				return nil, fmt.Errorf("%w: page-set %s 重复定义", ErrDocument, section.PageSet.Name)
			}
			b.sets[section.PageSet.Name] = section.PageSet.Block
		case section.Page != nil:
			if page != nil {
				return nil, fmt.Errorf("%w: 只允许一个 page 段", ErrDocument)
			}
			page = section.Page
		}
	}
	if page == nil {
		return nil, fmt.Errorf("%w: 文档中缺少 page 段落", ErrDocument)
	}
	if doc.Page, err = parsePage(page.Spec); err != nil {
		return nil, err
	}
	children, err := b.block(page.Block)
	if err != nil {
		return nil, err
	}
	doc.Root = &layout.Stack{
		Common: layout.Common{
			ID:      "page@" + page.Spec.Name,
			Width:   layout.Fill,
			Padding: doc.Page.Margin,
		},
		Children: children,
	}
	tracer().Debugf("document: %s %s，页面 %s 宽 %g dots，%d 个顶层节点",
		doc.Name, doc.Version, doc.Page.Name, float64(doc.Page.Width), len(children))
	return doc, nil
}

// LayoutOptions 返回页面对应的布局配置。
func (d *Document) LayoutOptions() layout.Options {
	return layout.Options{PageWidth: d.Page.Width, PageHeight: d.Page.Height}
}

func collectMeta(ast *dsl.Document) Meta {
	meta := Meta{Creator: "dotpaper"}
	for _, section := range ast.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "subject":
				meta.Subject = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

// parsePage 解释 page 头部：width/height 长度、margin 1~4 个值、table 字符表、formfeed 开关。
func parsePage(spec dsl.PageSpec) (Page, error) {
	page := Page{Name: spec.Name}
	params := spec.Params
	for i := 0; i < len(params); i++ {
		key := params[i].Value
		if key == "formfeed" && (i+1 >= len(params) || !isToggle(params[i+1].Value)) {
			page.FormFeed = true
			continue
		}
		if i+1 >= len(params) {
			return page, fmt.Errorf("%w: page 参数 %s 缺少取值", ErrDocument, key)
		}
		switch key {
		case "width", "height":
			d, err := dimen.Parse(params[i+1].Value)
			if err != nil || d < 0 {
				return page, fmt.Errorf("%w: page %s %q", ErrDocument, key, params[i+1].Value)
			}
			if key == "width" {
				page.Width = d
			} else {
				page.Height = d
			}
			i++
		case "margin":
			var vals []dimen.Dots
			for j := i + 1; j < len(params) && len(vals) < 4; j++ {
				d, err := dimen.Parse(params[j].Value)
				if err != nil {
					break
				}
				vals = append(vals, d)
			}
			if len(vals) == 0 {
				return page, fmt.Errorf("%w: page margin 缺少长度", ErrDocument)
			}
			page.Margin = edgesOf(vals)
			i += len(vals)
		case "table":
			t, err := escp.ParseCharTable(params[i+1].Value)
			if err != nil {
				return page, fmt.Errorf("%w: %v", ErrDocument, err)
			}
			page.CharTable = t
			i++
		case "formfeed":
			on, _ := parseToggle(params[i+1].Value)
			page.FormFeed = on == layout.On
			i++
		default:
			return page, fmt.Errorf("%w: 未知的 page 参数 %s", ErrDocument, key)
		}
	}
	return page, nil
}

// edgesOf 按 CSS 的简写规则展开 1~4 个值：
// 1 个值四边相同；2 个值为上下、左右；3 个值为上、左右、下；4 个值为上右下左。
func edgesOf(vals []dimen.Dots) layout.Edges {
	switch len(vals) {
	case 1:
		return layout.Uniform(vals[0])
	case 2:
		return layout.Edges{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
	case 3:
		return layout.Edges{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
	case 4:
		return layout.Edges{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
	}
	return layout.Edges{}
}
