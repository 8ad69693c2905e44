package document

import (
	"fmt"
	"strings"

	"github.com/ByLCY/dotpaper/dsl"
)

// collectStyles 读取 resources 中的 style 声明并展开 extends 继承。
func collectStyles(ast *dsl.Document) (map[string]Style, error) {
	raw := map[string]Style{}
	for _, section := range ast.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			if stmt.Command.Name != "style" {
				return nil, fail(stmt.Command, fmt.Errorf("resources 中只支持 style"))
			}
			style, err := parseStyleResource(stmt.Command)
			if err != nil {
				return nil, err
			}
			if _, dup := raw[style.Name]; dup {
				return nil, fail(stmt.Command, fmt.Errorf("style %s 重复定义", style.Name))
			}
			raw[style.Name] = style
		}
	}
	return resolveStyles(raw)
}

// parseStyleResource 解析 style Name [extends Parent] { key: value }。
func parseStyleResource(cmd *dsl.Command) (Style, error) {
	if len(cmd.Args) == 0 || !cmd.Args[0].IsIdent() {
		return Style{}, fail(cmd, fmt.Errorf("style 缺少名称"))
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	switch {
	case len(cmd.Args) == 3 && strings.EqualFold(cmd.Args[1].Value, "extends"):
		style.Extends = cmd.Args[2].Value
	case len(cmd.Args) != 1:
		return Style{}, fail(cmd, fmt.Errorf("style 参数应为 Name [extends Parent]"))
	}
	a := attrs{}
	a.merge(cmd.Block)
	if err := a.allow(commonKeys...); err != nil {
		return Style{}, fail(cmd, err)
	}
	for k, v := range a {
		if v != "" {
			style.Props[k] = v
		}
	}
	return style, nil
}

// resolveStyles 展开继承链，子样式覆盖父样式的同名属性。
func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("%w: style %s 未定义", ErrDocument, name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("%w: style 继承存在循环：%s", ErrDocument, name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}
