package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
)

// 预览使用的内置等宽字体（Go Mono），名称形如 "builtin:mono-bold"。
var previewFaces = map[string][]byte{
	"mono":             gomono.TTF,
	"mono-bold":        gomonobold.TTF,
	"mono-italic":      gomonoitalic.TTF,
	"mono-bold-italic": gomonobolditalic.TTF,
}

// Load 返回内置预览字体的字节数据，name 可写为 "builtin:mono" 或直接 "mono"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "builtin:"))
	data, ok := previewFaces[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未定义", name)
	}
	return data, nil
}

// PreviewName 根据粗体/斜体组合返回内置字体名称。
func PreviewName(bold, italic bool) string {
	switch {
	case bold && italic:
		return "mono-bold-italic"
	case bold:
		return "mono-bold"
	case italic:
		return "mono-italic"
	default:
		return "mono"
	}
}
