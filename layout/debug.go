package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss/tree"
)

// MarshalDebugJSON 将盒子树编码为缩进 JSON。
func MarshalDebugJSON(root *Box) ([]byte, error) {
	return json.MarshalIndent(root, "", "  ")
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(root *Box, path string) error {
	if root == nil {
		return nil
	}
	data, err := MarshalDebugJSON(root)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DebugTree 把盒子树画成终端树形图，每行是一个盒子的类型、位置与尺寸。
func DebugTree(root *Box) string {
	if root == nil {
		return ""
	}
	return debugNode(root).String()
}

func debugNode(b *Box) *tree.Tree {
	t := tree.Root(boxLabel(b))
	for _, c := range b.Children {
		if len(c.Children) == 0 {
			t.Child(boxLabel(c))
			continue
		}
		t.Child(debugNode(c))
	}
	return t
}

func boxLabel(b *Box) string {
	label := fmt.Sprintf("%s (%g,%g) %gx%g", b.Kind, float64(b.X), float64(b.Y), float64(b.Width), float64(b.Height))
	if b.Text != "" {
		label += fmt.Sprintf(" %q", b.Text)
	}
	if b.Clip {
		label += fmt.Sprintf(" clip@%g", float64(b.X+b.ClipWidth))
	}
	if !b.RelativeOffset.IsZero() {
		label += fmt.Sprintf(" rel(%g,%g)", float64(b.RelativeOffset.X), float64(b.RelativeOffset.Y))
	}
	return label
}
