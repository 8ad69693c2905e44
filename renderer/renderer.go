package renderer

import "github.com/ByLCY/dotpaper/layout"

// Renderer 将布局结果输出为最终数据，例如打印机指令流、PDF 或图像。
// Render 只在成功时返回完整数据，失败时返回 nil 与错误。
type Renderer interface {
	Render(root *layout.Box) ([]byte, error)
}

// Func 把普通函数适配为 Renderer。
type Func func(root *layout.Box) ([]byte, error)

func (f Func) Render(root *layout.Box) ([]byte, error) { return f(root) }
