package layout

import (
	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/fonts"
)

// DefaultPageWidth 为 8 英寸连续纸的可打印宽度。
const DefaultPageWidth = 8 * dimen.IN

// Options 配置布局阶段所需的依赖，例如字宽表与纸张尺寸。
type Options struct {
	Metrics fonts.Metrics
	// PageWidth 为 0 时使用 DefaultPageWidth。
	PageWidth dimen.Dots
	// PageHeight 为 0 表示连续纸，高度不确定。
	PageHeight dimen.Dots
}

func (o Options) withDefaults() Options {
	if o.Metrics == nil {
		o.Metrics = fonts.Default
	}
	if o.PageWidth <= 0 {
		o.PageWidth = DefaultPageWidth
	}
	if o.PageHeight < 0 {
		o.PageHeight = 0
	}
	return o
}

// Page 返回纸张矩形；连续纸的高度为 0。
func (o Options) Page() dimen.Rect {
	o = o.withDefaults()
	return dimen.Rect{Width: o.PageWidth, Height: o.PageHeight}
}
