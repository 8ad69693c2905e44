package yoga

import (
	"fmt"
	"sync"

	"github.com/kjk/flex"
	"golang.org/x/sync/singleflight"

	"github.com/ByLCY/dotpaper/layout"
)

// InitFunc 创建 yoga 配置。
type InitFunc func() (*flex.Config, error)

// Handle 持有一次初始化得到的 yoga 配置。并发的首次调用只执行一次 InitFunc；
// 初始化失败不会被缓存，下一次调用重新尝试。
type Handle struct {
	init  InitFunc
	group singleflight.Group

	mu     sync.Mutex
	config *flex.Config
}

// NewHandle 使用 init 创建 Handle；init 为 nil 时使用 DefaultConfig。
func NewHandle(init InitFunc) *Handle {
	if init == nil {
		init = DefaultConfig
	}
	return &Handle{init: init}
}

// DefaultConfig 返回关闭像素取整的配置：坐标保持小数点（dots），
// 量化只在输出指令时进行。
func DefaultConfig() (*flex.Config, error) {
	cfg := flex.NewConfig()
	cfg.SetPointScaleFactor(0)
	return cfg, nil
}

// Config 返回已初始化的配置，需要时执行初始化。
func (h *Handle) Config() (*flex.Config, error) {
	if cfg := h.cached(); cfg != nil {
		return cfg, nil
	}
	v, err, shared := h.group.Do("config", func() (interface{}, error) {
		if cfg := h.cached(); cfg != nil {
			return cfg, nil
		}
		cfg, err := h.init()
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			return nil, fmt.Errorf("初始化返回了空配置")
		}
		h.mu.Lock()
		h.config = cfg
		h.mu.Unlock()
		tracer().Infof("yoga: 配置已初始化")
		return cfg, nil
	})
	if err != nil {
		tracer().Errorf("yoga: 初始化失败（shared=%v）: %v", shared, err)
		return nil, fmt.Errorf("%w: yoga 初始化失败: %v", layout.ErrBackend, err)
	}
	return v.(*flex.Config), nil
}

func (h *Handle) cached() *flex.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}
