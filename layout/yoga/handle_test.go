package yoga

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kjk/flex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/dotpaper/layout"
)

func TestHandleRetriesAfterFailure(t *testing.T) {
	var calls int32
	h := NewHandle(func() (*flex.Config, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("暂时不可用")
		}
		return DefaultConfig()
	})
	_, err := h.Config()
	require.Error(t, err)
	assert.True(t, errors.Is(err, layout.ErrBackend))

	first, err := h.Config()
	require.NoError(t, err)
	second, err := h.Config()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHandleInitializesOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	h := NewHandle(func() (*flex.Config, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return DefaultConfig()
	})
	var wg sync.WaitGroup
	configs := make([]*flex.Config, 16)
	for i := range configs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			configs[i], _ = h.Config()
		}(i)
	}
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, cfg := range configs {
		assert.Same(t, configs[0], cfg)
	}
}

func TestHandleRejectsNilConfig(t *testing.T) {
	h := NewHandle(func() (*flex.Config, error) { return nil, nil })
	_, err := h.Config()
	assert.Error(t, err)
}

func TestDefaultConfigKeepsFractions(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, float32(0), cfg.PointScaleFactor)
}
