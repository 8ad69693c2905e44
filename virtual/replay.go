package virtual

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/fonts"
)

func tracer() tracing.Trace {
	return tracing.Select("dotpaper.virtual")
}

// tabStop 是默认的水平制表间隔（字符数）。
const tabStop = 8

// machine 是回放中的打印头状态。
type machine struct {
	metrics fonts.Metrics
	x, y    dimen.Dots
	style   Style
	pages   []*Page
}

func (m *machine) page() *Page { return m.pages[len(m.pages)-1] }

func (m *machine) advance() (dimen.Dots, error) {
	adv, ok := m.metrics.Advance(m.style.CPI, m.style.Condensed)
	if !ok {
		return 0, fmt.Errorf("缺少字宽数据: cpi %d condensed=%v", m.style.CPI, m.style.Condensed)
	}
	if m.style.DoubleWidth {
		adv *= 2
	}
	return adv + dimen.Dots(m.style.CharSpacing)*dimen.DotsPerCharSpacingUnit, nil
}

// Replay 按指令逐条移动虚拟打印头，返回打印出的页面。
// FF 开始新的一页；以 FF 结尾的流不会产生多余的空页。
func Replay(stream []byte, metrics fonts.Metrics) ([]*Page, error) {
	if metrics == nil {
		metrics = fonts.Default
	}
	m := &machine{metrics: metrics, style: defaultStyle(), pages: []*Page{newPage(1)}}
	d := escp.NewDecoder(stream)
	for {
		c, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("回放指令流失败: %w", err)
		}
		if err := m.exec(c, d.Table()); err != nil {
			return nil, fmt.Errorf("回放偏移 %d 处的指令失败: %w", c.Offset, err)
		}
	}
	if n := len(m.pages); n > 1 && m.pages[n-1].Empty() {
		m.pages = m.pages[:n-1]
	}
	tracer().Debugf("virtual: %d 页", len(m.pages))
	return m.pages, nil
}

func (m *machine) exec(c escp.Command, table escp.CharTable) error {
	on := c.Arg != 0
	switch c.Op {
	case escp.OpInit:
		m.style = defaultStyle()
		m.x = 0
	case escp.OpSelectTable:
	case escp.OpText:
		adv, err := m.advance()
		if err != nil {
			return err
		}
		for _, b := range c.Text {
			m.page().put(Glyph{X: m.x, Y: m.y, Rune: table.Decode(b), Advance: adv, Style: m.style})
			m.x += adv
		}
	case escp.OpHorizontal:
		m.x = dimen.FromHorizontalUnits(c.Arg)
	case escp.OpVertical:
		m.y += dimen.FromVerticalUnits(c.Arg)
	case escp.OpLineFeed:
		m.y += dimen.DefaultLineSpacing
		m.x = 0
	case escp.OpCarriageReturn:
		m.x = 0
	case escp.OpFormFeed:
		m.pages = append(m.pages, newPage(len(m.pages)+1))
		m.x, m.y = 0, 0
	case escp.OpTab:
		adv, err := m.advance()
		if err != nil {
			return err
		}
		step := adv * tabStop
		m.x = dimen.Dots(math.Floor(float64(m.x/step))+1) * step
	case escp.OpBold:
		m.style.Bold = on
	case escp.OpItalic:
		m.style.Italic = on
	case escp.OpUnderline:
		m.style.Underline = on
	case escp.OpDoubleStrike:
		m.style.DoubleStrike = on
	case escp.OpDoubleWidth:
		m.style.DoubleWidth = on
	case escp.OpDoubleHeight:
		m.style.DoubleHeight = on
	case escp.OpCondensed:
		m.style.Condensed = on
	case escp.OpPitch:
		m.style.CPI = c.Arg
	case escp.OpTypeface:
		m.style.Typeface = c.Arg
	case escp.OpQuality:
		m.style.Quality = c.Arg
	case escp.OpCharSpacing:
		m.style.CharSpacing = c.Arg
	default:
		return fmt.Errorf("无法回放的指令 %s", c.Op)
	}
	return nil
}
