package escprenderer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/fonts"
	"github.com/ByLCY/dotpaper/layout"
)

func txt(s string) *layout.Text { return &layout.Text{Content: s} }

func render(t *testing.T, root layout.Node, opts Options) []byte {
	t.Helper()
	box, err := layout.NewNative(layout.Options{}).Layout(root)
	require.NoError(t, err)
	data, err := NewRenderer(opts).Render(box)
	require.NoError(t, err)
	return data
}

func decode(t *testing.T, root layout.Node) []escp.Command {
	t.Helper()
	cmds, err := escp.Decode(render(t, root, Options{}))
	require.NoError(t, err)
	return cmds
}

func ops(cmds []escp.Command) []escp.Op {
	out := make([]escp.Op, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Op)
	}
	return out
}

func args(cmds []escp.Command) []int {
	out := make([]int, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Arg)
	}
	return out
}

func texts(cmds []escp.Command) []string {
	var out []string
	for _, c := range escp.Filter(cmds, escp.OpText) {
		out = append(out, string(c.Text))
	}
	return out
}

func TestStackGapAdvances(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dotpaper.escp")
	defer teardown()
	//
	cmds := decode(t, &layout.Stack{Gap: 30, Children: []layout.Node{txt("A"), txt("B"), txt("C")}})
	assert.Equal(t, []escp.Op{
		escp.OpInit,
		escp.OpText, escp.OpLineFeed, escp.OpVertical,
		escp.OpText, escp.OpLineFeed, escp.OpVertical,
		escp.OpText, escp.OpLineFeed,
	}, ops(cmds))
	v := escp.Filter(cmds, escp.OpVertical)
	require.Len(t, v, 2)
	for _, c := range v {
		if dimen.FromVerticalUnits(c.Arg) != 30 {
			t.Fatalf("纵向走纸应为 30 dots，实际 %d 个单位", c.Arg)
		}
	}
	assert.Zero(t, escp.Count(cmds, escp.OpHorizontal))
}

func TestLargeAdvanceIsChunked(t *testing.T) {
	cmds := decode(t, &layout.Stack{Gap: 600, Children: []layout.Node{txt("A"), txt("B")}})
	assert.Equal(t, 2, escp.Count(cmds, escp.OpLineFeed), "one LF ends the first line, one closes the stream")
	assert.Equal(t, []int{255, 45}, args(escp.Filter(cmds, escp.OpVertical)))
}

func TestGridQuantizedColumns(t *testing.T) {
	row := layout.GridRow{Cells: []layout.GridCell{{Content: txt("A")}, {Content: txt("B")}, {Content: txt("C")}}}
	cols := []layout.Size{layout.Fixed(100), layout.Fixed(100), layout.Fixed(100)}
	root := &layout.Grid{Columns: cols, Rows: []layout.GridRow{row}}
	for i := 0; i < 3; i++ {
		cmds := decode(t, root)
		assert.Equal(t, []string{"A", "B", "C"}, texts(cmds))
		h := args(escp.Filter(cmds, escp.OpHorizontal))
		assert.Equal(t, []int{17, 33}, h)
		var dots []dimen.Dots
		for _, u := range h {
			dots = append(dots, dimen.FromHorizontalUnits(u))
		}
		assert.Equal(t, []dimen.Dots{102, 198}, dots)
	}
}

func TestFixedWidthTextOffUnitGrid(t *testing.T) {
	b := txt("B")
	b.Width = layout.Fixed(36)
	root := &layout.Stack{Children: []layout.Node{b}}
	root.Padding.Left = 100
	cmds := decode(t, root)
	assert.Equal(t, []string{"B"}, texts(cmds))
	assert.Equal(t, []int{17}, args(escp.Filter(cmds, escp.OpHorizontal)))

	wide := txt("ABCDEFGHIJ")
	wide.Width = layout.Fixed(100)
	root = &layout.Stack{Children: []layout.Node{wide}}
	root.Padding.Left = 100
	cmds = decode(t, root)
	assert.Equal(t, []string{"AB"}, texts(cmds), "own width still truncates, counted from the box edge")
}

func TestGridCellsNeverBleed(t *testing.T) {
	row := layout.GridRow{Cells: []layout.GridCell{
		{Content: txt("ABCDEFGHIJ")}, {Content: txt("ABCDEFGHIJ")}, {Content: txt("ABCDEFGHIJ")},
	}}
	cols := []layout.Size{layout.Fixed(200), layout.Fixed(200), layout.Fixed(200)}
	cmds := decode(t, &layout.Grid{Columns: cols, Rows: []layout.GridRow{row}})

	var x dimen.Dots
	col := 0
	for _, c := range cmds {
		switch c.Op {
		case escp.OpHorizontal:
			x = dimen.FromHorizontalUnits(c.Arg)
		case escp.OpText:
			end := x + dimen.Dots(len(c.Text))*36
			if end > dimen.Dots((col+1)*200) {
				t.Fatalf("第 %d 列内容越界：起点 %v，终点 %v", col, x, end)
			}
			x = end
			col++
		}
	}
	assert.Equal(t, 3, col)
	assert.Equal(t, []string{"ABCDE", "ABCDE", "ABCDE"}, texts(cmds))
}

func TestEllipsisFitsColumn(t *testing.T) {
	row := layout.GridRow{Cells: []layout.GridCell{{Content: txt("ABCDEFGHIJ"), Overflow: layout.OverflowEllipsis}}}
	cmds := decode(t, &layout.Grid{Columns: []layout.Size{layout.Fixed(200)}, Rows: []layout.GridRow{row}})
	assert.Equal(t, []string{"AB..."}, texts(cmds))

	own := txt("ABCDEFGHIJ")
	own.Width = layout.Fixed(250)
	own.Overflow = layout.OverflowEllipsis
	cmds = decode(t, own)
	assert.Equal(t, []string{"ABC..."}, texts(cmds))

	visible := txt("ABCDEFGHIJ")
	visible.Width = layout.Fixed(100)
	visible.Overflow = layout.OverflowVisible
	cmds = decode(t, visible)
	assert.Equal(t, []string{"ABCDEFGHIJ"}, texts(cmds))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ABCDE", truncate("ABCDEFG", 200, 36, layout.OverflowClip, "..."))
	assert.Equal(t, "AB...", truncate("ABCDEFG", 200, 36, layout.OverflowEllipsis, "..."))
	assert.Equal(t, "..", truncate("ABCDEFG", 80, 36, layout.OverflowEllipsis, "..."))
	assert.Equal(t, "", truncate("ABCDEFG", 20, 36, layout.OverflowClip, "..."))
	assert.Equal(t, "ABC", truncate("ABC", 200, 36, layout.OverflowEllipsis, "..."))
}

func TestStyleTogglesOnlyOnChange(t *testing.T) {
	bold := func(s string) *layout.Text {
		n := txt(s)
		n.Style.Bold = layout.On
		return n
	}
	cmds := decode(t, &layout.Stack{Children: []layout.Node{bold("a"), bold("b"), txt("c")}})
	assert.Equal(t, []int{1, 0}, args(escp.Filter(cmds, escp.OpBold)))

	mixed := txt("x")
	mixed.Style = layout.StyleSpec{CPI: 12, Bold: layout.On, Underline: layout.On, Typeface: layout.IntPtr(1)}
	cmds = decode(t, mixed)
	var style []escp.Op
	for _, c := range cmds {
		if c.Op.IsStyle() {
			style = append(style, c.Op)
		}
	}
	assert.Equal(t, []escp.Op{escp.OpTypeface, escp.OpPitch, escp.OpBold, escp.OpUnderline}, style)
}

func TestRenderIsIdempotent(t *testing.T) {
	root := &layout.Stack{Gap: 12, Children: []layout.Node{
		&layout.Flex{Justify: layout.JustifySpaceBetween, Children: []layout.Node{txt("left"), txt("right")}},
		&layout.Line{Length: layout.Fill},
		txt("tail"),
	}}
	a := render(t, root, Options{})
	b := render(t, root, Options{})
	if !bytes.Equal(a, b) {
		t.Fatalf("两次输出不一致")
	}
}

func TestOverlayAbovePen(t *testing.T) {
	abs := txt("Z")
	abs.Position = layout.PositionAbsolute
	abs.Offsets = layout.Offsets{Left: layout.Fixed(360), Top: layout.Fixed(0)}
	cmds := decode(t, &layout.Stack{Children: []layout.Node{txt("A"), txt("B"), abs}})
	assert.Zero(t, escp.Count(cmds, escp.OpVertical), "paper never feeds backwards")
	assert.Equal(t, []string{"A", "B", "Z"}, texts(cmds))
	assert.Equal(t, []int{60}, args(escp.Filter(cmds, escp.OpHorizontal)))
}

func TestVerticalTextOneGlyphPerLine(t *testing.T) {
	cmds := decode(t, &layout.Text{Content: "AB", Orientation: layout.Vertical})
	assert.Equal(t, []escp.Op{escp.OpInit, escp.OpText, escp.OpLineFeed, escp.OpText, escp.OpLineFeed}, ops(cmds))
	assert.Equal(t, []string{"A", "B"}, texts(cmds))
}

func TestRelativeOffsetAppliedAtEmission(t *testing.T) {
	rel := txt("R")
	rel.Position = layout.PositionRelative
	rel.Offsets = layout.Offsets{Left: layout.Fixed(60)}
	cmds := decode(t, rel)
	assert.Equal(t, []int{10}, args(escp.Filter(cmds, escp.OpHorizontal)))
}

func TestLines(t *testing.T) {
	rule := &layout.Line{Char: '=', Length: layout.Fixed(360)}
	cmds := decode(t, rule)
	assert.Equal(t, []string{"=========="}, texts(cmds))

	post := &layout.Line{Direction: layout.Vertical, Char: '|', Length: layout.Fixed(180)}
	cmds = decode(t, post)
	assert.Equal(t, []string{"|", "|", "|"}, texts(cmds))
}

func TestOptions(t *testing.T) {
	data := render(t, txt("é"), Options{CharTable: escp.PC437, FormFeed: true})
	assert.Equal(t, []byte{0x1B, '@', 0x1B, 't', 1, 0x82, escp.LF, escp.FF}, data)

	data = render(t, txt("é"), Options{})
	assert.Equal(t, []byte{0x1B, '@', '?', escp.LF}, data)
}

func TestFailureReturnsNoBytes(t *testing.T) {
	data, err := NewRenderer(Options{}).Render(&layout.Box{Kind: layout.KindText, Text: "x"})
	assert.Nil(t, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, layout.ErrUnresolvedContent))
	var le *layout.Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, layout.PhaseEmission, le.Phase)

	box, err := layout.NewNative(layout.Options{}).Layout(&layout.Stack{Children: []layout.Node{txt("a"), txt("b")}})
	require.NoError(t, err)
	empty := &fonts.Table{Pitch: map[int]dimen.Dots{}}
	data, err = NewRenderer(Options{Metrics: empty}).Render(box)
	assert.Nil(t, data)
	assert.True(t, errors.Is(err, layout.ErrMissingMetrics))
}
