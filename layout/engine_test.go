package layout

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/dotpaper/dimen"
)

func txt(s string) *Text { return &Text{Content: s} }

func sized(s string, w, h dimen.Dots) *Text {
	t := txt(s)
	if w > 0 {
		t.Width = Fixed(w)
	}
	if h > 0 {
		t.Height = Fixed(h)
	}
	return t
}

func layoutTree(t *testing.T, root Node) *Box {
	t.Helper()
	box, err := NewNative(Options{}).Layout(root)
	require.NoError(t, err)
	return box
}

func TestTextWidthPerPitch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dotpaper.layout")
	defer teardown()
	//
	e := NewNative(Options{})
	cases := []struct {
		spec StyleSpec
		want dimen.Dots
	}{
		{StyleSpec{}, 5 * 36},
		{StyleSpec{CPI: 12}, 5 * 30},
		{StyleSpec{CPI: 15}, 5 * 24},
		{StyleSpec{DoubleWidth: On}, 5 * 72},
		{StyleSpec{CharSpacing: IntPtr(2)}, 5 * (36 + 6)},
		{StyleSpec{Condensed: On}, 5 * 21},
	}
	for _, c := range cases {
		node := txt("ABCDE")
		node.Style = c.spec
		w, h, err := e.Measure(node, Constraint{})
		require.NoError(t, err)
		assert.Equal(t, c.want, w, "spec %+v", c.spec)
		assert.Equal(t, dimen.Dots(60), h)
	}
	tall := txt("AB")
	tall.Style.DoubleHeight = On
	_, h, err := e.Measure(tall, Constraint{})
	require.NoError(t, err)
	assert.Equal(t, dimen.Dots(120), h)
}

func TestVerticalTextUsesCharacterCell(t *testing.T) {
	node := &Text{Content: "ABCD", Orientation: Vertical}
	w, h, err := NewNative(Options{}).Measure(node, Constraint{})
	require.NoError(t, err)
	assert.Equal(t, dimen.Dots(36), w, "cross size must be one glyph cell, not the line spacing")
	assert.Equal(t, dimen.Dots(4*60), h)
}

func TestMeasureModes(t *testing.T) {
	e := NewNative(Options{})
	node := txt("ABCDEFGHIJ") // 360 natural
	w, _, _ := e.Measure(node, Constraint{Width: 200, WidthMode: Exactly})
	assert.Equal(t, dimen.Dots(200), w)
	w, _, _ = e.Measure(node, Constraint{Width: 200, WidthMode: AtMost})
	assert.Equal(t, dimen.Dots(200), w)
	w, _, _ = e.Measure(node, Constraint{Width: 1000, WidthMode: AtMost})
	assert.Equal(t, dimen.Dots(360), w)
	w, _, _ = e.Measure(node, Constraint{})
	assert.Equal(t, dimen.Dots(360), w)
}

func TestStackGapExtent(t *testing.T) {
	root := &Stack{Gap: 30, Children: []Node{txt("A"), txt("B"), txt("C")}}
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(3*60+2*30), box.Height)
	ys := []dimen.Dots{}
	for _, c := range box.Children {
		ys = append(ys, c.Y)
	}
	assert.Equal(t, []dimen.Dots{0, 90, 180}, ys)

	single := layoutTree(t, &Stack{Gap: 500, Children: []Node{txt("A")}})
	assert.Equal(t, dimen.Dots(60), single.Height, "a single child ignores the gap")
}

func TestStackRowVAlignCenter(t *testing.T) {
	root := &Stack{
		Direction: Row,
		VAlign:    AlignCenter,
		Children:  []Node{sized("a", 0, 30), sized("b", 0, 90), sized("c", 0, 30)},
	}
	box := layoutTree(t, root)
	require.Len(t, box.Children, 3)
	assert.Equal(t, dimen.Dots(90), box.Height)
	var ys []dimen.Dots
	for _, c := range box.Children {
		ys = append(ys, c.Y)
	}
	assert.Equal(t, []dimen.Dots{30, 0, 30}, ys)
	assert.Equal(t, dimen.Dots(36), box.Children[1].X)
}

func TestStackCrossAlignRelativeToWidestChild(t *testing.T) {
	root := &Stack{Align: AlignEnd, Children: []Node{txt("ABCDE"), txt("AB")}}
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(180), box.Width)
	assert.Equal(t, dimen.Dots(180-72), box.Children[1].X)
}

func TestAutoMarginCenters(t *testing.T) {
	child := txt("ABCDE")
	child.Margin = Margin{AutoLeft: true, AutoRight: true}
	root := &Stack{Children: []Node{child}}
	root.Width = Fixed(1000)
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots((1000-180)/2), box.Children[0].X)
}

func TestPaddingAndMarginCompose(t *testing.T) {
	a := txt("A")
	a.Margin.Edges = Edges{Top: 10, Left: 20}
	root := &Stack{Children: []Node{a, txt("B")}}
	root.Padding = Uniform(5)
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(25), box.Children[0].X)
	assert.Equal(t, dimen.Dots(15), box.Children[0].Y)
	assert.Equal(t, dimen.Dots(5), box.Children[1].X)
	assert.Equal(t, dimen.Dots(75), box.Children[1].Y)
	assert.Equal(t, dimen.Dots(5+10+60+60+5), box.Height)
}

func TestFlexSpaceBetween(t *testing.T) {
	root := &Flex{
		Justify:  JustifySpaceBetween,
		Children: []Node{sized("A", 600, 0), sized("B", 600, 0), sized("C", 600, 0)},
	}
	root.Width = Fixed(2000)
	box := layoutTree(t, root)
	var xs []dimen.Dots
	for _, c := range box.Children {
		xs = append(xs, c.X)
	}
	assert.Equal(t, []dimen.Dots{0, 700, 1400}, xs)
}

func TestFlexJustifySingleChild(t *testing.T) {
	for _, c := range []struct {
		j    Justify
		want dimen.Dots
	}{
		{JustifySpaceBetween, 0},
		{JustifySpaceAround, 400},
		{JustifySpaceEvenly, 400},
		{JustifyCenter, 400},
		{JustifyEnd, 800},
	} {
		root := &Flex{Justify: c.j, Children: []Node{sized("A", 200, 0)}}
		root.Width = Fixed(1000)
		box := layoutTree(t, root)
		assert.Equal(t, c.want, box.Children[0].X, "justify %d", c.j)
	}
}

func TestFlexWrap(t *testing.T) {
	root := &Flex{Wrap: true, Gap: 20, RowGap: 10, Children: []Node{txt("ABCDE"), txt("ABCDE"), txt("ABCDE")}}
	root.Width = Fixed(500)
	box := layoutTree(t, root)
	require.Len(t, box.Children, 3)
	assert.Equal(t, dimen.Dots(0), box.Children[1].Y)
	assert.Equal(t, dimen.Dots(200), box.Children[1].X)
	assert.Equal(t, dimen.Dots(0), box.Children[2].X)
	assert.Equal(t, dimen.Dots(60+10), box.Children[2].Y)
	assert.Equal(t, dimen.Dots(60+10+60), box.Height)

	fits := &Flex{Wrap: true, Gap: 20, Children: []Node{txt("ABCDE"), txt("ABCDE")}}
	fits.Width = Fixed(380)
	box = layoutTree(t, fits)
	assert.Equal(t, dimen.Dots(0), box.Children[1].Y, "Σwidths + gaps ≤ width stays on one row")
}

func TestFlexNoWrapOverflows(t *testing.T) {
	root := &Flex{Children: []Node{sized("A", 300, 0), sized("B", 300, 0)}}
	root.Width = Fixed(400)
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(300), box.Children[1].X)
	assert.Equal(t, dimen.Dots(400), box.Width)
}

func TestFlexFillAndStretch(t *testing.T) {
	fill := txt("x")
	fill.Width = Fill
	root := &Flex{AlignItems: ItemsStretch, Children: []Node{sized("A", 100, 0), fill, sized("C", 100, 120)}}
	root.Width = Fixed(1000)
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(800), box.Children[1].Width)
	assert.Equal(t, dimen.Dots(900), box.Children[2].X)
	assert.Equal(t, dimen.Dots(120), box.Children[0].Height, "auto height stretches to the row")
}

func TestGridFixedColumnsNoBleed(t *testing.T) {
	row := GridRow{Cells: []GridCell{
		{Content: txt("ABCDEFGHIJ")}, {Content: txt("ABCDEFGHIJ")}, {Content: txt("ABCDEFGHIJ")},
	}}
	root := &Grid{Columns: []Size{Fixed(200), Fixed(200), Fixed(200)}, Rows: []GridRow{row}}
	box := layoutTree(t, root)
	require.Len(t, box.Children, 3)
	for i, c := range box.Children {
		assert.Equal(t, dimen.Dots(i*200), c.X)
		assert.Equal(t, dimen.Dots(200), c.Width)
		assert.True(t, c.WidthConstrained)
		assert.True(t, c.Clip)
		assert.Equal(t, dimen.Dots((i+1)*200), c.X+c.ClipWidth)
		assert.Equal(t, OverflowClip, c.ClipMode)
	}
}

func TestGridPercentColumns(t *testing.T) {
	widths := ResolveColumns([]Size{Percent(25), Percent(50), Percent(25)}, 3060, true, 0, nil)
	assert.Equal(t, []dimen.Dots{765, 1530, 765}, widths)
	assert.Equal(t, dimen.Dots(3060), widths[0]+widths[1]+widths[2])
	assert.Equal(t, []dimen.Dots{0, 765, 2295}, ColumnOffsets(widths, 0))

	over := ResolveColumns([]Size{Percent(80), Percent(40)}, 1000, true, 0, nil)
	assert.Equal(t, []dimen.Dots{800, 400}, over, "sums above 100% are honored literally")
}

func TestGridAutoAndFillColumns(t *testing.T) {
	rows := []GridRow{
		{Cells: []GridCell{{Content: txt("AB")}, {Content: txt("X")}, {Content: txt("Y")}}},
		{Cells: []GridCell{{Content: txt("ABCD")}, {Content: txt("X")}}},
	}
	root := &Grid{Columns: []Size{Auto, Fill, Fixed(100)}, ColumnGap: 10, RowGap: 6, Rows: rows}
	root.Width = Fixed(1000)
	box := layoutTree(t, root)
	// auto = 144, fill = 1000 − 144 − 100 − 2·10 = 736
	assert.Equal(t, dimen.Dots(154), box.Children[1].X)
	assert.Equal(t, dimen.Dots(154+736+10), box.Children[2].X)
	assert.Equal(t, dimen.Dots(66), box.Children[3].Y)
	assert.Equal(t, dimen.Dots(60+6+60), box.Height)
}

func TestGridCellAlignment(t *testing.T) {
	rows := []GridRow{{
		Height: 120,
		Cells: []GridCell{
			{Content: txt("AB"), Align: AlignEnd, VAlign: AlignCenter},
			{Content: txt("AB"), Overflow: OverflowVisible},
		},
	}}
	root := &Grid{Columns: []Size{Fixed(200), Fixed(200)}, Rows: rows}
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(200-72), box.Children[0].X)
	assert.Equal(t, dimen.Dots(30), box.Children[0].Y)
	assert.Equal(t, dimen.Dots(0), box.Children[1].Y, "default top alignment")
	assert.False(t, box.Children[1].Clip)
	assert.Equal(t, dimen.Dots(120), box.Height)
}

func TestGridRejectsExtraCells(t *testing.T) {
	root := &Grid{Columns: []Size{Fixed(100)}, Rows: []GridRow{{Cells: []GridCell{{Content: txt("a")}, {Content: txt("b")}}}}}
	_, err := NewNative(Options{}).Layout(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSpec))
}

func TestAbsolutePositioning(t *testing.T) {
	abs := txt("ABS")
	abs.Position = PositionAbsolute
	abs.Offsets = Offsets{Left: Fixed(100), Top: Fixed(200)}
	root := &Stack{Children: []Node{txt("first"), abs, txt("second")}}
	root.Position = PositionRelative
	root.Padding = Uniform(10)
	box := layoutTree(t, root)
	require.Len(t, box.Children, 3)
	assert.Equal(t, dimen.Dots(110), box.Children[1].X)
	assert.Equal(t, dimen.Dots(210), box.Children[1].Y)
	assert.Equal(t, dimen.Dots(70), box.Children[2].Y, "flow siblings ignore the absolute node")
	assert.Equal(t, dimen.Dots(10+120+10), box.Height)
}

func TestAbsoluteRightBottom(t *testing.T) {
	abs := txt("AB")
	abs.Position = PositionAbsolute
	abs.Offsets = Offsets{Right: Fixed(0), Bottom: Fixed(0)}
	root := &Stack{Children: []Node{abs}}
	root.Position = PositionRelative
	root.Width = Fixed(1000)
	root.Height = Fixed(600)
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(1000-72), box.Children[0].X)
	assert.Equal(t, dimen.Dots(600-60), box.Children[0].Y)
}

func TestRelativeOffsetIsDeferred(t *testing.T) {
	rel := txt("REL")
	rel.Position = PositionRelative
	rel.Offsets = Offsets{Left: Fixed(12), Top: Fixed(-30)}
	root := &Stack{Children: []Node{rel, txt("next")}}
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(0), box.Children[0].X)
	assert.Equal(t, dimen.Point{X: 12, Y: -30}, box.Children[0].RelativeOffset)
	assert.Equal(t, dimen.Dots(60), box.Children[1].Y)
}

func TestNegativeSizesClamp(t *testing.T) {
	node := txt("abc")
	node.Width = Fixed(-50)
	w, _, err := NewNative(Options{}).Measure(node, Constraint{})
	require.NoError(t, err)
	assert.Equal(t, dimen.Dots(0), w)
}

func TestDynamicNodeRejected(t *testing.T) {
	root := &Stack{Children: []Node{txt("a"), &Conditional{Cond: "data.paid"}}}
	_, err := NewNative(Options{}).Layout(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedNode))
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, PhaseLayout, le.Phase)
	assert.Equal(t, KindConditional, le.Kind)
	assert.Contains(t, err.Error(), "conditional")

	_, _, err = NewNative(Options{}).Measure(&Each{Path: "items"}, Constraint{})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, PhaseMeasurement, le.Phase)
}

func TestInvalidStyleFailsInStylePhase(t *testing.T) {
	node := txt("a")
	node.Style.CPI = 17
	_, err := NewNative(Options{}).Layout(node)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, PhaseStyle, le.Phase)
	assert.True(t, errors.Is(err, ErrInvalidSpec))
}

func TestStyleInheritance(t *testing.T) {
	inner := txt("b")
	inner.Style.Bold = Off
	inner.Style.CPI = 12
	root := &Stack{Children: []Node{txt("a"), inner}}
	root.Style.Bold = On
	root.Style.Underline = On
	box := layoutTree(t, root)
	assert.True(t, box.Children[0].Style.Bold)
	assert.True(t, box.Children[0].Style.Underline)
	assert.False(t, box.Children[1].Style.Bold)
	assert.True(t, box.Children[1].Style.Underline)
	assert.Equal(t, 12, box.Children[1].Style.CPI)
	assert.Equal(t, 10, box.Children[0].Style.CPI)
}

func TestFillInRowStack(t *testing.T) {
	line := &Line{Char: '.', Length: Fill}
	line.Width = Fill
	root := &Stack{Direction: Row, Children: []Node{txt("Item"), line, txt("9.99")}}
	root.Width = Fixed(720)
	box := layoutTree(t, root)
	assert.Equal(t, dimen.Dots(720-144-144), box.Children[1].Width)
	assert.Equal(t, dimen.Dots(720-144), box.Children[2].X)
}

func TestLayoutIsIdempotent(t *testing.T) {
	root := &Stack{Gap: 12, Children: []Node{
		&Flex{Wrap: true, Children: []Node{txt("one"), txt("two")}},
		&Grid{Columns: []Size{Percent(50), Fill}, Rows: []GridRow{{Cells: []GridCell{{Content: txt("L")}, {Content: txt("R")}}}}},
	}}
	e := NewNative(Options{PageWidth: 1000})
	a, err := e.Layout(root)
	require.NoError(t, err)
	b, err := e.Layout(root)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, dimen.Dots(1000), a.Children[0].Width, "auto-width flex takes the available width")
}
