package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/dotpaper/dimen"
	"github.com/ByLCY/dotpaper/escp"
	"github.com/ByLCY/dotpaper/layout"
)

const receipt = `
doc Receipt v2 {
  meta {
    title: "Daily receipt"
    keywords: ["pos", "daily"]
  }
  resources {
    style Body { cpi: 12 }
    style Heading extends Body {
      bold: on
      doubleWidth: on
    }
  }
  page-set Footer {
    line char "-"
    text margin 0 auto { "Thank you" }
  }
  page receipt width 8in margin 36 72 table pc437 formfeed {
    text style Heading margin 0 auto { "${shop.name}" }
    stack direction row gap 30 {
      padding: { top: 12 }
      text width fill { "left" }
      spacer 60
      text overflow ellipsis width 1in { "right" }
    }
    grid columnGap 6 {
      columns: [50%, fill, 120]
      row height 60 {
        cell align right { text { "Qty" } }
        cell overflow clip {
          text { "a" }
          text { "b" }
        }
        cell {}
      }
    }
    each items as item {
      text { "${item.name}" }
    }
    if status == "paid" { text { "PAID" } }
    else if total > 0 { text { "DUE" } }
    switch status {
      case "void" "refunded" { text { "VOID" } }
      default { line }
    }
    with shop { text { "${shop.city}" } }
    use Footer
  }
}
`

func TestBuildReceipt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dotpaper.document")
	defer teardown()
	//
	doc, err := ParseString(receipt)
	require.NoError(t, err)
	assert.Equal(t, "Receipt", doc.Name)
	assert.Equal(t, "Daily receipt", doc.Meta.Title)
	assert.Equal(t, []string{"pos", "daily"}, doc.Meta.Keywords)

	assert.Equal(t, 8*dimen.IN, doc.Page.Width)
	assert.Equal(t, layout.Edges{Top: 36, Right: 72, Bottom: 36, Left: 72}, doc.Page.Margin)
	assert.Equal(t, escp.PC437, doc.Page.CharTable)
	assert.True(t, doc.Page.FormFeed)
	assert.Equal(t, 8*dimen.IN, doc.LayoutOptions().PageWidth)

	heading := doc.Styles["Heading"]
	assert.Equal(t, map[string]string{"cpi": "12", "bold": "on", "doublewidth": "on"}, heading.Props)

	root, ok := doc.Root.(*layout.Stack)
	require.True(t, ok)
	assert.Equal(t, layout.Fill, root.Width)
	assert.Equal(t, doc.Page.Margin, root.Padding)
	require.Len(t, root.Children, 9, "use Footer inserts two nodes")

	title := root.Children[0].(*layout.Text)
	assert.Equal(t, "${shop.name}", title.Content)
	assert.Equal(t, 12, title.Style.CPI)
	assert.Equal(t, layout.On, title.Style.Bold)
	assert.Equal(t, layout.On, title.Style.DoubleWidth)
	assert.True(t, title.Margin.AutoLeft)
	assert.True(t, title.Margin.AutoRight)
	assert.True(t, strings.HasPrefix(title.ID, "text@"), title.ID)

	row := root.Children[1].(*layout.Stack)
	assert.Equal(t, layout.Row, row.Direction)
	assert.Equal(t, dimen.Dots(30), row.Gap)
	assert.Equal(t, dimen.Dots(12), row.Padding.Top)
	require.Len(t, row.Children, 3)
	assert.Equal(t, layout.Fill, row.Children[0].Base().Width)
	assert.Equal(t, dimen.Dots(60), row.Children[1].(*layout.Spacer).Length)
	right := row.Children[2].(*layout.Text)
	assert.Equal(t, layout.OverflowEllipsis, right.Overflow)
	assert.Equal(t, layout.Fixed(dimen.IN), right.Width)

	grid := root.Children[2].(*layout.Grid)
	assert.Equal(t, []layout.Size{layout.Percent(50), layout.Fill, layout.Fixed(120)}, grid.Columns)
	assert.Equal(t, dimen.Dots(6), grid.ColumnGap)
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, dimen.Dots(60), grid.Rows[0].Height)
	cells := grid.Rows[0].Cells
	require.Len(t, cells, 3)
	assert.Equal(t, layout.AlignEnd, cells[0].Align)
	assert.Equal(t, layout.OverflowClip, cells[1].Overflow)
	assert.IsType(t, &layout.Stack{}, cells[1].Content)
	assert.Nil(t, cells[2].Content)

	each := root.Children[3].(*layout.Each)
	assert.Equal(t, "items", each.Path)
	assert.Equal(t, "item", each.As)

	cond := root.Children[4].(*layout.Conditional)
	assert.Equal(t, `status=="paid"`, cond.Cond)
	require.Len(t, cond.Else, 1)
	assert.Equal(t, "total>0", cond.Else[0].(*layout.Conditional).Cond)

	sw := root.Children[5].(*layout.Switch)
	assert.Equal(t, "status", sw.Path)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, "refunded", sw.Cases[1].Value)
	assert.IsType(t, &layout.Line{}, sw.Default[0])

	with := root.Children[6].(*layout.Template)
	assert.Equal(t, "shop", with.Path)

	assert.Equal(t, '-', root.Children[7].(*layout.Line).Char)
	assert.Equal(t, "Thank you", root.Children[8].(*layout.Text).Content)
}

func TestBuildErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dotpaper.document")
	defer teardown()
	//
	cases := map[string]string{
		"cycle":        `doc X v1 { resources { style A extends B {} style B extends A {} } page p {} }`,
		"undefined":    `doc X v1 { page p { text style Missing { "a" } } }`,
		"unknown attr": `doc X v1 { page p { text colour red { "a" } } }`,
		"else":         "doc X v1 {\n page p {\n else { text { \"a\" } }\n }\n}",
		"use loop":     "doc X v1 {\n page-set A {\n use A\n }\n page p {\n use A\n }\n}",
		"no page":      `doc X v1 { meta { title: "x" } }`,
		"cell outside": `doc X v1 { page p { cell {} } }`,
		"bad cpi":      `doc X v1 { page p { text cpi ten { "a" } } }`,
		"grid":         `doc X v1 { page p { grid { row {} } } }`,
		"page param":   `doc X v1 { page p paper a4 {} }`,
	}
	for name, src := range cases {
		_, err := ParseString(src)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrDocument), "%s: %v", name, err)
	}
}

func TestErrorsCarryLocation(t *testing.T) {
	_, err := ParseString("doc X v1 {\n page p {\n  text colour red { \"a\" }\n }\n}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text@3:3")
	assert.Contains(t, err.Error(), "colour")
}

func TestParseArgs(t *testing.T) {
	doc, err := ParseString("doc X v1 {\n page p {\n  spacer -15\n  stack margin 10 auto gap 6 {}\n  text \"inline\"\n }\n}")
	require.NoError(t, err)
	root := doc.Root.(*layout.Stack)
	assert.Equal(t, dimen.Dots(-15), root.Children[0].(*layout.Spacer).Length)
	st := root.Children[1].(*layout.Stack)
	assert.Equal(t, dimen.Dots(10), st.Margin.Top)
	assert.Equal(t, dimen.Dots(10), st.Margin.Bottom)
	assert.True(t, st.Margin.AutoLeft && st.Margin.AutoRight)
	assert.Equal(t, dimen.Dots(6), st.Gap)
	assert.Equal(t, "inline", root.Children[2].(*layout.Text).Content)
}
