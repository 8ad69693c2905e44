package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/dotpaper/dsl"
)

const sampleDSL = `
doc Receipt v1 {
  meta {
    title: "Receipt"
    keywords: [
      "pos"
      "daily"
    ]
  }

  resources {
    style Body { cpi: 12 }
    style Heading extends Body {
      bold: on
      doubleWidth: on
    }
  }

  page-set Footer {
    text { "Thank you" }
  }

  page receipt width 8in table pc437 {
    stack gap 30 {
      margin: { top: 10; left: 20 }
      text style Heading { "Hello, ${user.name}!" }

      grid {
        columns: [50%, fill, 120]
        row {
          cell align right { text { "Qty" } }
        }
      }

      each data.items as item {
        text { "${item.name}" }
      }
      if status == "paid" { text { "PAID" } }
      else { text { "DUE" } }
      spacer -15
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Name != "Receipt" || doc.Version != "v1" {
		t.Fatalf("unexpected header: %s %s", doc.Name, doc.Version)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	kinds := []string{"meta", "resources", "page-set", "page"}
	for i, s := range doc.Sections {
		if s.Kind() != kinds[i] {
			t.Fatalf("section %d: expected %s, got %s", i, kinds[i], s.Kind())
		}
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" || string(*title.Value.String) != "Receipt" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected keywords array assignment")
	}

	heading := doc.Sections[1].Resources.Block.Statements[1].Command
	if heading == nil || heading.Name != "style" || len(heading.Args) != 3 || heading.Args[1].Value != "extends" {
		t.Fatalf("unexpected style resource: %+v", heading)
	}
	if doc.Sections[2].PageSet.Name != "Footer" {
		t.Fatalf("expected page-set Footer")
	}

	page := doc.Sections[3].Page
	if page.Spec.Name != "receipt" {
		t.Fatalf("expected page name receipt, got %s", page.Spec.Name)
	}
	if len(page.Spec.Params) != 4 || page.Spec.Params[1].Value != "8in" {
		t.Fatalf("unexpected page params: %+v", page.Spec.Params)
	}

	stack := page.Block.Statements[0].Command
	if stack == nil || stack.Name != "stack" {
		t.Fatalf("expected stack command, got %+v", page.Block.Statements[0])
	}
	if stack.Block == nil || len(stack.Block.Statements) != 7 {
		t.Fatalf("stack block should hold margin, text, grid, each, if, else and spacer")
	}
	margin := stack.Block.Statements[0].Assignment
	if margin == nil || margin.Value.Object == nil || len(margin.Value.Object.Entries) != 2 {
		t.Fatalf("expected inline margin object, got %+v", stack.Block.Statements[0])
	}

	text := stack.Block.Statements[1].Command
	if text.Name != "text" || len(text.Args) != 2 || text.Args[1].Value != "Heading" {
		t.Fatalf("unexpected text args: %+v", text.Args)
	}
	if got := string(text.Block.Statements[0].Text.Value); !strings.Contains(got, "${user.name}") {
		t.Fatalf("expected interpolation in text literal, got %s", got)
	}
	if !strings.HasPrefix(text.Location(), "text@") {
		t.Fatalf("unexpected location %s", text.Location())
	}

	grid := stack.Block.Statements[2].Command
	columns := grid.Block.Statements[0].Assignment
	if columns == nil || columns.Value.Array == nil || len(columns.Value.Array.Values) != 3 {
		t.Fatalf("expected three column specs")
	}
	if got := *columns.Value.Array.Values[0].Number; got != "50%" {
		t.Fatalf("unexpected first column %s", got)
	}
	if got := columns.Value.Array.Values[1].Expr.Raw(); got != "fill" {
		t.Fatalf("unexpected second column %s", got)
	}

	each := stack.Block.Statements[3].Command
	if got := dsl.JoinRaw(each.Args[:3]); got != "data.items" {
		t.Fatalf("unexpected each path: %s", got)
	}
	cond := stack.Block.Statements[4].Command
	if got := dsl.JoinRaw(cond.Args); got != `status=="paid"` {
		t.Fatalf("unexpected condition: %s", got)
	}
	if stack.Block.Statements[5].Command.Name != "else" {
		t.Fatalf("expected else command")
	}
	spacer := stack.Block.Statements[6].Command
	if len(spacer.Args) != 2 || spacer.Args[0].Raw != "-" || spacer.Args[1].Value != "15" {
		t.Fatalf("unexpected spacer args: %+v", spacer.Args)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := dsl.ParseString(`doc X v1 { page p { text { "a" }`); err == nil {
		t.Fatalf("expected error for unterminated block")
	}
	if _, err := dsl.ParseString(`page p {}`); err == nil {
		t.Fatalf("expected error for missing doc header")
	}
}

func TestJoinRaw(t *testing.T) {
	doc, err := dsl.ParseString("doc X v1 {\n page p {\n if !items[0].ok {}\n }\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	cmd := doc.Sections[0].Page.Block.Statements[0].Command
	if got := dsl.JoinRaw(cmd.Args); got != "!items[0].ok" {
		t.Fatalf("unexpected raw join: %s", got)
	}
}
