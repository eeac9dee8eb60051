package report_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studieren/foodgram_back/models"
	"github.com/studieren/foodgram_back/report"
	"github.com/studieren/foodgram_back/testutil"
)

func TestAggregateSumsSameNameAndUnit(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "buyer", "p")
	author := testutil.CreateUser(t, db, "cook", "p")
	flour := testutil.CreateIngredient(t, db, "flour", "g")
	flourKg := testutil.CreateIngredient(t, db, "flour", "kg")
	eggs := testutil.CreateIngredient(t, db, "eggs", "pcs")

	r1 := testutil.CreateRecipe(t, db, author, "Bread", nil,
		testutil.IngredientAmount{Ingredient: flour, Amount: 100},
		testutil.IngredientAmount{Ingredient: eggs, Amount: 2})
	r2 := testutil.CreateRecipe(t, db, author, "Cake", nil,
		testutil.IngredientAmount{Ingredient: flour, Amount: 50},
		testutil.IngredientAmount{Ingredient: flourKg, Amount: 1})
	notInCart := testutil.CreateRecipe(t, db, author, "Pie", nil,
		testutil.IngredientAmount{Ingredient: flour, Amount: 1000})
	testutil.AddToCart(t, db, user, r1)
	testutil.AddToCart(t, db, user, r2)
	testutil.AddToCart(t, db, author, notInCart)

	items, err := report.Aggregate(context.Background(), db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []report.CartItem{
		{Name: "eggs", Unit: "pcs", Amount: 2},
		{Name: "flour", Unit: "g", Amount: 150},
		{Name: "flour", Unit: "kg", Amount: 1},
	}
	if fmt.Sprint(items) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", items, want)
	}

	empty, err := report.Aggregate(context.Background(), db, author.ID+100)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no items, got %v", empty)
	}
}

func items(n int) []report.CartItem {
	out := make([]report.CartItem, n)
	for i := range out {
		out[i] = report.CartItem{Name: fmt.Sprintf("item%03d", i+1), Unit: "g", Amount: int64(i + 1)}
	}
	return out
}

func TestLayout(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		pages := report.Layout(nil)
		if len(pages) != 1 || len(pages[0].Lines) != 1 {
			t.Fatalf("expected a single line on a single page, got %+v", pages)
		}
		l := pages[0].Lines[0]
		if l.Text != report.EmptyMessage || l.Size != report.EmptyFontSize || l.Y != report.Top {
			t.Errorf("unexpected empty line %+v", l)
		}
	})

	t.Run("first page", func(t *testing.T) {
		pages := report.Layout([]report.CartItem{{Name: "flour", Unit: "g", Amount: 150}})
		if len(pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(pages))
		}
		lines := pages[0].Lines
		if lines[0].Text != report.Header || lines[0].Y != 800 {
			t.Errorf("header line %+v", lines[0])
		}
		if lines[1].Text != "1. flour - 150 g." || lines[1].Y != 780 || lines[1].X != 50 {
			t.Errorf("item line %+v", lines[1])
		}
	})

	tests := []struct {
		n         int
		wantPages int
	}{
		{50, 1},
		{51, 2},
		{100, 2},
		{101, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d items", tt.n), func(t *testing.T) {
			pages := report.Layout(items(tt.n))
			if len(pages) != tt.wantPages {
				t.Fatalf("got %d pages, want %d", len(pages), tt.wantPages)
			}
			total := 0
			for _, p := range pages {
				if len(p.Lines) == 0 {
					t.Fatal("blank page produced")
				}
				for _, l := range p.Lines {
					if l.Y <= 0 {
						t.Errorf("line %q below page bottom (y=%v)", l.Text, l.Y)
					}
					if l.Text != report.Header {
						total++
					}
				}
			}
			if total != tt.n {
				t.Errorf("rendered %d item lines, want %d", total, tt.n)
			}
		})
	}

	t.Run("second page continues numbering", func(t *testing.T) {
		pages := report.Layout(items(51))
		first := pages[1].Lines[0]
		if !strings.HasPrefix(first.Text, "51. ") || first.Y != report.Top {
			t.Errorf("unexpected first line of page 2: %+v", first)
		}
		last := pages[0].Lines[len(pages[0].Lines)-1]
		if !strings.HasPrefix(last.Text, "50. ") || last.Y != 45 {
			t.Errorf("unexpected last line of page 1: %+v", last)
		}
	})
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := &report.Renderer{}
	if err := r.Render(&buf, report.Layout(items(120))); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:16])
	}
}

func TestRenderMissingFont(t *testing.T) {
	var buf bytes.Buffer
	r := &report.Renderer{FontPath: filepath.Join(t.TempDir(), "missing.ttf")}
	if err := r.Render(&buf, report.Layout(nil)); err == nil {
		t.Fatal("expected error for missing font")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing must be written on failure, got %d bytes", buf.Len())
	}
}

func TestGeneratorShoppingList(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "buyer", "p")
	sugar := testutil.CreateIngredient(t, db, "сахар", "г")
	r := testutil.CreateRecipe(t, db, user, "Чай", []*models.Tag{}, testutil.IngredientAmount{Ingredient: sugar, Amount: 5})
	testutil.AddToCart(t, db, user, r)

	pdf, err := report.NewGenerator(db, "").ShoppingList(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("expected PDF output")
	}

	if _, err := report.NewGenerator(db, "/nonexistent/font.ttf").ShoppingList(context.Background(), user.ID); err == nil {
		t.Error("missing font must fail the whole report")
	}
}
