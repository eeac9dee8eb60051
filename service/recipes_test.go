package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studieren/foodgram_back/models"
	"github.com/studieren/foodgram_back/service"
	"github.com/studieren/foodgram_back/testutil"
)

type recipeFixture struct {
	*env
	author, other, admin *models.User
	breakfast, lunch     *models.Tag
	flour, milk          *models.Ingredient
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	e := newEnv(t)
	f := &recipeFixture{env: e}
	f.author = testutil.CreateUser(t, e.db, "author", "p")
	f.other = testutil.CreateUser(t, e.db, "other", "p")
	f.admin = testutil.CreateUser(t, e.db, "admin", "p")
	f.admin.IsAdmin = true
	e.db.Model(f.admin).Update("is_admin", true)
	f.breakfast = testutil.CreateTag(t, e.db, "Breakfast", "#00FF00", "breakfast")
	f.lunch = testutil.CreateTag(t, e.db, "Lunch", "#FF0000", "dinner")
	f.flour = testutil.CreateIngredient(t, e.db, "flour", "g")
	f.milk = testutil.CreateIngredient(t, e.db, "milk", "ml")
	return f
}

func (f *recipeFixture) input() service.RecipeInput {
	return service.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry",
		Image:       "data:image/png;base64,xxx",
		CookingTime: 20,
		Tags:        []uint{f.breakfast.ID},
		Ingredients: []service.IngredientLine{
			{ID: f.milk.ID, Amount: 300},
			{ID: f.flour.ID, Amount: 200},
		},
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	r, err := f.svc.Recipes.Create(ctx, f.author, f.input())
	if err != nil {
		t.Fatal(err)
	}
	if r.Author.ID != f.author.ID || r.Image != "/media/recipes/1.png" {
		t.Errorf("unexpected recipe %+v", r)
	}
	if len(r.Tags) != 1 || r.Tags[0].Slug != "breakfast" {
		t.Errorf("unexpected tags %+v", r.Tags)
	}
	if len(r.Ingredients) != 2 || r.Ingredients[0].Ingredient.Name != "milk" || r.Ingredients[1].Amount != 200 {
		t.Errorf("ingredient lines must keep input order: %+v", r.Ingredients)
	}
	if r.IsFavorited || r.IsInShoppingCart {
		t.Error("new recipe cannot be favorited or in cart")
	}
}

func TestCreateRecipe_Validation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*service.RecipeInput)
		field  string
	}{
		{"no ingredients", func(in *service.RecipeInput) { in.Ingredients = nil }, "ingredients"},
		{"duplicate ingredient", func(in *service.RecipeInput) {
			in.Ingredients = append(in.Ingredients, service.IngredientLine{ID: f.milk.ID, Amount: 1})
		}, "ingredients"},
		{"zero amount", func(in *service.RecipeInput) { in.Ingredients[0].Amount = 0 }, "ingredients"},
		{"unknown ingredient", func(in *service.RecipeInput) { in.Ingredients[0].ID = 9999 }, "ingredients"},
		{"no tags", func(in *service.RecipeInput) { in.Tags = nil }, "tags"},
		{"duplicate tag", func(in *service.RecipeInput) { in.Tags = []uint{f.lunch.ID, f.lunch.ID} }, "tags"},
		{"unknown tag", func(in *service.RecipeInput) { in.Tags = []uint{9999} }, "tags"},
		{"cooking time", func(in *service.RecipeInput) { in.CookingTime = 0 }, "cooking_time"},
		{"missing image", func(in *service.RecipeInput) { in.Image = "" }, "image"},
		{"bad image", func(in *service.RecipeInput) { in.Image = "bad" }, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.mutate(&in)
			_, err := f.svc.Recipes.Create(ctx, f.author, in)
			assertValidation(t, err, tt.field)
		})
	}

	var count int64
	f.db.Model(&models.Recipe{}).Count(&count)
	if count != 0 {
		t.Errorf("invalid input must not create recipes, found %d", count)
	}
}

func TestUpdateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	r, err := f.svc.Recipes.Create(ctx, f.author, f.input())
	if err != nil {
		t.Fatal(err)
	}

	in := f.input()
	in.Image = ""
	in.Name = "Crepes"
	in.Tags = []uint{f.lunch.ID, f.breakfast.ID}
	in.Ingredients = []service.IngredientLine{{ID: f.flour.ID, Amount: 50}}

	if _, err := f.svc.Recipes.Update(ctx, f.other, r.ID, in); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("non-author update: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Recipes.Update(ctx, f.author, 9999, in); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := f.svc.Recipes.Update(ctx, f.author, r.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Crepes" || updated.Image != r.Image {
		t.Errorf("name should change and image stay: %q %q", updated.Name, updated.Image)
	}
	if len(updated.Tags) != 2 || len(updated.Ingredients) != 1 || updated.Ingredients[0].Amount != 50 {
		t.Errorf("relations should be replaced: tags=%d lines=%+v", len(updated.Tags), updated.Ingredients)
	}

	in.Image = "data:image/png;base64,new"
	byAdmin, err := f.svc.Recipes.Update(ctx, f.admin, r.ID, in)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if byAdmin.Image == r.Image {
		t.Error("image should be replaced")
	}
	if len(f.images.removed) != 1 || f.images.removed[0] != r.Image {
		t.Errorf("old image should be removed, got %v", f.images.removed)
	}
}

func TestDeleteRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	r, err := f.svc.Recipes.Create(ctx, f.author, f.input())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Recipes.AddFavorite(ctx, f.other.ID, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Recipes.AddToCart(ctx, f.other.ID, r.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Recipes.Delete(ctx, f.other, r.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Recipes.Delete(ctx, f.author, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Recipes.Get(ctx, 0, r.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("deleted recipe still readable: %v", err)
	}

	for _, table := range []string{"recipe_tags", "recipe_ingredients", "favorite_recipes", "shopping_carts"} {
		var n int64
		f.db.Table(table).Where("recipe_id = ?", r.ID).Count(&n)
		if n != 0 {
			t.Errorf("%s still has %d rows", table, n)
		}
	}
}

func TestFavoriteToggle(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	r := testutil.CreateRecipe(t, f.db, f.author, "Borscht", []*models.Tag{f.lunch})

	if _, err := f.svc.Recipes.AddFavorite(ctx, f.other.ID, r.ID); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Recipes.AddFavorite(ctx, f.other.ID, r.ID)
	assertValidation(t, err, "errors")

	got, _ := f.svc.Recipes.Get(ctx, f.other.ID, r.ID)
	if !got.IsFavorited || got.IsInShoppingCart {
		t.Errorf("flags after favorite: favorited=%v cart=%v", got.IsFavorited, got.IsInShoppingCart)
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.Recipes.RemoveFavorite(ctx, f.other.ID, r.ID); err != nil {
			t.Fatal(err)
		}
	}
	got, _ = f.svc.Recipes.Get(ctx, f.other.ID, r.ID)
	if got.IsFavorited {
		t.Error("favorite state should be empty after unfavorite")
	}

	if _, err := f.svc.Recipes.AddFavorite(ctx, f.other.ID, 9999); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.Recipes.RemoveFromCart(ctx, f.other.ID, 9999); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecipes(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	r1 := testutil.CreateRecipe(t, f.db, f.author, "Omelette", []*models.Tag{f.breakfast})
	r2 := testutil.CreateRecipe(t, f.db, f.author, "Soup", []*models.Tag{f.lunch})
	r3 := testutil.CreateRecipe(t, f.db, f.other, "Toast", []*models.Tag{f.breakfast, f.lunch})

	if _, err := f.svc.Recipes.AddFavorite(ctx, f.other.ID, r1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Recipes.AddToCart(ctx, f.other.ID, r2.ID); err != nil {
		t.Fatal(err)
	}

	t.Run("anonymous flags are false", func(t *testing.T) {
		list, page, err := f.svc.Recipes.List(ctx, 0, service.RecipeFilter{}, firstPage())
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 3 || list[0].ID != r3.ID {
			t.Fatalf("expected 3 recipes newest first, got total=%d first=%d", page.Total, list[0].ID)
		}
		for _, r := range list {
			if r.IsFavorited || r.IsInShoppingCart {
				t.Errorf("recipe %d has flags set for anonymous viewer", r.ID)
			}
		}
	})

	tests := []struct {
		name   string
		viewer uint
		filter service.RecipeFilter
		want   []uint
	}{
		{"by tag", 0, service.RecipeFilter{Tags: []string{"breakfast"}}, []uint{r3.ID, r1.ID}},
		{"by any of tags", 0, service.RecipeFilter{Tags: []string{"breakfast", "dinner"}}, []uint{r3.ID, r2.ID, r1.ID}},
		{"by author", 0, service.RecipeFilter{AuthorID: f.other.ID}, []uint{r3.ID}},
		{"favorited", f.other.ID, service.RecipeFilter{IsFavorited: true}, []uint{r1.ID}},
		{"in cart", f.other.ID, service.RecipeFilter{IsInShoppingCart: true}, []uint{r2.ID}},
		{"favorited ignored for anonymous", 0, service.RecipeFilter{IsFavorited: true}, []uint{r3.ID, r2.ID, r1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, _, err := f.svc.Recipes.List(ctx, tt.viewer, tt.filter, firstPage())
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("got %d recipes, want %d", len(list), len(tt.want))
			}
			for i, id := range tt.want {
				if list[i].ID != id {
					t.Errorf("position %d: got %d, want %d", i, list[i].ID, id)
				}
			}
		})
	}

	t.Run("annotated for viewer", func(t *testing.T) {
		list, _, err := f.svc.Recipes.List(ctx, f.other.ID, service.RecipeFilter{AuthorID: f.author.ID}, firstPage())
		if err != nil {
			t.Fatal(err)
		}
		flags := map[uint][2]bool{}
		for _, r := range list {
			flags[r.ID] = [2]bool{r.IsFavorited, r.IsInShoppingCart}
		}
		if flags[r1.ID] != [2]bool{true, false} || flags[r2.ID] != [2]bool{false, true} {
			t.Errorf("unexpected flags %v", flags)
		}
	})

	t.Run("top favorited", func(t *testing.T) {
		top, err := f.svc.Recipes.TopFavorited(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(top) != 1 || top[0].RecipeID != r1.ID || top[0].Favorites != 1 {
			t.Errorf("unexpected top favorited %+v", top)
		}
	})
}
