package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studieren/foodgram_back/models"
	"github.com/studieren/foodgram_back/service"
	"github.com/studieren/foodgram_back/testutil"
)

func TestTags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tag, err := e.svc.Tags.Create(ctx, service.TagInput{Name: "Dessert", Color: "#ff00ff", Slug: "dessert"})
	if err != nil {
		t.Fatal(err)
	}
	if tag.Color != "#FF00FF" {
		t.Errorf("color should be normalised, got %q", tag.Color)
	}

	_, err = e.svc.Tags.Create(ctx, service.TagInput{Name: "Other", Color: "#123456", Slug: "dessert"})
	assertValidation(t, err, "non_field_errors")
	_, err = e.svc.Tags.Create(ctx, service.TagInput{Name: "Bad", Color: "red", Slug: "bad slug"})
	assertValidation(t, err, "color")
	assertValidation(t, err, "slug")

	updated, err := e.svc.Tags.Update(ctx, tag.ID, service.TagInput{Name: "Sweets"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Sweets" || updated.Slug != "dessert" {
		t.Errorf("partial update changed the wrong fields: %+v", updated)
	}

	author := testutil.CreateUser(t, e.db, "chef", "p")
	testutil.CreateRecipe(t, e.db, author, "Cake", []*models.Tag{tag})

	if err := e.svc.Tags.Delete(ctx, tag.ID); err != nil {
		t.Fatal(err)
	}
	var links int64
	e.db.Table("recipe_tags").Where("tag_id = ?", tag.ID).Count(&links)
	if links != 0 {
		t.Errorf("recipe links should be removed with the tag, found %d", links)
	}
	if _, err := e.svc.Tags.Get(ctx, tag.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := e.svc.Tags.Delete(ctx, tag.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := e.svc.Tags.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty tag list, got %+v", list)
	}
}

func TestIngredients(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, name := range []string{"Sugar", "salt", "sour cream", "flour"} {
		if _, err := e.svc.Ingredients.Create(ctx, service.IngredientInput{Name: name, MeasurementUnit: "g"}); err != nil {
			t.Fatal(err)
		}
	}

	_, err := e.svc.Ingredients.Create(ctx, service.IngredientInput{Name: "salt", MeasurementUnit: "g"})
	assertValidation(t, err, "non_field_errors")
	if _, err := e.svc.Ingredients.Create(ctx, service.IngredientInput{Name: "salt", MeasurementUnit: "pinch"}); err != nil {
		t.Errorf("same name with another unit should be allowed: %v", err)
	}

	got, err := e.svc.Ingredients.List(ctx, "S")
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(got))
	for i, ing := range got {
		names[i] = ing.Name
	}
	if len(got) != 4 {
		t.Fatalf("prefix filter should be case-insensitive, got %v", names)
	}

	none, err := e.svc.Ingredients.List(ctx, "%")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("LIKE wildcards must be escaped, got %d results", len(none))
	}

	flour, _ := e.svc.Ingredients.List(ctx, "flour")
	author := testutil.CreateUser(t, e.db, "chef", "p")
	testutil.CreateRecipe(t, e.db, author, "Bread", nil, testutil.IngredientAmount{Ingredient: &flour[0], Amount: 500})

	assertValidation(t, e.svc.Ingredients.Delete(ctx, flour[0].ID), "non_field_errors")
	if err := e.svc.Ingredients.Delete(ctx, got[0].ID); err != nil {
		t.Errorf("unused ingredient should be deletable: %v", err)
	}
}
