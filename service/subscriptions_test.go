package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studieren/foodgram_back/service"
	"github.com/studieren/foodgram_back/testutil"
)

func TestSubscribe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, e.db, "follower", "p")
	b := testutil.CreateUser(t, e.db, "author", "p")
	for _, name := range []string{"soup", "salad", "cake"} {
		testutil.CreateRecipe(t, e.db, b, name, nil)
	}

	sub, err := e.svc.Subscriptions.Subscribe(ctx, a.ID, b.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Author.IsSubscribed || sub.Author.RecipesCount != 3 {
		t.Errorf("unexpected author annotation: subscribed=%v count=%d", sub.Author.IsSubscribed, sub.Author.RecipesCount)
	}
	if len(sub.Recipes) != 2 {
		t.Errorf("recipes_limit=2 should cap embedded recipes, got %d", len(sub.Recipes))
	}

	t.Run("second subscribe rejected", func(t *testing.T) {
		_, err := e.svc.Subscriptions.Subscribe(ctx, a.ID, b.ID, 0)
		assertValidation(t, err, "errors")
	})

	t.Run("self subscribe rejected", func(t *testing.T) {
		_, err := e.svc.Subscriptions.Subscribe(ctx, a.ID, a.ID, 0)
		assertValidation(t, err, "errors")
	})

	t.Run("unknown author", func(t *testing.T) {
		if _, err := e.svc.Subscriptions.Subscribe(ctx, a.ID, 9999, 0); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := e.svc.Subscriptions.Unsubscribe(ctx, a.ID, 9999); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		subs, page, err := e.svc.Subscriptions.List(ctx, a.ID, firstPage(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 1 || len(subs) != 1 || subs[0].Author.ID != b.ID {
			t.Fatalf("unexpected subscriptions: total=%d %+v", page.Total, subs)
		}
		if len(subs[0].Recipes) != 3 {
			t.Errorf("without limit all recipes are embedded, got %d", len(subs[0].Recipes))
		}
		if subs[0].Recipes[0].Name != "cake" {
			t.Errorf("newest recipe should come first, got %q", subs[0].Recipes[0].Name)
		}
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := e.svc.Subscriptions.Unsubscribe(ctx, a.ID, b.ID); err != nil {
				t.Fatal(err)
			}
		}
		ok, err := e.svc.Subscriptions.IsSubscribed(ctx, a.ID, b.ID)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("still subscribed after unsubscribe")
		}
	})
}
