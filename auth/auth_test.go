package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/testutil"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !auth.CheckPassword(hash, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}

	if _, err := auth.HashPassword(strings.Repeat("x", auth.MaxPasswordBytes+1), 4); !errors.Is(err, auth.ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := auth.HashPassword(strings.Repeat("x", auth.MaxPasswordBytes), 4); err != nil {
		t.Errorf("72-byte password should hash: %v", err)
	}
}

func TestTokenStore(t *testing.T) {
	db := testutil.NewDB(t)
	store := auth.NewTokenStore(db)
	user := testutil.CreateUser(t, db, "alice", "pass")
	ctx := context.Background()

	first, err := store.Issue(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Issue(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("repeated login should reuse token: %q != %q", first, second)
	}
	if len(first) != 32 {
		t.Errorf("unexpected key length %d", len(first))
	}

	got, err := store.Lookup(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Errorf("lookup returned user %d, want %d", got.ID, user.ID)
	}

	if err := store.Revoke(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Lookup(ctx, first); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after revoke, got %v", err)
	}
	if err := store.Revoke(ctx, user.ID); err != nil {
		t.Errorf("second revoke should be a no-op, got %v", err)
	}
}

func newEngine(store *auth.TokenStore, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.TokenAuth(store))
	handlers := append(extra, func(c *gin.Context) {
		c.String(http.StatusOK, "%d", auth.CurrentUserID(c))
	})
	r.GET("/", handlers...)
	return r
}

func TestMiddlewares(t *testing.T) {
	db := testutil.NewDB(t)
	store := auth.NewTokenStore(db)
	user := testutil.CreateUser(t, db, "bob", "pass")
	admin := testutil.CreateUser(t, db, "root", "pass")
	db.Model(admin).Update("is_admin", true)

	userKey, _ := store.Issue(context.Background(), user.ID)
	adminKey, _ := store.Issue(context.Background(), admin.ID)

	tests := []struct {
		name   string
		extra  []gin.HandlerFunc
		header string
		want   int
		body   string
	}{
		{"anonymous passes optional auth", nil, "", http.StatusOK, "0"},
		{"valid token", nil, "Token " + userKey, http.StatusOK, ""},
		{"unknown token", nil, "Token deadbeef", http.StatusUnauthorized, ""},
		{"wrong keyword", nil, "Bearer " + userKey, http.StatusUnauthorized, ""},
		{"require auth without token", []gin.HandlerFunc{auth.RequireAuth()}, "", http.StatusUnauthorized, ""},
		{"require admin as user", []gin.HandlerFunc{auth.RequireAdmin()}, "Token " + userKey, http.StatusForbidden, ""},
		{"require admin as admin", []gin.HandlerFunc{auth.RequireAdmin()}, "Token " + adminKey, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(store, tt.extra...)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := auth.NewRateLimiter(2, time.Hour)
	defer rl.Stop()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}

	if !rl.Allow("10.0.0.2") {
		t.Error("other clients must not share the bucket")
	}
}
