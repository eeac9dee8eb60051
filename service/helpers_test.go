package service_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/service"
	"github.com/studieren/foodgram_back/testutil"
	"gorm.io/gorm"
)

type fakeImages struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (f *fakeImages) SaveDataURI(dataURI string) (string, error) {
	if dataURI == "bad" {
		return "", errors.New("图片必须是 base64 编码的 data URI")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("/media/recipes/%d.png", len(f.saved)+1)
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImages) Remove(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, url)
	return nil
}

type env struct {
	db     *gorm.DB
	svc    *service.Services
	images *fakeImages
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	images := &fakeImages{}
	tool := gormtool.NewCRUDTool(db, nil, nil)
	return &env{
		db:     db,
		svc:    service.New(tool, auth.NewTokenStore(db), images, 4),
		images: images,
	}
}

func firstPage() gormtool.PageRequest {
	return gormtool.PageRequest{Page: 1, Size: 10}
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on %q, got %v", field, err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Fatalf("expected error on field %q, got %v", field, verr.Fields)
	}
}
