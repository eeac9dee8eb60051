// Package media 保存菜谱图片：解析 base64 data URI，按最长边缩放后写入媒体目录。
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	recipeDir = "recipes"
	// 解码前的数据上限
	MaxImageBytes = 10 << 20
	// 解码后的像素上限，按图片头里声明的尺寸检查
	MaxImagePixels = 40_000_000
)

var (
	ErrInvalidDataURI   = errors.New("图片必须是 base64 编码的 data URI")
	ErrUnsupportedImage = errors.New("不支持的图片格式")
	ErrImageTooLarge    = errors.New("图片过大")
)

var formats = map[string]struct {
	ext    string
	format imaging.Format
}{
	"image/png":  {"png", imaging.PNG},
	"image/jpeg": {"jpg", imaging.JPEG},
	"image/jpg":  {"jpg", imaging.JPEG},
	"image/gif":  {"gif", imaging.GIF},
}

// Store 本地文件系统上的图片存储
type Store struct {
	Root    string // 磁盘目录
	URL     string // 对外访问前缀，如 /media/
	MaxSide int    // 最长边像素，<=0 表示不缩放
}

func NewStore(root, url string, maxSide int) *Store {
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return &Store{Root: root, URL: url, MaxSide: maxSide}
}

// SaveDataURI 保存 "data:image/png;base64,..." 并返回图片 URL
func (s *Store) SaveDataURI(dataURI string) (string, error) {
	mime, payload, err := splitDataURI(dataURI)
	if err != nil {
		return "", err
	}
	f, ok := formats[mime]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if s.MaxSide > 0 {
		b := img.Bounds()
		if b.Dx() > s.MaxSide || b.Dy() > s.MaxSide {
			img = imaging.Fit(img, s.MaxSide, s.MaxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f.format); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	dir := filepath.Join(s.Root, recipeDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name := uuid.NewString() + "." + f.ext
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.URL + path.Join(recipeDir, name), nil
}

// Remove 删除 URL 对应的文件；不属于本存储的 URL 忽略
func (s *Store) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, s.URL)
	if !ok || rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if !strings.HasPrefix(clean, recipeDir+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func splitDataURI(s string) (mime, payload string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return "", "", ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", ErrInvalidDataURI
	}
	mime, enc, ok := strings.Cut(header, ";")
	if !ok || enc != "base64" {
		return "", "", ErrInvalidDataURI
	}
	return strings.ToLower(mime), payload, nil
}
