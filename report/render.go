package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/studieren/foodgram_back/logging"
	"github.com/studieren/foodgram_back/metrics"
	"golang.org/x/image/font/gofont/goregular"
	"gorm.io/gorm"
)

const fontFamily = "report"

// Renderer 把排好的页面写成 PDF。FontPath 为空时使用内置的 Go Regular 字体。
type Renderer struct {
	FontPath string
}

func (r *Renderer) font() ([]byte, error) {
	if r.FontPath == "" {
		return goregular.TTF, nil
	}
	data, err := os.ReadFile(r.FontPath)
	if err != nil {
		return nil, fmt.Errorf("load report font: %w", err)
	}
	return data, nil
}

// Render 渲染全部页面；出错时不向 w 写入任何内容
func (r *Renderer) Render(w io.Writer, pages []Page) error {
	fontData, err := r.font()
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddUTF8FontFromBytes(fontFamily, "", fontData)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("register report font: %w", err)
	}
	_, pageHeight := pdf.GetPageSize()

	for _, page := range pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			pdf.SetFont(fontFamily, "", line.Size)
			// fpdf 以左上角为原点
			pdf.Text(line.X, pageHeight-line.Y, line.Text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Generator 汇总 + 排版 + 渲染
type Generator struct {
	DB       *gorm.DB
	Renderer *Renderer
}

func NewGenerator(db *gorm.DB, fontPath string) *Generator {
	return &Generator{DB: db, Renderer: &Renderer{FontPath: fontPath}}
}

// ShoppingList 返回完整的 PDF 内容，任一步失败都不返回部分结果
func (g *Generator) ShoppingList(ctx context.Context, userID uint) (pdf []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordReport(err, time.Since(start))
	}()

	items, err := Aggregate(ctx, g.DB, userID)
	if err != nil {
		return nil, err
	}
	pages := Layout(items)

	var buf bytes.Buffer
	if err = g.Renderer.Render(&buf, pages); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Uint("user_id", userID).
		Int("items", len(items)).
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("购物清单已生成")
	return buf.Bytes(), nil
}
