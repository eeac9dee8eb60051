package report

import "fmt"

// 版面参数，单位为点，原点在页面左下角
const (
	MarginLeft    = 50.0
	Top           = 800.0
	Bottom        = 50.0
	LineStep      = 15.0
	HeaderIndent  = 20.0
	FontSize      = 14.0
	EmptyFontSize = 24.0

	Header       = "Shopping list:"
	EmptyMessage = "The shopping list is empty."
)

// Line 页面上的一行文字
type Line struct {
	X, Y float64
	Size float64
	Text string
}

type Page struct {
	Lines []Line
}

// FormatItem "{序号}. {名称} - {数量} {单位}."
func FormatItem(index int, item CartItem) string {
	return fmt.Sprintf("%d. %s - %d %s.", index, item.Name, item.Amount, item.Unit)
}

// Layout 排版：首页先写标题，列表从标题下方开始；
// 光标降到 Bottom 及以下时换页，新页从 Top 开始且不再缩进，序号连续。
// 只有还有剩余行时才换页，不会产生空白尾页。
func Layout(items []CartItem) []Page {
	if len(items) == 0 {
		return []Page{{Lines: []Line{{X: MarginLeft, Y: Top, Size: EmptyFontSize, Text: EmptyMessage}}}}
	}

	pages := []Page{{Lines: []Line{{X: MarginLeft, Y: Top, Size: FontSize, Text: Header}}}}
	y, indent := Top, HeaderIndent
	for i, item := range items {
		if y <= Bottom {
			pages = append(pages, Page{})
			y, indent = Top, 0
		}
		cur := &pages[len(pages)-1]
		cur.Lines = append(cur.Lines, Line{X: MarginLeft, Y: y - indent, Size: FontSize, Text: FormatItem(i+1, item)})
		y -= LineStep
	}
	return pages
}
