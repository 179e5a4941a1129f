package mastersheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxPaperA3     = 8
	xlsxPaperA4     = 9
	xlsxWidthFactor = 1.6
)

// XLSXWriter 基于 excelize 输出 Excel，每个逻辑页一个 Sheet
type XLSXWriter struct{}

// NewXLSXWriter 创建 XLSXWriter
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Ext 文件扩展名
func (w *XLSXWriter) Ext() string { return "xlsx" }

// ContentType HTTP Content-Type
func (w *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write 渲染并写出 xlsx
func (w *XLSXWriter) Write(doc *Document, out io.Writer) error {
	if doc == nil {
		return ErrNilDocument
	}

	f := excelize.NewFile()
	defer f.Close()

	x := &xlsxRenderer{f: f, styles: make(map[xlsxStyleKey]int)}
	for i, page := range doc.Pages {
		sheet := fmt.Sprintf("Page %d", i+1)
		if i == 0 {
			x.check(f.SetSheetName("Sheet1", sheet))
		} else {
			_, err := f.NewSheet(sheet)
			x.check(err)
		}
		if x.err != nil {
			break
		}
		x.renderPage(sheet, page)
	}
	if x.err != nil {
		return fmt.Errorf("渲染 Excel 失败: %w", x.err)
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return nil
}

type xlsxStyleKey struct {
	kind  string // title / header / body / note
	tone  Tone
	bold  bool
	align Align
}

// xlsxRenderer 只记录第一个错误，后续调用直接跳过
type xlsxRenderer struct {
	f      *excelize.File
	styles map[xlsxStyleKey]int
	err    error
}

func (x *xlsxRenderer) check(err error) {
	if x.err == nil && err != nil {
		x.err = err
	}
}

func (x *xlsxRenderer) renderPage(sheet string, p Page) {
	size := xlsxPaperA4
	if p.Size == PageA3 {
		size = xlsxPaperA3
	}
	orientation := "portrait"
	if p.Landscape {
		orientation = "landscape"
	}
	x.check(x.f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}))

	width := pageColumnCount(p)
	row := 1
	for i, line := range p.Title {
		kind := "note"
		if i == 0 {
			kind = "title"
		}
		x.span(sheet, 1, row, width, Cell{Text: line}, xlsxStyleKey{kind: kind})
		row++
	}
	if p.Note != "" {
		x.span(sheet, 1, row, width, Cell{Text: p.Note}, xlsxStyleKey{kind: "note"})
		row++
	}
	row++

	if p.SideBySide {
		col, next := 1, row
		for _, t := range p.Tables {
			if end := x.table(sheet, t, col, row); end > next {
				next = end
			}
			col += t.ColumnCount() + 1
		}
		row = next
	} else {
		for _, t := range p.Tables {
			row = x.table(sheet, t, 1, row) + 1
		}
	}

	if len(p.Signatures) > 0 {
		row += 2
		per := max(width/len(p.Signatures), 1)
		for i, label := range p.Signatures {
			col := 1 + i*per
			x.span(sheet, col, row, per, Cell{Text: "____________________"}, xlsxStyleKey{kind: "note"})
			x.span(sheet, col, row+1, per, Cell{Text: label}, xlsxStyleKey{kind: "note"})
		}
	}
}

// table 从 (col, row) 开始写入表格，返回下一可用行号
func (x *xlsxRenderer) table(sheet string, t Table, col, row int) int {
	for i, w := range tableWeights(t) {
		name, err := excelize.ColumnNumberToName(col + i)
		x.check(err)
		if x.err != nil {
			return row
		}
		x.check(x.f.SetColWidth(sheet, name, name, w*xlsxWidthFactor))
	}

	if t.Caption != "" {
		x.span(sheet, col, row, t.ColumnCount(), Cell{Text: t.Caption, Bold: true, Align: AlignLeft}, xlsxStyleKey{kind: "note", bold: true, align: AlignLeft})
		row++
	}
	for _, cells := range t.Header {
		x.row(sheet, cells, col, row, "header")
		row++
	}
	for _, cells := range t.Body {
		x.row(sheet, cells, col, row, "body")
		row++
	}
	return row
}

func (x *xlsxRenderer) row(sheet string, cells []Cell, col, row int, kind string) {
	for _, c := range cells {
		key := xlsxStyleKey{kind: kind, tone: c.Tone, bold: c.Bold, align: c.Align}
		if kind == "header" {
			key = xlsxStyleKey{kind: kind}
		}
		x.span(sheet, col, row, c.Span(), c, key)
		col += c.Span()
	}
}

// span 写入单元格，跨多列时合并
func (x *xlsxRenderer) span(sheet string, col, row, span int, c Cell, key xlsxStyleKey) {
	if x.err != nil {
		return
	}
	start, err := excelize.CoordinatesToCellName(col, row)
	x.check(err)
	end, err := excelize.CoordinatesToCellName(col+max(span, 1)-1, row)
	x.check(err)
	if x.err != nil {
		return
	}

	x.check(x.f.SetCellValue(sheet, start, c.Text))
	if span > 1 {
		x.check(x.f.MergeCell(sheet, start, end))
	}
	if id, ok := x.style(key); ok {
		x.check(x.f.SetCellStyle(sheet, start, end, id))
	}
}

func (x *xlsxRenderer) style(key xlsxStyleKey) (int, bool) {
	if id, ok := x.styles[key]; ok {
		return id, true
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	st := &excelize.Style{
		Font:      &excelize.Font{Size: 9, Bold: key.bold},
		Alignment: &excelize.Alignment{Horizontal: xlsxAlign(key.align), Vertical: "center"},
	}
	switch key.kind {
	case "title":
		st.Font = &excelize.Font{Bold: true, Size: 14}
		st.Alignment.Horizontal = "center"
	case "note":
		st.Font.Size = 10
	case "header":
		st.Font.Bold = true
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1}
		st.Alignment.Horizontal = "center"
		st.Alignment.WrapText = true
		st.Border = border
	default:
		st.Border = border
	}
	switch key.tone {
	case ToneFail:
		st.Font.Color = "#C00000"
	case TonePass:
		st.Font.Color = "#008000"
	}

	id, err := x.f.NewStyle(st)
	x.check(err)
	if err != nil {
		return 0, false
	}
	x.styles[key] = id
	return id, true
}

func xlsxAlign(a Align) string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	}
	return "center"
}

// pageColumnCount 页面占用的总列数，用于标题合并
func pageColumnCount(p Page) int {
	n := 0
	for i, t := range p.Tables {
		if p.SideBySide {
			n += t.ColumnCount()
			if i > 0 {
				n++
			}
			continue
		}
		n = max(n, t.ColumnCount())
	}
	return max(n, 1)
}
