package mastersheet

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 5.0
	pdfFontSize   = 7.0
	pdfTitleSize  = 12.0
	pdfTableGap   = 4.0
	pdfFontFamily = "Helvetica"
)

// PDFWriter 基于 gofpdf 输出 PDF
//
// 表格超出页高时自动续页并重印表头；并排表格逐行同步输出。
type PDFWriter struct {
	fontFamily string
}

// NewPDFWriter 创建 PDFWriter
func NewPDFWriter() *PDFWriter {
	return &PDFWriter{fontFamily: pdfFontFamily}
}

// Ext 文件扩展名
func (w *PDFWriter) Ext() string { return "pdf" }

// ContentType HTTP Content-Type
func (w *PDFWriter) ContentType() string { return "application/pdf" }

// Write 渲染并写出 PDF
func (w *PDFWriter) Write(doc *Document, out io.Writer) error {
	if doc == nil {
		return ErrNilDocument
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.AliasNbPages("")

	r := &pdfRenderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: w.fontFamily,
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 2)
		pdf.SetFont(r.family, "I", pdfFontSize)
		pdf.SetTextColor(96, 96, 96)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	for _, page := range doc.Pages {
		r.renderPage(page)
		if pdf.Err() {
			break
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

type pdfRenderer struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	family string
}

// placedTable 已确定横向位置的表格
type placedTable struct {
	t      Table
	x      float64
	widths []float64
}

func (r *pdfRenderer) addPage(p Page) {
	orientation := "P"
	if p.Landscape {
		orientation = "L"
	}
	size := p.Size
	if size == "" {
		size = PageA4
	}
	r.pdf.AddPageFormat(orientation, r.pdf.GetPageSizeStr(string(size)))
}

func (r *pdfRenderer) renderPage(p Page) {
	r.addPage(p)
	r.title(p.Title)

	if p.Note != "" {
		r.pdf.SetFont(r.family, "I", pdfFontSize+3)
		r.pdf.CellFormat(0, pdfLineHeight*2, r.tr(p.Note), "", 1, "C", false, 0, "")
	}

	if p.SideBySide {
		r.grid(p, p.Tables)
	} else {
		for _, t := range p.Tables {
			r.grid(p, []Table{t})
		}
	}

	if len(p.Signatures) > 0 {
		r.signatures(p)
	}
}

func (r *pdfRenderer) title(lines []string) {
	for i, line := range lines {
		if i == 0 {
			r.pdf.SetFont(r.family, "B", pdfTitleSize)
		} else {
			r.pdf.SetFont(r.family, "", pdfFontSize+2)
		}
		r.pdf.CellFormat(0, pdfLineHeight+1, r.tr(line), "", 1, "C", false, 0, "")
	}
	r.pdf.Ln(2)
}

func (r *pdfRenderer) contentWidth() float64 {
	w, _ := r.pdf.GetPageSize()
	left, _, right, _ := r.pdf.GetMargins()
	return w - left - right
}

func (r *pdfRenderer) bottom() float64 {
	_, h := r.pdf.GetPageSize()
	_, _, _, b := r.pdf.GetMargins()
	return h - b
}

// grid 把一组表格横向排开后逐行输出
func (r *pdfRenderer) grid(p Page, tables []Table) {
	if len(tables) == 0 {
		return
	}
	left, _, _, _ := r.pdf.GetMargins()
	avail := r.contentWidth() - pdfTableGap*float64(len(tables)-1)

	totalWeight := 0.0
	weights := make([][]float64, len(tables))
	for i, t := range tables {
		weights[i] = tableWeights(t)
		for _, w := range weights[i] {
			totalWeight += w
		}
	}

	placed := make([]placedTable, len(tables))
	x := left
	for i, t := range tables {
		share := avail / float64(len(tables))
		if totalWeight > 0 {
			share = avail * sum(weights[i]) / totalWeight
		}
		placed[i] = placedTable{t: t, x: x, widths: scaleWidths(weights[i], share)}
		x += share + pdfTableGap
	}

	headerRows, bodyRows, hasCaption := 0, 0, false
	for _, pl := range placed {
		headerRows = max(headerRows, len(pl.t.Header))
		bodyRows = max(bodyRows, len(pl.t.Body))
		hasCaption = hasCaption || pl.t.Caption != ""
	}

	if hasCaption {
		y := r.pdf.GetY()
		r.pdf.SetFont(r.family, "B", pdfFontSize+1)
		for _, pl := range placed {
			r.pdf.SetXY(pl.x, y)
			r.pdf.CellFormat(sum(pl.widths), pdfLineHeight, r.fit(r.tr(pl.t.Caption), sum(pl.widths)), "", 0, "L", false, 0, "")
		}
		r.pdf.SetXY(left, y+pdfLineHeight)
	}

	printHeader := func() {
		for hr := 0; hr < headerRows; hr++ {
			y := r.pdf.GetY()
			for _, pl := range placed {
				if hr < len(pl.t.Header) {
					r.row(pl, pl.t.Header[hr], y, true)
				}
			}
			r.pdf.SetXY(left, y+pdfLineHeight)
		}
	}
	printHeader()

	for br := 0; br < bodyRows; br++ {
		if r.pdf.GetY()+pdfLineHeight > r.bottom() {
			r.addPage(p)
			printHeader()
		}
		y := r.pdf.GetY()
		for _, pl := range placed {
			if br < len(pl.t.Body) {
				r.row(pl, pl.t.Body[br], y, false)
			}
		}
		r.pdf.SetXY(left, y+pdfLineHeight)
	}
	r.pdf.Ln(pdfTableGap)
}

func (r *pdfRenderer) row(pl placedTable, cells []Cell, y float64, header bool) {
	x, col := pl.x, 0
	for _, c := range cells {
		w := 0.0
		for k := col; k < col+c.Span() && k < len(pl.widths); k++ {
			w += pl.widths[k]
		}
		col += c.Span()
		r.pdf.SetXY(x, y)
		r.cell(c, w, header)
		x += w
	}
}

func (r *pdfRenderer) cell(c Cell, w float64, header bool) {
	style := ""
	if c.Bold || header {
		style = "B"
	}
	r.pdf.SetFont(r.family, style, pdfFontSize)

	switch c.Tone {
	case ToneFail:
		r.pdf.SetTextColor(192, 0, 0)
	case TonePass:
		r.pdf.SetTextColor(0, 128, 0)
	default:
		r.pdf.SetTextColor(0, 0, 0)
	}
	align := "C"
	if !header {
		align = alignStr(c.Align)
	}
	if header {
		r.pdf.SetFillColor(225, 225, 225)
	}

	r.pdf.CellFormat(w, pdfLineHeight, r.fit(r.tr(c.Text), w), "1", 0, align, header, 0, "")
	r.pdf.SetTextColor(0, 0, 0)
}

// fit 截断超宽文本并追加 "..."
// 文本已转为单字节代码页，按字节截断即可。
func (r *pdfRenderer) fit(text string, w float64) string {
	avail := w - 1.0
	if text == "" || r.pdf.GetStringWidth(text) <= avail {
		return text
	}
	const suffix = "..."
	for len(text) > 0 {
		text = text[:len(text)-1]
		if r.pdf.GetStringWidth(text+suffix) <= avail {
			return text + suffix
		}
	}
	return ""
}

func (r *pdfRenderer) signatures(p Page) {
	const blockHeight = 25.0
	if r.pdf.GetY()+blockHeight > r.bottom() {
		r.addPage(p)
	}
	r.pdf.Ln(8)

	left, _, _, _ := r.pdf.GetMargins()
	y := r.pdf.GetY()
	w := r.contentWidth() / float64(len(p.Signatures))
	r.pdf.SetFont(r.family, "", pdfFontSize+1)
	for i, label := range p.Signatures {
		x := left + w*float64(i)
		r.pdf.Line(x+6, y+12, x+w-6, y+12)
		r.pdf.SetXY(x, y+13)
		r.pdf.CellFormat(w, pdfLineHeight, r.tr(label), "", 0, "C", false, 0, "")
	}
	r.pdf.SetXY(left, y+blockHeight)
}

func alignStr(a Align) string {
	switch a {
	case AlignLeft:
		return "L"
	case AlignRight:
		return "R"
	}
	return "C"
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}
