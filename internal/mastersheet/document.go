package mastersheet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat 未知的文档格式
var ErrInvalidFormat = errors.New("无效的文档格式")

// Format 文档版式
type Format string

const (
	FormatWall Format = "wall" // 大幅面张贴版（按列分片）
	FormatA4   Format = "a4"   // 会议用紧凑版
)

// ParseFormat 解析版式参数
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWall, FormatA4:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// FileLabel 文件名中的版式段
func (f Format) FileLabel() string {
	if f == FormatA4 {
		return "A4"
	}
	return "Wall"
}

// ── 文档模型 ──
//
// 构建器只产出与具体库无关的 Document，由 PDFWriter / XLSXWriter 负责落地。

// Align 单元格对齐方式
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// Cell 表格单元格，ColSpan 为 0 时按 1 处理
type Cell struct {
	Text    string
	ColSpan int
	Tone    Tone
	Bold    bool
	Align   Align
}

// Span 实际跨列数
func (c Cell) Span() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// Table 一张表：多行表头 + 数据行
type Table struct {
	Caption      string
	ColumnWidths []float64 // 各物理列的相对宽度
	Header       [][]Cell
	Body         [][]Cell
}

// ColumnCount 物理列数
func (t Table) ColumnCount() int {
	if len(t.ColumnWidths) > 0 {
		return len(t.ColumnWidths)
	}
	rows := t.Header
	if len(rows) == 0 {
		rows = t.Body
	}
	if len(rows) == 0 {
		return 0
	}
	return RowSpan(rows[0])
}

// RowSpan 一行单元格跨列数之和
func RowSpan(row []Cell) int {
	n := 0
	for _, c := range row {
		n += c.Span()
	}
	return n
}

// PageSize 纸张规格
type PageSize string

const (
	PageA3 PageSize = "A3"
	PageA4 PageSize = "A4"
)

// Page 文档中的一页（逻辑页，行数过多时由 Writer 自动续页）
type Page struct {
	Size       PageSize
	Landscape  bool
	Title      []string
	Tables     []Table
	SideBySide bool // 表格并排放置，要求各表行数一致
	Note       string
	Signatures []string
}

// Document 输出文档
type Document struct {
	Title  string
	Format Format
	Pages  []Page
}

// EmptyDocument "无数据" 时的中性空状态文档
func EmptyDocument(format Format) *Document {
	size, landscape := PageA4, false
	if format == FormatWall {
		size, landscape = PageA3, true
	}
	return &Document{
		Title:  "Master Sheet",
		Format: format,
		Pages: []Page{{
			Size:      size,
			Landscape: landscape,
			Title:     []string{"Master Sheet"},
			Note:      "No data available for this selection.",
		}},
	}
}

// IsEmpty 是否为空状态文档
func (d *Document) IsEmpty() bool {
	for _, p := range d.Pages {
		if len(p.Tables) > 0 {
			return false
		}
	}
	return true
}
