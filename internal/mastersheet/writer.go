package mastersheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNilDocument 没有可输出的文档
var ErrNilDocument = errors.New("文档为空")

// ErrInvalidOutput 未知的输出类型
var ErrInvalidOutput = errors.New("无效的输出类型")

// Output 输出文件类型
type Output string

const (
	OutputPDF  Output = "pdf"
	OutputXLSX Output = "xlsx"
)

// ParseOutput 解析输出类型，空串默认为 pdf
func ParseOutput(s string) (Output, error) {
	switch o := Output(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OutputPDF, nil
	case OutputPDF, OutputXLSX:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutput, s)
}

// Writer 把 Document 落地为具体文件格式
type Writer interface {
	Write(doc *Document, out io.Writer) error
	Ext() string
	ContentType() string
}

// NewWriter 按输出类型返回对应 Writer
func NewWriter(o Output) (Writer, error) {
	switch o {
	case OutputPDF, "":
		return NewPDFWriter(), nil
	case OutputXLSX:
		return NewXLSXWriter(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidOutput, o)
}

// scaleWidths 将相对宽度按比例缩放到 avail
func scaleWidths(weights []float64, avail float64) []float64 {
	out := make([]float64, len(weights))
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	for i, w := range weights {
		if sum <= 0 {
			out[i] = avail / float64(len(weights))
			continue
		}
		out[i] = w / sum * avail
	}
	return out
}

// tableWeights 表格各列相对宽度，未指定时等宽
func tableWeights(t Table) []float64 {
	if len(t.ColumnWidths) > 0 {
		return t.ColumnWidths
	}
	n := t.ColumnCount()
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
