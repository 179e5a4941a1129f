package mastersheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// DefaultBatchSize 每批处理的学生数
const DefaultBatchSize = 200

// ErrSuperseded 同一份总表有更新的生成请求，本次生成已放弃
var ErrSuperseded = errors.New("已有更新的生成请求")

// 物理列相对宽度
var (
	identityWidths = [IdentityColumnCount]float64{5, 12, 28}
	subjectWidth   = 6.0
	totalsWidth    = 8.0
)

// WallBuilder 张贴版总表构建器
//
// 学生按批处理，每批结束后回调进度并让出执行权，再继续下一批。
// 输出行严格按输入顺序追加；分片按切分时的顺序从左到右输出。
type WallBuilder struct {
	guard     *RequestGuard
	batchSize int
	yield     Yielder
	logger    *zap.Logger
}

// WallOption WallBuilder 可选项
type WallOption func(*WallBuilder)

// WithBatchSize 设置批大小
func WithBatchSize(n int) WallOption {
	return func(b *WallBuilder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithYielder 替换批次间的让出实现
func WithYielder(y Yielder) WallOption {
	return func(b *WallBuilder) {
		if y != nil {
			b.yield = y
		}
	}
}

// NewWallBuilder 创建 WallBuilder
func NewWallBuilder(guard *RequestGuard, logger *zap.Logger, opts ...WallOption) *WallBuilder {
	if guard == nil {
		guard = NewRequestGuard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &WallBuilder{
		guard:     guard,
		batchSize: DefaultBatchSize,
		yield:     GoschedYielder,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 生成张贴版文档
//
// key 标识同一份总表（系部 / 班级 / 学年 / 学期），同 key 的新请求会使旧请求在下一个
// 批次边界返回 ErrSuperseded。p 为 nil 时返回空状态文档。
func (b *WallBuilder) Build(ctx context.Context, key string, p *Prepared, progress ProgressFunc) (*Document, error) {
	if p == nil {
		return EmptyDocument(FormatWall), nil
	}
	if progress == nil {
		progress = func(int, int) {}
	}

	id := b.guard.Begin(key)
	defer b.guard.Finish(key, id)

	cols := FlattenColumns(p.Subjects, p.SubjectSubcolumns)
	slices := SliceColumns(cols, len(p.TotalsColumns))
	bodies := make([][][]Cell, len(slices))

	total := len(p.Students)
	progress(0, total)

	for start := 0; start < total; start += b.batchSize {
		if !b.guard.IsCurrent(key, id) {
			b.logger.Debug("生成请求已被取代，放弃后续批次",
				zap.String("key", key), zap.Uint64("request_id", id), zap.Int("processed", start))
			return nil, ErrSuperseded
		}

		end := start + b.batchSize
		if end > total {
			end = total
		}
		for si, sl := range slices {
			for i := start; i < end; i++ {
				bodies[si] = append(bodies[si], wallRow(p, sl, i))
			}
		}
		progress(end, total)

		if end < total {
			if err := b.yield(ctx); err != nil {
				return nil, err
			}
		}
	}

	if !b.guard.IsCurrent(key, id) {
		return nil, ErrSuperseded
	}

	doc := b.assemble(p, slices, bodies)
	b.logger.Debug("张贴版构建完成",
		zap.String("key", key),
		zap.Int("students", total),
		zap.Int("columns", len(cols)),
		zap.Int("pages", len(doc.Pages)),
	)
	return doc, nil
}

// wallRow 第 i 个学生在分片 sl 中的一行
func wallRow(p *Prepared, sl Slice, i int) []Cell {
	st := p.Students[i]
	row := make([]Cell, 0, sl.Width(len(p.TotalsColumns)))

	if sl.IncludeIdentityColumns {
		row = append(row,
			Cell{Text: strconv.Itoa(i + 1)},
			Cell{Text: st.StudentID, Align: AlignLeft},
			Cell{Text: st.Name, Align: AlignLeft},
		)
	}
	for _, c := range sl.Columns {
		v := st.SubjectValue(c.SubjectCode, c.Key)
		row = append(row, Cell{Text: Fmt(v), Tone: ValueTone(c.Key, v)})
	}
	if sl.IncludeTotalsColumns {
		for _, key := range p.TotalsColumns {
			v := TotalsValue(st, key, p.Term)
			row = append(row, Cell{Text: Fmt(v), Tone: ValueTone(key, v), Bold: true})
		}
	}
	return row
}

func (b *WallBuilder) assemble(p *Prepared, slices []Slice, bodies [][][]Cell) *Document {
	stats := ComputeClassStats(p.Students, p.Term)
	doc := &Document{
		Title:  "Master Sheet",
		Format: FormatWall,
		Pages:  make([]Page, 0, len(slices)),
	}

	for i, sl := range slices {
		title := headerLines(p.Metadata, p.Term)
		title = append(title, fmt.Sprintf("Part %d of %d", i+1, len(slices)))
		if i == 0 {
			title = append(title, statsLine(stats))
		}
		doc.Pages = append(doc.Pages, Page{
			Size:      PageA3,
			Landscape: true,
			Title:     title,
			Tables: []Table{{
				ColumnWidths: sliceWidths(sl, len(p.TotalsColumns)),
				Header:       BuildHeaderRows(sl, p.TotalsColumns),
				Body:         bodies[i],
			}},
		})
	}
	return doc
}

func sliceWidths(sl Slice, totalsCount int) []float64 {
	w := make([]float64, 0, sl.Width(totalsCount))
	if sl.IncludeIdentityColumns {
		w = append(w, identityWidths[:]...)
	}
	for range sl.Columns {
		w = append(w, subjectWidth)
	}
	if sl.IncludeTotalsColumns {
		for i := 0; i < totalsCount; i++ {
			w = append(w, totalsWidth)
		}
	}
	return w
}

// headerLines 文档抬头：学校 / 系部班级学年 / 学期
func headerLines(m ClassMetadata, term Term) []string {
	var lines []string
	if m.SchoolName != "" {
		lines = append(lines, m.SchoolName)
	}
	lines = append(lines,
		fmt.Sprintf("%s - %s - %s", orDash(m.DepartmentName), orDash(m.ClassName), orDash(m.AcademicYear)),
		fmt.Sprintf("Master Sheet - %s", term.Label()),
	)
	return lines
}

func statsLine(s ClassStatistics) string {
	return fmt.Sprintf("Class Average: %s   Highest: %s   Lowest: %s   Students: %d",
		orDash(Fmt(s.ClassAverage)), orDash(Fmt(s.HighestAverage)), orDash(Fmt(s.LowestAverage)), s.Count)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
