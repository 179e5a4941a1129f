package mastersheet

// IdentityLabels 身份列表头
var IdentityLabels = [IdentityColumnCount]string{"S/N", "Student ID", "Student Name"}

const (
	groupStudentInfo = "Student Info"
	groupTotals      = "Totals"
)

// BuildHeaderRows 为一个分片构建三行合并表头
//
//  1. 分组行：Student Info / 各类别科目 / Totals，跨列数之和等于分片物理列数
//  2. 科目行：按分片内连续相同的科目代码合并
//  3. 子列行：每个物理列一个标签，身份列与汇总列下方留空
func BuildHeaderRows(slice Slice, totals []string) [][]Cell {
	group := make([]Cell, 0, 5)
	subject := make([]Cell, 0, len(slice.Columns)+IdentityColumnCount+len(totals))
	sub := make([]Cell, 0, cap(subject))

	if slice.IncludeIdentityColumns {
		group = append(group, Cell{Text: groupStudentInfo, ColSpan: IdentityColumnCount, Bold: true})
		for _, l := range IdentityLabels {
			subject = append(subject, Cell{Text: l, Bold: true})
			sub = append(sub, Cell{})
		}
	}

	group = append(group, runs(slice.Columns,
		func(c ColumnRef) string { return c.Category.Key() },
		func(c ColumnRef) string { return c.Category.Label() })...)
	subject = append(subject, runs(slice.Columns,
		func(c ColumnRef) string { return c.Category.Key() + "/" + c.SubjectCode },
		func(c ColumnRef) string { return c.SubjectCode })...)
	for _, c := range slice.Columns {
		sub = append(sub, Cell{Text: SubcolumnLabel(c.Key)})
	}

	if slice.IncludeTotalsColumns && len(totals) > 0 {
		group = append(group, Cell{Text: groupTotals, ColSpan: len(totals), Bold: true})
		for _, key := range totals {
			subject = append(subject, Cell{Text: TotalsLabel(key), Bold: true})
			sub = append(sub, Cell{})
		}
	}

	return [][]Cell{group, subject, sub}
}

// runs 单次遍历，把 key 连续相同的列合并为一个跨列单元格
func runs(cols []ColumnRef, key, label func(ColumnRef) string) []Cell {
	var (
		out  []Cell
		prev string
	)
	for i, c := range cols {
		k := key(c)
		if i > 0 && k == prev {
			out[len(out)-1].ColSpan++
			continue
		}
		out = append(out, Cell{Text: label(c), ColSpan: 1, Bold: true})
		prev = k
	}
	return out
}
