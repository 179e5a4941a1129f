package mastersheet

// ── 列分片（仅张贴版） ──
//
// 一页放不下所有科目子列，按列数把扁平列表切成多页：
//   - 第一片：最多 20 个科目列，另带 3 个身份列（序号 / 学号 / 姓名）
//   - 中间片：每片最多 34 列
//   - 最后一片：科目列不超过 max(16, 30 - 汇总列数)，且只有它带汇总列
//
// 切分只看累计列数，不会为了让同一科目的子列落在同一页而调整边界。

const (
	FirstSliceCapacity  = 20
	MiddleSliceCapacity = 34

	lastSliceBase  = 30
	lastSliceFloor = 16
)

// IdentityColumnCount 身份列数量
const IdentityColumnCount = 3

// ColumnRef 扁平列表中的一个物理列
type ColumnRef struct {
	Category    Category
	SubjectCode string
	Key         string
}

// Slice 一个分片（一页的列范围）
type Slice struct {
	Columns                []ColumnRef
	IncludeIdentityColumns bool
	IncludeTotalsColumns   bool
}

// Width 分片的物理列数
func (s Slice) Width(totalsCount int) int {
	n := len(s.Columns)
	if s.IncludeIdentityColumns {
		n += IdentityColumnCount
	}
	if s.IncludeTotalsColumns {
		n += totalsCount
	}
	return n
}

// FlattenColumns 按 类别 → 科目 → 子列 的顺序展开全部列
func FlattenColumns(groups SubjectGroups, subcolumns []string) []ColumnRef {
	var cols []ColumnRef
	for _, c := range Categories {
		for _, def := range groups.Of(c) {
			for _, key := range subcolumns {
				cols = append(cols, ColumnRef{Category: c, SubjectCode: def.Code, Key: key})
			}
		}
	}
	return cols
}

// LastSliceCapacity 最后一片可容纳的科目列数
func LastSliceCapacity(totalsCount int) int {
	if c := lastSliceBase - totalsCount; c > lastSliceFloor {
		return c
	}
	return lastSliceFloor
}

// SliceColumns 将扁平列表切成有序分片
//
// 所有分片的 Columns 依次拼接恰好等于输入；身份列只在第一片，汇总列只在最后一片。
// 中间片吃掉全部剩余列时，追加一个仅含汇总列的尾片。
func SliceColumns(cols []ColumnRef, totalsCount int) []Slice {
	hasTotals := totalsCount > 0

	if len(cols) <= FirstSliceCapacity {
		return []Slice{{
			Columns:                cols,
			IncludeIdentityColumns: true,
			IncludeTotalsColumns:   hasTotals,
		}}
	}

	slices := []Slice{{Columns: cols[:FirstSliceCapacity], IncludeIdentityColumns: true}}
	rest := cols[FirstSliceCapacity:]
	lastCap := LastSliceCapacity(totalsCount)

	for len(rest) > lastCap {
		n := MiddleSliceCapacity
		if n > len(rest) {
			n = len(rest)
		}
		slices = append(slices, Slice{Columns: rest[:n]})
		rest = rest[n:]
	}

	if len(rest) > 0 || hasTotals {
		slices = append(slices, Slice{Columns: rest, IncludeTotalsColumns: hasTotals})
	}
	return slices
}
