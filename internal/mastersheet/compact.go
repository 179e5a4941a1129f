package mastersheet

import (
	"fmt"
	"sort"
	"strconv"
)

// DefaultSignatures 签名区默认角色
var DefaultSignatures = []string{"Class Master", "Head of Department", "Principal"}

// CompactOptions A4 紧凑版选项
type CompactOptions struct {
	IncludeSignatures bool
	Signatures        []string
}

// SubjectsPerPage 科目明细页每页科目数：全年 2 个，单学期 3 个
func SubjectsPerPage(term Term) int {
	if term == Annual {
		return 2
	}
	return 3
}

// RankedStudents 按当前学期排名升序排列，无排名（999）排在最后，同名次保持输入顺序
func RankedStudents(p *Prepared) []StudentRecord {
	ranked := make([]StudentRecord, len(p.Students))
	copy(ranked, p.Students)
	sort.SliceStable(ranked, func(i, j int) bool {
		return RankValue(ranked[i], p.Term) < RankValue(ranked[j], p.Term)
	})
	return ranked
}

// BuildCompact 生成 A4 会议版：排名总览页 + 科目明细页 + 可选签名区
// 数据量较小，同步构建即可。
func BuildCompact(p *Prepared, opts CompactOptions) *Document {
	if p == nil {
		return EmptyDocument(FormatA4)
	}

	ranked := RankedStudents(p)
	doc := &Document{Title: "Master Sheet", Format: FormatA4}
	doc.Pages = append(doc.Pages, overviewPage(p, ranked))
	doc.Pages = append(doc.Pages, subjectPages(p, ranked)...)

	if opts.IncludeSignatures {
		sigs := opts.Signatures
		if len(sigs) == 0 {
			sigs = DefaultSignatures
		}
		last := &doc.Pages[len(doc.Pages)-1]
		last.Signatures = append([]string(nil), sigs...)
	}
	return doc
}

func overviewPage(p *Prepared, ranked []StudentRecord) Page {
	avgKeys := []string{termAvgKey(p.Term)}
	if p.Term == Annual {
		avgKeys = []string{KeyTerm1Avg, KeyTerm2Avg, KeyTerm3Avg, KeyAnnualAvg}
	}

	header := []Cell{
		{Text: "#", Bold: true},
		{Text: "Student ID", Bold: true},
		{Text: "Student Name", Bold: true},
	}
	widths := []float64{6, 16, 40}
	for _, k := range avgKeys {
		header = append(header, Cell{Text: TotalsLabel(k), Bold: true})
		widths = append(widths, 12)
	}
	header = append(header, Cell{Text: "Rank", Bold: true}, Cell{Text: "Status", Bold: true})
	widths = append(widths, 10, 12)

	body := make([][]Cell, 0, len(ranked))
	for i, st := range ranked {
		row := []Cell{
			{Text: strconv.Itoa(i + 1)},
			{Text: st.StudentID, Align: AlignLeft},
			{Text: st.Name, Align: AlignLeft},
		}
		for _, k := range avgKeys {
			v := TotalsValue(st, k, p.Term)
			row = append(row, Cell{Text: Fmt(v), Tone: ValueTone(k, v)})
		}
		status := PassStatus(TermAverage(st, p.Term))
		row = append(row,
			Cell{Text: RankText(st, p.Term)},
			Cell{Text: status, Tone: statusTone(status), Bold: true},
		)
		body = append(body, row)
	}

	title := headerLines(p.Metadata, p.Term)
	title = append(title, "Class Overview", statsLine(ComputeClassStats(p.Students, p.Term)))
	return Page{
		Size:  PageA4,
		Title: title,
		Tables: []Table{{
			ColumnWidths: widths,
			Header:       [][]Cell{header},
			Body:         body,
		}},
	}
}

func subjectPages(p *Prepared, ranked []StudentRecord) []Page {
	subjects := p.Subjects.All()
	per := SubjectsPerPage(p.Term)
	var pages []Page

	for start := 0; start < len(subjects); start += per {
		end := start + per
		if end > len(subjects) {
			end = len(subjects)
		}
		page := Page{
			Size:       PageA4,
			Landscape:  true,
			Title:      append(headerLines(p.Metadata, p.Term), "Subject Breakdown"),
			SideBySide: true,
		}
		for _, def := range subjects[start:end] {
			page.Tables = append(page.Tables, subjectTable(def, p.SubjectSubcolumns, ranked))
		}
		pages = append(pages, page)
	}
	return pages
}

func subjectTable(def SubjectDefinition, subcolumns []string, ranked []StudentRecord) Table {
	header := []Cell{{Text: "#", Bold: true}, {Text: "Name", Bold: true}}
	widths := []float64{5, 24}
	for _, k := range subcolumns {
		header = append(header, Cell{Text: SubcolumnLabel(k), Bold: true})
		widths = append(widths, 7)
	}

	body := make([][]Cell, 0, len(ranked))
	for i, st := range ranked {
		row := []Cell{{Text: strconv.Itoa(i + 1)}, {Text: st.Name, Align: AlignLeft}}
		for _, k := range subcolumns {
			v := st.SubjectValue(def.Code, k)
			row = append(row, Cell{Text: Fmt(v), Tone: ValueTone(k, v)})
		}
		body = append(body, row)
	}

	caption := def.Code
	if def.Title != "" {
		caption = fmt.Sprintf("%s - %s", def.Code, def.Title)
	}
	if c := Fmt(def.Coefficient); c != "" {
		caption += fmt.Sprintf(" (Coef %s)", c)
	}
	return Table{
		Caption:      caption,
		ColumnWidths: widths,
		Header:       [][]Cell{header},
		Body:         body,
	}
}

func termAvgKey(t Term) string {
	switch t {
	case Term1:
		return KeyTerm1Avg
	case Term2:
		return KeyTerm2Avg
	case Term3:
		return KeyTerm3Avg
	default:
		return KeyAnnualAvg
	}
}

func statusTone(status string) Tone {
	switch status {
	case "PASS":
		return TonePass
	case "FAIL":
		return ToneFail
	}
	return ToneNeutral
}
