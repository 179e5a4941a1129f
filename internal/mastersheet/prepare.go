package mastersheet

// Category 科目类别
type Category int

const (
	CategoryGeneral Category = iota
	CategoryProfessional
	CategoryPractical
)

// Categories 固定的类别顺序
var Categories = []Category{CategoryGeneral, CategoryProfessional, CategoryPractical}

// Label 表头分组文字
func (c Category) Label() string {
	switch c {
	case CategoryGeneral:
		return "General Subjects"
	case CategoryProfessional:
		return "Professional Subjects"
	default:
		return "Practical Subjects"
	}
}

// Key JSON 中使用的类别键
func (c Category) Key() string {
	switch c {
	case CategoryGeneral:
		return "general"
	case CategoryProfessional:
		return "professional"
	default:
		return "practical"
	}
}

// SubjectDefinition 科目定义
type SubjectDefinition struct {
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Coefficient Score    `json:"coefficient"`
	Category    Category `json:"-"`
}

// DisplayTitle 优先使用科目名称
func (d SubjectDefinition) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Code
}

// SubjectGroups 三类科目定义
type SubjectGroups struct {
	General      []SubjectDefinition `json:"general"`
	Professional []SubjectDefinition `json:"professional"`
	Practical    []SubjectDefinition `json:"practical"`
}

// Of 按类别取科目列表
func (g SubjectGroups) Of(c Category) []SubjectDefinition {
	switch c {
	case CategoryGeneral:
		return g.General
	case CategoryProfessional:
		return g.Professional
	default:
		return g.Practical
	}
}

// All 按类别顺序返回全部科目
func (g SubjectGroups) All() []SubjectDefinition {
	all := make([]SubjectDefinition, 0, len(g.General)+len(g.Professional)+len(g.Practical))
	for _, c := range Categories {
		all = append(all, g.Of(c)...)
	}
	return all
}

// SubjectScoreSet 学生在某一科目的全部分数
type SubjectScoreSet struct {
	Scores map[string]Score
	Coef   Score
	Title  string
}

// Value 取子列数值，coef 取冗余存储的系数
func (s SubjectScoreSet) Value(key string) Score {
	if key == KeyCoef {
		return s.Coef
	}
	return s.Scores[key]
}

// StudentRecord 规整后的学生记录，生成后只读
type StudentRecord struct {
	StudentID  string
	Name       string
	Subjects   map[string]SubjectScoreSet
	TermTotals *TermTotals
}

// SubjectValue 取某科目某子列的值，科目缺失时为空值
func (r StudentRecord) SubjectValue(code, key string) Score {
	set, ok := r.Subjects[code]
	if !ok {
		return Score{}
	}
	return set.Value(key)
}

// ClassMetadata 班级元信息，取自第一条成绩单
type ClassMetadata struct {
	SchoolName     string `json:"school_name"`
	DepartmentName string `json:"department_name"`
	ClassName      string `json:"class_name"`
	AcademicYear   string `json:"academic_year"`
}

// Prepared 数据准备阶段的产物
type Prepared struct {
	Metadata          ClassMetadata
	Subjects          SubjectGroups
	Students          []StudentRecord
	Term              Term
	SubjectSubcolumns []string
	TotalsColumns     []string
}

// Prepare 将成绩单数组规整为统一模型
//
// 输入为空时返回 nil（"无数据" 哨兵），所有下游阶段遇到 nil 直接渲染空状态。
// 元信息与科目定义只从第一条记录读取，同一批次默认科目一致。
func Prepare(cards []ReportCard, term Term) *Prepared {
	if len(cards) == 0 || !term.Valid() {
		return nil
	}

	first := cards[0]
	p := &Prepared{
		Metadata: ClassMetadata{
			DepartmentName: first.Student.Option,
			ClassName:      first.Student.Class,
			AcademicYear:   first.Student.AcademicYear,
		},
		Subjects: SubjectGroups{
			General:      definitionsOf(first.GeneralSubjects, CategoryGeneral),
			Professional: definitionsOf(first.ProfessionalSubjects, CategoryProfessional),
			Practical:    definitionsOf(first.PracticalSubjects, CategoryPractical),
		},
		Students:          make([]StudentRecord, 0, len(cards)),
		Term:              term,
		SubjectSubcolumns: SubjectSubcolumns(term),
		TotalsColumns:     TotalsColumns(term),
	}

	for _, card := range cards {
		p.Students = append(p.Students, prepareStudent(card))
	}
	return p
}

func definitionsOf(entries []SubjectEntry, c Category) []SubjectDefinition {
	defs := make([]SubjectDefinition, 0, len(entries))
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		defs = append(defs, SubjectDefinition{
			Code:        e.Code,
			Title:       e.Title,
			Coefficient: e.Coef,
			Category:    c,
		})
	}
	return defs
}

func prepareStudent(card ReportCard) StudentRecord {
	rec := StudentRecord{
		StudentID:  card.Student.ID,
		Name:       card.Student.Name,
		Subjects:   make(map[string]SubjectScoreSet),
		TermTotals: withAnnualFallback(card.TermTotals),
	}

	groups := [][]SubjectEntry{card.GeneralSubjects, card.ProfessionalSubjects, card.PracticalSubjects}
	for _, entries := range groups {
		for _, e := range entries {
			if e.Code == "" {
				continue
			}
			scores := make(map[string]Score, len(e.Scores))
			for k, v := range e.Scores {
				scores[k] = v
			}
			rec.Subjects[e.Code] = SubjectScoreSet{
				Scores: scores,
				Coef:   e.Coef,
				Title:  e.Title,
			}
		}
	}
	return rec
}

// withAnnualFallback 复制 termTotals，全年平均缺失时用已有学期平均推导
func withAnnualFallback(tt *TermTotals) *TermTotals {
	if tt == nil {
		return nil
	}
	out := &TermTotals{
		Term1:  copyResult(tt.Term1),
		Term2:  copyResult(tt.Term2),
		Term3:  copyResult(tt.Term3),
		Annual: copyResult(tt.Annual),
	}
	if out.Annual != nil && out.Annual.Average.Valid {
		return out
	}

	var avgs []Score
	for _, r := range []*TermResult{out.Term1, out.Term2, out.Term3} {
		if r != nil {
			avgs = append(avgs, r.Average)
		}
	}
	fallback := AverageOf(avgs)
	if !fallback.Valid {
		return out
	}
	if out.Annual == nil {
		out.Annual = &TermResult{}
	}
	out.Annual.Average = fallback
	return out
}

func copyResult(r *TermResult) *TermResult {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
