package mastersheet

// ── 屏幕预览 ──
//
// 与文档同源的数据视图：桌面端表格、移动端卡片。

// ViewCell 预览单元格
type ViewCell struct {
	Text    string `json:"text"`
	Flagged bool   `json:"flagged,omitempty"`
}

// ViewColumn 预览列描述
type ViewColumn struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Group   string `json:"group"`
	Subject string `json:"subject,omitempty"`
}

// TableView 桌面端表格视图
type TableView struct {
	Columns []ViewColumn `json:"columns"`
	Rows    [][]ViewCell `json:"rows"`
}

// CardSubject 卡片中的单个科目
type CardSubject struct {
	Code   string     `json:"code"`
	Title  string     `json:"title"`
	Labels []string   `json:"labels"`
	Values []ViewCell `json:"values"`
}

// StudentCard 移动端学生卡片
type StudentCard struct {
	StudentID string        `json:"student_id"`
	Name      string        `json:"name"`
	Average   ViewCell      `json:"average"`
	Rank      string        `json:"rank"`
	Status    string        `json:"status"`
	Subjects  []CardSubject `json:"subjects"`
}

// BuildTableView 构建表格视图，行顺序与输入一致
func BuildTableView(p *Prepared) TableView {
	if p == nil {
		return TableView{Columns: []ViewColumn{}, Rows: [][]ViewCell{}}
	}

	cols := FlattenColumns(p.Subjects, p.SubjectSubcolumns)
	view := TableView{
		Columns: make([]ViewColumn, 0, IdentityColumnCount+len(cols)+len(p.TotalsColumns)),
		Rows:    make([][]ViewCell, 0, len(p.Students)),
	}
	for i, l := range IdentityLabels {
		view.Columns = append(view.Columns, ViewColumn{Key: identityKeys[i], Label: l, Group: groupStudentInfo})
	}
	for _, c := range cols {
		view.Columns = append(view.Columns, ViewColumn{
			Key:     c.SubjectCode + "." + c.Key,
			Label:   SubcolumnLabel(c.Key),
			Group:   c.Category.Label(),
			Subject: c.SubjectCode,
		})
	}
	for _, k := range p.TotalsColumns {
		view.Columns = append(view.Columns, ViewColumn{Key: k, Label: TotalsLabel(k), Group: groupTotals})
	}

	full := Slice{Columns: cols, IncludeIdentityColumns: true, IncludeTotalsColumns: true}
	for i := range p.Students {
		view.Rows = append(view.Rows, viewRow(wallRow(p, full, i)))
	}
	return view
}

var identityKeys = [IdentityColumnCount]string{"sn", "student_id", "name"}

// BuildCardView 构建卡片视图，按排名排序
func BuildCardView(p *Prepared) []StudentCard {
	if p == nil {
		return []StudentCard{}
	}

	subjects := p.Subjects.All()
	labels := make([]string, len(p.SubjectSubcolumns))
	for i, k := range p.SubjectSubcolumns {
		labels[i] = SubcolumnLabel(k)
	}

	cards := make([]StudentCard, 0, len(p.Students))
	for _, st := range RankedStudents(p) {
		avg := TermAverage(st, p.Term)
		card := StudentCard{
			StudentID: st.StudentID,
			Name:      st.Name,
			Average:   ViewCell{Text: Fmt(avg), Flagged: avg.Valid && avg.Num < PassMark},
			Rank:      RankText(st, p.Term),
			Status:    PassStatus(avg),
			Subjects:  make([]CardSubject, 0, len(subjects)),
		}
		for _, def := range subjects {
			cs := CardSubject{Code: def.Code, Title: def.DisplayTitle(), Labels: labels}
			for _, k := range p.SubjectSubcolumns {
				v := st.SubjectValue(def.Code, k)
				cs.Values = append(cs.Values, ViewCell{Text: Fmt(v), Flagged: ValueTone(k, v) == ToneFail})
			}
			card.Subjects = append(card.Subjects, cs)
		}
		cards = append(cards, card)
	}
	return cards
}

func viewRow(cells []Cell) []ViewCell {
	out := make([]ViewCell, len(cells))
	for i, c := range cells {
		out[i] = ViewCell{Text: c.Text, Flagged: c.Tone == ToneFail}
	}
	return out
}
