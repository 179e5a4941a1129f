package mastersheet

import (
	"reflect"
	"testing"
)

func TestPrepare_NoData(t *testing.T) {
	if p := Prepare(nil, Term1); p != nil {
		t.Error("空输入应返回 nil")
	}
	if p := Prepare([]ReportCard{}, Annual); p != nil {
		t.Error("空数组应返回 nil")
	}
	if p := Prepare(makeCards(1, 1), Term("term9")); p != nil {
		t.Error("无效学期应返回 nil")
	}
}

func TestDecodeReportCards_Malformed(t *testing.T) {
	for _, raw := range []string{``, `null`, `{"student":{}}`, `"cards"`, `[1,2`, `42`} {
		if cards := DecodeReportCards([]byte(raw)); cards != nil {
			t.Errorf("DecodeReportCards(%q) = %v, want nil", raw, cards)
		}
	}
}

func TestDecodeReportCards_Aliases(t *testing.T) {
	raw := `[
	  {"student": {"registrationNumber": "REG-1", "full_name": "Ngono Marie", "option": "Electricity", "class": "F5 EL", "academicYear": "2024/2025"},
	   "generalSubjects": [{"code": "MATH", "title": "Mathematics", "coef": 4, "scores": {"seq1": "14", "seq2": 9, "term1Avg": 11.5}}],
	   "professionalSubjects": [{"code": 301, "title": "Circuits", "coefficient": "3", "scores": {"seq1": null}}],
	   "practicalSubjects": [],
	   "termTotals": {"term1": {"average": 11.5, "rank": "4"}}},
	  {"student": {"student_id": 2002, "name": "Atangana Paul"}},
	  {"student": {"id": "X-3", "name": "Bella"}}
	]`
	cards := DecodeReportCards([]byte(raw))
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}

	first := cards[0]
	if first.Student.ID != "REG-1" || first.Student.Name != "Ngono Marie" {
		t.Errorf("student aliases not resolved: %+v", first.Student)
	}
	if cards[1].Student.ID != "2002" || cards[2].Student.ID != "X-3" {
		t.Errorf("id fallbacks not resolved: %q %q", cards[1].Student.ID, cards[2].Student.ID)
	}
	prof := first.ProfessionalSubjects[0]
	if prof.Code != "301" || !prof.Coef.Valid || prof.Coef.Num != 3 {
		t.Errorf("numeric code / coefficient alias not resolved: %+v", prof)
	}
	if got := first.GeneralSubjects[0].Scores[KeySeq1]; !got.Valid || got.Num != 14 {
		t.Errorf("numeric string score = %+v", got)
	}
}

func TestDecodeReportCards_IrregularFieldsDegradeToBlank(t *testing.T) {
	raw := `[
	  {"student": {"id": "S1", "name": "Alice", "option": "Electricity", "class": "F4 EL", "academicYear": "2024/2025"},
	   "generalSubjects": [{"code": "MATH", "title": "Mathematics", "coef": 4, "scores": {"seq1": 14, "seq2": 12, "term1Avg": 13}}],
	   "termTotals": {"term1": {"average": 13, "rank": 1}, "annual": {"average": 13, "rank": 1}}},
	  {"student": {"id": "S2", "name": "Bob"},
	   "generalSubjects": [{"code": "MATH", "title": "Mathematics", "coef": 4, "scores": []}],
	   "termTotals": {"term1": {"average": 9, "rank": 2}, "annual": ""}}
	]`
	cards := DecodeReportCards([]byte(raw))
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	p := Prepare(cards, Term1)
	if p == nil {
		t.Fatal("Prepare 不应返回 nil")
	}
	if len(p.Students) != 2 {
		t.Fatalf("students = %d, want 2", len(p.Students))
	}
	bob := p.Students[1]
	if bob.StudentID != "S2" {
		t.Errorf("second student id = %q", bob.StudentID)
	}
	if got := bob.SubjectValue("MATH", KeySeq1); !got.IsBlank() {
		t.Errorf("scores 为数组时应视为空，got %+v", got)
	}
	if got := bob.SubjectValue("MATH", KeyCoef); got.Num != 4 {
		t.Errorf("coef = %+v, want 4", got)
	}
	if got := Fmt(TermAverage(bob, Term1)); got != "9" {
		t.Errorf("term1 average = %q, want 9", got)
	}
	if cards[1].TermTotals.Annual != nil {
		t.Errorf("annual 为空串时应视为缺失，got %+v", cards[1].TermTotals.Annual)
	}
	annual := Prepare(cards, Annual)
	if got := Fmt(TermAverage(annual.Students[1], Annual)); got != "9" {
		t.Errorf("annual average should fall back to term1, got %q", got)
	}
}

func TestDecodeReportCards_ShapeQuirks(t *testing.T) {
	raw := `[
	  {"student": {"id": "A"}, "termTotals": []},
	  {"student": {"id": "B"}, "termTotals": {"term1": "n/a", "term2": {"average": "12", "rank": {}}}},
	  {"student": {"id": "C"}, "generalSubjects": "none", "professionalSubjects": [42, {"code": "P1", "scores": {"seq1": 11}}]},
	  {"student": "D"},
	  "not a card",
	  null
	]`
	cards := DecodeReportCards([]byte(raw))
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards, got %d", len(cards))
	}

	if cards[0].Student.ID != "A" || cards[0].TermTotals != nil {
		t.Errorf("termTotals 为数组时应视为缺失: %+v", cards[0])
	}

	totals := cards[1].TermTotals
	if totals == nil || totals.Term1 != nil {
		t.Fatalf("term1 为字符串时应视为缺失: %+v", totals)
	}
	if totals.Term2 == nil || totals.Term2.Average.Num != 12 {
		t.Fatalf("term2 = %+v", totals.Term2)
	}
	if totals.Term2.Rank.Valid {
		t.Errorf("对象形式的 rank 不应是数值: %+v", totals.Term2.Rank)
	}
	p := Prepare(cards, Term2)
	if got := RankValue(p.Students[1], Term2); got != NoRank {
		t.Errorf("rank = %d, want NoRank", got)
	}

	c := cards[2]
	if c.GeneralSubjects != nil {
		t.Errorf("generalSubjects 不是数组时应为空: %+v", c.GeneralSubjects)
	}
	if len(c.ProfessionalSubjects) != 1 || c.ProfessionalSubjects[0].Code != "P1" {
		t.Errorf("非对象科目条目应被跳过: %+v", c.ProfessionalSubjects)
	}

	if cards[3].Student.ID != "" {
		t.Errorf("student 不是对象时应为空: %+v", cards[3].Student)
	}
}

func TestPrepare_MetadataAndSubjects(t *testing.T) {
	cards := makeCards(3, 2)
	cards[1].Student.Class = "ignored"

	p := Prepare(cards, Term1)
	if p == nil {
		t.Fatal("Prepare 不应返回 nil")
	}
	want := ClassMetadata{DepartmentName: "Electricity", ClassName: "F4 EL", AcademicYear: "2024/2025"}
	if p.Metadata != want {
		t.Errorf("metadata = %+v, want %+v", p.Metadata, want)
	}
	if len(p.Subjects.General) != 2 || len(p.Subjects.Professional) != 2 || len(p.Subjects.Practical) != 2 {
		t.Errorf("subject definitions = %+v", p.Subjects)
	}
	if len(p.Students) != 3 {
		t.Fatalf("students = %d", len(p.Students))
	}
	st := p.Students[0]
	if got := st.SubjectValue("G1", KeyCoef); got.Num != 2 {
		t.Errorf("coef not denormalized: %+v", got)
	}
	if got := st.SubjectValue("G1", KeySeq1); got.Num != 12 {
		t.Errorf("seq1 = %+v", got)
	}
	if got := st.SubjectValue("NOPE", KeySeq1); !got.IsBlank() {
		t.Errorf("missing subject should be blank, got %+v", got)
	}
}

func TestPrepare_AnnualFallback(t *testing.T) {
	tests := []struct {
		name   string
		totals *TermTotals
		want   string
	}{
		{
			name: "两个学期求平均",
			totals: &TermTotals{
				Term1: &TermResult{Average: Num(12)},
				Term2: &TermResult{Average: Num(13)},
			},
			want: "12.5",
		},
		{
			name: "一位小数",
			totals: &TermTotals{
				Term1:  &TermResult{Average: Num(10)},
				Term2:  &TermResult{Average: Num(11)},
				Term3:  &TermResult{Average: Num(11)},
				Annual: &TermResult{Rank: Num(5)},
			},
			want: "10.7",
		},
		{
			name: "忽略非数值",
			totals: &TermTotals{
				Term1: &TermResult{Average: Num(14)},
				Term2: &TermResult{Average: Score{Text: "n/a"}},
			},
			want: "14",
		},
		{
			name:   "没有任何学期平均",
			totals: &TermTotals{Term1: &TermResult{Rank: Num(1)}},
			want:   "",
		},
		{
			name: "已有全年平均不覆盖",
			totals: &TermTotals{
				Term1:  &TermResult{Average: Num(8)},
				Annual: &TermResult{Average: Num(16)},
			},
			want: "16",
		},
		{
			name:   "termTotals 缺失",
			totals: nil,
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := []ReportCard{{Student: StudentInfo{ID: "S1"}, TermTotals: tt.totals}}
			p := Prepare(cards, Annual)
			got := Fmt(TermAverage(p.Students[0], Annual))
			if got != tt.want {
				t.Errorf("annual average = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrepare_DoesNotMutateInput(t *testing.T) {
	totals := &TermTotals{Term1: &TermResult{Average: Num(12)}}
	Prepare([]ReportCard{{TermTotals: totals}}, Annual)
	if totals.Annual != nil {
		t.Error("输入的 termTotals 不应被修改")
	}
}

func TestColumnSchema(t *testing.T) {
	tests := []struct {
		term   Term
		sub    []string
		totals []string
	}{
		{Term1, []string{"seq1", "seq2", "term1Avg", "coef"}, []string{"term1Avg", "rank"}},
		{Term2, []string{"seq3", "seq4", "term2Avg", "coef"}, []string{"term2Avg", "rank"}},
		{Term3, []string{"seq5", "seq6", "term3Avg", "coef"}, []string{"term3Avg", "rank"}},
		{Annual,
			[]string{"seq1", "seq2", "seq3", "seq4", "seq5", "seq6", "term1Avg", "term2Avg", "term3Avg", "finalAvg", "coef"},
			[]string{"term1Avg", "term2Avg", "term3Avg", "annualAvg", "rank"}},
	}
	for _, tt := range tests {
		p := Prepare(makeCards(1, 1), tt.term)
		if !reflect.DeepEqual(p.SubjectSubcolumns, tt.sub) {
			t.Errorf("%s subcolumns = %v, want %v", tt.term, p.SubjectSubcolumns, tt.sub)
		}
		if !reflect.DeepEqual(p.TotalsColumns, tt.totals) {
			t.Errorf("%s totals = %v, want %v", tt.term, p.TotalsColumns, tt.totals)
		}
	}
}

func TestParseTerm(t *testing.T) {
	for _, s := range []string{"term1", "TERM2", " term3 ", "Annual"} {
		if _, err := ParseTerm(s); err != nil {
			t.Errorf("ParseTerm(%q) error: %v", s, err)
		}
	}
	if _, err := ParseTerm("term4"); err == nil {
		t.Error("ParseTerm(term4) 应返回错误")
	}
}
