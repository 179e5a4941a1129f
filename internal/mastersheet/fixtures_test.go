package mastersheet

import (
	"fmt"
)

// ── 测试辅助 ──

func subject(code string, scores map[string]Score) SubjectEntry {
	return SubjectEntry{Code: code, Title: "Subject " + code, Coef: Num(2), Scores: scores}
}

func termTotals(avg float64, rank int) *TermTotals {
	return &TermTotals{Term1: &TermResult{Average: Num(avg), Rank: Num(float64(rank))}}
}

// makeCards 生成 n 个学生，每类科目 perCategory 门
func makeCards(n, perCategory int) []ReportCard {
	cards := make([]ReportCard, 0, n)
	for i := 0; i < n; i++ {
		c := ReportCard{
			Student: StudentInfo{
				ID:           fmt.Sprintf("STU%04d", i+1),
				Name:         fmt.Sprintf("Student %d", i+1),
				Option:       "Electricity",
				Class:        "F4 EL",
				AcademicYear: "2024/2025",
			},
			TermTotals: termTotals(float64(8+i%10), i+1),
		}
		for j := 0; j < perCategory; j++ {
			scores := map[string]Score{KeySeq1: Num(12), KeySeq2: Num(8), KeyTerm1Avg: Num(10)}
			c.GeneralSubjects = append(c.GeneralSubjects, subject(fmt.Sprintf("G%d", j+1), scores))
			c.ProfessionalSubjects = append(c.ProfessionalSubjects, subject(fmt.Sprintf("P%d", j+1), scores))
			c.PracticalSubjects = append(c.PracticalSubjects, subject(fmt.Sprintf("X%d", j+1), scores))
		}
		cards = append(cards, c)
	}
	return cards
}

// threeStudents term1 平均分 15 / 9 / 12，排名与平均分一致
func threeStudents() []ReportCard {
	mk := func(id, name string, avg float64, rank int) ReportCard {
		return ReportCard{
			Student: StudentInfo{ID: id, Name: name, Option: "Building", Class: "F2 BT", AcademicYear: "2024/2025"},
			GeneralSubjects: []SubjectEntry{
				subject("MATH", map[string]Score{KeySeq1: Num(avg), KeySeq2: Num(avg), KeyTerm1Avg: Num(avg)}),
			},
			TermTotals: termTotals(avg, rank),
		}
	}
	return []ReportCard{
		mk("S1", "Alice", 15, 1),
		mk("S2", "Bob", 9, 3),
		mk("S3", "Carol", 12, 2),
	}
}
