package mastersheet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTerm 未知学期
var ErrInvalidTerm = errors.New("无效的学期")

// Term 学期选择
type Term string

const (
	Term1  Term = "term1"
	Term2  Term = "term2"
	Term3  Term = "term3"
	Annual Term = "annual"
)

// Terms 全部合法取值（按时间顺序）
var Terms = []Term{Term1, Term2, Term3, Annual}

// ParseTerm 解析学期参数（大小写不敏感）
func ParseTerm(s string) (Term, error) {
	t := Term(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTerm, s)
}

// Valid 是否为合法学期
func (t Term) Valid() bool {
	switch t {
	case Term1, Term2, Term3, Annual:
		return true
	}
	return false
}

// Code 文件名中使用的学期代码
func (t Term) Code() string {
	switch t {
	case Term1:
		return "T1"
	case Term2:
		return "T2"
	case Term3:
		return "T3"
	default:
		return "Annual"
	}
}

// Label 文档标题中的学期名称
func (t Term) Label() string {
	switch t {
	case Term1:
		return "First Term"
	case Term2:
		return "Second Term"
	case Term3:
		return "Third Term"
	default:
		return "Annual"
	}
}

// ── 列键 ──

const (
	KeySeq1      = "seq1"
	KeySeq2      = "seq2"
	KeySeq3      = "seq3"
	KeySeq4      = "seq4"
	KeySeq5      = "seq5"
	KeySeq6      = "seq6"
	KeyTerm1Avg  = "term1Avg"
	KeyTerm2Avg  = "term2Avg"
	KeyTerm3Avg  = "term3Avg"
	KeyFinalAvg  = "finalAvg"
	KeyCoef      = "coef"
	KeyAnnualAvg = "annualAvg"
	KeyRank      = "rank"
)

// SubjectSubcolumns 每个科目下的子列，仅由学期决定
func SubjectSubcolumns(t Term) []string {
	switch t {
	case Term1:
		return []string{KeySeq1, KeySeq2, KeyTerm1Avg, KeyCoef}
	case Term2:
		return []string{KeySeq3, KeySeq4, KeyTerm2Avg, KeyCoef}
	case Term3:
		return []string{KeySeq5, KeySeq6, KeyTerm3Avg, KeyCoef}
	case Annual:
		return []string{
			KeySeq1, KeySeq2, KeySeq3, KeySeq4, KeySeq5, KeySeq6,
			KeyTerm1Avg, KeyTerm2Avg, KeyTerm3Avg, KeyFinalAvg, KeyCoef,
		}
	}
	return nil
}

// TotalsColumns 汇总列（学期平均 + 排名），仅出现在最后一个分片
func TotalsColumns(t Term) []string {
	switch t {
	case Term1:
		return []string{KeyTerm1Avg, KeyRank}
	case Term2:
		return []string{KeyTerm2Avg, KeyRank}
	case Term3:
		return []string{KeyTerm3Avg, KeyRank}
	case Annual:
		return []string{KeyTerm1Avg, KeyTerm2Avg, KeyTerm3Avg, KeyAnnualAvg, KeyRank}
	}
	return nil
}

var subcolumnLabels = map[string]string{
	KeySeq1:     "S1",
	KeySeq2:     "S2",
	KeySeq3:     "S3",
	KeySeq4:     "S4",
	KeySeq5:     "S5",
	KeySeq6:     "S6",
	KeyTerm1Avg: "T1",
	KeyTerm2Avg: "T2",
	KeyTerm3Avg: "T3",
	KeyFinalAvg: "Avg",
	KeyCoef:     "Coef",
}

var totalsLabels = map[string]string{
	KeyTerm1Avg:  "T1 Avg",
	KeyTerm2Avg:  "T2 Avg",
	KeyTerm3Avg:  "T3 Avg",
	KeyAnnualAvg: "Annual Avg",
	KeyRank:      "Rank",
}

// SubcolumnLabel 子列表头文字
func SubcolumnLabel(key string) string {
	if l, ok := subcolumnLabels[key]; ok {
		return l
	}
	return key
}

// TotalsLabel 汇总列表头文字
func TotalsLabel(key string) string {
	if l, ok := totalsLabels[key]; ok {
		return l
	}
	return key
}
