package mastersheet

import "strconv"

// NoRank 无排名哨兵，排序时落在最后
const NoRank = 999

// ClassStatistics 班级统计
type ClassStatistics struct {
	ClassAverage   Score `json:"class_average"`
	HighestAverage Score `json:"highest_average"`
	LowestAverage  Score `json:"lowest_average"`
	Count          int   `json:"count"`
}

// ComputeClassStats 统计指定学期的班级平均、最高、最低平均分
// 非数值的平均分不参与统计；没有任何数值时所有字段为空、Count 为 0。
func ComputeClassStats(students []StudentRecord, term Term) ClassStatistics {
	var (
		avgs      []Score
		high, low float64
	)
	for _, st := range students {
		avg := TermAverage(st, term)
		if !avg.Valid {
			continue
		}
		if len(avgs) == 0 || avg.Num > high {
			high = avg.Num
		}
		if len(avgs) == 0 || avg.Num < low {
			low = avg.Num
		}
		avgs = append(avgs, avg)
	}

	if len(avgs) == 0 {
		return ClassStatistics{}
	}
	return ClassStatistics{
		ClassAverage:   AverageOf(avgs),
		HighestAverage: Num(high),
		LowestAverage:  Num(low),
		Count:          len(avgs),
	}
}

// ── 按学期取值 ──

// TermAverage 学生在指定学期的平均分；annual 取（已补全的）全年平均
func TermAverage(st StudentRecord, term Term) Score {
	r := st.TermTotals.For(term)
	if r == nil {
		return Score{}
	}
	return r.Average
}

// RankValue 学生在指定学期的排名，缺失或非数值时返回 NoRank
func RankValue(st StudentRecord, term Term) int {
	r := st.TermTotals.For(term)
	if r == nil || !r.Rank.Valid {
		return NoRank
	}
	return int(r.Rank.Num)
}

// RankText 排名显示文本，NoRank 显示为空
func RankText(st StudentRecord, term Term) string {
	rank := RankValue(st, term)
	if rank == NoRank {
		return ""
	}
	return strconv.Itoa(rank)
}

// TotalsValue 汇总列取值：termNAvg / annualAvg 取对应学期平均，rank 取当前学期排名
func TotalsValue(st StudentRecord, key string, term Term) Score {
	switch key {
	case KeyTerm1Avg:
		return TermAverage(st, Term1)
	case KeyTerm2Avg:
		return TermAverage(st, Term2)
	case KeyTerm3Avg:
		return TermAverage(st, Term3)
	case KeyAnnualAvg:
		return TermAverage(st, Annual)
	case KeyRank:
		rank := RankValue(st, term)
		if rank == NoRank {
			return Score{}
		}
		return Num(float64(rank))
	}
	return Score{}
}

// PassStatus 及格判定：平均分 ≥ 10 为 PASS，空值不判定
func PassStatus(avg Score) string {
	if !avg.Valid {
		return ""
	}
	if avg.Num >= PassMark {
		return "PASS"
	}
	return "FAIL"
}
