package mastersheet

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// PassMark 及格线（含）
const PassMark = 10.0

// Score 成绩单中的单个取值
//
// 后端返回的分数可能是数字、数字字符串、空串或 null。
// 缺失（blank）与 0 语义不同，任何环节都不能把缺失当作 0 参与计算。
type Score struct {
	Num   float64
	Text  string
	Valid bool // true 表示 Num 为有效数值
}

// Num 构造数值型 Score
func Num(v float64) Score {
	return Score{Num: v, Valid: true}
}

// ParseScore 从字符串解析 Score，无法解析为有限数值时保留原文本
func ParseScore(s string) Score {
	t := strings.TrimSpace(s)
	if t == "" {
		return Score{}
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Score{Text: t}
	}
	return Num(f)
}

// IsBlank 是否为空值（null / 空串）
func (s Score) IsBlank() bool {
	return !s.Valid && strings.TrimSpace(s.Text) == ""
}

// UnmarshalJSON 兼容 number / string / null，其它类型按非数值文本处理
func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Score{}
		return nil
	}

	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = ParseScore(str)
		return nil
	case '{', '[', 't', 'f':
		*s = Score{Text: string(b)}
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*s = Score{Text: string(b)}
		return nil
	}
	*s = Num(f)
	return nil
}

// MarshalJSON 数值输出为 number，空值输出为 null
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Valid {
		return json.Marshal(s.Num)
	}
	if s.IsBlank() {
		return []byte("null"), nil
	}
	return json.Marshal(s.Text)
}

// ── 格式化辅助 ──

// IsNum 是否为可参与计算的数值
func IsNum(s Score) bool {
	return s.Valid
}

// Round1 四舍五入保留一位小数
func Round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0 // 去掉 -0
	}
	return r
}

// Fmt 单元格显示文本：空值返回 ""，整数不带小数点，其余保留一位小数
func Fmt(s Score) string {
	if !s.Valid {
		return strings.TrimSpace(s.Text)
	}
	r := Round1(s.Num)
	if r == math.Trunc(r) {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// AverageOf 数值项的算术平均（一位小数），没有数值项时返回空值
func AverageOf(values []Score) Score {
	sum, n := 0.0, 0
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum += v.Num
		n++
	}
	if n == 0 {
		return Score{}
	}
	return Num(Round1(sum / float64(n)))
}

// Tone 单元格着色语义
type Tone int

const (
	ToneNeutral Tone = iota
	ToneFail         // 低于及格线
	TonePass
)

// ValueTone 仅对序列分与平均分着色：数值低于 10 标红，其它一律中性
func ValueTone(key string, s Score) Tone {
	if !isMarkKey(key) || !s.Valid {
		return ToneNeutral
	}
	if s.Num < PassMark {
		return ToneFail
	}
	return ToneNeutral
}

func isMarkKey(key string) bool {
	return strings.HasPrefix(key, "seq") || strings.HasSuffix(key, "Avg")
}
