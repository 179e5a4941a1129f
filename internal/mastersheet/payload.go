package mastersheet

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ── 后端成绩单载荷 ──
//
// 结构与成绩单接口保持一致；字段别名（registrationNumber / student_id / id 等）
// 在反序列化时统一，下游只看到规整后的字段。
//
// 解析逐条、逐字段容错：形状不对的字段按缺失处理，只丢弃不是对象的记录，
// 不会因为某一个学生的脏数据让整个班级变成"无数据"。

// ReportCard 单个学生的成绩单
type ReportCard struct {
	Student              StudentInfo    `json:"student"`
	GeneralSubjects      []SubjectEntry `json:"generalSubjects"`
	ProfessionalSubjects []SubjectEntry `json:"professionalSubjects"`
	PracticalSubjects    []SubjectEntry `json:"practicalSubjects"`
	TermTotals           *TermTotals    `json:"termTotals"`
}

// UnmarshalJSON 各字段独立解析，类型不符的字段视为缺失；记录本身不是对象时报错
func (c *ReportCard) UnmarshalJSON(b []byte) error {
	var raw struct {
		Student              json.RawMessage `json:"student"`
		GeneralSubjects      json.RawMessage `json:"generalSubjects"`
		ProfessionalSubjects json.RawMessage `json:"professionalSubjects"`
		PracticalSubjects    json.RawMessage `json:"practicalSubjects"`
		TermTotals           json.RawMessage `json:"termTotals"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*c = ReportCard{
		GeneralSubjects:      decodeSubjects(raw.GeneralSubjects),
		ProfessionalSubjects: decodeSubjects(raw.ProfessionalSubjects),
		PracticalSubjects:    decodeSubjects(raw.PracticalSubjects),
	}
	if isJSONObject(raw.Student) {
		_ = json.Unmarshal(raw.Student, &c.Student)
	}
	if isJSONObject(raw.TermTotals) {
		var totals TermTotals
		if err := json.Unmarshal(raw.TermTotals, &totals); err == nil {
			c.TermTotals = &totals
		}
	}
	return nil
}

// decodeSubjects 科目数组逐项解析，非数组返回 nil，非对象条目跳过
func decodeSubjects(raw json.RawMessage) []SubjectEntry {
	if !isJSONArray(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	subjects := make([]SubjectEntry, 0, len(items))
	for _, item := range items {
		if !isJSONObject(item) {
			continue
		}
		var e SubjectEntry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		subjects = append(subjects, e)
	}
	return subjects
}

// StudentInfo 学生基本信息
type StudentInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Option       string `json:"option"`
	Class        string `json:"class"`
	AcademicYear string `json:"academicYear"`
}

// UnmarshalJSON 兼容 registrationNumber|student_id|id 与 full_name|name
func (s *StudentInfo) UnmarshalJSON(b []byte) error {
	var raw struct {
		RegistrationNumber json.RawMessage `json:"registrationNumber"`
		StudentID          json.RawMessage `json:"student_id"`
		ID                 json.RawMessage `json:"id"`
		FullName           json.RawMessage `json:"full_name"`
		Name               json.RawMessage `json:"name"`
		Option             json.RawMessage `json:"option"`
		Class              json.RawMessage `json:"class"`
		AcademicYear       json.RawMessage `json:"academicYear"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = StudentInfo{
		ID:           firstText(raw.RegistrationNumber, raw.StudentID, raw.ID),
		Name:         firstText(raw.FullName, raw.Name),
		Option:       firstText(raw.Option),
		Class:        firstText(raw.Class),
		AcademicYear: firstText(raw.AcademicYear),
	}
	return nil
}

// SubjectEntry 某一科目在成绩单中的条目
type SubjectEntry struct {
	Code   string           `json:"code"`
	Title  string           `json:"title"`
	Coef   Score            `json:"coef"`
	Scores map[string]Score `json:"scores"`
}

// UnmarshalJSON 兼容 coef|coefficient，code 允许为数字；scores 不是对象时视为没有成绩
func (e *SubjectEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Code        json.RawMessage `json:"code"`
		Title       json.RawMessage `json:"title"`
		Coef        *Score          `json:"coef"`
		Coefficient *Score          `json:"coefficient"`
		Scores      json.RawMessage `json:"scores"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = SubjectEntry{
		Code:   firstText(raw.Code),
		Title:  firstText(raw.Title),
		Scores: decodeScores(raw.Scores),
	}
	switch {
	case raw.Coef != nil && !raw.Coef.IsBlank():
		e.Coef = *raw.Coef
	case raw.Coefficient != nil:
		e.Coef = *raw.Coefficient
	}
	return nil
}

// decodeScores 逐个子列解析，非对象返回 nil，单个取值解析失败只丢该取值
func decodeScores(raw json.RawMessage) map[string]Score {
	if !isJSONObject(raw) {
		return nil
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	scores := make(map[string]Score, len(values))
	for key, v := range values {
		var s Score
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		scores[key] = s
	}
	return scores
}

// TermTotals 各学期与全年的平均分、排名
type TermTotals struct {
	Term1  *TermResult `json:"term1,omitempty"`
	Term2  *TermResult `json:"term2,omitempty"`
	Term3  *TermResult `json:"term3,omitempty"`
	Annual *TermResult `json:"annual,omitempty"`
}

// UnmarshalJSON 非对象视为空；某个学期不是对象时该学期视为缺失
func (t *TermTotals) UnmarshalJSON(b []byte) error {
	*t = TermTotals{}
	if !isJSONObject(b) {
		return nil
	}
	var raw struct {
		Term1  json.RawMessage `json:"term1"`
		Term2  json.RawMessage `json:"term2"`
		Term3  json.RawMessage `json:"term3"`
		Annual json.RawMessage `json:"annual"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	t.Term1 = decodeTermResult(raw.Term1)
	t.Term2 = decodeTermResult(raw.Term2)
	t.Term3 = decodeTermResult(raw.Term3)
	t.Annual = decodeTermResult(raw.Annual)
	return nil
}

func decodeTermResult(raw json.RawMessage) *TermResult {
	if !isJSONObject(raw) {
		return nil
	}
	var r TermResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return &r
}

// TermResult 单个学期的平均分与排名
type TermResult struct {
	Average Score `json:"average"`
	Rank    Score `json:"rank"`
}

// UnmarshalJSON 非对象视为空；average / rank 无法解析时按空值处理
func (r *TermResult) UnmarshalJSON(b []byte) error {
	*r = TermResult{}
	if !isJSONObject(b) {
		return nil
	}
	var raw struct {
		Average json.RawMessage `json:"average"`
		Rank    json.RawMessage `json:"rank"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	r.Average = lenientScore(raw.Average)
	r.Rank = lenientScore(raw.Rank)
	return nil
}

func lenientScore(raw json.RawMessage) Score {
	var s Score
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return Score{}
	}
	return s
}

// For 按学期取结果，不存在时返回 nil
func (t *TermTotals) For(term Term) *TermResult {
	if t == nil {
		return nil
	}
	switch term {
	case Term1:
		return t.Term1
	case Term2:
		return t.Term2
	case Term3:
		return t.Term3
	case Annual:
		return t.Annual
	}
	return nil
}

// DecodeReportCards 解析成绩单数组；只有载荷为空或不是合法数组时返回 nil
//
// 数组内逐条解析：不是对象的元素被跳过，其余记录按字段容错。
func DecodeReportCards(raw []byte) []ReportCard {
	if !isJSONArray(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	cards := make([]ReportCard, 0, len(items))
	for _, item := range items {
		if !isJSONObject(item) {
			continue
		}
		var c ReportCard
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		cards = append(cards, c)
	}
	return cards
}

func isJSONObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isJSONArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// firstText 返回第一个非空取值的文本形式（字符串或数字）
func firstText(values ...json.RawMessage) string {
	for _, v := range values {
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		if v[0] == '"' {
			var s string
			if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}
