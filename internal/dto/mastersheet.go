package dto

import (
	"encoding/json"
	"strings"

	"votech/backend/internal/mastersheet"
)

// ── 总表请求 ──

// SelectionRef 系部 / 班级选择
type SelectionRef struct {
	ID   string `json:"id"   binding:"max=64"`
	Name string `json:"name" binding:"max=128"`
}

// Selected 是否已选择（id 或 name 任一非空）
func (s *SelectionRef) Selected() bool {
	return s != nil && (strings.TrimSpace(s.ID) != "" || strings.TrimSpace(s.Name) != "")
}

// Key 作为缓存 / 去重键的标识，优先使用 id
func (s *SelectionRef) Key() string {
	if s == nil {
		return ""
	}
	if id := strings.TrimSpace(s.ID); id != "" {
		return id
	}
	return strings.TrimSpace(s.Name)
}

// Label 显示名称，缺省时回退到 id
func (s *SelectionRef) Label() string {
	if s == nil {
		return ""
	}
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return strings.TrimSpace(s.ID)
}

// MasterSheetRequest 总表数据请求（预览与生成共用）
// reportCards 保持原始 JSON，由 mastersheet.DecodeReportCards 宽松解析，格式错误时按无数据处理
type MasterSheetRequest struct {
	Term         string          `json:"term"         binding:"required,term"`
	Department   *SelectionRef   `json:"department"`
	Class        *SelectionRef   `json:"class"`
	AcademicYear string          `json:"academicYear" binding:"max=20"`
	ReportCards  json.RawMessage `json:"reportCards"`
}

// SheetOptions 文档选项
type SheetOptions struct {
	IncludeSignatures bool     `json:"includeSignatures"`
	Signatures        []string `json:"signatures" binding:"omitempty,max=6,dive,max=40"`
}

// GenerateRequest 总表文档生成请求
type GenerateRequest struct {
	MasterSheetRequest
	Format    string       `json:"format"  binding:"required"`
	Output    string       `json:"output"`
	Options   SheetOptions `json:"options"`
	RequestID string       `json:"-"`
}

// PreviewQuery 预览查询参数
type PreviewQuery struct {
	Layout string `form:"layout" binding:"omitempty,oneof=table cards"`
}

// ExportListRequest 导出历史查询
type ExportListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id"`
	ClassID      string `form:"class_id"`
	Term         string `form:"term"   binding:"omitempty,term"`
	Status       string `form:"status" binding:"omitempty,oneof=done failed superseded"`
}

// ── 总表响应 ──

// PreviewResponse 屏幕预览
type PreviewResponse struct {
	Empty    bool                        `json:"empty"`
	Layout   string                      `json:"layout"`
	Term     string                      `json:"term"`
	Metadata mastersheet.ClassMetadata   `json:"metadata"`
	Stats    mastersheet.ClassStatistics `json:"stats"`
	Table    *mastersheet.TableView      `json:"table,omitempty"`
	Cards    []mastersheet.StudentCard   `json:"cards,omitempty"`
}

// JobResponse 异步生成任务状态
type JobResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	FileName   string `json:"filename,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// ExportRecordResponse 导出历史条目
type ExportRecordResponse struct {
	ID           string       `json:"id"`
	Format       string       `json:"format"`
	Output       string       `json:"output"`
	Term         string       `json:"term"`
	Department   SelectionRef `json:"department"`
	Class        SelectionRef `json:"class"`
	AcademicYear string       `json:"academic_year"`
	FileName     string       `json:"file_name"`
	Status       string       `json:"status"`
	Error        string       `json:"error,omitempty"`
	StudentCount int          `json:"student_count"`
	PageCount    int          `json:"page_count"`
	SizeBytes    int64        `json:"size_bytes"`
	DurationMS   int64        `json:"duration_ms"`
	CreatedAt    string       `json:"created_at"`
}
