package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"votech/backend/config"
	"votech/backend/internal/dto"
	"votech/backend/internal/mastersheet"
	"votech/backend/internal/model"
	"votech/backend/internal/repository"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Report: config.ReportConfig{
			SchoolName:  "GTHS Bamenda",
			BatchSize:   200,
			MaxStudents: 100,
			Signatures:  []string{"Class Master", "Principal"},
			CacheTTL:    time.Minute,
			JobTimeout:  time.Minute,
		},
	}
}

func newTestMasterSheetService(cache DocumentCache) (*masterSheetService, *mockExportRecordRepo) {
	repo := newMockExportRecordRepo()
	exports := NewExportService(&repository.Repository{Export: repo}, zap.NewNop())
	svc := NewMasterSheetService(testConfig(), exports, cache, zap.NewNop())
	return svc.(*masterSheetService), repo
}

// cardsJSON 生成 n 名学生的成绩单载荷，平均分在 8~15 之间循环
func cardsJSON(n int) json.RawMessage {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		avg := 8 + i%8
		fmt.Fprintf(&b, `{"student":{"registrationNumber":"STU%03d","full_name":"Student %d","option":"Electricity","class":"F4 EL","academicYear":"2024/2025"},`+
			`"generalSubjects":[{"code":"MATH","title":"Mathematics","coef":4,"scores":{"seq1":%d,"seq2":12,"term1Avg":%d}}],`+
			`"professionalSubjects":[{"code":"ELEC","title":"Electrotechnics","coef":5,"scores":{"seq1":14,"seq2":"abs","term1Avg":14}}],`+
			`"termTotals":{"term1":{"average":%d,"rank":%d}}}`,
			i+1, i+1, avg, avg, avg, i+1)
	}
	b.WriteString("]")
	return json.RawMessage(b.String())
}

func sheetRequest(n int) dto.MasterSheetRequest {
	return dto.MasterSheetRequest{
		Term:         "term1",
		Department:   &dto.SelectionRef{ID: "dept-el", Name: "Electricity"},
		Class:        &dto.SelectionRef{ID: "cls-f4el", Name: "F4 EL"},
		AcademicYear: "2024/2025",
		ReportCards:  cardsJSON(n),
	}
}

func generateRequest(n int, format, output string) *dto.GenerateRequest {
	return &dto.GenerateRequest{
		MasterSheetRequest: sheetRequest(n),
		Format:             format,
		Output:             output,
		RequestID:          "req-1",
	}
}

type failingWriter struct{}

func (failingWriter) Write(*mastersheet.Document, io.Writer) error {
	return errors.New("disk full")
}

func (failingWriter) Ext() string { return "pdf" }

func (failingWriter) ContentType() string { return "application/pdf" }

// ── 请求校验 ──

func TestMasterSheetService_MissingSelection(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	tests := []struct {
		name string
		dept *dto.SelectionRef
		cls  *dto.SelectionRef
	}{
		{"未选系部", nil, &dto.SelectionRef{ID: "c1"}},
		{"未选班级", &dto.SelectionRef{ID: "d1"}, nil},
		{"班级为空白", &dto.SelectionRef{ID: "d1"}, &dto.SelectionRef{ID: "  ", Name: ""}},
	}
	for _, tt := range tests {
		req := sheetRequest(3)
		req.Department, req.Class = tt.dept, tt.cls
		if _, err := svc.Preview(context.Background(), &req, LayoutTable); !errors.Is(err, ErrMasterSheetMissingSelection) {
			t.Errorf("%s: Preview err = %v", tt.name, err)
		}
		gen := &dto.GenerateRequest{MasterSheetRequest: req, Format: "wall"}
		if _, err := svc.Generate(context.Background(), gen); !errors.Is(err, ErrMasterSheetMissingSelection) {
			t.Errorf("%s: Generate err = %v", tt.name, err)
		}
	}
}

func TestMasterSheetService_InvalidParameters(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	badTerm := generateRequest(2, "wall", "pdf")
	badTerm.Term = "term4"
	if _, err := svc.Generate(context.Background(), badTerm); !errors.Is(err, mastersheet.ErrInvalidTerm) {
		t.Errorf("term4: err = %v", err)
	}

	if _, err := svc.Generate(context.Background(), generateRequest(2, "poster", "pdf")); !errors.Is(err, mastersheet.ErrInvalidFormat) {
		t.Errorf("poster: err = %v", err)
	}
	if _, err := svc.Generate(context.Background(), generateRequest(2, "a4", "docx")); !errors.Is(err, mastersheet.ErrInvalidOutput) {
		t.Errorf("docx: err = %v", err)
	}
}

func TestMasterSheetService_TooManyStudents(t *testing.T) {
	svc, repo := newTestMasterSheetService(nil)

	_, err := svc.Generate(context.Background(), generateRequest(101, "wall", "pdf"))
	if !errors.Is(err, ErrMasterSheetTooManyStudents) {
		t.Fatalf("err = %v, want ErrMasterSheetTooManyStudents", err)
	}
	if len(repo.snapshot()) != 0 {
		t.Error("rejected request should not be recorded")
	}

	req := sheetRequest(101)
	if _, err := svc.Preview(context.Background(), &req, LayoutTable); !errors.Is(err, ErrMasterSheetTooManyStudents) {
		t.Errorf("Preview err = %v", err)
	}
}

// ── 预览 ──

func TestMasterSheetService_PreviewTable(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)
	req := sheetRequest(4)

	resp, err := svc.Preview(context.Background(), &req, "")
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	if resp.Empty || resp.Layout != LayoutTable || resp.Term != "term1" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Table == nil || len(resp.Table.Rows) != 4 {
		t.Fatalf("table = %+v", resp.Table)
	}
	if resp.Cards != nil {
		t.Error("table layout should not carry cards")
	}
	if resp.Metadata.SchoolName != "GTHS Bamenda" || resp.Metadata.ClassName != "F4 EL" {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	// 平均分 8, 9, 10, 11
	if resp.Stats.Count != 4 || mastersheet.Fmt(resp.Stats.ClassAverage) != "9.5" {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestMasterSheetService_PreviewCards(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)
	req := sheetRequest(3)

	resp, err := svc.Preview(context.Background(), &req, LayoutCards)
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	if resp.Layout != LayoutCards || len(resp.Cards) != 3 || resp.Table != nil {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Cards[0].Rank != "1" {
		t.Errorf("first card rank = %q, want 1", resp.Cards[0].Rank)
	}
}

func TestMasterSheetService_PreviewMalformedCards(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	for _, raw := range []string{``, `null`, `{"not":"an array"}`, `[{"student":`} {
		req := sheetRequest(0)
		req.ReportCards = json.RawMessage(raw)
		resp, err := svc.Preview(context.Background(), &req, LayoutTable)
		if err != nil {
			t.Fatalf("%q: Preview error: %v", raw, err)
		}
		if !resp.Empty {
			t.Errorf("%q: expected empty preview", raw)
		}
		if resp.Metadata.DepartmentName != "Electricity" || resp.Metadata.AcademicYear != "2024/2025" {
			t.Errorf("%q: metadata = %+v", raw, resp.Metadata)
		}
	}
}

func TestMasterSheetService_PreviewIrregularRecordKeepsClass(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	req := sheetRequest(0)
	req.ReportCards = json.RawMessage(`[
	  {"student": {"id": "S1", "name": "Alice"}, "termTotals": {"term1": {"average": 12, "rank": 1}}},
	  {"student": {"id": "S2", "name": "Bob"},
	   "generalSubjects": [{"code": "MATH", "scores": []}],
	   "termTotals": {"term1": {"average": 8, "rank": 2}, "annual": ""}}
	]`)
	resp, err := svc.Preview(context.Background(), &req, LayoutCards)
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	if resp.Empty {
		t.Fatal("单条记录字段异常不应让整个班级变成无数据")
	}
	if len(resp.Cards) != 2 {
		t.Errorf("cards = %d, want 2", len(resp.Cards))
	}
}

// ── 同步生成 ──

func TestMasterSheetService_GenerateWallPDF(t *testing.T) {
	svc, repo := newTestMasterSheetService(nil)

	file, err := svc.Generate(context.Background(), generateRequest(5, "wall", ""))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if file.FileName != "Master-Sheet_Wall_Electricity_F4-EL_2024-2025_T1.pdf" {
		t.Errorf("file name = %q", file.FileName)
	}
	if file.ContentType != "application/pdf" || !bytes.HasPrefix(file.Data, []byte("%PDF")) {
		t.Errorf("content type = %q, prefix = %q", file.ContentType, file.Data[:4])
	}
	if file.Students != 5 || file.Pages < 1 || file.Cached {
		t.Errorf("file = %+v", file)
	}

	recs := repo.snapshot()
	if len(recs) != 1 {
		t.Fatalf("recorded %d exports, want 1", len(recs))
	}
	r := recs[0]
	if r.Status != model.ExportStatusDone || r.Format != "wall" || r.Output != "pdf" || r.Term != "term1" {
		t.Errorf("record = %+v", r)
	}
	if r.ClassID != "cls-f4el" || r.StudentCount != 5 || r.PageCount != file.Pages || r.RequestID != "req-1" {
		t.Errorf("record = %+v", r)
	}
	if r.SizeBytes != int64(len(file.Data)) {
		t.Errorf("size = %d, want %d", r.SizeBytes, len(file.Data))
	}
}

func TestMasterSheetService_GenerateA4XLSX(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	req := generateRequest(4, "A4", "XLSX")
	req.AcademicYear = ""
	file, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	// 学年缺省时取第一份成绩单
	if file.FileName != "Master-Sheet_A4_Electricity_F4-EL_2024-2025_T1.xlsx" {
		t.Errorf("file name = %q", file.FileName)
	}
	if !bytes.HasPrefix(file.Data, []byte("PK")) {
		t.Error("xlsx output should be a zip archive")
	}
	if !strings.Contains(file.ContentType, "spreadsheetml") {
		t.Errorf("content type = %q", file.ContentType)
	}
}

func TestMasterSheetService_GenerateEmptyData(t *testing.T) {
	svc, repo := newTestMasterSheetService(nil)

	req := generateRequest(0, "wall", "pdf")
	req.ReportCards = json.RawMessage(`"oops"`)
	file, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if file.Students != 0 || file.Pages != 1 || !bytes.HasPrefix(file.Data, []byte("%PDF")) {
		t.Errorf("file = %+v", file)
	}
	if recs := repo.snapshot(); len(recs) != 1 || recs[0].Status != model.ExportStatusDone {
		t.Errorf("records = %+v", recs)
	}
}

func TestMasterSheetService_WriteFailure(t *testing.T) {
	svc, repo := newTestMasterSheetService(nil)

	pl, err := svc.plan(generateRequest(3, "a4", "pdf"))
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	pl.writer = failingWriter{}

	if _, err := svc.run(context.Background(), pl, nil); !errors.Is(err, ErrMasterSheetGenerateFail) {
		t.Fatalf("err = %v, want ErrMasterSheetGenerateFail", err)
	}
	recs := repo.snapshot()
	if len(recs) != 1 || recs[0].Status != model.ExportStatusFailed || recs[0].ErrorMessage != "disk full" {
		t.Errorf("records = %+v", recs)
	}
}

func TestMasterSheetService_CancelledContext(t *testing.T) {
	svc, repo := newTestMasterSheetService(nil)
	svc.cfg.MaxStudents = 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 取消在批次之间的让出点生效，需要超过一个批次
	_, err := svc.Generate(ctx, generateRequest(250, "wall", "pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if recs := repo.snapshot(); len(recs) != 1 || recs[0].Status != model.ExportStatusFailed {
		t.Errorf("records = %+v", recs)
	}
}

// ── 文档缓存 ──

func TestMasterSheetService_DocumentCache(t *testing.T) {
	cache := newMockDocumentCache()
	svc, _ := newTestMasterSheetService(cache)

	first, err := svc.Generate(context.Background(), generateRequest(3, "wall", "pdf"))
	if err != nil {
		t.Fatalf("first Generate error: %v", err)
	}
	if first.Cached || cache.sets != 1 || cache.ttl != time.Minute {
		t.Fatalf("first = cached:%v sets:%d ttl:%v", first.Cached, cache.sets, cache.ttl)
	}

	second, err := svc.Generate(context.Background(), generateRequest(3, "wall", "pdf"))
	if err != nil {
		t.Fatalf("second Generate error: %v", err)
	}
	if !second.Cached || !bytes.Equal(first.Data, second.Data) || second.FileName != first.FileName {
		t.Error("second request should be served from cache")
	}
	if cache.sets != 1 {
		t.Errorf("sets = %d, want 1", cache.sets)
	}

	// 输出类型不同 → 不同缓存键
	if f, err := svc.Generate(context.Background(), generateRequest(3, "wall", "xlsx")); err != nil || f.Cached {
		t.Errorf("xlsx: cached=%v err=%v", f != nil && f.Cached, err)
	}
	// 成绩不同 → 不同缓存键
	if f, err := svc.Generate(context.Background(), generateRequest(4, "wall", "pdf")); err != nil || f.Cached {
		t.Errorf("4 students: cached=%v err=%v", f != nil && f.Cached, err)
	}
}

func TestMasterSheetService_CacheErrorDegrades(t *testing.T) {
	cache := newMockDocumentCache()
	cache.getErr = errMockRedis
	svc, _ := newTestMasterSheetService(cache)

	file, err := svc.Generate(context.Background(), generateRequest(2, "a4", "pdf"))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if file.Cached || len(file.Data) == 0 {
		t.Errorf("file = %+v", file)
	}
}

func TestMasterSheetService_CacheDisabledWithoutTTL(t *testing.T) {
	cfg := testConfig()
	cfg.Report.CacheTTL = 0
	cache := newMockDocumentCache()
	svc := NewMasterSheetService(cfg, nil, cache, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := svc.Generate(context.Background(), generateRequest(2, "wall", "pdf")); err != nil {
			t.Fatalf("Generate error: %v", err)
		}
	}
	if cache.gets != 0 || cache.sets != 0 {
		t.Errorf("cache used: gets=%d sets=%d", cache.gets, cache.sets)
	}
}

// ── 异步任务 ──

func waitJob(t *testing.T, svc MasterSheetService, id string) *dto.JobResponse {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		j, err := svc.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("GetJob error: %v", err)
		}
		switch j.Status {
		case JobStatusDone, JobStatusFailed, JobStatusSuperseded:
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestMasterSheetService_Job(t *testing.T) {
	svc, repo := newTestMasterSheetService(nil)

	created, err := svc.StartJob(context.Background(), generateRequest(30, "wall", "pdf"))
	if err != nil {
		t.Fatalf("StartJob error: %v", err)
	}
	if created.ID == "" || created.Total != 30 || created.FileName != "" {
		t.Errorf("created = %+v", created)
	}

	done := waitJob(t, svc, created.ID)
	if done.Status != JobStatusDone || done.Current != 30 || done.Total != 30 {
		t.Fatalf("job = %+v", done)
	}
	if done.FileName != "Master-Sheet_Wall_Electricity_F4-EL_2024-2025_T1.pdf" || done.FinishedAt == "" {
		t.Errorf("job = %+v", done)
	}

	file, err := svc.GetJobFile(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetJobFile error: %v", err)
	}
	if !bytes.HasPrefix(file.Data, []byte("%PDF")) || file.Students != 30 {
		t.Errorf("file = %+v", file)
	}
	if len(repo.snapshot()) != 1 {
		t.Error("job should record one export")
	}
}

func TestMasterSheetService_JobValidation(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	if _, err := svc.StartJob(context.Background(), generateRequest(2, "poster", "pdf")); !errors.Is(err, mastersheet.ErrInvalidFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestMasterSheetService_JobNotFound(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	if _, err := svc.GetJob(context.Background(), "missing"); !errors.Is(err, ErrMasterSheetJobNotFound) {
		t.Errorf("GetJob err = %v", err)
	}
	if _, err := svc.GetJobFile(context.Background(), "missing"); !errors.Is(err, ErrMasterSheetJobNotFound) {
		t.Errorf("GetJobFile err = %v", err)
	}
}

func TestMasterSheetService_JobFileStates(t *testing.T) {
	svc, _ := newTestMasterSheetService(nil)

	pending := svc.jobs.create(10, "a.pdf")
	if _, err := svc.GetJobFile(context.Background(), pending.id); !errors.Is(err, ErrMasterSheetJobNotReady) {
		t.Errorf("pending: err = %v", err)
	}

	running := svc.jobs.create(10, "b.pdf")
	svc.jobs.progress(running.id, 4, 10)
	if _, err := svc.GetJobFile(context.Background(), running.id); !errors.Is(err, ErrMasterSheetJobNotReady) {
		t.Errorf("running: err = %v", err)
	}

	superseded := svc.jobs.create(10, "c.pdf")
	svc.jobs.finish(superseded.id, JobStatusSuperseded, nil, mastersheet.ErrSuperseded.Error())
	if _, err := svc.GetJobFile(context.Background(), superseded.id); !errors.Is(err, mastersheet.ErrSuperseded) {
		t.Errorf("superseded: err = %v", err)
	}

	failed := svc.jobs.create(10, "d.pdf")
	svc.jobs.finish(failed.id, JobStatusFailed, nil, "boom")
	if _, err := svc.GetJobFile(context.Background(), failed.id); !errors.Is(err, ErrMasterSheetGenerateFail) {
		t.Errorf("failed: err = %v", err)
	}
}
