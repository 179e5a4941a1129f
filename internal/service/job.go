package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"votech/backend/internal/dto"
)

// 异步生成任务状态
const (
	JobStatusPending    = "pending"
	JobStatusRunning    = "running"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
	JobStatusSuperseded = "superseded"
)

const defaultJobRetention = 30 * time.Minute

// job 异步生成任务（仅存于内存，进程重启后丢失）
type job struct {
	id         string
	status     string
	current    int
	total      int
	fileName   string
	file       *GeneratedFile
	errMsg     string
	createdAt  time.Time
	finishedAt time.Time
}

func (j *job) finished() bool {
	switch j.status {
	case JobStatusDone, JobStatusFailed, JobStatusSuperseded:
		return true
	}
	return false
}

func (j *job) response() *dto.JobResponse {
	resp := &dto.JobResponse{
		ID:        j.id,
		Status:    j.status,
		Current:   j.current,
		Total:     j.total,
		Error:     j.errMsg,
		CreatedAt: j.createdAt.Format(time.RFC3339),
	}
	if j.status == JobStatusDone {
		resp.FileName = j.fileName
	}
	if !j.finishedAt.IsZero() {
		resp.FinishedAt = j.finishedAt.Format(time.RFC3339)
	}
	return resp
}

// jobRegistry 任务表，结束超过 retention 的任务在下次创建任务时清理
type jobRegistry struct {
	mu        sync.RWMutex
	jobs      map[string]*job
	retention time.Duration
	now       func() time.Time
}

func newJobRegistry(retention time.Duration) *jobRegistry {
	if retention <= 0 {
		retention = defaultJobRetention
	}
	return &jobRegistry{
		jobs:      make(map[string]*job),
		retention: retention,
		now:       time.Now,
	}
}

func (r *jobRegistry) create(total int, fileName string) *job {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, j := range r.jobs {
		if j.finished() && now.Sub(j.finishedAt) > r.retention {
			delete(r.jobs, id)
		}
	}

	j := &job{
		id:        uuid.NewString(),
		status:    JobStatusPending,
		total:     total,
		fileName:  fileName,
		createdAt: now,
	}
	r.jobs[j.id] = j
	cp := *j
	return &cp
}

func (r *jobRegistry) progress(id string, current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok && !j.finished() {
		j.status = JobStatusRunning
		j.current, j.total = current, total
	}
}

func (r *jobRegistry) finish(id, status string, file *GeneratedFile, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	j.status = status
	j.file = file
	j.errMsg = errMsg
	j.finishedAt = r.now()
	if status == JobStatusDone {
		j.current = j.total
	}
}

// get 返回任务快照
func (r *jobRegistry) get(id string) (*job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *j
	return &cp, true
}
