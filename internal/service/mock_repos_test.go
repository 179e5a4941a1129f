package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"votech/backend/internal/model"
	"votech/backend/internal/repository"
)

// ── Mock ExportRecordRepository ──

type mockExportRecordRepo struct {
	mu         sync.Mutex
	records    []*model.ExportRecord
	createErr  error
	listErr    error
	lastFilter repository.ExportFilter
	lastOffset int
	lastLimit  int
}

func newMockExportRecordRepo() *mockExportRecordRepo {
	return &mockExportRecordRepo{}
}

func (m *mockExportRecordRepo) Create(_ context.Context, rec *model.ExportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if rec.ExportID == "" {
		rec.ExportID = fmt.Sprintf("exp-%d", len(m.records)+1)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Date(2025, 3, 1, 8, 0, len(m.records), 0, time.UTC)
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockExportRecordRepo) GetByID(_ context.Context, id string) (*model.ExportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ExportID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExportRecordRepo) List(_ context.Context, filter repository.ExportFilter, offset, limit int) ([]model.ExportRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter, m.lastOffset, m.lastLimit = filter, offset, limit
	if m.listErr != nil {
		return nil, 0, m.listErr
	}

	var matched []model.ExportRecord
	for _, r := range m.records {
		if filter.ClassID != "" && r.ClassID != filter.ClassID {
			continue
		}
		if filter.Term != "" && r.Term != filter.Term {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		matched = append(matched, *r)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.ExportRecord{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockExportRecordRepo) snapshot() []model.ExportRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ExportRecord, len(m.records))
	for i, r := range m.records {
		out[i] = *r
	}
	return out
}

// ── Mock DocumentCache ──

type mockDocumentCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttl    time.Duration
	gets   int
	sets   int
	getErr error
}

func newMockDocumentCache() *mockDocumentCache {
	return &mockDocumentCache{data: make(map[string][]byte)}
}

func (m *mockDocumentCache) GetDocument(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *mockDocumentCache) SetDocument(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.ttl = ttl
	m.data[key] = data
	return nil
}

var errMockRedis = errors.New("redis: connection refused")
