package errors

import "errors"

// ErrFeatureDisabled 依赖的功能开关未启用或后端不可用（数据库 / Redis 降级）
var ErrFeatureDisabled = errors.New("该功能未启用")
