package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"votech/backend/internal/mastersheet"
)

var registerOnce sync.Once

// RegisterValidators 注册自定义校验规则，必须在路由处理请求之前调用
//
//	term: term1 | term2 | term3 | annual（大小写不敏感）
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("term", func(fl validator.FieldLevel) bool {
			_, err := mastersheet.ParseTerm(fl.Field().String())
			return err == nil
		})
	})
}
