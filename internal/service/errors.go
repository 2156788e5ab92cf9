package service

import (
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
)

// translateError 把存储层错误归类，已分类的 AppError 原样返回
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *util.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fieldErr *model.FieldError
	if errors.As(err, &fieldErr) {
		return util.NewValidationError(fieldErr.Field, fieldErr.Err.Error())
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.NewNotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return util.NewConflictError("", resource+" already exists")
	default:
		return util.NewInternalError(err)
	}
}
