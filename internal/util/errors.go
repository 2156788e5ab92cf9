package util

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus 错误类别对应的状态码
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError 业务错误，Field 指明出错的输入字段
type AppError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 同类别的 AppError 视为相等，便于 errors.Is(err, ErrForbidden)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Message == ""
}

var (
	ErrValidation = &AppError{Kind: KindValidation}
	ErrNotFound   = &AppError{Kind: KindNotFound}
	ErrForbidden  = &AppError{Kind: KindForbidden}
	ErrConflict   = &AppError{Kind: KindConflict}
	ErrInternal   = &AppError{Kind: KindInternal}
)

func NewValidationError(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Field: field, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewConflictError(field, message string) *AppError {
	return &AppError{Kind: KindConflict, Field: field, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf 非 AppError 一律按 Internal 处理
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
