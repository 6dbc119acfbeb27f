package pkg

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindFailedPrecondition
	KindConflict
	KindForbidden
	KindUnauthenticated
)

var kindStatus = map[Kind]int{
	KindInternal:           http.StatusInternalServerError,
	KindInvalidArgument:    http.StatusBadRequest,
	KindNotFound:           http.StatusNotFound,
	KindFailedPrecondition: http.StatusBadRequest,
	KindConflict:           http.StatusConflict,
	KindForbidden:          http.StatusForbidden,
	KindUnauthenticated:    http.StatusUnauthorized,
}

// AppError 业务错误，Message 直接返回给调用方
type AppError struct {
	Kind    Kind
	Message string
	Status  int // 非 0 时覆盖默认状态码
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus 错误对应的状态码
func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return kindStatus[e.Kind]
}

// WithStatus 覆盖状态码，比如社区未激活用 403
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

func InvalidArgument(msg string) *AppError { return &AppError{Kind: KindInvalidArgument, Message: msg} }
func NotFound(msg string) *AppError        { return &AppError{Kind: KindNotFound, Message: msg} }
func FailedPrecondition(msg string) *AppError {
	return &AppError{Kind: KindFailedPrecondition, Message: msg}
}
func Conflict(msg string) *AppError        { return &AppError{Kind: KindConflict, Message: msg} }
func Forbidden(msg string) *AppError       { return &AppError{Kind: KindForbidden, Message: msg} }
func Unauthenticated(msg string) *AppError { return &AppError{Kind: KindUnauthenticated, Message: msg} }

// Internal 包装存储层等意外错误
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Server error", Err: err}
}

// AsAppError 非 AppError 一律按 Internal 处理
func AsAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// KindOf 取错误分类
func KindOf(err error) Kind {
	return AsAppError(err).Kind
}
