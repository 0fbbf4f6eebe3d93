package util

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类，决定HTTP状态码与日志策略
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindBadRequest
	KindExternalService
	KindInternal
	KindDatabase
)

// AppError 业务错误，Message 对外可见，Err 仅用于日志
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFoundErr(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func BadRequestErr(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

func ExternalServiceErr(message string, err error) *AppError {
	return &AppError{Kind: KindExternalService, Message: message, Err: err}
}

func InternalErr(message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message}
}

func DatabaseErr(err error) *AppError {
	return &AppError{Kind: KindDatabase, Message: "database error", Err: err}
}

// AsAppError 提取AppError，非业务错误一律按数据库/内部错误处理
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}
