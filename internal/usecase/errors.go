package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// 呼び出し側(handler)がステータスを選ぶための種類
type ErrorKind string

const (
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindAlreadyExists         ErrorKind = "ALREADY_EXISTS"
	KindOperationNotPerformed ErrorKind = "OPERATION_NOT_PERFORMED"
	KindStorageFailed         ErrorKind = "STORAGE_OPERATION_FAILED"
	KindInvalidInput          ErrorKind = "INVALID_INPUT"
	KindWrongPassword         ErrorKind = "WRONG_PASSWORD"
)

type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewAppError(kind ErrorKind, message string) error {
	return &AppError{
		Kind:    kind,
		Message: message,
	}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// KindOf はAppError以外をSTORAGE_OPERATION_FAILED扱いにする
func KindOf(err error) ErrorKind {
	if ae, ok := AsAppError(err); ok {
		return ae.Kind
	}
	return KindStorageFailed
}

func notFound(format string, args ...any) error {
	return NewAppError(KindNotFound, fmt.Sprintf(format, args...))
}

func notPerformed(format string, args ...any) error {
	return NewAppError(KindOperationNotPerformed, fmt.Sprintf(format, args...))
}

func invalidInput(format string, args ...any) error {
	return NewAppError(KindInvalidInput, fmt.Sprintf(format, args...))
}

// ストレージの失敗はここで一度だけログに出す
func storageFailed(ctx context.Context, fallback zerolog.Logger, op string, err error) error {
	loggerFrom(ctx, fallback).Error().Err(err).Str("op", op).Msg("storage operation failed")
	return NewAppError(KindStorageFailed, "database operation failed")
}

// リクエストのロガーがあればそちら
func loggerFrom(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
