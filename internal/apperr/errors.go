// Package apperr — типизированные ошибки ядра.
// Каждая операция возвращает ошибку конкретного вида, обработчики
// отображают вид в HTTP-статус. Ошибки не проглатываются.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Validation — некорректный ввод, повтор бессмыслен
	Validation Kind = iota
	// Permission — нет роли или членства, повтор бессмыслен
	Permission
	// NotFound — канал/сообщение больше не существует
	NotFound
	// Conflict — гонка создания, существующая запись остается в силе
	Conflict
	// Transient — сетевой сбой/таймаут, повтор безопасен благодаря
	// идемпотентным ключам
	Transient
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет сравнивать через errors.Is по виду ошибки
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
	}
	return false
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return newf(Validation, format, args...)
}

func Permissionf(format string, args ...interface{}) *Error {
	return newf(Permission, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newf(NotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newf(Conflict, format, args...)
}

func Transientf(format string, args ...interface{}) *Error {
	return newf(Transient, format, args...)
}

// Wrap оборачивает причину, сохраняя вид
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind сообщает, принадлежит ли ошибка данному виду
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
