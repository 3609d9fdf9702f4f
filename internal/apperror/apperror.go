// Package apperror — виды ошибок, которые ядро отдаёт наружу.
// Транспорт переводит вид в код ответа, всё остальное считается внутренней ошибкой.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInvalidRange   Kind = "invalid_range"
	KindAlreadyBilled  Kind = "already_billed"
	KindPeriodMismatch Kind = "period_mismatch"
)

// Эталоны для errors.Is по виду.
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrInvalidRange   = &Error{Kind: KindInvalidRange}
	ErrAlreadyBilled  = &Error{Kind: KindAlreadyBilled}
	ErrPeriodMismatch = &Error{Kind: KindPeriodMismatch}
)

// Error — ошибка приложения известного вида.
// В IDs сущности, из-за которых она возникла (пересекающиеся или уже выставленные брони).
type Error struct {
	Kind    Kind
	Message string
	IDs     []string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if len(e.IDs) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s [%s]", e.Message, strings.Join(e.IDs, ", "))
}

// Is совпадает с любой *Error того же вида, поэтому работает errors.Is(err, ErrConflict).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithIDs возвращает копию e с ids.
func (e *Error) WithIDs(ids ...string) *Error {
	cp := *e
	cp.IDs = append([]string(nil), ids...)
	return &cp
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), IDs: []string{id}}
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InvalidRange(format string, args ...any) *Error {
	return New(KindInvalidRange, format, args...)
}

func AlreadyBilled(bookingIDs ...string) *Error {
	return &Error{Kind: KindAlreadyBilled, Message: "booking already billed", IDs: bookingIDs}
}

func PeriodMismatch(bookingIDs ...string) *Error {
	return &Error{Kind: KindPeriodMismatch, Message: "booking starts outside billing period", IDs: bookingIDs}
}

// KindOf — вид первой *Error в цепочке err, "" для внутренних ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As достаёт *Error из err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
