package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind — класс ошибки движка; по нему транспорт выбирает HTTP-статус.
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindValidation
	KindConflict
	KindNotFound
	KindPersistence
	KindExternalTool
	KindRuntimeQuery
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindExternalTool:
		return "external_tool"
	case KindRuntimeQuery:
		return "runtime_query"
	default:
		return "internal"
	}
}

// Error — единый тип ошибки приложения.
type Error struct {
	Kind Kind
	Op   string // "create-client", "restart", ...
	Msg  string
	Err  error

	// только для KindConfiguration: какие интерфейсы вообще есть на хосте
	Available []string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, ", available interfaces: [%s]", strings.Join(e.Available, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по Kind, чтобы работало errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Маркеры для errors.Is.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrPersistence   = &Error{Kind: KindPersistence}
	ErrExternalTool  = &Error{Kind: KindExternalTool}
	ErrRuntimeQuery  = &Error{Kind: KindRuntimeQuery}
)

func newf(k Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// InterfaceNotFound — ConfigurationError с перечнем доступных интерфейсов.
func InterfaceNotFound(name string, available []string) *Error {
	return &Error{
		Kind:      KindConfiguration,
		Msg:       fmt.Sprintf("network interface %q not found", name),
		Available: available,
	}
}

func Configuration(op string, err error, format string, args ...any) *Error {
	return newf(KindConfiguration, op, err, format, args...)
}

func Validation(op, format string, args ...any) *Error {
	return newf(KindValidation, op, nil, format, args...)
}

func FieldMissing(op, field string) *Error {
	return Validation(op, "field '%s' missing from request body", field)
}

func Conflict(op, format string, args ...any) *Error {
	return newf(KindConflict, op, nil, format, args...)
}

func NotFound(op, format string, args ...any) *Error {
	return newf(KindNotFound, op, nil, format, args...)
}

func Persistence(op string, err error) *Error {
	return newf(KindPersistence, op, err, "could not save data")
}

func ExternalTool(op string, err error, format string, args ...any) *Error {
	return newf(KindExternalTool, op, err, format, args...)
}

func RuntimeQuery(op string, err error, format string, args ...any) *Error {
	return newf(KindRuntimeQuery, op, err, format, args...)
}

// KindOf возвращает Kind первой *Error в цепочке; всё прочее — KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus: malformed input → 400, not found → 404, duplicate → 409, остальное → 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
