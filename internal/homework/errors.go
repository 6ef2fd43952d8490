package homework

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the poll loop can decide between log and notify.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig
	KindTransport
	KindShape
	KindDomain
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindShape:
		return "shape"
	case KindDomain:
		return "domain"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

var (
	ErrEndpointUnavailable = errors.New("эндпоинт API недоступен")
	ErrRequestFailed       = errors.New("сбой при обращении к API")
	ErrMalformedResponse   = errors.New("ответ API не является корректным JSON")
	ErrMissingKey          = errors.New("отсутствует обязательный ключ")
	ErrWrongType           = errors.New("неправильный тип данных")
	ErrUnknownStatus       = errors.New("недокументированный статус")
)

// Error is a classified failure. Msg is the human readable text that ends up
// in the chat; Err is the sentinel (or transport cause) it wraps.
type Error struct {
	Kind Kind
	// Key names the offending field for ErrMissingKey / ErrWrongType.
	Key string
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, key string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Key: key, Err: err, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// KeyOf returns the offending key recorded in err, if any.
func KeyOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Key
	}
	return ""
}
