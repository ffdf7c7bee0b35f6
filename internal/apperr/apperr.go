// Package apperr defines the error taxonomy shared by every layer of the
// analysis pipeline.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind sentinels. Match them with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownTicker     = errors.New("unknown ticker")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrScorerUnavailable = errors.New("scorer unavailable")
)

// Error carries a kind, the failing operation and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// New builds an error of the given kind without a cause.
func New(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap attaches kind and op to err. A nil err yields nil. If err already
// carries a kind from this package it is returned unchanged so the original
// classification survives further wrapping.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func InvalidInput(op, msg string) error {
	return New(ErrInvalidInput, op, msg)
}

func UnknownTicker(op, ticker string) error {
	return New(ErrUnknownTicker, op, ticker)
}

func SourceUnavailable(op string, err error) error {
	return Wrap(ErrSourceUnavailable, op, err)
}

func ScorerUnavailable(op string, err error) error {
	return Wrap(ErrScorerUnavailable, op, err)
}

// KindOf returns the sentinel kind of err, or nil if it is unclassified.
func KindOf(err error) error {
	for _, k := range []error{ErrInvalidInput, ErrUnknownTicker, ErrSourceUnavailable, ErrScorerUnavailable} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Code is a stable machine-readable name for err's kind.
func Code(err error) string {
	switch KindOf(err) {
	case ErrInvalidInput:
		return "INVALID_INPUT"
	case ErrUnknownTicker:
		return "UNKNOWN_TICKER"
	case ErrSourceUnavailable:
		return "SOURCE_UNAVAILABLE"
	case ErrScorerUnavailable:
		return "SCORER_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps err's kind to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnknownTicker:
		return http.StatusNotFound
	case ErrSourceUnavailable, ErrScorerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a fetch that failed with err may be attempted again.
func Retryable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
