// Package errs defines coded errors shared across the gateway. A CodeError
// carries a stable numeric code plus a human-readable message so callers can
// branch on error identity with errors.Is while logs stay descriptive.
package errs

import (
	"errors"
	"strconv"
	"strings"

	pkgerr "github.com/pkg/errors"
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying additional detail text. The copy still
// matches the original via errors.Is.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// Wrap attaches cause context to this coded error. The result unwraps to the
// CodeError for errors.Is checks and keeps the cause text for logs.
func (e *CodeError) Wrap(cause error) error {
	if cause == nil {
		return e
	}
	return pkgerr.WithMessage(e, cause.Error())
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// WrapMsg annotates err with a message, preserving the chain for errors.Is.
func WrapMsg(err error, msg string) error {
	if err == nil {
		return nil
	}
	return pkgerr.WithMessage(err, msg)
}
