package errs

import (
	goerrors "errors"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CodeError is the error value the REST layer serializes verbatim.
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

// WithDetail returns a copy carrying extra context; the receiver is shared
// sentinel state and must not be mutated.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// Wrap attaches a stack trace.
func (e *CodeError) Wrap() error {
	return errors.WithStack(e)
}

// WrapMsg attaches detail plus a stack trace.
func (e *CodeError) WrapMsg(detail string) error {
	return errors.WithStack(e.WithDetail(detail))
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !goerrors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// CodeOf extracts the application code from an error chain; unknown errors
// map to ErrInternal's code.
func CodeOf(err error) int {
	var ce *CodeError
	if goerrors.As(err, &ce) {
		return ce.Code
	}
	return ErrInternal.Code
}

// AsCodeError normalizes any error to a CodeError for the response body.
func AsCodeError(err error) *CodeError {
	var ce *CodeError
	if goerrors.As(err, &ce) {
		return ce
	}
	return ErrInternal.WithDetail(err.Error())
}

// Wrap attaches a stack trace to an arbitrary error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

func WrapMsg(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
