package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Codes mirror the error taxonomy of the sync core: transport trouble,
// server-pushed application errors, and failed collaborator calls.
const (
	CodeTransport   = 1001 // channel open failure or unexpected closure
	CodeApplication = 1002 // server-pushed error frame
	CodeCall        = 1003 // history/send/mark-read/presence call failed
	CodeInput       = 1004 // caller input rejected before any I/O
	CodeSession     = 1005 // session lifecycle misuse
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
	if e.Detail == "" {
		return e.Msg
	}
	return e.Msg + ": " + e.Detail
}

// WithDetail returns a copy carrying extra detail, so the predefined
// errors below stay immutable.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) WithDetailf(format string, args ...any) *CodeError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return ce.Code == e.Code && ce.Msg == e.Msg
}

// Predefined errors the kit returns to callers.
var (
	ErrContentTooLong = NewCodeError(CodeInput, "content exceeds 2000 characters")
	ErrSessionClosed  = NewCodeError(CodeSession, "conversation session is closed")
	ErrChannelDown    = NewCodeError(CodeTransport, "live channel is not connected")
)

// Code extracts the code from err, or 0 when err carries none.
func Code(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
		} else {
			sb.WriteString(fmt.Sprintf(" %v", kv[i]))
		}
	}
	return sb.String()
}

// WrapMsg attaches key/value context in the style "msg k=v".
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	return e.WithDetail(toString(msg, kv))
}
