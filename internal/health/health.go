// Package health builds errors that carry slog attributes and logs them in one step, so a failure can be both returned to the caller and recorded with its structured context.
package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Err is an error with a log-friendly message, optional key/value attrs (slog's args protocol), and an optional wrapped cause.
type Err struct {
	Message string
	wrapped error
	attrs   []any
}

// Error renders the message, then attrs as `[k=v ...]`, then " via " and the wrapped error.
func (e *Err) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.attrs) > 0 {
		b.WriteString("[")
		writeAttrs(&b, e.attrs)
		b.WriteString("]")
	}
	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

func (e *Err) Unwrap() error {
	return e.wrapped
}

// Attrs returns the attrs attached to e.
func (e *Err) Attrs() []any {
	return e.attrs
}

// NewErr returns a new unlogged error. args follow slog's args protocol (key/value pairs or slog.Attr values).
func NewErr(msg string, args ...any) error {
	return &Err{Message: msg, attrs: args}
}

// Wrap returns a new error wrapping cause.
func Wrap(msg string, cause error, args ...any) error {
	if cause == nil {
		cause = errors.New("nil cause passed to health.Wrap")
	}
	return &Err{Message: msg, wrapped: cause, attrs: args}
}

// LogErr logs err at error level (when logger and err are non-nil) and returns err unchanged:
//
//	return health.LogErr(logger, health.NewErr("could not read file", "file", path))
//
// For an *Err, its own attrs are logged first, followed by a "via" attr for the cause, then args.
func LogErr(logger *slog.Logger, err error, args ...any) error {
	if logger == nil || err == nil {
		return err
	}
	var h *Err
	if !errors.As(err, &h) || h != err {
		logger.Error(err.Error(), args...)
		return err
	}
	all := make([]any, 0, len(h.attrs)+len(args)+1)
	all = append(all, h.attrs...)
	if h.wrapped != nil {
		all = append(all, slog.String("via", h.wrapped.Error()))
	}
	all = append(all, args...)
	logger.Error(h.Message, all...)
	return err
}

// LogNewErr creates, logs, and returns a new error.
func LogNewErr(logger *slog.Logger, msg string, args ...any) error {
	return LogErr(logger, NewErr(msg, args...))
}

// LogWrappedErr creates an error wrapping cause, logs it, and returns it.
func LogWrappedErr(logger *slog.Logger, msg string, cause error, args ...any) error {
	return LogErr(logger, Wrap(msg, cause, args...))
}

// writeAttrs writes attrs to b in the text handler's key=value format (ex: `file=a.rs line=3`).
func writeAttrs(b *strings.Builder, attrs []any) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey {
				return slog.Attr{}
			}
			return a
		},
	}
	logger := slog.New(slog.NewTextHandler(&trimNewline{w: b}, opts))
	logger.Log(context.Background(), slog.LevelDebug, "", attrs...)
}

// trimNewline drops the single trailing newline that slog's text handler writes per record.
type trimNewline struct {
	w io.Writer
}

func (t *trimNewline) Write(p []byte) (int, error) {
	if n := len(p); n > 0 && p[n-1] == '\n' {
		if _, err := t.w.Write(p[:n-1]); err != nil {
			return 0, err
		}
		return n, nil
	}
	return t.w.Write(p)
}
