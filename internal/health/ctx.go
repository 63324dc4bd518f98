package health

import "log/slog"

// Ctx carries the logger through the pipeline. The zero value is valid and logs nothing.
type Ctx struct {
	Logger *slog.Logger
}

func NewCtx(logger *slog.Logger) Ctx {
	return Ctx{Logger: logger}
}

// With returns a Ctx whose logger has args attached.
func (c Ctx) With(args ...any) Ctx {
	if c.Logger == nil {
		return c
	}
	return Ctx{Logger: c.Logger.With(args...)}
}

func (c Ctx) Log(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Info(msg, args...)
	}
}

func (c Ctx) Debug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

func (c Ctx) Warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

func (c Ctx) LogErr(err error, args ...any) error {
	return LogErr(c.Logger, err, args...)
}

func (c Ctx) LogNewErr(msg string, args ...any) error {
	return LogNewErr(c.Logger, msg, args...)
}

func (c Ctx) LogWrappedErr(msg string, cause error, args ...any) error {
	return LogWrappedErr(c.Logger, msg, cause, args...)
}
