// Package log builds the [slog.Handler] used by the ajre binaries and carries
// request-scoped loggers through [context.Context].
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/termenv"

	charmlog "github.com/charmbracelet/log"
)

// Format names an output encoding accepted by --log-format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"
)

type contextKey struct{}

var (
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

var levels = map[string]slog.Level{
	"error":   slog.LevelError,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"debug":   slog.LevelDebug,
}

var handlers = map[Format]func(io.Writer, slog.Level) slog.Handler{
	FormatJSON: func(w io.Writer, lvl slog.Level) slog.Handler {
		return slog.NewJSONHandler(w, handlerOptions(lvl))
	},
	FormatLogfmt: func(w io.Writer, lvl slog.Level) slog.Handler {
		return slog.NewTextHandler(w, handlerOptions(lvl))
	},
	FormatText: newTerminalHandler,
}

// Options is the user-facing logger configuration, as read from flags or
// the config file.
type Options struct {
	Level  string
	Format string
}

// Validate reports whether both fields name a known level and format.
func (o Options) Validate() error {
	_, _, err := o.resolve()
	return err
}

func (o Options) resolve() (slog.Level, Format, error) {
	lvl, ok := levels[strings.ToLower(o.Level)]
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownLogLevel, o.Level)
	}

	format := Format(strings.ToLower(o.Format))
	if _, ok := handlers[format]; !ok {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownLogFormat, o.Format)
	}

	return lvl, format, nil
}

// NewHandler validates o and returns a handler writing to w.
func NewHandler(w io.Writer, o Options) (slog.Handler, error) {
	lvl, format, err := o.resolve()
	if err != nil {
		return nil, err
	}

	return handlers[format](w, lvl), nil
}

// handlerOptions trims source paths to the file name; full paths add noise
// to every evaluation line.
func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
				a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return a
		},
	}
}

func newTerminalHandler(w io.Writer, lvl slog.Level) slog.Handler {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		//nolint:gosec // G115: lvl comes from the levels table.
		Level:           charmlog.Level(int32(lvl)),
		Formatter:       charmlog.TextFormatter,
		ReportTimestamp: true,
		ReportCaller:    true,
		TimeFormat:      time.StampMilli,
	})
	logger.SetColorProfile(termenv.ColorProfile())

	return logger
}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithEvaluation returns a context whose logger is tagged with the given
// evaluation ID, along with that logger.
func WithEvaluation(ctx context.Context, evaluationID string) (context.Context, *slog.Logger) {
	logger := FromContext(ctx).With(slog.String("evaluation_id", evaluationID))
	return NewContext(ctx, logger), logger
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}

// FromContextOr returns the logger stored in ctx, or fallback.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}

	return fallback
}
