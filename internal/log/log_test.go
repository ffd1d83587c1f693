package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggerhardt/ajre-rules-engine/internal/log"
)

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		opts log.Options
		err  error
	}{
		"json":          {opts: log.Options{Level: "error", Format: "json"}},
		"logfmt":        {opts: log.Options{Level: "Info", Format: "LOGFMT"}},
		"text":          {opts: log.Options{Level: "debug", Format: "text"}},
		"warning alias": {opts: log.Options{Level: "WARNING", Format: "text"}},
		"unknown level": {opts: log.Options{Level: "trace", Format: "json"}, err: log.ErrUnknownLogLevel},
		"unknown format": {
			opts: log.Options{Level: "info", Format: "xml"},
			err:  log.ErrUnknownLogFormat,
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.opts.Validate()
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestNewHandler_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler, err := log.NewHandler(&buf, log.Options{Level: "info", Format: "json"})
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Debug("hidden")
	logger.Info("shown", slog.String("rule_id", "r1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "r1", entry["rule_id"])
	assert.Regexp(t, `^log_test\.go:\d+$`, entry["source"])

	_, err = log.NewHandler(&buf, log.Options{Level: "loud", Format: "json"})
	require.ErrorIs(t, err, log.ErrUnknownLogLevel)
}

func TestNewHandler_Logfmt(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler, err := log.NewHandler(&buf, log.Options{Level: "warn", Format: "logfmt"})
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Warn("rule skipped", slog.String("rule_id", "r2"))

	assert.Contains(t, buf.String(), `msg="rule skipped"`)
	assert.Contains(t, buf.String(), "rule_id=r2")
	assert.Contains(t, buf.String(), "source=log_test.go:")
}

func TestNewHandler_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler, err := log.NewHandler(&buf, log.Options{Level: "warn", Format: "text"})
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Info("hidden")
	logger.Warn("context budget exhausted")

	assert.Contains(t, buf.String(), "context budget exhausted")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Default(), log.FromContext(context.Background()))

	var buf bytes.Buffer

	handler, err := log.NewHandler(&buf, log.Options{Level: "info", Format: "json"})
	require.NoError(t, err)

	base := slog.New(handler)
	ctx := log.NewContext(context.Background(), base)
	ctx, logger := log.WithEvaluation(ctx, "eval-1")

	assert.Same(t, logger, log.FromContext(ctx))
	assert.Same(t, logger, log.FromContextOr(ctx, base))
	assert.Same(t, base, log.FromContextOr(context.Background(), base))

	log.FromContext(ctx).Info("evaluated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "eval-1", entry["evaluation_id"])
}
