package xlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharfd/wharfd/pkg/xlog"
)

func newBufferedLogger(format string) (*xlog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	c := xlog.NewConfig()
	c.Level = slog.LevelDebug
	c.AddSource = false
	c.Format = format
	c.Writer = buf
	return xlog.New(c), buf
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufferedLogger("text")

	logger.Debug("debug message")
	logger.Infof("info %s", "message")
	logger.Warn("warn message", "key", "value")
	logger.Errorf("error %d", 42)

	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "error 42")
}

func TestLoggerJSONFormat(t *testing.T) {
	logger, buf := newBufferedLogger("json")

	logger.Info("hello")

	require.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, xlog.Default(), xlog.C(context.Background()))
	assert.Equal(t, xlog.Default(), xlog.C(nil)) //nolint:staticcheck // nil context on purpose
}

func TestWithContextCarriesAttrs(t *testing.T) {
	logger, buf := newBufferedLogger("text")
	xlog.SetDefault(logger)
	defer xlog.SetDefault(xlog.New(xlog.NewConfig()))

	ctx := xlog.WithContext(context.Background(), "repository", "library/hello")
	xlog.C(ctx).Info("pull")

	assert.Contains(t, buf.String(), "repository=library/hello")
}
