package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"aria.build/aria/internal/adapters/logger"
)

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	lg := &logger.Logger{}
	lg.SetOutput(buf)
	return lg
}

func TestLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	lg := newTestLogger(&buf)

	lg.Info("some message", "key", "value")

	require.Contains(t, buf.String(), "some message")
	require.Contains(t, buf.String(), "INFO")
	require.Contains(t, buf.String(), "key=value")
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	lg := newTestLogger(&buf)

	lg.Error("compile failed", "target", "libfoo")

	require.Contains(t, buf.String(), "compile failed")
	require.Contains(t, buf.String(), "ERROR")
	require.Contains(t, buf.String(), "target=libfoo")
}

func TestLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	lg := newTestLogger(&buf)

	lg.Warn("some warning")

	require.Contains(t, buf.String(), "some warning")
	require.Contains(t, buf.String(), "WARN")
}

func TestLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	lg := newTestLogger(&buf)

	lg.Debug("trace detail")

	require.Contains(t, buf.String(), "trace detail")
	require.Contains(t, buf.String(), "DEBUG")
}

func TestNew(t *testing.T) {
	lg := logger.New()
	require.NotNil(t, lg)

	var buf bytes.Buffer
	concrete := newTestLogger(&buf)
	concrete.Info("test initialization")

	require.True(t, strings.Contains(buf.String(), "test initialization"))
}
