package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mark/internal/adapters/logger"
	"go.trai.ch/mark/internal/core/domain"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
}

func TestLogger_Pretty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	l.Info("resolved 4 tasks")
	l.Warn("lock for models is stale, reclaiming")
	l.Error(&domain.StorageError{
		Task: "models",
		Op:   domain.OpMaterialize,
		Cause: domain.Annotate(
			domain.Wrap(domain.ErrMarkerWriteFailed, errors.New("no space left on device")),
			"path", "/p/.mark/targets/9f1c.json",
		),
	})
	l.Error(nil)

	newGoldie(t).Assert(t, "pretty", buf.Bytes())
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)
	l.SetJSON(true)

	l.Error(domain.Annotate(domain.ErrTaskNotFound, "task", "train"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	errAttr, ok := record["error"].(map[string]any)
	require.True(t, ok, "zerr errors log as a group")
	assert.Equal(t, "train", errAttr["task"])
}

func TestLogger_SetOutputKeepsFormat(t *testing.T) {
	l := logger.New()
	l.SetJSON(true)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Info("hello")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	log := slog.New(logger.NewPrettyHandler(&buf, nil)).
		With("task", "seed").
		WithGroup("run")

	log.Info("done", "ms", 12)
	log.Debug("hidden")

	assert.Equal(t, "✓ done run.task=seed run.ms=12\n", buf.String())
}
