package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/mark/internal/adapters/logger"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "standard error",
			err:          errors.New("simple error"),
			wantMessages: []string{"simple error"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name: "zerr chain",
			err: zerr.Wrap(
				zerr.Wrap(errors.New("root cause"), "middle layer"),
				"outer layer",
			),
			wantMessages: []string{"outer layer", "middle layer", "root cause"},
			wantMetadata: []map[string]any{{}, {}, nil},
		},
		{
			name: "annotated sentinel folds metadata into the sentinel",
			err:  domain.Annotate(domain.ErrTaskNotFound, "task", "train"),
			wantMessages: []string{
				"task not found",
			},
			wantMetadata: []map[string]any{{"task": "train"}},
		},
		{
			name: "wrapped sentinel keeps its cause",
			err: domain.Annotate(
				domain.Wrap(domain.ErrConfigReadFailed, errors.New("permission denied")),
				"path", "/p/mark.yaml",
			),
			wantMessages: []string{"failed to read config file", "permission denied"},
			wantMetadata: []map[string]any{{"path": "/p/mark.yaml"}, nil},
		},
		{
			name: "task failure",
			err: &domain.TaskFailure{
				Task:  "models",
				Cause: zerr.With(zerr.Wrap(errors.New("exit status 1"), "command failed"), "exit_code", 1),
			},
			wantMessages: []string{"task failed: models", "command failed", "exit status 1"},
			wantMetadata: []map[string]any{nil, {"exit_code": 1}, nil},
		},
		{
			name: "metadata on a plain error",
			err:  zerr.With(errors.New("plain"), "k", "v"),
			wantMessages: []string{
				"plain",
			},
			wantMetadata: []map[string]any{{"k": "v"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntries(tt.err)

			assert.Len(t, entries, len(tt.wantMessages))
			for i, want := range tt.wantMessages {
				assert.Equal(t, want, entries[i].Message, "message at %d", i)
				assert.Equal(t, tt.wantMetadata[i], entries[i].Metadata, "metadata at %d", i)
			}
		})
	}
}

func TestCollectErrorEntries_Nil(t *testing.T) {
	assert.Empty(t, logger.CollectErrorEntries(nil))
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "causes",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "metadata sorted",
			entries: []logger.ErrorEntry{{
				Message:  "error",
				Metadata: map[string]any{"zebra": "z", "alpha": "a"},
			}},
			want: "Error: error\n       alpha: a\n       zebra: z",
		},
		{
			name: "metadata on cause",
			entries: []logger.ErrorEntry{
				{Message: "main"},
				{Message: "cause", Metadata: map[string]any{"exit_code": 2}},
			},
			want: "Error: main\n\n  Caused by:\n    → cause\n      exit_code: 2",
		},
		{
			name: "multiline",
			entries: []logger.ErrorEntry{
				{Message: "line1\nline2"},
				{Message: "cause1\ncause2"},
			},
			want: "Error: line1\n       line2\n\n  Caused by:\n    → cause1\n      cause2",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}
