package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizquest/internal/docstore"
	"quizquest/internal/logger"
)

func seedBackupStore(t *testing.T) docstore.Store {
	t.Helper()
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "users/alice/progress/math_easy", map[string]interface{}{"highestLevelCompleted": 3}))
	require.NoError(t, store.Set(ctx, "streaks/alice", map[string]interface{}{"currentStreak": 2, "lastCompletedDate": "2024-03-01"}))
	return store
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := NewBackupService(seedBackupStore(t), "memory", logger.NewNop())

	var buf bytes.Buffer
	count, err := source.ExportToWriter(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var backup BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &backup))
	assert.Equal(t, "2.0", backup.Version)
	assert.Equal(t, "memory", backup.StoreType)

	target := docstore.NewMemoryStore()
	require.NoError(t, target.Set(ctx, "streaks/bob", map[string]interface{}{"currentStreak": 9}))
	restored := NewBackupService(target, "memory", logger.NewNop())

	count, err = restored.ImportFromReader(ctx, bytes.NewReader(buf.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	doc, err := target.Get(ctx, "users/alice/progress/math_easy")
	require.NoError(t, err)
	assert.Equal(t, float64(3), doc.Data["highestLevelCompleted"])
	_, err = target.Get(ctx, "streaks/bob")
	assert.NoError(t, err, "documents outside the backup are kept without clear")

	_, err = restored.ImportFromReader(ctx, bytes.NewReader(buf.Bytes()), true)
	require.NoError(t, err)
	_, err = target.Get(ctx, "streaks/bob")
	assert.True(t, docstore.IsNotFound(err))
}

func TestBackupFileExportImport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "backup.json")

	count, err := NewBackupService(seedBackupStore(t), "memory", logger.NewNop()).Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	target := docstore.NewMemoryStore()
	count, err = NewBackupService(target, "memory", logger.NewNop()).Import(ctx, path, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	docs, err := target.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestBackupImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store := seedBackupStore(t)
	svc := NewBackupService(store, "memory", logger.NewNop())

	_, err := svc.ImportFromReader(ctx, strings.NewReader("{not json"), true)
	assert.Error(t, err)

	_, err = svc.ImportFromReader(ctx, strings.NewReader(`{"version":"2.0","documents":[{"path":"users//x","data":{}}]}`), true)
	assert.ErrorIs(t, err, docstore.ErrInvalidPath)

	docs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2, "a rejected backup leaves the store untouched")
}
