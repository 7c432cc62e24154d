package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "boards")
	kv, err := NewKVStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "leaderboard_quiz/1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "leaderboard_quiz/1", []byte(`[1]`)))
	require.NoError(t, kv.Set(ctx, "leaderboard_quiz/1", []byte(`[2]`)))

	got, ok, err := kv.Get(ctx, "leaderboard_quiz/1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[2]`, string(got))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "keys stay inside the directory and temp files are cleaned up")
}

func TestKVStoreKeepsPreviousBoardWhenWriteFails(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewKVStore(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "leaderboard_q", []byte(`[1]`)))

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	assert.Error(t, kv.Set(ctx, "leaderboard_q", []byte(`[2]`)))
	got, ok, err := kv.Get(ctx, "leaderboard_q")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(got))
}
