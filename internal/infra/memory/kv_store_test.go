package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore()

	_, ok, err := kv.Get(ctx, "leaderboard_q")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`[]`)
	require.NoError(t, kv.Set(ctx, "leaderboard_q", value))
	value[0] = 'x'

	got, ok, err := kv.Get(ctx, "leaderboard_q")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(got), "stored value must not change through the caller's slice")
}
