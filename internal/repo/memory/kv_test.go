package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	kv := NewKV()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, []string{"k"}, kv.Keys())

	require.NoError(t, kv.Remove(ctx, "k"))
	require.NoError(t, kv.Remove(ctx, "k"))
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
}

func TestJobRepo_UpdateAndPrune(t *testing.T) {
	r := NewJobRepo()
	old := time.Now().Add(-2 * time.Hour)
	r.Save(&VideoJob{ID: "a", CreatedAt: old})
	r.Save(&VideoJob{ID: "b", CreatedAt: time.Now()})

	j, ok := r.Update("b", func(j *VideoJob) {
		j.Polls++
		j.Done = true
	})
	require.True(t, ok)
	assert.True(t, j.Done)
	assert.Equal(t, 1, j.Polls)

	_, ok = r.Update("zzz", func(*VideoJob) {})
	assert.False(t, ok)

	assert.Equal(t, 1, r.Prune(time.Now().Add(-time.Hour)))
	_, ok = r.Get("a")
	assert.False(t, ok)
	_, ok = r.Get("b")
	assert.True(t, ok)
}
