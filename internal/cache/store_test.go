// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/curio/pkg/types"
)

func newTestStore(t *testing.T, quota int64) *Store {
	t.Helper()
	s, err := NewStore(types.CacheConfig{Dir: t.TempDir(), QuotaBytes: quota}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	in := map[string]int{"artic": 5, "met": 200}
	require.NoError(t, s.Set(ctx, "search:vermeer", in, 0))

	var out map[string]int
	require.True(t, s.Get(ctx, "search:vermeer", &out))
	assert.Equal(t, in, out)

	assert.False(t, s.Get(ctx, "search:missing", &out))
}

func TestStoreExpiry(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	// Backdate the entry past its expiry instead of sleeping.
	_, err := s.db.Exec(`UPDATE entries SET expires_at = ? WHERE key = ?`,
		time.Now().Add(-time.Second).Unix(), "k")
	require.NoError(t, err)

	var out string
	assert.False(t, s.Get(ctx, "k", &out), "expired entry must read as a miss")

	// The expired entry is deleted on the way out.
	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries)
}

func TestStoreCorruptedEntryBecomesMiss(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	_, err := s.db.Exec(
		`INSERT INTO entries (key, payload, size, stored_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		"bad", "{not json", 9, time.Now().Unix(), time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)

	var out map[string]string
	assert.False(t, s.Get(ctx, "bad", &out))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries, "corrupted entry must be evicted")
}

func TestStoreQuotaEvictsOldestFirst(t *testing.T) {
	payload := strings.Repeat("x", 40)
	// Each entry is the 40-byte payload plus two JSON quotes; three do not
	// fit under the quota.
	s := newTestStore(t, 100)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "oldest", payload, 0))
	require.NoError(t, s.Set(ctx, "middle", payload, 0))

	// Make write order unambiguous despite second-resolution timestamps.
	_, err := s.db.Exec(`UPDATE entries SET stored_at = stored_at - 20 WHERE key = 'oldest'`)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE entries SET stored_at = stored_at - 10 WHERE key = 'middle'`)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "newest", payload, 0))

	var out string
	assert.False(t, s.Get(ctx, "oldest", &out), "oldest entry should be evicted")
	assert.True(t, s.Get(ctx, "middle", &out))
	assert.True(t, s.Get(ctx, "newest", &out))
}

func TestStoreReplaceDoesNotEvictOthers(t *testing.T) {
	payload := strings.Repeat("x", 40)
	s := newTestStore(t, 100)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", payload, 0))
	require.NoError(t, s.Set(ctx, "b", payload, 0))
	// Rewriting "a" frees its old size first, so "b" survives.
	require.NoError(t, s.Set(ctx, "a", payload, 0))

	var out string
	assert.True(t, s.Get(ctx, "a", &out))
	assert.True(t, s.Get(ctx, "b", &out))
}

func TestStoreOversizedPayloadSkipped(t *testing.T) {
	s := newTestStore(t, 100)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "keep", "small", 0))
	// Larger than the whole quota: logged and skipped, not an error.
	require.NoError(t, s.Set(ctx, "huge", strings.Repeat("x", 500), 0))

	var out string
	assert.False(t, s.Get(ctx, "huge", &out))
	assert.True(t, s.Get(ctx, "keep", &out), "a skipped write must not disturb other entries")
}

func TestStoreUnserializablePayloadSkipped(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "original", 0))
	// Channels cannot be marshaled; the write is logged and skipped and the
	// previous entry stays.
	require.NoError(t, s.Set(ctx, "k", make(chan int), 0))

	var out string
	require.True(t, s.Get(ctx, "k", &out))
	assert.Equal(t, "original", out)
}

func TestStoreEvictExpiredAndClear(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "live", "v", time.Hour))
	require.NoError(t, s.Set(ctx, "dead", "v", time.Hour))
	_, err := s.db.Exec(`UPDATE entries SET expires_at = ? WHERE key = 'dead'`,
		time.Now().Add(-time.Second).Unix())
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 1, st.Expired)

	n, err := s.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Clear(ctx))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, int64(0), st.UsedBytes)
}
