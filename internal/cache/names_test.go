package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTable struct {
	mu      sync.Mutex
	rows    []Entry
	loads   atomic.Int32
	byID    atomic.Int32
	inserts atomic.Int32
	failing bool
}

func (m *memoryTable) LoadAfter(_ context.Context, afterID int64) ([]Entry, error) {
	m.loads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errors.New("table unavailable")
	}
	var out []Entry
	for _, r := range m.rows {
		if r.ID > afterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryTable) LoadByID(_ context.Context, id int64) (Entry, bool, error) {
	m.byID.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return Entry{}, false, errors.New("table unavailable")
	}
	for _, r := range m.rows {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Entry{}, false, nil
}

func (m *memoryTable) Insert(_ context.Context, name string) (int64, error) {
	m.inserts.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Name == name {
			return r.ID, nil
		}
	}
	id := int64(len(m.rows) + 1)
	m.rows = append(m.rows, Entry{ID: id, Name: name})
	return id, nil
}

func (m *memoryTable) add(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.rows) + 1)
	m.rows = append(m.rows, Entry{ID: id, Name: name})
	return id
}

func TestNameCacheNameOf(t *testing.T) {
	ctx := context.Background()
	table := &memoryTable{rows: []Entry{{1, "tofu"}, {2, "chili"}}}
	c := NewNameCache("ingredient", table)

	t.Run("should load lazily on first lookup", func(t *testing.T) {
		name, ok, err := c.NameOf(ctx, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "chili", name)
		assert.Equal(t, int64(2), c.HighWater())
	})

	t.Run("should pick up rows added after the high-water mark", func(t *testing.T) {
		id := table.add("garlic")
		name, ok, err := c.NameOf(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "garlic", name)
	})

	t.Run("should not reload for ids below the high-water mark", func(t *testing.T) {
		before := table.loads.Load()
		_, ok, err := c.NameOf(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, before, table.loads.Load())
	})

	t.Run("should report unknown ids", func(t *testing.T) {
		_, ok, err := c.NameOf(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNameCacheGetOrInsert(t *testing.T) {
	ctx := context.Background()
	table := &memoryTable{}
	c := NewNameCache("unit", table)

	id, err := c.GetOrInsert(ctx, "  Cup ")
	require.NoError(t, err)
	again, err := c.GetOrInsert(ctx, "cup")
	require.NoError(t, err)

	assert.Equal(t, id, again)
	assert.Equal(t, int32(1), table.inserts.Load())

	_, err = c.GetOrInsert(ctx, "   ")
	assert.Error(t, err)
}

func TestNameCacheConcurrentInsertsShareOneCall(t *testing.T) {
	ctx := context.Background()
	table := &memoryTable{}
	c := NewNameCache("ingredient", table)

	var wg sync.WaitGroup
	ids := make([]int64, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := c.GetOrInsert(ctx, "Basil")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, c.Len())
}

func TestNameCacheRefreshError(t *testing.T) {
	table := &memoryTable{failing: true}
	c := NewNameCache("ingredient", table)

	_, _, err := c.NameOf(context.Background(), 1)
	assert.ErrorContains(t, err, "table unavailable")
}

func TestNameCacheReadsLateRowsBelowHighWater(t *testing.T) {
	ctx := context.Background()
	table := &memoryTable{rows: []Entry{{1, "tofu"}, {3, "garlic"}}}
	c := NewNameCache("ingredient", table)
	require.NoError(t, c.RefreshIfStale(ctx))
	require.Equal(t, int64(3), c.HighWater())

	// id 2 commits after id 3 was already loaded.
	table.mu.Lock()
	table.rows = append(table.rows, Entry{ID: 2, Name: "basil"})
	table.mu.Unlock()

	name, ok, err := c.NameOf(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "basil", name)
	assert.Equal(t, int32(1), table.byID.Load())

	_, ok, err = c.NameOf(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), table.byID.Load(), "second lookup is served from the cache")

	_, ok, err = c.NameOf(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(3), c.HighWater())
}
