// Package cache holds in-process lookup caches for normalized recipe
// vocabulary such as ingredient and unit names.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pageza/alchemorsel-search/internal/logging"
)

// Entry is one id/name row.
type Entry struct {
	ID   int64
	Name string
}

// NameLoader reads and extends a name table.
type NameLoader interface {
	// LoadAfter returns rows with id greater than afterID in id order.
	LoadAfter(ctx context.Context, afterID int64) ([]Entry, error)
	// LoadByID returns one row; ok is false when id does not exist.
	LoadByID(ctx context.Context, id int64) (entry Entry, ok bool, err error)
	// Insert stores name if absent and returns its id either way.
	Insert(ctx context.Context, name string) (int64, error)
}

// NameCache maps ids to names and lower-cased names to ids. New rows are
// picked up incrementally by loading everything above the highest id seen.
type NameCache struct {
	kind   string
	loader NameLoader
	group  singleflight.Group
	logger zerolog.Logger

	mu        sync.RWMutex
	byID      map[int64]string
	byName    map[string]int64
	highWater int64
}

// NewNameCache creates an empty cache; it fills on first use.
func NewNameCache(kind string, loader NameLoader) *NameCache {
	return &NameCache{
		kind:   kind,
		loader: loader,
		logger: logging.WithComponent("name_cache").With().Str("kind", kind).Logger(),
		byID:   make(map[int64]string),
		byName: make(map[string]int64),
	}
}

// Normalize lower-cases and trims a name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RefreshIfStale loads rows above the high-water mark. Concurrent callers
// share one load.
func (c *NameCache) RefreshIfStale(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		c.mu.RLock()
		after := c.highWater
		c.mu.RUnlock()

		entries, err := c.loader.LoadAfter(ctx, after)
		if err != nil {
			return nil, fmt.Errorf("load %s names: %w", c.kind, err)
		}
		c.mu.Lock()
		for _, e := range entries {
			c.putLocked(e.ID, e.Name)
			if e.ID > c.highWater {
				c.highWater = e.ID
			}
		}
		c.mu.Unlock()
		if len(entries) > 0 {
			c.logger.Debug().Int("loaded", len(entries)).Int64("high_water", c.HighWater()).Msg("name cache refreshed")
		}
		return nil, nil
	})
	return err
}

// NameOf returns the name for id, refreshing once if the id is newer than
// anything cached. A miss at or below the high-water mark is read directly:
// sequence values can commit out of order, so a refresh may have passed it.
func (c *NameCache) NameOf(ctx context.Context, id int64) (string, bool, error) {
	if name, ok := c.lookupID(id); ok {
		return name, true, nil
	}
	if id <= c.HighWater() {
		return c.loadOne(ctx, id)
	}
	if err := c.RefreshIfStale(ctx); err != nil {
		return "", false, err
	}
	name, ok := c.lookupID(id)
	return name, ok, nil
}

func (c *NameCache) loadOne(ctx context.Context, id int64) (string, bool, error) {
	v, err, _ := c.group.Do("id:"+strconv.FormatInt(id, 10), func() (interface{}, error) {
		entry, ok, err := c.loader.LoadByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load %s %d: %w", c.kind, id, err)
		}
		if !ok {
			return nil, nil
		}
		c.mu.Lock()
		c.putLocked(entry.ID, entry.Name)
		c.mu.Unlock()
		c.logger.Debug().Int64("id", id).Msg("loaded name below high-water mark")
		return entry.Name, nil
	})
	if err != nil || v == nil {
		return "", false, err
	}
	return v.(string), true, nil
}

// GetOrInsert returns the id for name, inserting it when unknown.
func (c *NameCache) GetOrInsert(ctx context.Context, name string) (int64, error) {
	key := Normalize(name)
	if key == "" {
		return 0, fmt.Errorf("empty %s name", c.kind)
	}
	if id, ok := c.lookupName(key); ok {
		return id, nil
	}

	v, err, _ := c.group.Do("insert:"+key, func() (interface{}, error) {
		if id, ok := c.lookupName(key); ok {
			return id, nil
		}
		id, err := c.loader.Insert(ctx, key)
		if err != nil {
			return int64(0), fmt.Errorf("insert %s %q: %w", c.kind, key, err)
		}
		c.mu.Lock()
		c.putLocked(id, key)
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// HighWater is the highest id seen by a refresh. Inserted names do not move
// it, so rows written by other processes below an inserted id are still
// picked up.
func (c *NameCache) HighWater() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.highWater
}

// Len is the number of cached names.
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func (c *NameCache) lookupID(id int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.byID[id]
	return name, ok
}

func (c *NameCache) lookupName(key string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[key]
	return id, ok
}

func (c *NameCache) putLocked(id int64, name string) {
	c.byID[id] = name
	c.byName[Normalize(name)] = id
}
