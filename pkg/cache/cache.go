// Package cache keeps the symbols detected during the process lifetime in an in-memory buntdb.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/tidwall/buntdb"
)

const releasedIndex = "released"

type record struct {
	Symbol       string    `json:"symbol"`
	ReleasedAt   time.Time `json:"released_at"`
	ReleasedUnix int64     `json:"released_unix"`
}

// ListingCache maps symbols to their release time. Entries are never overwritten or evicted.
type ListingCache struct {
	db *buntdb.DB
}

// New opens an in-memory cache.
func New() (*ListingCache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.CreateIndex(releasedIndex, "*", buntdb.IndexJSON("released_unix")); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &ListingCache{db: db}, nil
}

// Has reports whether the symbol was already resolved.
func (c *ListingCache) Has(symbol string) bool {
	err := c.db.View(func(tx *buntdb.Tx) error {
		_, err := tx.Get(symbol)
		return err
	})
	return err == nil
}

// Put stores entry unless its symbol is already cached. It reports whether the entry was inserted.
func (c *ListingCache) Put(entry core.ListingEntry) (bool, error) {
	content, err := json.Marshal(record{
		Symbol:       entry.Symbol,
		ReleasedAt:   entry.ReleasedAt,
		ReleasedUnix: entry.ReleasedAt.UnixNano(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal entry: %w", err)
	}

	inserted := false
	err = c.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(entry.Symbol)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, buntdb.ErrNotFound):
			return err
		}

		if _, _, err := tx.Set(entry.Symbol, string(content), nil); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// Len returns the number of cached symbols.
func (c *ListingCache) Len() int {
	n := 0
	_ = c.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n
}

// Entries returns a snapshot of every cached entry, newest release first.
func (c *ListingCache) Entries() []core.ListingEntry {
	return c.Recent(0)
}

// Recent returns up to n entries, newest release first. n <= 0 means all of them.
func (c *ListingCache) Recent(n int) []core.ListingEntry {
	entries := make([]core.ListingEntry, 0)

	_ = c.db.View(func(tx *buntdb.Tx) error {
		return tx.Descend(releasedIndex, func(_, value string) bool {
			var r record
			if err := json.Unmarshal([]byte(value), &r); err != nil {
				return true
			}
			entries = append(entries, core.ListingEntry{Symbol: r.Symbol, ReleasedAt: r.ReleasedAt})
			return n <= 0 || len(entries) < n
		})
	})

	return entries
}

// Close releases the underlying database.
func (c *ListingCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
