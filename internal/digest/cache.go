package digest

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"

	"github.com/openarchive/arcsync/internal/db"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS digest_cache (
    path      TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    size      INTEGER NOT NULL,
    mtime_ns  INTEGER NOT NULL,
    value     TEXT NOT NULL,
    PRIMARY KEY (path, algorithm)
);
`

const memCacheSize = 4096

type cacheEntry struct {
	Size    int64  `db:"size"`
	MtimeNS int64  `db:"mtime_ns"`
	Value   string `db:"value"`
}

// Cache stores computed digests keyed by (path, algorithm) and validated
// against (size, mtime), backed by SQLite with an in-memory LRU in front.
// A stale entry is treated as a miss, never returned.
type Cache struct {
	db  *sqlx.DB
	mem *lru.Cache[string, cacheEntry]
}

// NewCache opens (or creates) the digest cache database at dbPath.
func NewCache(dbPath string) (*Cache, error) {
	sqlDB, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open digest cache: %w", err)
	}

	if _, err := sqlDB.Exec(cacheSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init digest cache schema: %w", err)
	}

	mem, err := lru.New[string, cacheEntry](memCacheSize)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Cache{db: sqlDB, mem: mem}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func memKey(path string, alg Algorithm) string {
	return path + "|" + string(alg)
}

// Get returns the cached digest value for path when the recorded size and
// mtime still match.
func (c *Cache) Get(path string, size, mtimeNS int64, alg Algorithm) (string, bool) {
	key := memKey(path, alg)
	if entry, ok := c.mem.Get(key); ok {
		if entry.Size == size && entry.MtimeNS == mtimeNS {
			return entry.Value, true
		}
		c.mem.Remove(key)
	}

	var entry cacheEntry
	err := c.db.Get(&entry,
		`SELECT size, mtime_ns, value FROM digest_cache WHERE path = ? AND algorithm = ?`,
		path, string(alg))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("digest cache read", "path", path, "error", err)
		}
		return "", false
	}

	if entry.Size != size || entry.MtimeNS != mtimeNS {
		return "", false
	}

	c.mem.Add(key, entry)
	return entry.Value, true
}

// Put records a freshly computed digest.
func (c *Cache) Put(path string, size, mtimeNS int64, alg Algorithm, value string) {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO digest_cache (path, algorithm, size, mtime_ns, value) VALUES (?, ?, ?, ?, ?)`,
		path, string(alg), size, mtimeNS, value)
	if err != nil {
		slog.Warn("digest cache write", "path", path, "error", err)
		return
	}
	c.mem.Add(memKey(path, alg), cacheEntry{Size: size, MtimeNS: mtimeNS, Value: value})
}
