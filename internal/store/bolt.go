package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"go.etcd.io/bbolt"

	"github.com/0xADE/ade-omnibox/internal/habits"
	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/settings"
)

const (
	dbFile        = "omnibox.db"
	dbPermissions = 0600
)

var (
	entriesBucket  = []byte("entries")
	habitsBucket   = []byte("habits")
	settingsBucket = []byte("settings")
	settingsKey    = []byte("settings")
)

// Bolt keeps the launcher data in a bbolt file
type Bolt struct {
	db     *bbolt.DB
	logger *log.Logger
}

// DefaultDir returns the ade directory under the user cache directory
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "ade"), nil
}

// OpenBolt creates or opens the database in dir
func OpenBolt(dir string, logger *log.Logger) (*Bolt, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := bbolt.Open(dbPath, dbPermissions, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, habitsBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db, logger: logger}, nil
}

// Path returns the database file path
func (b *Bolt) Path() string {
	return b.db.Path()
}

// LoadEntries returns the stored entries in their saved order. Records
// that cannot be decoded are skipped.
func (b *Bolt) LoadEntries() []indexer.Entry {
	var entries []indexer.Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(entriesBucket)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var e indexer.Entry
			if err := json.Unmarshal(v, &e); err != nil || e.Identity == "" {
				b.logger.Warn("skipping undecodable entry", "key", fmt.Sprintf("%x", k), "err", err)
				return nil
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		b.logger.Warn("failed to load entries", "err", err)
		return nil
	}
	return entries
}

// SaveEntries replaces the stored entries
func (b *Bolt) SaveEntries(entries []indexer.Entry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := recreate(tx, entriesBucket)
		if err != nil {
			return err
		}
		for i, e := range entries {
			val, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", e.Identity, err)
			}
			if err := bkt.Put(counter(uint64(i)), val); err != nil {
				return fmt.Errorf("failed to store entry %s: %w", e.Identity, err)
			}
		}
		return nil
	})
}

// LoadHabits returns the stored habit table. Each query is a nested bucket
// of identity to hit counter.
func (b *Bolt) LoadHabits() *habits.Table {
	t := habits.New()
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(habitsBucket)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(query, v []byte) error {
			if v != nil {
				return nil
			}
			hits := make(map[string]uint32)
			err := bkt.Bucket(query).ForEach(func(identity, count []byte) error {
				if len(count) != 8 {
					b.logger.Warn("skipping malformed habit counter", "query", string(query), "identity", string(identity))
					return nil
				}
				hits[string(identity)] = uint32(min(binary.BigEndian.Uint64(count), uint64(^uint32(0))))
				return nil
			})
			if err != nil {
				return err
			}
			t.History[string(query)] = hits
			return nil
		})
	})
	if err != nil {
		b.logger.Warn("failed to load habits", "err", err)
		return habits.New()
	}
	return t
}

// SaveHabits replaces the stored habit table
func (b *Bolt) SaveHabits(t *habits.Table) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := recreate(tx, habitsBucket)
		if err != nil {
			return err
		}
		if t == nil {
			return nil
		}
		for query, hits := range t.History {
			qb, err := bkt.CreateBucket([]byte(query))
			if err != nil {
				return fmt.Errorf("failed to create habit bucket %q: %w", query, err)
			}
			for identity, n := range hits {
				if err := qb.Put([]byte(identity), counter(uint64(n))); err != nil {
					return fmt.Errorf("failed to store habit %q: %w", query, err)
				}
			}
		}
		return nil
	})
}

// LoadSettings returns the stored settings, or the defaults when none are
// stored or they are invalid
func (b *Bolt) LoadSettings() settings.Settings {
	s := settings.Default()
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(settingsBucket)
		if bkt == nil {
			return nil
		}
		val := bkt.Get(settingsKey)
		if val == nil {
			return nil
		}
		var stored settings.Settings
		if err := json.Unmarshal(val, &stored); err != nil {
			return err
		}
		if err := stored.Validate(); err != nil {
			return err
		}
		s = stored
		return nil
	})
	if err != nil {
		b.logger.Warn("using default settings", "err", err)
		return settings.Default()
	}
	return s
}

// SaveSettings stores s
func (b *Bolt) SaveSettings(s settings.Settings) error {
	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(settingsBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return bkt.Put(settingsKey, val)
	})
}

// Close closes the database connection.
func (b *Bolt) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func recreate(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to clear bucket %s: %w", name, err)
	}
	bkt, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return bkt, nil
}

func counter(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}
