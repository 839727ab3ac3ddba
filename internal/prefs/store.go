// Package prefs persists the user's favorite and recently searched cities.
// Entries are JSON string arrays in a small sqlite key-value table: loaded
// once at open, written back after every mutation.
package prefs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	_ "github.com/glebarez/go-sqlite"

	"github.com/skycast-app/skycast/internal/logger"
)

const (
	keyFavorites = "weather_favorites"
	keyRecents   = "weather_recents"

	maxRecents = 5
)

// Store is a session-scoped preference store. All access is single-threaded
// by the application's design; there is no internal locking.
type Store struct {
	db        *sql.DB
	favorites []string
	recents   []string
}

// Open opens (creating if needed) the store at path and loads both lists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("opening preference store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing preference store: %w", err)
	}

	s := &Store{db: db}
	s.favorites = s.load(keyFavorites)
	s.recents = s.load(keyRecents)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Favorites returns the favorite cities in insertion order.
func (s *Store) Favorites() []string {
	return slices.Clone(s.favorites)
}

// AddFavorite appends city unless it is already a favorite.
func (s *Store) AddFavorite(city string) {
	if slices.Contains(s.favorites, city) {
		return
	}
	s.favorites = append(s.favorites, city)
	s.save(keyFavorites, s.favorites)
}

// RemoveFavorite deletes city from the favorites, if present.
func (s *Store) RemoveFavorite(city string) {
	before := len(s.favorites)
	s.favorites = slices.DeleteFunc(s.favorites, func(c string) bool { return c == city })
	if len(s.favorites) != before {
		s.save(keyFavorites, s.favorites)
	}
}

// Recents returns the recent cities, most recent first.
func (s *Store) Recents() []string {
	return slices.Clone(s.recents)
}

// AddRecent moves city to the front of the recents, de-duplicated, keeping
// at most five entries.
func (s *Store) AddRecent(city string) {
	filtered := slices.DeleteFunc(slices.Clone(s.recents), func(c string) bool { return c == city })
	s.recents = append([]string{city}, filtered...)
	if len(s.recents) > maxRecents {
		s.recents = s.recents[:maxRecents]
	}
	s.save(keyRecents, s.recents)
}

// ClearRecents empties the recents list.
func (s *Store) ClearRecents() {
	s.recents = nil
	s.save(keyRecents, s.recents)
}

func (s *Store) load(key string) []string {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?;`, key).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.L.Warn("failed to load preference entry", "key", key, "error", err)
		}
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.L.Warn("corrupt preference entry, starting empty", "key", key, "error", err)
		return nil
	}
	return out
}

func (s *Store) save(key string, list []string) {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		logger.L.Error("failed to encode preference entry", "key", key, "error", err)
		return
	}
	if _, err := s.db.Exec(`INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, key, string(raw)); err != nil {
		logger.L.Error("failed to persist preference entry", "key", key, "error", err)
	}
}
