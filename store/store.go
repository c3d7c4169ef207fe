// Package store persists the domain collections as whole-set JSON blobs.
//
// Every save writes one blob per key to the local namespace and, for the data
// the widget shows, to the shared namespace as well. Each Put replaces the
// blob in a single statement, so a reader in another process sees the old
// snapshot or the new one and never a mix. Readers may lag by one write.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"vinylvault/database"
	"vinylvault/models"
)

const (
	KeyAlbums          = "albums"
	KeySharedAlbums    = "shared_albums"
	KeyWishlist        = "wishlist"
	KeyWidgetSettings  = "widget_settings"
	KeyMonitoringState = "monitoring_state"
)

var (
	// ErrNotFound means nothing has been saved under the key yet.
	ErrNotFound = database.ErrNotFound
	// ErrDecode means the stored blob could not be decoded.
	ErrDecode = errors.New("stored data could not be decoded")
)

// Blobs is a key/blob namespace. *database.Database implements it.
type Blobs interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
}

type Store struct {
	local  Blobs
	shared Blobs

	hooksMu sync.RWMutex
	hooks   []func()
}

func New(local, shared Blobs) *Store {
	return &Store{local: local, shared: shared}
}

// OnReload registers fn to run after every collection or settings save.
func (s *Store) OnReload(fn func()) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

func (s *Store) signalReload() {
	s.hooksMu.RLock()
	hooks := append([]func(){}, s.hooks...)
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *Store) SaveCollection(albums []models.AlbumRecord) error {
	data, err := encode(albums)
	if err != nil {
		return err
	}
	err = errors.Join(
		s.local.Put(KeyAlbums, data),
		s.shared.Put(KeySharedAlbums, data),
	)
	s.signalReload()
	return err
}

func (s *Store) LoadCollection() ([]models.AlbumRecord, error) {
	var albums []models.AlbumRecord
	if err := load(s.local, KeyAlbums, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (s *Store) SaveWishlist(items []models.WishlistRecord) error {
	data, err := encode(items)
	if err != nil {
		return err
	}
	return errors.Join(
		s.local.Put(KeyWishlist, data),
		s.shared.Put(KeyWishlist, data),
	)
}

func (s *Store) LoadWishlist() ([]models.WishlistRecord, error) {
	var items []models.WishlistRecord
	if err := load(s.local, KeyWishlist, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveSettings writes widget settings to the shared namespace only.
func (s *Store) SaveSettings(settings models.WidgetSettings) error {
	data, err := encode(settings)
	if err != nil {
		return err
	}
	err = s.shared.Put(KeyWidgetSettings, data)
	s.signalReload()
	return err
}

func (s *Store) LoadSettings() (models.WidgetSettings, error) {
	return loadSettings(s.shared)
}

func (s *Store) SaveMonitoringState(state models.MonitoringState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	return s.local.Put(KeyMonitoringState, data)
}

func (s *Store) LoadMonitoringState() (models.MonitoringState, error) {
	var state models.MonitoringState
	if err := load(s.local, KeyMonitoringState, &state); err != nil {
		return models.MonitoringState{}, err
	}
	return state, nil
}

// OrDefault returns v when err is nil and fallback() otherwise. Decode
// failures are logged since the stored data is discarded.
func OrDefault[T any](v T, err error, fallback func() T) T {
	if err == nil {
		return v
	}
	if errors.Is(err, ErrDecode) {
		log.Warnf("Discarding stored data: %v", err)
	} else if !errors.Is(err, ErrNotFound) {
		log.Errorf("Failed to load stored data: %v", err)
	}
	return fallback()
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode: %w", err)
	}
	return data, nil
}

func load(b Blobs, key string, v any) error {
	data, err := b.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}
	return nil
}

func loadSettings(b Blobs) (models.WidgetSettings, error) {
	settings := models.DefaultWidgetSettings()
	if err := load(b, KeyWidgetSettings, &settings); err != nil {
		return models.WidgetSettings{}, err
	}
	return settings, nil
}

// TimestampedBlobs is a namespace that also reports when a key was written.
type TimestampedBlobs interface {
	Blobs
	UpdatedAt(key string) (time.Time, error)
}

// SharedReader is the read-only view of the shared namespace used by the
// widget process.
type SharedReader struct {
	shared TimestampedBlobs
}

func NewSharedReader(shared TimestampedBlobs) *SharedReader {
	return &SharedReader{shared: shared}
}

func (r *SharedReader) LoadCollection() ([]models.AlbumRecord, error) {
	var albums []models.AlbumRecord
	if err := load(r.shared, KeySharedAlbums, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (r *SharedReader) LoadSettings() (models.WidgetSettings, error) {
	return loadSettings(r.shared)
}

// Version returns the latest write time across the keys the widget reads.
func (r *SharedReader) Version() time.Time {
	var latest time.Time
	for _, key := range []string{KeySharedAlbums, KeyWidgetSettings} {
		t, err := r.shared.UpdatedAt(key)
		if err != nil {
			continue
		}
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}
