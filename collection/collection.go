package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	sentry "github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vinylvault/models"
	"vinylvault/store"
)

// Storage persists the whole collection. *store.Store implements it.
type Storage interface {
	SaveCollection(albums []models.AlbumRecord) error
	LoadCollection() ([]models.AlbumRecord, error)
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type DecadeCount struct {
	Decade string `json:"decade"`
	Count  int    `json:"count"`
}

type Stats struct {
	Count           int           `json:"count"`
	AverageRating   float64       `json:"averageRating"`
	TotalValue      float64       `json:"totalValue"`
	FavoritesCount  int           `json:"favoritesCount"`
	GenreBreakdown  []GenreCount  `json:"genreBreakdown"`
	DecadeBreakdown []DecadeCount `json:"decadeBreakdown"`
}

// Repository is the in-memory owner of the album collection. Every mutation
// writes the full collection to storage before returning.
type Repository struct {
	mu      sync.RWMutex
	albums  []models.AlbumRecord
	storage Storage
}

// New loads the collection from storage. When nothing is stored, or the
// stored blob cannot be decoded, the sample albums become the collection and
// are saved immediately. Any other load error is returned and nothing is
// written.
func New(storage Storage) (*Repository, error) {
	r := &Repository{storage: storage}

	albums, err := storage.LoadCollection()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrDecode) {
			return nil, fmt.Errorf("load collection: %w", err)
		}
		r.albums = store.OrDefault(albums, err, models.SampleAlbums)
		log.Infof("Starting with %d sample albums", len(r.albums))
		r.persist()
		return r, nil
	}

	r.albums = albums
	log.Infof("Loaded %d albums", len(albums))
	return r, nil
}

func (r *Repository) persist() {
	if err := r.storage.SaveCollection(r.albums); err != nil {
		log.Errorf("Failed to save collection: %v", err)
		sentry.CaptureException(err)
	}
}

func (r *Repository) indexOf(id string) int {
	for i := range r.albums {
		if r.albums[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends album. An empty id is assigned and a missing condition becomes
// Very Good; an id already in the collection is ignored and Add reports false.
func (r *Repository) Add(album models.AlbumRecord) (models.AlbumRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if album.ID == "" {
		album.ID = uuid.New().String()
	}
	if r.indexOf(album.ID) >= 0 {
		log.Debugf("Album %s already in collection, skipping add", album.ID)
		return album, false
	}
	album.ClampRating()
	if !album.Condition.Valid() {
		album.Condition = models.ConditionVeryGood
	}

	r.albums = append(r.albums, album.Clone())
	r.persist()
	return album, true
}

// Update replaces the album with the same id, keeping its DateAdded. A
// missing condition keeps the stored one. Unknown ids are a no-op.
func (r *Repository) Update(album models.AlbumRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(album.ID)
	if i < 0 {
		return false
	}
	album.DateAdded = r.albums[i].DateAdded
	if !album.Condition.Valid() {
		album.Condition = r.albums[i].Condition
	}
	album.ClampRating()
	r.albums[i] = album.Clone()
	r.persist()
	return true
}

func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.albums = append(r.albums[:i], r.albums[i+1:]...)
	r.persist()
	return true
}

// DeleteAt removes the albums at the given positions of All(). Out of range
// and repeated indices are ignored. It returns how many albums were removed.
func (r *Repository) DeleteAt(indices []int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(r.albums) {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := r.albums[:0:0]
	for i, a := range r.albums {
		if !drop[i] {
			kept = append(kept, a)
		}
	}
	r.albums = kept
	r.persist()
	return len(drop)
}

func (r *Repository) ToggleFavorite(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.albums[i].IsFavorite = !r.albums[i].IsFavorite
	r.persist()
	return true
}

func (r *Repository) Get(id string) (models.AlbumRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.AlbumRecord{}, false
	}
	return r.albums[i].Clone(), true
}

// All returns a copy of the collection in stored order.
func (r *Repository) All() []models.AlbumRecord {
	return r.filter(func(models.AlbumRecord) bool { return true })
}

func (r *Repository) filter(keep func(models.AlbumRecord) bool) []models.AlbumRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.AlbumRecord{}
	for _, a := range r.albums {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Search matches text case-insensitively against title, artist and genre.
// Empty text returns everything.
func (r *Repository) Search(text string) []models.AlbumRecord {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return r.All()
	}
	return r.filter(func(a models.AlbumRecord) bool {
		return strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Artist), q) ||
			strings.Contains(strings.ToLower(a.Genre), q)
	})
}

func (r *Repository) FilterByGenre(genre string) []models.AlbumRecord {
	return r.filter(func(a models.AlbumRecord) bool { return a.Genre == genre })
}

func (r *Repository) FilterByCondition(condition models.Condition) []models.AlbumRecord {
	return r.filter(func(a models.AlbumRecord) bool { return a.Condition == condition })
}

func (r *Repository) Favorites() []models.AlbumRecord {
	return r.filter(func(a models.AlbumRecord) bool { return a.IsFavorite })
}

func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.albums)
}

func (r *Repository) AverageRating() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.albums) == 0 {
		return 0
	}
	var sum float64
	for _, a := range r.albums {
		sum += a.Rating
	}
	return sum / float64(len(r.albums))
}

// TotalValue sums the purchase prices that are known.
func (r *Repository) TotalValue() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, a := range r.albums {
		if a.PurchasePrice != nil {
			total += *a.PurchasePrice
		}
	}
	return total
}

func (r *Repository) RecentlyAdded() []models.AlbumRecord {
	albums := r.All()
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].DateAdded.After(albums[j].DateAdded)
	})
	return albums
}

func (r *Repository) TopRated() []models.AlbumRecord {
	albums := r.All()
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].Rating > albums[j].Rating
	})
	return albums
}

// GenreBreakdown counts albums per genre, most common first. Equal counts
// are ordered by genre name.
func (r *Repository) GenreBreakdown() []GenreCount {
	r.mu.RLock()
	counts := map[string]int{}
	for _, a := range r.albums {
		counts[a.Genre]++
	}
	r.mu.RUnlock()

	out := make([]GenreCount, 0, len(counts))
	for genre, n := range counts {
		out = append(out, GenreCount{Genre: genre, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

// DecadeBreakdown counts albums per decade label ("1970s"), sorted by label.
func (r *Repository) DecadeBreakdown() []DecadeCount {
	r.mu.RLock()
	counts := map[string]int{}
	for _, a := range r.albums {
		counts[strconv.Itoa(a.Decade())+"s"]++
	}
	r.mu.RUnlock()

	out := make([]DecadeCount, 0, len(counts))
	for decade, n := range counts {
		out = append(out, DecadeCount{Decade: decade, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decade < out[j].Decade })
	return out
}

func (r *Repository) Stats() Stats {
	return Stats{
		Count:           r.Count(),
		AverageRating:   r.AverageRating(),
		TotalValue:      r.TotalValue(),
		FavoritesCount:  len(r.Favorites()),
		GenreBreakdown:  r.GenreBreakdown(),
		DecadeBreakdown: r.DecadeBreakdown(),
	}
}

// Export encodes the full collection as indented JSON.
func (r *Repository) Export() ([]byte, error) {
	data, err := json.MarshalIndent(r.All(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	return data, nil
}

// Import merges an exported collection, adding only albums whose id is not
// already present. It returns the number of albums added.
func (r *Repository) Import(data []byte) (int, error) {
	var incoming []models.AlbumRecord
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, fmt.Errorf("failed to decode collection: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, a := range incoming {
		if a.ID == "" || r.indexOf(a.ID) >= 0 {
			continue
		}
		a.ClampRating()
		if !a.Condition.Valid() {
			a.Condition = models.ConditionVeryGood
		}
		r.albums = append(r.albums, a)
		added++
	}
	if added > 0 {
		r.persist()
	}
	log.Infof("Imported %d of %d albums", added, len(incoming))
	return added, nil
}
