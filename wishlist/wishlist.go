package wishlist

import (
	"errors"
	"fmt"
	"sync"

	sentry "github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vinylvault/models"
	"vinylvault/store"
)

// Storage persists the whole wishlist. *store.Store implements it.
type Storage interface {
	SaveWishlist(items []models.WishlistRecord) error
	LoadWishlist() ([]models.WishlistRecord, error)
}

// AlbumAdder receives promoted items. *collection.Repository implements it.
type AlbumAdder interface {
	Add(album models.AlbumRecord) (models.AlbumRecord, bool)
}

// promotedNamespace derives collection ids from wishlist ids, so a promote
// that is repeated after an interruption lands on the same album id.
var promotedNamespace = uuid.MustParse("6f1c2a52-5a8e-4c55-9d0b-3b7e3f0b8a11")

type Repository struct {
	mu      sync.RWMutex
	items   []models.WishlistRecord
	storage Storage
}

// New loads the wishlist. A missing or undecodable blob starts an empty
// wishlist; any other load error is returned.
func New(storage Storage) (*Repository, error) {
	items, err := storage.LoadWishlist()
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrDecode) {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	items = store.OrDefault(items, err, func() []models.WishlistRecord { return []models.WishlistRecord{} })
	log.Infof("Loaded %d wishlist items", len(items))
	return &Repository{items: items, storage: storage}, nil
}

func (r *Repository) persist() {
	if err := r.storage.SaveWishlist(r.items); err != nil {
		log.Errorf("Failed to save wishlist: %v", err)
		sentry.CaptureException(err)
	}
}

func (r *Repository) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends item. An empty id is assigned; a duplicate id or a target price
// that is not positive is ignored.
func (r *Repository) Add(item models.WishlistRecord) (models.WishlistRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.TargetPrice <= 0 {
		log.Debugf("Rejecting wishlist item with target price %.2f", item.TargetPrice)
		return item, false
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if r.indexOf(item.ID) >= 0 {
		return item, false
	}
	if item.PriceHistory == nil {
		item.PriceHistory = []models.PricePoint{}
	}
	r.items = append(r.items, item.Clone())
	r.persist()
	return item, true
}

func (r *Repository) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	r.persist()
	return true
}

// Update replaces the item with the same id. DateAdded is kept. The price
// history only grows: an item whose history does not extend the stored one
// keeps the stored history and price fields. Unknown ids and target prices
// that are not positive are a no-op.
func (r *Repository) Update(item models.WishlistRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(item.ID)
	if i < 0 || item.TargetPrice <= 0 {
		return false
	}
	stored := r.items[i]
	item.DateAdded = stored.DateAdded
	if !extendsHistory(stored.PriceHistory, item.PriceHistory) {
		item.PriceHistory = stored.PriceHistory
		item.CurrentPrice = stored.CurrentPrice
		item.LastPriceCheck = stored.LastPriceCheck
	}
	r.items[i] = item.Clone()
	r.persist()
	return true
}

func extendsHistory(stored, next []models.PricePoint) bool {
	if len(next) < len(stored) {
		return false
	}
	for i, p := range stored {
		if !p.Date.Equal(next[i].Date) || p.Price != next[i].Price {
			return false
		}
	}
	return true
}

func (r *Repository) ToggleNotification(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.items[i].NotificationEnabled = !r.items[i].NotificationEnabled
	r.persist()
	return true
}

func (r *Repository) Get(id string) (models.WishlistRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.WishlistRecord{}, false
	}
	return r.items[i].Clone(), true
}

func (r *Repository) All() []models.WishlistRecord {
	return r.filter(func(models.WishlistRecord) bool { return true })
}

func (r *Repository) PriceReached() []models.WishlistRecord {
	return r.filter(models.WishlistRecord.IsPriceReached)
}

func (r *Repository) PendingPrice() []models.WishlistRecord {
	return r.filter(func(w models.WishlistRecord) bool { return !w.IsPriceReached() })
}

func (r *Repository) filter(keep func(models.WishlistRecord) bool) []models.WishlistRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.WishlistRecord{}
	for _, w := range r.items {
		if keep(w) {
			out = append(out, w.Clone())
		}
	}
	return out
}

// Promote moves the item into the collection: the album is added first, then
// the item is removed. The two writes are not atomic. If the process stops in
// between, the item is still on the wishlist and promoting it again reuses
// the same album id, which the collection ignores as a duplicate.
func (r *Repository) Promote(id string, collection AlbumAdder) (models.AlbumRecord, bool) {
	item, ok := r.Get(id)
	if !ok {
		return models.AlbumRecord{}, false
	}

	album := models.AlbumFromWishlist(item)
	album.ID = uuid.NewSHA1(promotedNamespace, []byte(item.ID)).String()
	if _, added := collection.Add(album); !added {
		log.Warnf("Album for wishlist item %s was already in the collection", id)
	}

	r.Remove(id)
	log.Infof("Moved '%s' by %s from wishlist to collection", item.AlbumTitle, item.Artist)
	return album, true
}
