package stores

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"vinylvault/models"
)

// Directory is the read-only list of record stores, loaded once.
type Directory struct {
	stores []models.StoreRecord
	byID   map[string]int
}

// Load reads the store list from a JSON file. Any read or decode failure, or
// an empty list, falls back to the built-in stores.
func Load(path string) *Directory {
	stores, err := readFile(path)
	if err != nil {
		log.Warnf("Using default stores: %v", err)
		return NewDirectory(models.DefaultStores())
	}
	log.Infof("Loaded %d record stores from %s", len(stores), path)
	return NewDirectory(stores)
}

func NewDirectory(stores []models.StoreRecord) *Directory {
	d := &Directory{stores: stores, byID: make(map[string]int, len(stores))}
	for i, s := range stores {
		d.byID[s.ID] = i
	}
	return d
}

func readFile(path string) ([]models.StoreRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("no stores file configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stores []models.StoreRecord
	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("%s contains no stores", path)
	}
	return stores, nil
}

// All returns the stores in file order.
func (d *Directory) All() []models.StoreRecord {
	return append([]models.StoreRecord(nil), d.stores...)
}

func (d *Directory) ByID(id string) (models.StoreRecord, bool) {
	i, ok := d.byID[id]
	if !ok {
		return models.StoreRecord{}, false
	}
	return d.stores[i], true
}
