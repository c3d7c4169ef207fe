package models

import (
	"time"

	"github.com/google/uuid"
)

type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

type WishlistRecord struct {
	ID                  string       `json:"id"`
	AlbumTitle          string       `json:"albumTitle"`
	Artist              string       `json:"artist"`
	TargetPrice         float64      `json:"targetPrice"`
	CurrentPrice        *float64     `json:"currentPrice,omitempty"`
	DiscogsID           *int         `json:"discogsId,omitempty"`
	DiscogsURL          *string      `json:"discogsUrl,omitempty"`
	CoverImageData      []byte       `json:"coverImageData,omitempty"`
	DateAdded           time.Time    `json:"dateAdded"`
	LastPriceCheck      *time.Time   `json:"lastPriceCheck,omitempty"`
	PriceHistory        []PricePoint `json:"priceHistory"`
	NotificationEnabled bool         `json:"notificationEnabled"`
}

// NewWishlistItem returns an item with notifications enabled and an empty
// price history.
func NewWishlistItem(albumTitle, artist string, targetPrice float64) WishlistRecord {
	return WishlistRecord{
		ID:                  uuid.NewString(),
		AlbumTitle:          albumTitle,
		Artist:              artist,
		TargetPrice:         targetPrice,
		DateAdded:           time.Now(),
		PriceHistory:        []PricePoint{},
		NotificationEnabled: true,
	}
}

func (w WishlistRecord) IsPriceReached() bool {
	if w.CurrentPrice == nil {
		return false
	}
	return *w.CurrentPrice <= w.TargetPrice
}

// PriceChangePercent compares the current price to the last recorded price
// point. ok is false when either is missing or the last price is zero.
func (w WishlistRecord) PriceChangePercent() (float64, bool) {
	if w.CurrentPrice == nil || len(w.PriceHistory) == 0 {
		return 0, false
	}
	last := w.PriceHistory[len(w.PriceHistory)-1].Price
	if last == 0 {
		return 0, false
	}
	return (*w.CurrentPrice - last) / last * 100, true
}

// RecordPrice sets the current price and appends it to the history.
func (w *WishlistRecord) RecordPrice(price float64, at time.Time) {
	w.CurrentPrice = &price
	checked := at
	w.LastPriceCheck = &checked
	w.PriceHistory = append(w.PriceHistory, PricePoint{Date: at, Price: price})
}

func (w WishlistRecord) Clone() WishlistRecord {
	c := w
	if w.CoverImageData != nil {
		c.CoverImageData = append([]byte(nil), w.CoverImageData...)
	}
	if w.PriceHistory != nil {
		c.PriceHistory = append([]PricePoint(nil), w.PriceHistory...)
	}
	c.CurrentPrice = clonePtr(w.CurrentPrice)
	c.DiscogsID = clonePtr(w.DiscogsID)
	c.DiscogsURL = clonePtr(w.DiscogsURL)
	c.LastPriceCheck = clonePtr(w.LastPriceCheck)
	return c
}

// AlbumFromWishlist builds the collection record created when an item is
// bought. Year and genre are unknown and the rating starts at zero.
func AlbumFromWishlist(w WishlistRecord) AlbumRecord {
	album := NewAlbum(w.AlbumTitle, w.Artist, 0, "Unknown")
	if w.CoverImageData != nil {
		album.CoverImageData = append([]byte(nil), w.CoverImageData...)
	}
	album.PurchasePrice = clonePtr(w.CurrentPrice)
	album.DiscogsID = clonePtr(w.DiscogsID)
	album.DiscogsURL = clonePtr(w.DiscogsURL)
	return album
}
