package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Condition string

const (
	ConditionMint         Condition = "Mint (M)"
	ConditionNearMint     Condition = "Near Mint (NM)"
	ConditionVeryGoodPlus Condition = "Very Good Plus (VG+)"
	ConditionVeryGood     Condition = "Very Good (VG)"
	ConditionGoodPlus     Condition = "Good Plus (G+)"
	ConditionGood         Condition = "Good (G)"
	ConditionFair         Condition = "Fair (F)"
	ConditionPoor         Condition = "Poor (P)"
)

// Conditions lists every grade from best to worst.
var Conditions = []Condition{
	ConditionMint,
	ConditionNearMint,
	ConditionVeryGoodPlus,
	ConditionVeryGood,
	ConditionGoodPlus,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
}

func (c Condition) ShortName() string {
	switch c {
	case ConditionMint:
		return "Mint"
	case ConditionNearMint:
		return "Near Mint"
	case ConditionVeryGoodPlus:
		return "VG+"
	case ConditionVeryGood:
		return "VG"
	case ConditionGoodPlus:
		return "G+"
	case ConditionGood:
		return "Good"
	case ConditionFair:
		return "Fair"
	case ConditionPoor:
		return "Poor"
	}
	return string(c)
}

// Rank is the position of the grade in Conditions, 0 being the best.
// Unknown grades rank after Poor.
func (c Condition) Rank() int {
	for i, known := range Conditions {
		if known == c {
			return i
		}
	}
	return len(Conditions)
}

func (c Condition) Valid() bool {
	return c.Rank() < len(Conditions)
}

// ParseCondition accepts either the display name ("Very Good Plus (VG+)")
// or the short name ("VG+"), case-insensitively.
func ParseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	for _, c := range Conditions {
		if strings.EqualFold(string(c), s) || strings.EqualFold(c.ShortName(), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown condition %q", s)
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = ConditionVeryGood
		return nil
	}
	parsed, err := ParseCondition(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type TrackRecord struct {
	ID       string `json:"id"`
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

func NewTrack(position, title, duration string) TrackRecord {
	return TrackRecord{
		ID:       uuid.NewString(),
		Position: position,
		Title:    title,
		Duration: duration,
	}
}

// Side maps the first character of the position to a side label.
func (t TrackRecord) Side() string {
	if t.Position == "" {
		return "Unknown"
	}
	switch t.Position[0] {
	case 'A', 'B', 'C', 'D':
		return "Side " + t.Position[:1]
	}
	return "Unknown"
}

type AlbumRecord struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Artist           string        `json:"artist"`
	ReleaseYear      int           `json:"releaseYear"`
	Genre            string        `json:"genre"`
	CoverImageData   []byte        `json:"coverImageData,omitempty"`
	Rating           float64       `json:"rating"`
	PersonalReview   string        `json:"personalReview"`
	DateAdded        time.Time     `json:"dateAdded"`
	TrackListing     []TrackRecord `json:"trackListing"`
	Condition        Condition     `json:"condition"`
	PurchasePrice    *float64      `json:"purchasePrice,omitempty"`
	PurchaseLocation *string       `json:"purchaseLocation,omitempty"`
	IsFavorite       bool          `json:"isFavorite"`
	DiscogsID        *int          `json:"discogsId,omitempty"`
	DiscogsURL       *string       `json:"discogsUrl,omitempty"`
	Label            *string       `json:"label,omitempty"`
	CatalogNumber    *string       `json:"catalogNumber,omitempty"`
	Country          *string       `json:"country,omitempty"`
}

// NewAlbum returns a record with a fresh identifier, the creation time set to
// now and the condition defaulted to Very Good.
func NewAlbum(title, artist string, releaseYear int, genre string) AlbumRecord {
	return AlbumRecord{
		ID:           uuid.NewString(),
		Title:        title,
		Artist:       artist,
		ReleaseYear:  releaseYear,
		Genre:        genre,
		DateAdded:    time.Now(),
		TrackListing: []TrackRecord{},
		Condition:    ConditionVeryGood,
	}
}

const (
	MinRating = 0.0
	MaxRating = 5.0
)

func (a *AlbumRecord) ClampRating() {
	if a.Rating < MinRating {
		a.Rating = MinRating
	}
	if a.Rating > MaxRating {
		a.Rating = MaxRating
	}
}

// Decade is floor(year/10)*10.
func (a AlbumRecord) Decade() int {
	return (a.ReleaseYear / 10) * 10
}

func (a AlbumRecord) HasCover() bool {
	return len(a.CoverImageData) > 0
}

// Clone returns a copy that shares no slices or pointers with a.
func (a AlbumRecord) Clone() AlbumRecord {
	c := a
	if a.CoverImageData != nil {
		c.CoverImageData = append([]byte(nil), a.CoverImageData...)
	}
	if a.TrackListing != nil {
		c.TrackListing = append([]TrackRecord(nil), a.TrackListing...)
	}
	c.PurchasePrice = clonePtr(a.PurchasePrice)
	c.PurchaseLocation = clonePtr(a.PurchaseLocation)
	c.DiscogsID = clonePtr(a.DiscogsID)
	c.DiscogsURL = clonePtr(a.DiscogsURL)
	c.Label = clonePtr(a.Label)
	c.CatalogNumber = clonePtr(a.CatalogNumber)
	c.Country = clonePtr(a.Country)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}
