package catalog

import "strings"

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is one hit of a free-text database search.
type SearchResult struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Year       string   `json:"year,omitempty"`
	Thumb      string   `json:"thumb,omitempty"`
	CoverImage string   `json:"cover_image,omitempty"`
	Genre      []string `json:"genre,omitempty"`
	Style      []string `json:"style,omitempty"`
	Format     []string `json:"format,omitempty"`
	Country    string   `json:"country,omitempty"`
	Label      []string `json:"label,omitempty"`
}

// ArtistName is the part of the "Artist - Title" search title before the
// first separator.
func (r SearchResult) ArtistName() string {
	artist, _, _ := strings.Cut(r.Title, " - ")
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return "Unknown Artist"
	}
	return artist
}

func (r SearchResult) AlbumTitle() string {
	return albumTitle(r.Title)
}

func (r SearchResult) PrimaryGenre() string {
	return primaryGenre(r.Genre, r.Style)
}

func (r SearchResult) FormatString() string {
	if len(r.Format) == 0 {
		return "Vinyl"
	}
	return strings.Join(r.Format, ", ")
}

type Release struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Artists   []Artist `json:"artists,omitempty"`
	Year      int      `json:"year,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Styles    []string `json:"styles,omitempty"`
	Images    []Image  `json:"images,omitempty"`
	Tracklist []Track  `json:"tracklist,omitempty"`
	Labels    []Label  `json:"labels,omitempty"`
	Country   string   `json:"country,omitempty"`
	Released  string   `json:"released,omitempty"`
}

type Artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	Type   string `json:"type"`
	URI    string `json:"uri"`
	URI150 string `json:"uri150,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

type Label struct {
	Name  string `json:"name"`
	Catno string `json:"catno,omitempty"`
}

// PrimaryImage prefers the image typed "primary" and falls back to the first.
func (r Release) PrimaryImage() string {
	for _, img := range r.Images {
		if img.Type == "primary" {
			return img.URI
		}
	}
	if len(r.Images) > 0 {
		return r.Images[0].URI
	}
	return ""
}

func (r Release) ArtistName() string {
	if len(r.Artists) == 0 {
		return "Unknown Artist"
	}
	return r.Artists[0].Name
}

func (r Release) AlbumTitle() string {
	return albumTitle(r.Title)
}

func (r Release) PrimaryGenre() string {
	return primaryGenre(r.Genres, r.Styles)
}

type marketplaceStats struct {
	LowestPrice *struct {
		Value    float64 `json:"value"`
		Currency string  `json:"currency"`
	} `json:"lowest_price"`
	NumForSale int `json:"num_for_sale"`
}

func albumTitle(title string) string {
	_, rest, found := strings.Cut(title, " - ")
	if !found {
		return title
	}
	return strings.TrimSpace(rest)
}

func primaryGenre(genres, styles []string) string {
	if len(genres) > 0 {
		return genres[0]
	}
	if len(styles) > 0 {
		return styles[0]
	}
	return "Unknown"
}
