package widget

import (
	"strings"
	"testing"
	"time"

	"vinylvault/models"
)

func TestRender(t *testing.T) {
	albums := models.SampleAlbums()
	tests := []struct {
		style models.WidgetStyle
		want  []string
	}{
		{models.WidgetStyleGrid, []string{"Abbey Road", "Miles Davis", "1973"}},
		{models.WidgetStyleShelf, []string{"Kind", "Pink"}},
		{models.WidgetStyleList, []string{"Abbey Road", "The Beatles", "(1959)"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			out := Render(Entry{Albums: albums, Style: tt.style, NextUpdate: time.Now()}, 90)
			if !strings.Contains(out, "3 records") {
				t.Errorf("missing header in:\n%s", out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() missing %q in:\n%s", want, out)
				}
			}
		})
	}
}

func TestRenderGridCoverMarker(t *testing.T) {
	plain := models.NewAlbum("Blue", "Joni Mitchell", 1971, "Folk")
	covered := models.NewAlbum("Hejira", "Joni Mitchell", 1976, "Folk")
	covered.CoverImageData = []byte{0x89, 'P', 'N', 'G'}

	tests := []struct {
		album models.AlbumRecord
		want  string
	}{
		{plain, "no cover"},
		{covered, "▣ cover"},
	}
	for _, tt := range tests {
		out := Render(Entry{Albums: []models.AlbumRecord{tt.album}, Style: models.WidgetStyleGrid}, 60)
		if !strings.Contains(out, tt.want) {
			t.Errorf("Render(%s) missing %q in:\n%s", tt.album.Title, tt.want, out)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	out := Render(Entry{Style: models.WidgetStyleGrid}, 0)
	if !strings.Contains(out, "No albums to show") {
		t.Errorf("Render() = %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Abbey Road", 20, "Abbey Road"},
		{"The Dark Side of the Moon", 8, "The Dar…"},
		{"Björk", 3, "Bj…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
