package collection

import (
	"errors"
	"math"
	"testing"
	"time"

	"vinylvault/models"
	"vinylvault/store"
)

type memStorage struct {
	albums  []models.AlbumRecord
	loadErr error
	saveErr error
	saves   int
}

func (m *memStorage) SaveCollection(albums []models.AlbumRecord) error {
	m.saves++
	m.albums = append([]models.AlbumRecord(nil), albums...)
	return m.saveErr
}

func (m *memStorage) LoadCollection() ([]models.AlbumRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]models.AlbumRecord(nil), m.albums...), nil
}

func album(title, artist string, year int, genre string, rating float64) models.AlbumRecord {
	a := models.NewAlbum(title, artist, year, genre)
	a.Rating = rating
	return a
}

func newRepo(t *testing.T, albums ...models.AlbumRecord) (*Repository, *memStorage) {
	t.Helper()
	if albums == nil {
		albums = []models.AlbumRecord{}
	}
	s := &memStorage{albums: albums}
	r, err := New(s)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, s
}

func TestNewFallsBackToSamples(t *testing.T) {
	for _, loadErr := range []error{store.ErrNotFound, store.ErrDecode} {
		s := &memStorage{loadErr: loadErr}
		r, err := New(s)
		if err != nil {
			t.Fatalf("New() after %v error = %v", loadErr, err)
		}
		if r.Count() != 3 {
			t.Errorf("Count() after %v = %d, want 3 samples", loadErr, r.Count())
		}
		if s.saves != 1 || len(s.albums) != 3 {
			t.Errorf("samples should be saved once, saves=%d stored=%d", s.saves, len(s.albums))
		}
	}
}

func TestNewLoadErrorKeepsStoredCollection(t *testing.T) {
	mine := album("Blue", "Joni Mitchell", 1971, "Folk", 5)
	s := &memStorage{albums: []models.AlbumRecord{mine}, loadErr: errors.New("database is locked")}

	r, err := New(s)
	if err == nil || r != nil {
		t.Fatalf("New() = %v, %v, want an error", r, err)
	}
	if s.saves != 0 {
		t.Errorf("saves = %d, want 0", s.saves)
	}
	if len(s.albums) != 1 || s.albums[0].ID != mine.ID {
		t.Errorf("stored collection = %+v, want the user's album kept", s.albums)
	}
}

func TestUpdateKeepsDateAdded(t *testing.T) {
	added := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	older := album("Older", "A", 1970, "Rock", 3)
	older.DateAdded = added.Add(-24 * time.Hour)
	target := album("Target", "B", 1980, "Rock", 3)
	target.DateAdded = added

	tests := []struct {
		name      string
		dateAdded time.Time
	}{
		{"zero", time.Time{}},
		{"later", added.Add(365 * 24 * time.Hour)},
		{"earlier", added.Add(-365 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s := newRepo(t, older, target)

			edit := target
			edit.Title = "Target (Remastered)"
			edit.DateAdded = tt.dateAdded
			if !r.Update(edit) {
				t.Fatal("Update() = false")
			}

			got, _ := r.Get(target.ID)
			if !got.DateAdded.Equal(added) {
				t.Errorf("DateAdded after Update = %v, want %v", got.DateAdded, added)
			}
			if got.Title != "Target (Remastered)" {
				t.Errorf("Title = %q, want the edit applied", got.Title)
			}
			if !s.albums[1].DateAdded.Equal(added) {
				t.Errorf("persisted DateAdded = %v, want %v", s.albums[1].DateAdded, added)
			}
			if recent := r.RecentlyAdded(); recent[0].ID != target.ID {
				t.Errorf("RecentlyAdded()[0] = %s, want %s", recent[0].Title, target.Title)
			}
		})
	}
}

func TestConditionDefaults(t *testing.T) {
	r, _ := newRepo(t)

	a := album("Blue", "Joni Mitchell", 1971, "Folk", 4)
	a.Condition = ""
	added, _ := r.Add(a)
	if added.Condition != models.ConditionVeryGood {
		t.Errorf("Add() condition = %q, want %q", added.Condition, models.ConditionVeryGood)
	}

	graded := added
	graded.Condition = models.ConditionNearMint
	r.Update(graded)

	edit := graded
	edit.Condition = ""
	r.Update(edit)
	if got, _ := r.Get(a.ID); got.Condition != models.ConditionNearMint {
		t.Errorf("condition after Update without one = %q, want %q", got.Condition, models.ConditionNearMint)
	}
}

func TestAddUpdateDelete(t *testing.T) {
	r, s := newRepo(t)

	a := album("Blue", "Joni Mitchell", 1971, "Folk", 7)
	added, ok := r.Add(a)
	if !ok {
		t.Fatal("Add() = false, want true")
	}
	if added.Rating != 5 {
		t.Errorf("rating = %v, want clamped to 5", added.Rating)
	}
	if _, ok := r.Add(a); ok {
		t.Error("Add() with a duplicate id should be ignored")
	}
	if r.Count() != 1 || s.saves != 1 {
		t.Fatalf("Count()=%d saves=%d, want 1/1", r.Count(), s.saves)
	}

	a.Title = "Blue (Remastered)"
	if !r.Update(a) {
		t.Fatal("Update() = false")
	}
	got, _ := r.Get(a.ID)
	if got.Title != "Blue (Remastered)" {
		t.Errorf("Title = %q after update", got.Title)
	}
	if s.albums[0].Title != "Blue (Remastered)" {
		t.Error("update was not persisted")
	}

	ghost := album("Ghost", "Nobody", 2000, "None", 1)
	if r.Update(ghost) {
		t.Error("Update() of an unknown id should be a no-op")
	}
	if s.saves != 2 {
		t.Errorf("saves = %d, a no-op update must not persist", s.saves)
	}

	if !r.Delete(a.ID) || r.Count() != 0 || len(s.albums) != 0 {
		t.Error("Delete() did not remove and persist")
	}
}

func TestAddAssignsID(t *testing.T) {
	r, _ := newRepo(t)
	added, ok := r.Add(models.AlbumRecord{Title: "Untitled"})
	if !ok || added.ID == "" {
		t.Errorf("Add() = %+v, %v; want an assigned id", added, ok)
	}
}

func TestDeleteAt(t *testing.T) {
	a := album("A", "x", 1990, "Rock", 1)
	b := album("B", "x", 1990, "Rock", 1)
	c := album("C", "x", 1990, "Rock", 1)
	r, s := newRepo(t, a, b, c)

	if n := r.DeleteAt([]int{2, 0, 0, 9, -1}); n != 2 {
		t.Errorf("DeleteAt() = %d, want 2", n)
	}
	all := r.All()
	if len(all) != 1 || all[0].Title != "B" {
		t.Errorf("remaining = %+v, want only B", all)
	}
	if len(s.albums) != 1 {
		t.Error("DeleteAt() did not persist")
	}
}

func TestToggleFavorite(t *testing.T) {
	a := album("A", "x", 1990, "Rock", 1)
	r, _ := newRepo(t, a)

	r.ToggleFavorite(a.ID)
	if got, _ := r.Get(a.ID); !got.IsFavorite {
		t.Error("ToggleFavorite() did not set favorite")
	}
	if len(r.Favorites()) != 1 {
		t.Error("Favorites() should contain the album")
	}
	r.ToggleFavorite(a.ID)
	if got, _ := r.Get(a.ID); got.IsFavorite {
		t.Error("second ToggleFavorite() did not clear favorite")
	}
	if r.ToggleFavorite("missing") {
		t.Error("ToggleFavorite() on a missing id should report false")
	}
}

func TestSearch(t *testing.T) {
	r, _ := newRepo(t,
		album("Abbey Road", "The Beatles", 1969, "Rock", 5),
		album("Kind of Blue", "Miles Davis", 1959, "Jazz", 4.5),
		album("Blue Train", "John Coltrane", 1958, "Jazz", 4),
	)

	tests := []struct {
		query string
		want  int
	}{
		{"blue", 2},
		{"BEATLES", 1},
		{"jazz", 2},
		{"zeppelin", 0},
		{"", 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := r.Search(tt.query); len(got) != tt.want {
				t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func TestFilters(t *testing.T) {
	a := album("A", "x", 1969, "Rock", 5)
	a.Condition = models.ConditionMint
	b := album("B", "x", 1973, "rock", 3)
	r, _ := newRepo(t, a, b)

	if got := r.FilterByGenre("Rock"); len(got) != 1 || got[0].Title != "A" {
		t.Errorf("FilterByGenre(Rock) = %+v, want exact match only", got)
	}
	if got := r.FilterByCondition(models.ConditionMint); len(got) != 1 {
		t.Errorf("FilterByCondition(Mint) = %d results, want 1", len(got))
	}
}

func TestAverageRating(t *testing.T) {
	r, _ := newRepo(t)
	if got := r.AverageRating(); got != 0 {
		t.Errorf("AverageRating() of empty = %v, want 0", got)
	}

	r, _ = newRepo(t,
		album("A", "x", 1990, "Rock", 5),
		album("B", "x", 1990, "Rock", 3),
		album("C", "x", 1990, "Rock", 4),
	)
	if got := r.AverageRating(); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("AverageRating() = %v, want 4.0", got)
	}
}

func TestTotalValue(t *testing.T) {
	a := album("A", "x", 1990, "Rock", 1)
	a.PurchasePrice = models.Ptr(35.0)
	b := album("B", "x", 1990, "Rock", 1)
	c := album("C", "x", 1990, "Rock", 1)
	c.PurchasePrice = models.Ptr(7.5)
	r, _ := newRepo(t, a, b, c)

	if got := r.TotalValue(); got != 42.5 {
		t.Errorf("TotalValue() = %v, want 42.5", got)
	}
}

func TestGenreBreakdown(t *testing.T) {
	r, _ := newRepo(t,
		album("A", "x", 1969, "Rock", 1),
		album("B", "x", 1959, "Jazz", 1),
		album("C", "x", 1973, "Rock", 1),
	)
	got := r.GenreBreakdown()
	want := []GenreCount{{"Rock", 2}, {"Jazz", 1}}
	if len(got) != len(want) {
		t.Fatalf("GenreBreakdown() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GenreBreakdown()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecadeBreakdown(t *testing.T) {
	r, _ := newRepo(t,
		album("A", "x", 1973, "Rock", 1),
		album("B", "x", 1969, "Rock", 1),
		album("C", "x", 1974, "Rock", 1),
	)
	got := r.DecadeBreakdown()
	want := []DecadeCount{{"1960s", 1}, {"1970s", 2}}
	if len(got) != len(want) {
		t.Fatalf("DecadeBreakdown() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DecadeBreakdown()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSortedViews(t *testing.T) {
	now := time.Now()
	old := album("Old", "x", 1990, "Rock", 5)
	old.DateAdded = now.Add(-48 * time.Hour)
	mid := album("Mid", "x", 1990, "Rock", 2)
	mid.DateAdded = now.Add(-24 * time.Hour)
	fresh := album("Fresh", "x", 1990, "Rock", 4)
	fresh.DateAdded = now
	r, _ := newRepo(t, old, mid, fresh)

	recent := r.RecentlyAdded()
	if recent[0].Title != "Fresh" || recent[2].Title != "Old" {
		t.Errorf("RecentlyAdded() order = %s, %s, %s", recent[0].Title, recent[1].Title, recent[2].Title)
	}
	top := r.TopRated()
	if top[0].Title != "Old" || top[2].Title != "Mid" {
		t.Errorf("TopRated() order = %s, %s, %s", top[0].Title, top[1].Title, top[2].Title)
	}
}

func TestExportImport(t *testing.T) {
	existing := album("A", "x", 1990, "Rock", 1)
	src, _ := newRepo(t, existing, album("B", "x", 1990, "Rock", 1))

	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst, s := newRepo(t, existing)
	added, err := dst.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if added != 1 || dst.Count() != 2 || len(s.albums) != 2 {
		t.Errorf("Import() added %d, Count() = %d", added, dst.Count())
	}

	again, _ := dst.Import(data)
	if again != 0 || dst.Count() != 2 {
		t.Errorf("re-import added %d, Count() = %d; want unchanged", again, dst.Count())
	}

	if _, err := dst.Import([]byte("not json")); err == nil {
		t.Error("Import() of garbage should fail")
	}
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	r, s := newRepo(t)
	s.saveErr = errors.New("disk full")

	if _, ok := r.Add(album("A", "x", 1990, "Rock", 1)); !ok {
		t.Error("Add() should succeed in memory when the save fails")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}
