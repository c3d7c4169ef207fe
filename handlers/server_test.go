package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"vinylvault/catalog"
	"vinylvault/collection"
	"vinylvault/database"
	"vinylvault/geofence"
	"vinylvault/lyrics"
	"vinylvault/metrics"
	"vinylvault/models"
	"vinylvault/notify"
	"vinylvault/pricemonitor"
	"vinylvault/store"
	"vinylvault/stores"
	"vinylvault/streaming"
	"vinylvault/widget"
	"vinylvault/wishlist"
)

type fakeCatalog struct {
	results []catalog.SearchResult
	release *catalog.Release
	err     error
}

func (f *fakeCatalog) Search(_ context.Context, _ string) ([]catalog.SearchResult, error) {
	return f.results, f.err
}

func (f *fakeCatalog) Release(_ context.Context, _ int) (*catalog.Release, error) {
	return f.release, f.err
}

func (f *fakeCatalog) DownloadImage(_ context.Context, _ string) ([]byte, error) {
	return nil, catalog.ErrInvalidImage
}

type fakeLyrics struct{}

func (fakeLyrics) Search(_ context.Context, query string) (lyrics.Result, error) {
	if strings.Contains(query, "Something") {
		return lyrics.Result{Lyrics: "Something in the way she moves", Track: "Something"}, nil
	}
	return lyrics.Result{}, lyrics.ErrNotFound
}

type fakeLinks struct{ err error }

func (f fakeLinks) AlbumLink(_ context.Context, title, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://open.spotify.com/album/" + strings.ReplaceAll(title, " ", ""), nil
}

type fakePrices struct{ calls int }

func (f *fakePrices) CheckPrices(_ context.Context) pricemonitor.Report {
	f.calls++
	return pricemonitor.Report{Checked: 2, Alerts: 1}
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(_ notify.Notification) {}

type testEnv struct {
	router *gin.Engine
	server *Server
	prices *fakePrices
	local  *database.Database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	local, err := database.New(filepath.Join(dir, "local.db"))
	if err != nil {
		t.Fatal(err)
	}
	shared, err := database.New(filepath.Join(dir, "shared.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		local.Close()
		shared.Close()
	})

	m, err := metrics.New()
	if err != nil {
		t.Fatal(err)
	}

	st := store.New(local, shared)
	directory := stores.NewDirectory(models.DefaultStores())
	prices := &fakePrices{}
	timeline := widget.NewTimeline(store.NewSharedReader(shared), 0)
	st.OnReload(timeline.Reload)

	albums, err := collection.New(st)
	if err != nil {
		t.Fatal(err)
	}
	wants, err := wishlist.New(st)
	if err != nil {
		t.Fatal(err)
	}

	release := &catalog.Release{ID: 249504, Title: "The Dark Side Of The Moon", Year: 1973}
	s := NewServer(Deps{
		Collection: albums,
		Wishlist:   wants,
		Catalog:    &fakeCatalog{results: []catalog.SearchResult{{ID: 249504, Title: "Pink Floyd - The Dark Side Of The Moon"}}, release: release},
		Prices:     prices,
		Stores:     directory,
		Geofence:   geofence.New(directory, st, nopDispatcher{}, geofence.Options{Permission: geofence.PermissionAlways}),
		Timeline:   timeline,
		Settings:   st,
		Lyrics:     fakeLyrics{},
		Links:      fakeLinks{},
		History:    local,
		Metrics:    m,
	})
	return &testEnv{router: s.Router(), server: s, prices: prices, local: local}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestListAlbums(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		status int
		want   int
	}{
		{"all samples", "/albums", http.StatusOK, 3},
		{"search", "/albums?q=miles", http.StatusOK, 1},
		{"genre", "/albums?genre=Rock", http.StatusOK, 1},
		{"condition", "/albums?condition=Near%20Mint", http.StatusOK, 2},
		{"combined filters", "/albums?q=floyd&condition=Near%20Mint", http.StatusOK, 1},
		{"favorites", "/albums?sort=favorites", http.StatusOK, 3},
		{"bad sort", "/albums?sort=alphabetical", http.StatusBadRequest, 0},
		{"bad condition", "/albums?condition=shiny", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodGet, tt.path, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := len(decode[[]models.AlbumRecord](t, w)); got != tt.want {
				t.Errorf("len = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAlbumLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/albums", map[string]any{"title": "Blue", "artist": "Joni Mitchell", "releaseYear": 1971, "genre": "Folk", "rating": 9})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /albums = %d: %s", w.Code, w.Body.String())
	}
	album := decode[models.AlbumRecord](t, w)
	if album.ID == "" || album.Rating != 5 || album.Condition != models.ConditionVeryGood {
		t.Errorf("created album = %+v", album)
	}

	if w := e.do(t, http.MethodPost, "/albums", map[string]any{"title": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("POST without title = %d", w.Code)
	}

	album.PersonalReview = "Perfect"
	if w := e.do(t, http.MethodPut, "/albums/"+album.ID, album); w.Code != http.StatusOK {
		t.Errorf("PUT = %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/albums/missing", album); w.Code != http.StatusNotFound {
		t.Errorf("PUT missing = %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/albums/"+album.ID+"/favorite", nil)
	if got := decode[models.AlbumRecord](t, w); !got.IsFavorite {
		t.Error("favorite was not toggled")
	}

	if w := e.do(t, http.MethodDelete, "/albums/"+album.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/albums/"+album.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d", w.Code)
	}
}

func TestDeleteAlbumsAt(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/albums/delete", map[string]any{"indices": []int{0, 2, 7}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[map[string]int](t, w)["removed"]; got != 2 {
		t.Errorf("removed = %d, want 2", got)
	}
	if e.server.Collection.Count() != 1 {
		t.Errorf("Count() = %d, want 1", e.server.Collection.Count())
	}
}

func TestExportImport(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/export", nil)
	if !strings.Contains(w.Header().Get("Content-Disposition"), "vinyl_collection.json") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	exported := w.Body.String()

	w = e.do(t, http.MethodPost, "/import", exported)
	if got := decode[map[string]int](t, w)["imported"]; got != 0 {
		t.Errorf("re-import added %d, want 0", got)
	}
	if w := e.do(t, http.MethodPost, "/import", "not json"); w.Code != http.StatusBadRequest {
		t.Errorf("bad import = %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	e := newTestEnv(t)
	stats := decode[collection.Stats](t, e.do(t, http.MethodGet, "/stats", nil))
	if stats.Count != 3 || stats.TotalValue != 35+28+42 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLyricsAndListen(t *testing.T) {
	e := newTestEnv(t)
	var abbey models.AlbumRecord
	for _, a := range e.server.Collection.All() {
		if a.Title == "Abbey Road" {
			abbey = a
		}
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"by position", "/albums/" + abbey.ID + "/lyrics/A2", http.StatusOK},
		{"by index", "/albums/" + abbey.ID + "/lyrics/1", http.StatusOK},
		{"no lyrics", "/albums/" + abbey.ID + "/lyrics/A1", http.StatusNotFound},
		{"no track", "/albums/" + abbey.ID + "/lyrics/Z9", http.StatusNotFound},
		{"no album", "/albums/missing/lyrics/A1", http.StatusNotFound},
		{"listen", "/albums/" + abbey.ID + "/listen", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(t, http.MethodGet, tt.path, nil); w.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
		})
	}

	e.server.Links = fakeLinks{err: streaming.ErrDisabled}
	if w := e.do(t, http.MethodGet, "/albums/"+abbey.ID+"/listen", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled listen = %d", w.Code)
	}
}

func TestWishlistFlow(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/wishlist", map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac", "targetPrice": 30})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /wishlist = %d: %s", w.Code, w.Body.String())
	}
	item := decode[models.WishlistRecord](t, w)
	if !item.NotificationEnabled {
		t.Error("notifications should default to on")
	}

	if w := e.do(t, http.MethodPost, "/wishlist", map[string]any{"artist": "Nobody"}); w.Code != http.StatusBadRequest {
		t.Errorf("POST without title = %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/wishlist/"+item.ID+"/notify", nil)
	if got := decode[models.WishlistRecord](t, w); got.NotificationEnabled {
		t.Error("notification was not toggled off")
	}

	if got := decode[[]models.WishlistRecord](t, e.do(t, http.MethodGet, "/wishlist?view=pending", nil)); len(got) != 1 {
		t.Errorf("pending = %d, want 1", len(got))
	}
	if w := e.do(t, http.MethodGet, "/wishlist?view=soon", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad view = %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/wishlist/"+item.ID+"/promote", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("promote = %d", w.Code)
	}
	if e.server.Collection.Count() != 4 || len(e.server.Wishlist.All()) != 0 {
		t.Errorf("after promote: collection %d, wishlist %d", e.server.Collection.Count(), len(e.server.Wishlist.All()))
	}
	if w := e.do(t, http.MethodPost, "/wishlist/"+item.ID+"/promote", nil); w.Code != http.StatusNotFound {
		t.Errorf("second promote = %d", w.Code)
	}

	report := decode[pricemonitor.Report](t, e.do(t, http.MethodPost, "/wishlist/check", nil))
	if report.Checked != 2 || e.prices.calls != 1 {
		t.Errorf("check report = %+v, calls = %d", report, e.prices.calls)
	}
}

func TestWishlistTargetPriceValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing", map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac"}},
		{"zero", map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac", "targetPrice": 0}},
		{"negative", map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac", "targetPrice": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(t, http.MethodPost, "/wishlist", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("POST /wishlist = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
	if n := len(e.server.Wishlist.All()); n != 0 {
		t.Errorf("wishlist has %d items, want 0", n)
	}

	item := decode[models.WishlistRecord](t, e.do(t, http.MethodPost, "/wishlist", map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac", "targetPrice": 30}))
	for _, target := range []float64{0, -5} {
		edit := item
		edit.TargetPrice = target
		if w := e.do(t, http.MethodPut, "/wishlist/"+item.ID, edit); w.Code != http.StatusBadRequest {
			t.Errorf("PUT target %v = %d, want %d", target, w.Code, http.StatusBadRequest)
		}
	}
	if got, _ := e.server.Wishlist.Get(item.ID); got.TargetPrice != 30 {
		t.Errorf("TargetPrice = %v, want 30", got.TargetPrice)
	}
}

func TestWishlistUpdateKeepsHistory(t *testing.T) {
	e := newTestEnv(t)

	item := decode[models.WishlistRecord](t, e.do(t, http.MethodPost, "/wishlist", map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac", "targetPrice": 30}))
	priced, _ := e.server.Wishlist.Get(item.ID)
	priced.RecordPrice(35, time.Now())
	priced.RecordPrice(33, time.Now())
	e.server.Wishlist.Update(priced)

	w := e.do(t, http.MethodPut, "/wishlist/"+item.ID, map[string]any{"albumTitle": "Rumours", "artist": "Fleetwood Mac", "targetPrice": 25})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT = %d: %s", w.Code, w.Body.String())
	}
	got := decode[models.WishlistRecord](t, w)
	if got.TargetPrice != 25 || len(got.PriceHistory) != 2 {
		t.Errorf("updated item target=%v history=%d, want 25 and 2 points", got.TargetPrice, len(got.PriceHistory))
	}
	if !got.DateAdded.Equal(item.DateAdded) {
		t.Errorf("DateAdded = %v, want %v", got.DateAdded, item.DateAdded)
	}
}

func TestAlbumUpdateKeepsDateAdded(t *testing.T) {
	e := newTestEnv(t)

	created := decode[models.AlbumRecord](t, e.do(t, http.MethodPost, "/albums", map[string]any{"title": "Blue", "artist": "Joni Mitchell", "condition": "Near Mint"}))
	w := e.do(t, http.MethodPut, "/albums/"+created.ID, map[string]any{"title": "Blue", "artist": "Joni Mitchell", "personalReview": "Perfect"})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT = %d: %s", w.Code, w.Body.String())
	}
	got := decode[models.AlbumRecord](t, w)
	if !got.DateAdded.Equal(created.DateAdded) {
		t.Errorf("DateAdded = %v, want %v", got.DateAdded, created.DateAdded)
	}
	if got.Condition != models.ConditionNearMint || got.PersonalReview != "Perfect" {
		t.Errorf("updated album condition=%q review=%q", got.Condition, got.PersonalReview)
	}
}

func TestCatalogRoutes(t *testing.T) {
	e := newTestEnv(t)

	results := decode[[]catalog.SearchResult](t, e.do(t, http.MethodGet, "/catalog/search?q=dark+side", nil))
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}

	w := e.do(t, http.MethodPost, "/catalog/releases/249504", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("import release = %d: %s", w.Code, w.Body.String())
	}
	album := decode[models.AlbumRecord](t, w)
	if album.DiscogsID == nil || *album.DiscogsID != 249504 || album.Rating != 0 {
		t.Errorf("imported album = %+v", album)
	}
	if w := e.do(t, http.MethodPost, "/catalog/releases/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d", w.Code)
	}

	e.server.Catalog.(*fakeCatalog).err = catalog.ErrRateLimited
	if w := e.do(t, http.MethodGet, "/catalog/search?q=x", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("rate limited = %d", w.Code)
	}
	e.server.Catalog.(*fakeCatalog).err = catalog.ErrNoToken
	w = e.do(t, http.MethodGet, "/catalog/search?q=x", nil)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Discogs API token") {
		t.Errorf("no token = %d %s", w.Code, w.Body.String())
	}
}

func TestStoreRoutes(t *testing.T) {
	e := newTestEnv(t)

	if w := e.do(t, http.MethodPost, "/stores/monitoring", map[string]any{"enabled": true}); w.Code != http.StatusOK {
		t.Fatalf("enable = %d: %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodPost, "/stores/nope/monitor", nil); w.Code != http.StatusNotFound {
		t.Errorf("toggle unknown = %d", w.Code)
	}

	w := e.do(t, http.MethodPost, "/location", map[string]any{"lat": -33.8688, "lng": 151.2093})
	entered := decode[map[string][]string](t, w)["entered"]
	if len(entered) != 1 || entered[0] != "red-eye-records" {
		t.Errorf("entered = %v", entered)
	}
	if w := e.do(t, http.MethodPost, "/location", map[string]any{"lat": 120, "lng": 0}); w.Code != http.StatusBadRequest {
		t.Errorf("bad latitude = %d", w.Code)
	}

	if w := e.do(t, http.MethodPost, "/stores/permission", map[string]any{"status": "denied"}); w.Code != http.StatusOK {
		t.Errorf("permission = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/stores/permission", map[string]any{"status": "maybe"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad permission = %d", w.Code)
	}
	e.do(t, http.MethodPost, "/stores/monitoring", map[string]any{"enabled": false})
	if w := e.do(t, http.MethodPost, "/stores/monitoring", map[string]any{"enabled": true}); w.Code != http.StatusForbidden {
		t.Errorf("enable without permission = %d", w.Code)
	}

	type listing struct {
		Stores []struct {
			ID        string `json:"id"`
			Monitored bool   `json:"monitored"`
		} `json:"stores"`
	}
	body := decode[listing](t, e.do(t, http.MethodGet, "/stores", nil))
	if len(body.Stores) != 7 || body.Stores[0].Monitored {
		t.Errorf("stores = %+v", body.Stores)
	}
}

func TestWidgetRoutes(t *testing.T) {
	e := newTestEnv(t)

	first := decode[widget.Entry](t, e.do(t, http.MethodGet, "/widget", nil))
	if len(first.Albums) != 3 {
		t.Errorf("widget albums = %d, want 3", len(first.Albums))
	}

	picked := first.Albums[0].ID
	w := e.do(t, http.MethodPut, "/widget/settings", map[string]any{"widgetStyle": "List", "selectedAlbumIds": []string{picked}})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT settings = %d: %s", w.Code, w.Body.String())
	}
	entry := decode[widget.Entry](t, e.do(t, http.MethodGet, "/widget", nil))
	if entry.Style != models.WidgetStyleList || len(entry.Albums) != 1 || entry.Albums[0].ID != picked {
		t.Errorf("after settings change entry = style %s, %d albums", entry.Style, len(entry.Albums))
	}

	if w := e.do(t, http.MethodPut, "/widget/settings", map[string]any{"widgetStyle": "Carousel"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad style = %d", w.Code)
	}
}

func TestNotificationsAndMetrics(t *testing.T) {
	e := newTestEnv(t)
	if err := e.local.RecordNotification(database.NotificationRecord{Kind: "price_alert", RefID: "x", Title: "Price Alert!", Notifier: "log", Success: true}); err != nil {
		t.Fatal(err)
	}

	history := decode[[]database.NotificationRecord](t, e.do(t, http.MethodGet, "/notifications?limit=5", nil))
	if len(history) != 1 || history[0].Title != "Price Alert!" {
		t.Errorf("history = %+v", history)
	}

	w := e.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "vinylvault_http_requests_total") {
		t.Errorf("metrics = %d", w.Code)
	}
}
