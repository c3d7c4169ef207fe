package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vinylvault/lyrics"
	"vinylvault/models"
	"vinylvault/streaming"
)

// listAlbums applies the optional q, genre and condition filters together on
// top of the order chosen by sort.
func (s *Server) listAlbums(c *gin.Context) {
	var albums []models.AlbumRecord
	switch c.Query("sort") {
	case "recent":
		albums = s.Collection.RecentlyAdded()
	case "rating":
		albums = s.Collection.TopRated()
	case "favorites":
		albums = s.Collection.Favorites()
	case "":
		albums = s.Collection.All()
	default:
		abort(c, http.StatusBadRequest, "sort must be recent, rating or favorites")
		return
	}

	var filters [][]models.AlbumRecord
	if q := c.Query("q"); q != "" {
		filters = append(filters, s.Collection.Search(q))
	}
	if genre := c.Query("genre"); genre != "" {
		filters = append(filters, s.Collection.FilterByGenre(genre))
	}
	if raw := c.Query("condition"); raw != "" {
		condition, err := models.ParseCondition(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		filters = append(filters, s.Collection.FilterByCondition(condition))
	}

	for _, matched := range filters {
		albums = intersect(albums, matched)
	}
	c.JSON(http.StatusOK, albums)
}

func intersect(albums, matched []models.AlbumRecord) []models.AlbumRecord {
	keep := make(map[string]bool, len(matched))
	for _, a := range matched {
		keep[a.ID] = true
	}
	out := make([]models.AlbumRecord, 0, len(albums))
	for _, a := range albums {
		if keep[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func (s *Server) addAlbum(c *gin.Context) {
	var album models.AlbumRecord
	if err := c.ShouldBindJSON(&album); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(album.Title) == "" || strings.TrimSpace(album.Artist) == "" {
		abort(c, http.StatusBadRequest, "title and artist are required")
		return
	}
	if album.DateAdded.IsZero() {
		album.DateAdded = time.Now()
	}
	if album.TrackListing == nil {
		album.TrackListing = []models.TrackRecord{}
	}

	added, ok := s.Collection.Add(album)
	if !ok {
		abort(c, http.StatusConflict, fmt.Sprintf("album %s already exists", added.ID))
		return
	}
	s.refreshSizes()
	c.JSON(http.StatusCreated, added)
}

func (s *Server) updateAlbum(c *gin.Context) {
	var album models.AlbumRecord
	if err := c.ShouldBindJSON(&album); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	album.ID = c.Param("id")
	if !s.Collection.Update(album) {
		abort(c, http.StatusNotFound, "album not found")
		return
	}
	updated, _ := s.Collection.Get(album.ID)
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteAlbum(c *gin.Context) {
	if !s.Collection.Delete(c.Param("id")) {
		abort(c, http.StatusNotFound, "album not found")
		return
	}
	s.refreshSizes()
	c.Status(http.StatusNoContent)
}

type deleteAtRequest struct {
	Indices []int `json:"indices" binding:"required"`
}

func (s *Server) deleteAlbumsAt(c *gin.Context) {
	var req deleteAtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	removed := s.Collection.DeleteAt(req.Indices)
	s.refreshSizes()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) toggleFavorite(c *gin.Context) {
	id := c.Param("id")
	if !s.Collection.ToggleFavorite(id) {
		abort(c, http.StatusNotFound, "album not found")
		return
	}
	album, _ := s.Collection.Get(id)
	c.JSON(http.StatusOK, album)
}

// trackLyrics looks the track up by side position ("A1") or by zero-based
// index into the track listing.
func (s *Server) trackLyrics(c *gin.Context) {
	album, ok := s.Collection.Get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "album not found")
		return
	}
	track, ok := findTrack(album.TrackListing, c.Param("pos"))
	if !ok {
		abort(c, http.StatusNotFound, "track not found")
		return
	}
	if s.Lyrics == nil {
		abort(c, http.StatusServiceUnavailable, "lyrics lookup is not configured")
		return
	}

	result, err := s.Lyrics.Search(c.Request.Context(), album.Artist+" "+track.Title)
	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		abort(c, http.StatusNotFound, "no lyrics found for this track")
	case err != nil:
		log.Errorf("Lyrics lookup failed for '%s': %v", track.Title, err)
		abort(c, http.StatusBadGateway, "lyrics lookup failed")
	default:
		c.JSON(http.StatusOK, result)
	}
}

func findTrack(tracks []models.TrackRecord, pos string) (models.TrackRecord, bool) {
	for _, t := range tracks {
		if strings.EqualFold(t.Position, pos) {
			return t, true
		}
	}
	if i, err := strconv.Atoi(pos); err == nil && i >= 0 && i < len(tracks) {
		return tracks[i], true
	}
	return models.TrackRecord{}, false
}

func (s *Server) listenLink(c *gin.Context) {
	album, ok := s.Collection.Get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "album not found")
		return
	}
	if s.Links == nil {
		abort(c, http.StatusServiceUnavailable, streaming.ErrDisabled.Error())
		return
	}

	link, err := s.Links.AlbumLink(c.Request.Context(), album.Title, album.Artist)
	switch {
	case errors.Is(err, streaming.ErrDisabled):
		abort(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, streaming.ErrNotFound):
		abort(c, http.StatusNotFound, err.Error())
	case err != nil:
		abort(c, http.StatusBadGateway, "streaming lookup failed")
	default:
		c.JSON(http.StatusOK, gin.H{"url": link})
	}
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Collection.Stats())
}

func (s *Server) exportCollection(c *gin.Context) {
	data, err := s.Collection.Export()
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="vinyl_collection.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) importCollection(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abort(c, http.StatusBadRequest, "could not read body")
		return
	}
	added, err := s.Collection.Import(data)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	s.refreshSizes()
	c.JSON(http.StatusOK, gin.H{"imported": added})
}

func (s *Server) refreshSizes() {
	wishlistSize := 0
	if s.Wishlist != nil {
		wishlistSize = len(s.Wishlist.All())
	}
	s.Metrics.SetCollectionSize(s.Collection.Count(), wishlistSize)
}
