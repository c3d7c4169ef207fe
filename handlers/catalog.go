package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vinylvault/catalog"
)

func catalogStatus(err error) int {
	var transportErr *catalog.TransportError
	switch {
	case errors.Is(err, catalog.ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, catalog.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &transportErr) && transportErr.Timeout():
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) catalogSearch(c *gin.Context) {
	if s.search == nil {
		abort(c, http.StatusServiceUnavailable, "catalog is not configured")
		return
	}
	results, err := s.search.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		abort(c, catalogStatus(err), catalog.UserMessage(err))
		return
	}
	c.JSON(http.StatusOK, results)
}

// importRelease fetches a release, downloads its primary image and adds it
// to the collection. A failed image download leaves the album without art.
func (s *Server) importRelease(c *gin.Context) {
	if s.Catalog == nil {
		abort(c, http.StatusServiceUnavailable, "catalog is not configured")
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, "release id must be a positive integer")
		return
	}

	ctx := c.Request.Context()
	release, err := s.Catalog.Release(ctx, id)
	if err != nil {
		abort(c, catalogStatus(err), catalog.UserMessage(err))
		return
	}

	var cover []byte
	if imageURL := release.PrimaryImage(); imageURL != "" {
		cover, err = s.Catalog.DownloadImage(ctx, imageURL)
		if err != nil {
			log.Warnf("Cover download failed for release %d: %v", id, err)
			cover = nil
		}
	}

	album, added := s.Collection.Add(catalog.ReleaseToAlbum(*release, cover))
	if !added {
		abort(c, http.StatusConflict, "album already in collection")
		return
	}
	s.refreshSizes()
	c.JSON(http.StatusCreated, album)
}
