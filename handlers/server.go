package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vinylvault/catalog"
	"vinylvault/collection"
	"vinylvault/database"
	"vinylvault/geofence"
	"vinylvault/lyrics"
	"vinylvault/metrics"
	"vinylvault/models"
	"vinylvault/pricemonitor"
	"vinylvault/sentry"
	"vinylvault/stores"
	"vinylvault/widget"
	"vinylvault/wishlist"
)

type Catalog interface {
	catalog.Searcher
	Release(ctx context.Context, id int) (*catalog.Release, error)
	DownloadImage(ctx context.Context, rawURL string) ([]byte, error)
}

type LyricsSearcher interface {
	Search(ctx context.Context, query string) (lyrics.Result, error)
}

type LinkFinder interface {
	AlbumLink(ctx context.Context, title, artist string) (string, error)
}

type PriceChecker interface {
	CheckPrices(ctx context.Context) pricemonitor.Report
}

type SettingsStore interface {
	SaveSettings(settings models.WidgetSettings) error
}

type NotificationHistory interface {
	GetNotificationHistory(limit int) ([]database.NotificationRecord, error)
}

// Deps are the components the HTTP surface exposes.
type Deps struct {
	Collection *collection.Repository
	Wishlist   *wishlist.Repository
	Catalog    Catalog
	Prices     PriceChecker
	Stores     *stores.Directory
	Geofence   *geofence.Monitor
	Timeline   *widget.Timeline
	Settings   SettingsStore
	Lyrics     LyricsSearcher
	Links      LinkFinder
	History    NotificationHistory
	Metrics    *metrics.Metrics
}

type Server struct {
	Deps
	search *catalog.SearchSession
}

func NewServer(deps Deps) *Server {
	s := &Server{Deps: deps}
	if deps.Catalog != nil {
		s.search = catalog.NewSearchSession(deps.Catalog)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), sentry.GetSentryGin(), s.observe())

	router.GET("/albums", s.listAlbums)
	router.POST("/albums", s.addAlbum)
	router.POST("/albums/delete", s.deleteAlbumsAt)
	router.PUT("/albums/:id", s.updateAlbum)
	router.DELETE("/albums/:id", s.deleteAlbum)
	router.POST("/albums/:id/favorite", s.toggleFavorite)
	router.GET("/albums/:id/lyrics/:pos", s.trackLyrics)
	router.GET("/albums/:id/listen", s.listenLink)
	router.GET("/stats", s.stats)
	router.GET("/export", s.exportCollection)
	router.POST("/import", s.importCollection)

	router.GET("/wishlist", s.listWishlist)
	router.POST("/wishlist", s.addWishlistItem)
	router.POST("/wishlist/check", s.checkPrices)
	router.PUT("/wishlist/:id", s.updateWishlistItem)
	router.DELETE("/wishlist/:id", s.removeWishlistItem)
	router.POST("/wishlist/:id/notify", s.toggleNotification)
	router.POST("/wishlist/:id/promote", s.promote)

	router.GET("/catalog/search", s.catalogSearch)
	router.POST("/catalog/releases/:id", s.importRelease)

	router.GET("/stores", s.listStores)
	router.POST("/stores/monitoring", s.setMonitoring)
	router.POST("/stores/permission", s.setPermission)
	router.POST("/stores/:id/monitor", s.toggleStoreMonitor)
	router.POST("/location", s.location)

	router.GET("/widget", s.widgetEntry)
	router.PUT("/widget/settings", s.updateWidgetSettings)

	router.GET("/notifications", s.notificationHistory)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if s.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}
	return router
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
		log.WithFields(log.Fields{
			"module": "handlers",
			"method": c.Request.Method,
			"route":  route,
			"status": c.Writer.Status(),
		}).Tracef("Handled %s in %s", c.Request.URL.Path, time.Since(start))
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (s *Server) notificationHistory(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusOK, []database.NotificationRecord{})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := s.History.GetNotificationHistory(limit)
	if err != nil {
		log.Errorf("Failed to read notification history: %v", err)
		abort(c, http.StatusInternalServerError, "could not read notification history")
		return
	}
	c.JSON(http.StatusOK, history)
}
