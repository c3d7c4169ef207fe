package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vinylvault/models"
)

func (s *Server) listWishlist(c *gin.Context) {
	switch c.Query("view") {
	case "reached":
		c.JSON(http.StatusOK, s.Wishlist.PriceReached())
	case "pending":
		c.JSON(http.StatusOK, s.Wishlist.PendingPrice())
	case "":
		c.JSON(http.StatusOK, s.Wishlist.All())
	default:
		abort(c, http.StatusBadRequest, "view must be reached or pending")
	}
}

type wishlistRequest struct {
	AlbumTitle          string  `json:"albumTitle" binding:"required"`
	Artist              string  `json:"artist" binding:"required"`
	TargetPrice         float64 `json:"targetPrice" binding:"required,gt=0"`
	DiscogsID           *int    `json:"discogsId"`
	DiscogsURL          *string `json:"discogsUrl"`
	CoverImageData      []byte  `json:"coverImageData"`
	NotificationEnabled *bool   `json:"notificationEnabled"`
}

func (s *Server) addWishlistItem(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	item := models.NewWishlistItem(strings.TrimSpace(req.AlbumTitle), strings.TrimSpace(req.Artist), req.TargetPrice)
	item.DiscogsID = req.DiscogsID
	item.DiscogsURL = req.DiscogsURL
	item.CoverImageData = req.CoverImageData
	if req.NotificationEnabled != nil {
		item.NotificationEnabled = *req.NotificationEnabled
	}

	added, _ := s.Wishlist.Add(item)
	s.refreshSizes()
	c.JSON(http.StatusCreated, added)
}

func (s *Server) updateWishlistItem(c *gin.Context) {
	var item models.WishlistRecord
	if err := c.ShouldBindJSON(&item); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if item.TargetPrice <= 0 {
		abort(c, http.StatusBadRequest, "targetPrice must be positive")
		return
	}
	item.ID = c.Param("id")
	if !s.Wishlist.Update(item) {
		abort(c, http.StatusNotFound, "wishlist item not found")
		return
	}
	updated, _ := s.Wishlist.Get(item.ID)
	c.JSON(http.StatusOK, updated)
}

func (s *Server) removeWishlistItem(c *gin.Context) {
	if !s.Wishlist.Remove(c.Param("id")) {
		abort(c, http.StatusNotFound, "wishlist item not found")
		return
	}
	s.refreshSizes()
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleNotification(c *gin.Context) {
	id := c.Param("id")
	if !s.Wishlist.ToggleNotification(id) {
		abort(c, http.StatusNotFound, "wishlist item not found")
		return
	}
	item, _ := s.Wishlist.Get(id)
	c.JSON(http.StatusOK, item)
}

func (s *Server) promote(c *gin.Context) {
	album, ok := s.Wishlist.Promote(c.Param("id"), s.Collection)
	if !ok {
		abort(c, http.StatusNotFound, "wishlist item not found")
		return
	}
	s.refreshSizes()
	c.JSON(http.StatusOK, album)
}

func (s *Server) checkPrices(c *gin.Context) {
	if s.Prices == nil {
		abort(c, http.StatusServiceUnavailable, "price monitor is not running")
		return
	}
	c.JSON(http.StatusOK, s.Prices.CheckPrices(c.Request.Context()))
}
