package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vinylvault/geofence"
	"vinylvault/models"
)

type storeView struct {
	models.StoreRecord
	Monitored bool `json:"monitored"`
}

func (s *Server) listStores(c *gin.Context) {
	all := s.Stores.All()
	out := make([]storeView, 0, len(all))
	for _, st := range all {
		out = append(out, storeView{StoreRecord: st, Monitored: s.Geofence.IsMonitored(st.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"stores": out, "monitoring": s.Geofence.Status()})
}

type monitoringRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) setMonitoring(c *gin.Context) {
	var req monitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if *req.Enabled {
		if err := s.Geofence.Enable(); err != nil {
			abort(c, http.StatusForbidden, err.Error())
			return
		}
	} else {
		s.Geofence.Disable()
	}
	c.JSON(http.StatusOK, s.Geofence.Status())
}

func (s *Server) toggleStoreMonitor(c *gin.Context) {
	monitored, err := s.Geofence.ToggleStore(c.Param("id"))
	switch {
	case errors.Is(err, geofence.ErrUnknownStore):
		abort(c, http.StatusNotFound, err.Error())
	case errors.Is(err, geofence.ErrPermissionRequired):
		abort(c, http.StatusForbidden, err.Error())
	case errors.Is(err, geofence.ErrRegionLimit):
		abort(c, http.StatusConflict, err.Error())
	case err != nil:
		abort(c, http.StatusInternalServerError, err.Error())
	default:
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "monitored": monitored})
	}
}

type permissionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) setPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	status, err := geofence.ParsePermission(req.Status)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	s.Geofence.AuthorizationChanged(status)
	c.JSON(http.StatusOK, s.Geofence.Status())
}

type locationRequest struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
}

func (s *Server) location(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	entered := s.Geofence.HandleLocation(*req.Lat, *req.Lng)
	if entered == nil {
		entered = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"entered": entered})
}
