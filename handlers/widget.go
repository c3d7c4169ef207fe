package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"vinylvault/models"
)

func (s *Server) widgetEntry(c *gin.Context) {
	c.JSON(http.StatusOK, s.Timeline.Current())
}

func (s *Server) updateWidgetSettings(c *gin.Context) {
	settings := models.DefaultWidgetSettings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	style, err := models.ParseWidgetStyle(string(settings.WidgetStyle))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	settings.WidgetStyle = style
	if settings.SelectedAlbumIDs == nil {
		settings.SelectedAlbumIDs = []string{}
	}

	if err := s.Settings.SaveSettings(settings); err != nil {
		log.Errorf("Failed to save widget settings: %v", err)
		abort(c, http.StatusInternalServerError, "could not save widget settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}
