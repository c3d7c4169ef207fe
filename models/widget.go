package models

import (
	"fmt"
	"strings"
)

type WidgetStyle string

const (
	WidgetStyleGrid  WidgetStyle = "Grid"
	WidgetStyleShelf WidgetStyle = "Shelf"
	WidgetStyleList  WidgetStyle = "List"
)

func ParseWidgetStyle(s string) (WidgetStyle, error) {
	for _, style := range []WidgetStyle{WidgetStyleGrid, WidgetStyleShelf, WidgetStyleList} {
		if strings.EqualFold(string(style), s) {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown widget style %q", s)
}

type WidgetSettings struct {
	SelectedAlbumIDs  []string    `json:"selectedAlbumIds"`
	WidgetStyle       WidgetStyle `json:"widgetStyle"`
	ShuffleDaily      bool        `json:"shuffleDaily"`
	ShowFavoritesOnly bool        `json:"showFavoritesOnly"`
}

func DefaultWidgetSettings() WidgetSettings {
	return WidgetSettings{
		SelectedAlbumIDs:  []string{},
		WidgetStyle:       WidgetStyleGrid,
		ShuffleDaily:      true,
		ShowFavoritesOnly: false,
	}
}
