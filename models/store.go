package models

import (
	"fmt"
	"strings"
	"time"
)

// StoreRecord is a record shop from the bundled directory.
type StoreRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Suburb       string   `json:"suburb"`
	Postcode     string   `json:"postcode"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Phone        *string  `json:"phone,omitempty"`
	Hours        string   `json:"hours"`
	Description  string   `json:"description"`
	Website      *string  `json:"website,omitempty"`
	Instagram    *string  `json:"instagram,omitempty"`
	Specialty    []string `json:"specialty"`
	LogoFileName *string  `json:"logoFileName,omitempty"`
}

func (s StoreRecord) FullAddress() string {
	return fmt.Sprintf("%s, %s NSW %s", s.Address, s.Suburb, s.Postcode)
}

func (s StoreRecord) SpecialtyText() string {
	return strings.Join(s.Specialty, " • ")
}

// MonitoringState is the persisted part of the geofence monitor.
type MonitoringState struct {
	Enabled           bool                 `json:"enabled"`
	MonitoredStoreIDs []string             `json:"monitoredStoreIds"`
	LastNotified      map[string]time.Time `json:"lastNotified"`
}
