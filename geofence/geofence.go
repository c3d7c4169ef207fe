package geofence

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"vinylvault/metrics"
	"vinylvault/models"
	"vinylvault/notify"
	"vinylvault/sentryhelper"
	"vinylvault/store"
)

const (
	DefaultRadiusMeters = 200.0
	MaxRegions          = 15
	SuppressionWindow   = 24 * time.Hour
	earthRadiusMeters   = 6371000.0
)

var (
	ErrPermissionRequired = errors.New("location permission required")
	ErrRegionLimit        = errors.New("monitored region limit reached")
	ErrUnknownStore       = errors.New("unknown store")
)

type StateStore interface {
	SaveMonitoringState(state models.MonitoringState) error
	LoadMonitoringState() (models.MonitoringState, error)
}

type Directory interface {
	All() []models.StoreRecord
	ByID(id string) (models.StoreRecord, bool)
}

type Dispatcher interface {
	Dispatch(n notify.Notification)
}

type Options struct {
	RadiusMeters float64
	MaxRegions   int
	Permission   PermissionStatus
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

type Status struct {
	Enabled           bool     `json:"enabled"`
	Permission        string   `json:"permission"`
	MonitoredStoreIDs []string `json:"monitoredStoreIds"`
	RadiusMeters      float64  `json:"radiusMeters"`
	MaxRegions        int      `json:"maxRegions"`
}

// Monitor tracks which store regions are watched and turns region entries
// into notifications, at most one per store per SuppressionWindow.
type Monitor struct {
	directory  Directory
	state      StateStore
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	radius     float64
	maxRegions int
	now        func() time.Time

	mu           sync.Mutex
	permission   PermissionStatus
	enabled      bool
	monitored    map[string]bool
	lastNotified map[string]time.Time
	inside       map[string]bool
}

// New restores the persisted monitoring state.
func New(directory Directory, state StateStore, dispatcher Dispatcher, opts Options) *Monitor {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = DefaultRadiusMeters
	}
	if opts.MaxRegions <= 0 || opts.MaxRegions > MaxRegions {
		opts.MaxRegions = MaxRegions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Monitor{
		directory:    directory,
		state:        state,
		dispatcher:   dispatcher,
		metrics:      opts.Metrics,
		radius:       opts.RadiusMeters,
		maxRegions:   opts.MaxRegions,
		now:          opts.Now,
		permission:   opts.Permission,
		monitored:    map[string]bool{},
		lastNotified: map[string]time.Time{},
		inside:       map[string]bool{},
	}

	saved, err := state.LoadMonitoringState()
	saved = store.OrDefault(saved, err, func() models.MonitoringState { return models.MonitoringState{} })
	m.enabled = saved.Enabled
	for _, id := range saved.MonitoredStoreIDs {
		if _, ok := directory.ByID(id); ok {
			m.monitored[id] = true
		}
	}
	for id, t := range saved.LastNotified {
		m.lastNotified[id] = t
	}

	log.Infof("Geofence monitor: enabled=%v, %d stores monitored, permission=%s", m.enabled, len(m.monitored), m.permission)
	return m
}

func (m *Monitor) saveLocked() {
	ids := m.monitoredIDsLocked()
	last := make(map[string]time.Time, len(m.lastNotified))
	for id, t := range m.lastNotified {
		last[id] = t
	}
	err := m.state.SaveMonitoringState(models.MonitoringState{
		Enabled:           m.enabled,
		MonitoredStoreIDs: ids,
		LastNotified:      last,
	})
	if err != nil {
		log.Errorf("Failed to save monitoring state: %v", err)
		sentry.CaptureException(err)
	}
}

func (m *Monitor) monitoredIDsLocked() []string {
	ids := make([]string, 0, len(m.monitored))
	for id := range m.monitored {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// registerAllLocked watches the first maxRegions stores of the directory.
func (m *Monitor) registerAllLocked() {
	for _, s := range m.directory.All() {
		if len(m.monitored) >= m.maxRegions {
			break
		}
		if !m.monitored[s.ID] {
			m.monitored[s.ID] = true
			log.Debugf("Started monitoring: %s", s.Name)
		}
	}
}

// Enable turns monitoring on for the first stores of the directory, up to
// the region cap. It needs an authorized permission status.
func (m *Monitor) Enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.permission.Authorized() {
		log.Warnf("Cannot enable store monitoring, permission is %s", m.permission)
		return ErrPermissionRequired
	}
	m.enabled = true
	m.registerAllLocked()
	m.saveLocked()
	log.Infof("Store monitoring enabled for %d stores", len(m.monitored))
	return nil
}

func (m *Monitor) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.monitored = map[string]bool{}
	m.inside = map[string]bool{}
	m.saveLocked()
	log.Info("Store monitoring disabled")
}

// ToggleStore flips monitoring for one store and reports whether it is now
// monitored. Stopping is always allowed; starting needs permission and room
// under the region cap.
func (m *Monitor) ToggleStore(id string) (bool, error) {
	s, ok := m.directory.ByID(id)
	if !ok {
		return false, ErrUnknownStore
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitored[id] {
		delete(m.monitored, id)
		delete(m.inside, id)
		m.saveLocked()
		log.Debugf("Stopped monitoring: %s", s.Name)
		return false, nil
	}

	if !m.permission.Authorized() {
		return false, ErrPermissionRequired
	}
	if len(m.monitored) >= m.maxRegions {
		return false, ErrRegionLimit
	}
	m.monitored[id] = true
	m.saveLocked()
	log.Debugf("Started monitoring: %s", s.Name)
	return true, nil
}

// AuthorizationChanged records a new permission status. Gaining
// authorization while monitoring is enabled re-registers the stores.
func (m *Monitor) AuthorizationChanged(status PermissionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.permission = status
	log.Infof("Location authorization changed: %s", status)
	if status.Authorized() && m.enabled {
		m.registerAllLocked()
		m.saveLocked()
	}
}

// HandleEnter handles arrival in a store region and reports whether a
// notification was dispatched.
func (m *Monitor) HandleEnter(storeID string) bool {
	s, ok := m.directory.ByID(storeID)
	if !ok {
		return false
	}

	logger := log.WithFields(log.Fields{"module": "geofence", "method": "HandleEnter"})

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.monitored[storeID] {
		logger.Debugf("Ignoring entry into unmonitored region %s", storeID)
		return false
	}

	now := m.now()
	m.metrics.GeofenceEvent("enter")
	logger.Infof("Entered region: %s", s.Name)

	if last, ok := m.lastNotified[storeID]; ok && now.Sub(last) < SuppressionWindow {
		m.metrics.GeofenceEvent("suppressed")
		logger.Debugf("Skipping notification for %s (sent %s ago)", s.Name, now.Sub(last).Round(time.Minute))
		return false
	}

	m.dispatcher.Dispatch(notify.StoreEntry(s, now))
	m.lastNotified[storeID] = now
	m.saveLocked()

	sentryhelper.AddBreadcrumb(context.Background(), &sentry.Breadcrumb{
		Category: "geofence",
		Message:  "store entry notification",
		Data:     map[string]interface{}{"store_id": storeID},
		Level:    sentry.LevelInfo,
	})
	return true
}

// HandleExit only logs; exits never notify.
func (m *Monitor) HandleExit(storeID string) {
	s, ok := m.directory.ByID(storeID)
	if !ok {
		return
	}
	m.metrics.GeofenceEvent("exit")
	log.WithFields(log.Fields{"module": "geofence", "method": "HandleExit"}).Infof("Exited region: %s", s.Name)
}

// HandleLocation turns a location sample into region entry and exit events
// for the monitored stores. It returns the ids of regions entered.
func (m *Monitor) HandleLocation(lat, lng float64) []string {
	var entered, exited []string

	m.mu.Lock()
	for id := range m.monitored {
		s, ok := m.directory.ByID(id)
		if !ok {
			continue
		}
		in := Distance(lat, lng, s.Lat, s.Lng) <= m.radius
		switch {
		case in && !m.inside[id]:
			m.inside[id] = true
			entered = append(entered, id)
		case !in && m.inside[id]:
			delete(m.inside, id)
			exited = append(exited, id)
		}
	}
	m.mu.Unlock()

	sort.Strings(entered)
	for _, id := range entered {
		m.HandleEnter(id)
	}
	for _, id := range exited {
		m.HandleExit(id)
	}
	return entered
}

func (m *Monitor) IsMonitored(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monitored[id]
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Enabled:           m.enabled,
		Permission:        m.permission.String(),
		MonitoredStoreIDs: m.monitoredIDsLocked(),
		RadiusMeters:      m.radius,
		MaxRegions:        m.maxRegions,
	}
}

// Distance is the great-circle distance in meters between two coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
