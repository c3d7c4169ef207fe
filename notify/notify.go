package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"vinylvault/database"
	"vinylvault/metrics"
	"vinylvault/models"
)

type Kind string

const (
	KindPriceAlert Kind = "price_alert"
	KindStoreEntry Kind = "store_entry"
)

type Field struct {
	Name  string
	Value string
}

// Notification is one local alert. ID is stable per event so a notifier can
// replace rather than stack duplicates.
type Notification struct {
	ID        string
	Kind      Kind
	RefID     string
	Title     string
	Subtitle  string
	Body      string
	URL       string
	Fields    []Field
	Timestamp time.Time
}

type Notifier interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Recorder keeps a history of sent notifications. *database.Database
// implements it.
type Recorder interface {
	RecordNotification(r database.NotificationRecord) error
}

const sendTimeout = 15 * time.Second

// Dispatcher delivers each notification to every notifier on its own
// goroutine. Dispatch never blocks and delivery failures are only logged.
type Dispatcher struct {
	notifiers []Notifier
	recorder  Recorder
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
}

func NewDispatcher(recorder Recorder, m *metrics.Metrics, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: append([]Notifier{LogNotifier{}}, notifiers...),
		recorder:  recorder,
		metrics:   m,
	}
}

func (d *Dispatcher) Dispatch(n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(n)
	}()
}

// Wait blocks until every dispatched notification has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(n Notification) {
	logger := log.WithFields(log.Fields{"module": "notify", "method": "deliver"})

	for _, notifier := range d.notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := notifier.Send(ctx, n)
		cancel()

		ok := err == nil
		if !ok {
			logger.Errorf("%s failed to send '%s': %v", notifier.Name(), n.Title, err)
			sentry.CaptureException(fmt.Errorf("notify %s: %w", notifier.Name(), err))
		}
		d.metrics.Notification(notifier.Name(), string(n.Kind), ok)

		if d.recorder == nil {
			continue
		}
		rec := database.NotificationRecord{
			Kind:     string(n.Kind),
			RefID:    n.RefID,
			Title:    n.Title,
			Body:     n.Body,
			Notifier: notifier.Name(),
			Success:  ok,
			SentAt:   n.Timestamp,
		}
		if err := d.recorder.RecordNotification(rec); err != nil {
			logger.Warnf("Failed to record notification: %v", err)
		}
	}
}

// PriceAlert is the notification for a wishlist item at or below its target.
func PriceAlert(item models.WishlistRecord) Notification {
	var current float64
	if item.CurrentPrice != nil {
		current = *item.CurrentPrice
	}
	n := Notification{
		ID:       item.ID,
		Kind:     KindPriceAlert,
		RefID:    item.ID,
		Title:    "Price Alert!",
		Subtitle: fmt.Sprintf("%s - %s", item.AlbumTitle, item.Artist),
		Body:     fmt.Sprintf("Now $%.2f (Target: $%.2f)", current, item.TargetPrice),
		Fields: []Field{
			{Name: "Current", Value: fmt.Sprintf("$%.2f", current)},
			{Name: "Target", Value: fmt.Sprintf("$%.2f", item.TargetPrice)},
		},
	}
	if item.DiscogsURL != nil {
		n.URL = *item.DiscogsURL
	}
	return n
}

const storeBodyLimit = 80

// StoreEntry is the notification shown when arriving near a record store.
func StoreEntry(store models.StoreRecord, at time.Time) Notification {
	body := []rune(store.Description)
	if len(body) > storeBodyLimit {
		body = body[:storeBodyLimit]
	}
	n := Notification{
		ID:        fmt.Sprintf("store-entry-%s-%d", store.ID, at.Unix()),
		Kind:      KindStoreEntry,
		RefID:     store.ID,
		Title:     fmt.Sprintf("Near %s!", store.Name),
		Body:      string(body) + "...",
		Timestamp: at,
		Fields: []Field{
			{Name: "Address", Value: store.FullAddress()},
			{Name: "Hours", Value: store.Hours},
		},
	}
	if len(store.Specialty) > 0 {
		n.Subtitle = "Specializing in " + store.Specialty[0]
		n.Fields = append(n.Fields, Field{Name: "Specialties", Value: store.SpecialtyText()})
	}
	if store.Website != nil {
		n.URL = *store.Website
	}
	return n
}
