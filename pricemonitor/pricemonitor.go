package pricemonitor

import (
	"context"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vinylvault/metrics"
	"vinylvault/models"
	"vinylvault/notify"
	"vinylvault/sentryhelper"
)

// PriceFetcher returns the current market price of a catalog release.
type PriceFetcher interface {
	LowestPrice(ctx context.Context, catalogID int) (float64, error)
}

type Wishlist interface {
	All() []models.WishlistRecord
	Get(id string) (models.WishlistRecord, bool)
	Update(item models.WishlistRecord) bool
}

type Dispatcher interface {
	Dispatch(n notify.Notification)
}

type Report struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Alerts  int `json:"alerts"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Monitor struct {
	wishlist    Wishlist
	fetcher     PriceFetcher
	dispatcher  Dispatcher
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time

	passMu sync.Mutex
}

func New(wishlist Wishlist, fetcher PriceFetcher, dispatcher Dispatcher, m *metrics.Metrics, concurrency int) *Monitor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Monitor{
		wishlist:    wishlist,
		fetcher:     fetcher,
		dispatcher:  dispatcher,
		metrics:     m,
		concurrency: concurrency,
		now:         time.Now,
	}
}

type fetchResult struct {
	id    string
	price float64
	err   error
}

// CheckPrices runs one pass over the wishlist. Items with notifications off
// or without a catalog id are skipped. Prices are fetched concurrently; a
// failed fetch is logged and does not affect the other items. Updates are
// then applied one at a time, so the wishlist only sees sequential writes.
func (m *Monitor) CheckPrices(ctx context.Context) Report {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	logger := log.WithFields(log.Fields{"module": "pricemonitor", "method": "CheckPrices"})
	start := m.now()
	defer func() { m.metrics.PriceCheckPass(m.now().Sub(start)) }()

	var report Report
	var targets []models.WishlistRecord
	for _, item := range m.wishlist.All() {
		if !item.NotificationEnabled || item.DiscogsID == nil {
			report.Skipped++
			continue
		}
		targets = append(targets, item)
	}

	results := make([]fetchResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, item := range targets {
		g.Go(func() error {
			price, err := m.fetcher.LowestPrice(gctx, *item.DiscogsID)
			results[i] = fetchResult{id: item.ID, price: price, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		report.Checked++
		if res.err != nil {
			report.Failed++
			m.metrics.PriceCheck("error")
			logger.Warnf("Failed to check price for '%s': %v", targets[i].AlbumTitle, res.err)
			sentryhelper.CaptureException(ctx, res.err)
			continue
		}

		// The item may have been edited or removed while the fetch ran.
		current, ok := m.wishlist.Get(res.id)
		if !ok {
			logger.Debugf("Wishlist item %s removed during price check", res.id)
			continue
		}
		current.RecordPrice(res.price, m.now())
		m.wishlist.Update(current)
		report.Updated++
		m.metrics.PriceCheck("updated")

		if res.price <= current.TargetPrice {
			report.Alerts++
			m.metrics.PriceCheck("alert")
			logger.Infof("'%s' is at $%.2f (target $%.2f)", current.AlbumTitle, res.price, current.TargetPrice)
			m.dispatcher.Dispatch(notify.PriceAlert(current))
		}
	}

	logger.Infof("Price check done: %d checked, %d updated, %d alerts, %d failed, %d skipped",
		report.Checked, report.Updated, report.Alerts, report.Failed, report.Skipped)
	return report
}

// Run checks prices immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	log.Infof("Price monitor started, checking every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.runPass(ctx)
		select {
		case <-ctx.Done():
			log.Info("Price monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) runPass(ctx context.Context) {
	txCtx, tx := sentryhelper.StartJobTransaction(ctx, "price_check")
	defer tx.Finish()

	report := m.CheckPrices(txCtx)
	if report.Failed > 0 && report.Failed == report.Checked {
		tx.Status = sentry.SpanStatusInternalError
		return
	}
	tx.Status = sentry.SpanStatusOK
}
