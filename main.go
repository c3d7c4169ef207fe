package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	appConfig "vinylvault/config"
	"vinylvault/catalog"
	"vinylvault/collection"
	"vinylvault/database"
	"vinylvault/geofence"
	"vinylvault/handlers"
	"vinylvault/lyrics"
	"vinylvault/marketplace"
	"vinylvault/metrics"
	"vinylvault/notify"
	"vinylvault/pricemonitor"
	appSentry "vinylvault/sentry"
	"vinylvault/store"
	"vinylvault/stores"
	"vinylvault/streaming"
	"vinylvault/widget"
	"vinylvault/wishlist"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	cfg := appConfig.NewConfig()
	setupLogging(cfg.Options.LogLevel)

	if err := appSentry.Init(cfg.Options.SentryDSN, cfg.Options.Release); err != nil {
		log.Errorf("sentry.Init: %v", err)
	}
	defer appSentry.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "method"},
		TimestampFormat: time.RFC3339,
	})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func run(ctx context.Context, cfg *appConfig.ConfigStruct) error {
	local, err := database.New(cfg.Storage.LocalDBPath)
	if err != nil {
		return err
	}
	defer local.Close()
	shared, err := database.New(cfg.Storage.SharedDBPath)
	if err != nil {
		return err
	}
	defer shared.Close()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	st := store.New(local, shared)
	albums, err := collection.New(st)
	if err != nil {
		return err
	}
	wants, err := wishlist.New(st)
	if err != nil {
		return err
	}
	m.SetCollectionSize(albums.Count(), len(wants.All()))

	timeline := widget.NewTimeline(store.NewSharedReader(shared), cfg.Widget.Refresh())
	st.OnReload(timeline.Reload)

	dispatcher := notify.NewDispatcher(local, m, buildNotifiers(cfg)...)
	defer dispatcher.Wait()

	discogs := catalog.New(catalog.Options{
		BaseURL:  cfg.Discogs.BaseURL,
		Token:    cfg.Discogs.Token,
		Timeout:  cfg.Discogs.Timeout(),
		CacheTTL: cfg.Discogs.CacheTTL(),
	})
	var prices pricemonitor.PriceFetcher = discogs
	if cfg.Prices.UseScraper() {
		log.Info("Using marketplace scraper as price source")
		prices = marketplace.NewScraper("")
	}
	monitor := pricemonitor.New(wants, prices, dispatcher, m, cfg.Prices.Concurrency)
	monitorDone := make(chan struct{})
	defer func() { <-monitorDone }()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(monitorDone)
		monitor.Run(ctx, cfg.Prices.Interval())
	}()

	permission, err := geofence.ParsePermission(cfg.Geofence.Permission)
	if err != nil {
		log.Warnf("%v, treating as not determined", err)
	}
	directory := stores.Load(cfg.Storage.StoresFile)
	fences := geofence.New(directory, st, dispatcher, geofence.Options{
		RadiusMeters: cfg.Geofence.RadiusMeters,
		MaxRegions:   cfg.Geofence.MaxRegions,
		Permission:   permission,
		Metrics:      m,
	})

	deps := handlers.Deps{
		Collection: albums,
		Wishlist:   wants,
		Catalog:    discogs,
		Prices:     monitor,
		Stores:     directory,
		Geofence:   fences,
		Timeline:   timeline,
		Settings:   st,
		Lyrics:     lyrics.New(""),
		History:    local,
		Metrics:    m,
	}
	if cfg.Spotify.IsEnabled() {
		links, err := streaming.New(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			log.Errorf("Spotify disabled: %v", err)
		} else {
			deps.Links = links
		}
	}

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              ":" + cfg.Options.Port,
		Handler:           handlers.NewServer(deps).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on :%s", cfg.Options.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildNotifiers(cfg *appConfig.ConfigStruct) []notify.Notifier {
	var notifiers []notify.Notifier
	if url := cfg.Notify.DiscordWebhookURL; url != "" {
		d, err := notify.NewDiscordNotifier(url)
		if err != nil {
			log.Errorf("Discord notifications disabled: %v", err)
		} else {
			notifiers = append(notifiers, d)
		}
	}
	if len(cfg.Notify.URLs) > 0 {
		s, err := notify.NewShoutrrrNotifier(cfg.Notify.URLs, 10*time.Second)
		if err != nil {
			log.Errorf("Push notifications disabled: %v", err)
		} else {
			notifiers = append(notifiers, s)
		}
	}
	return notifiers
}
