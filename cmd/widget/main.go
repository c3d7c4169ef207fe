// Command widget renders the home-screen widget from the shared database in
// a terminal. It only reads; the server process owns all writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"vinylvault/config"
	"vinylvault/database"
	"vinylvault/store"
	"vinylvault/widget"
)

func main() {
	_ = godotenv.Load()
	cfg := config.NewConfig()

	dbPath := flag.String("db", cfg.Storage.SharedDBPath, "path to the shared database")
	watch := flag.Bool("watch", false, "keep running and redraw when the snapshot changes")
	poll := flag.Duration("poll", 5*time.Second, "how often to check for a new snapshot in watch mode")
	width := flag.Int("width", 90, "render width in columns")
	flag.Parse()

	log.SetOutput(os.Stderr)
	if level, err := log.ParseLevel(cfg.Options.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := run(*dbPath, *watch, *poll, *width, cfg.Widget.Refresh()); err != nil {
		log.Fatal(err)
	}
}

func run(dbPath string, watch bool, poll time.Duration, width int, refresh time.Duration) error {
	db, err := database.OpenReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	reader := store.NewSharedReader(db)
	timeline := widget.NewTimeline(reader, refresh)
	fmt.Println(widget.Render(timeline.Current(), width))
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	version := reader.Version()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if v := reader.Version(); v.After(version) {
				version = v
				timeline.Reload()
				log.Debugf("Shared snapshot changed at %s", v.Format(time.RFC3339))
			}
			fmt.Print("\033[H\033[2J")
			fmt.Println(widget.Render(timeline.Current(), width))
		}
	}
}
