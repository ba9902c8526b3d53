// Command importer copies a stop-events export into a SQL table so the
// server can read it with STOP_EVENTS_SOURCE=sql.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/database"
	"github.com/jengzang/shuttle-analytics/internal/loader"
	"github.com/jengzang/shuttle-analytics/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewStructuredLogger(os.Stderr, cfg.LogLevel)

	path := flag.String("file", cfg.StopEventsPath, "delimited stop-events export (.tsv or .csv)")
	table := flag.String("table", cfg.StopEventsTable, "destination table")
	replace := flag.Bool("replace", false, "drop the table before importing")
	flag.Parse()

	ctx := context.Background()

	raw, err := loader.FileSource{Path: *path}.Read(ctx)
	if err != nil {
		logging.LogError(logger, "failed to read export", err, slog.String("file", *path))
		os.Exit(1)
	}

	db, err := database.Open(ctx, database.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		logging.LogError(logger, "failed to open database", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := database.ImportTable(ctx, db, raw.Header, raw.Rows, database.ImportOptions{
		Driver:  cfg.DBDriver,
		Table:   *table,
		Replace: *replace,
		Logger:  logger,
	}); err != nil {
		logging.LogError(logger, "import failed", err, slog.String("table", *table))
		os.Exit(1)
	}
}
