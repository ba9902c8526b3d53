package service

import (
	"database/sql"

	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/loader"
)

// NewSources builds the stop-event and passenger-load sources from config.
// loads is nil when the ridership path or table is set to empty.
func NewSources(cfg *config.Config, db *sql.DB) (stops, loads loader.Source) {
	if cfg.StopEventsSource == "sql" {
		stops = loader.SQLSource{DB: db, Driver: cfg.DBDriver, Table: cfg.StopEventsTable}
		if cfg.RidershipTable != "" {
			loads = loader.SQLSource{DB: db, Driver: cfg.DBDriver, Table: cfg.RidershipTable}
		}
		return stops, loads
	}

	stops = loader.FileSource{Path: cfg.StopEventsPath}
	if cfg.RidershipPath != "" {
		loads = loader.FileSource{Path: cfg.RidershipPath}
	}
	return stops, loads
}
