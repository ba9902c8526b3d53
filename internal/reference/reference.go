// Package reference loads the static reference tables (schedule, holdover
// stops and alias corrections). They are read-only after construction and
// injected into the analyzers that need them.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jengzang/shuttle-analytics/internal/models"
)

//go:embed reference.yaml
var defaultTables []byte

// Aliases maps normalized keys to their canonical spelling
type Aliases struct {
	Routes map[string]string `yaml:"routes"`
	Stops  map[string]string `yaml:"stops"`
}

// Tables holds every reference table
type Tables struct {
	Version   string
	Schedule  models.ScheduleTable
	Holdovers []models.HoldoverReference
	Aliases   Aliases
}

type routeSchedule struct {
	Route string                `yaml:"route" validate:"required"`
	Rules []models.ScheduleRule `yaml:"rules" validate:"required,min=1,dive"`
}

type document struct {
	Version   string                     `yaml:"version" validate:"required"`
	Schedule  []routeSchedule            `yaml:"schedule" validate:"dive"`
	Holdovers []models.HoldoverReference `yaml:"holdovers" validate:"dive"`
	Aliases   Aliases                    `yaml:"aliases"`
}

var durationPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*minutes?$`)

// Default returns the tables embedded in the binary
func Default() (*Tables, error) {
	return Parse(defaultTables)
}

// Load reads tables from a YAML file
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference tables: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a reference document
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode reference tables: %w", err)
	}

	v := validator.New()
	if err := v.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid reference tables: %w", err)
	}

	tables := &Tables{
		Version:  doc.Version,
		Schedule: make(models.ScheduleTable, len(doc.Schedule)),
		Aliases:  doc.Aliases,
	}

	for _, rs := range doc.Schedule {
		if _, dup := tables.Schedule[rs.Route]; dup {
			return nil, fmt.Errorf("invalid reference tables: route %q scheduled twice", rs.Route)
		}
		tables.Schedule[rs.Route] = rs.Rules
	}

	for _, h := range doc.Holdovers {
		minutes, err := ParseDurationMinutes(h.Duration)
		if err != nil {
			return nil, fmt.Errorf("invalid holdover for route %q: %w", h.Route, err)
		}
		h.DurationMinutes = minutes
		tables.Holdovers = append(tables.Holdovers, h)
	}

	if err := checkAliases("routes", tables.Aliases.Routes); err != nil {
		return nil, err
	}
	if err := checkAliases("stops", tables.Aliases.Stops); err != nil {
		return nil, err
	}

	return tables, nil
}

// ParseDurationMinutes reads "<N> minutes"; an empty value is 0
func ParseDurationMinutes(raw string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, nil
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("cannot parse duration %q", raw)
	}
	return strconv.ParseFloat(m[1], 64)
}

// checkAliases enforces that corrections are idempotent: no target may be
// rewritten again by another entry.
func checkAliases(kind string, aliases map[string]string) error {
	for from, to := range aliases {
		if from == to {
			return fmt.Errorf("invalid %s alias %q: maps to itself", kind, from)
		}
		if _, chained := aliases[to]; chained {
			return fmt.Errorf("invalid %s alias %q -> %q: target is itself an alias", kind, from, to)
		}
	}
	return nil
}
