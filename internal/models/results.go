package models

import "time"

// VarianceRecord is the arrival-gap standard deviation of one route+stop
type VarianceRecord struct {
	RouteName    string   `json:"routeName"`
	StopName     string   `json:"stopName"`
	ArrivalStdev *float64 `json:"arrival_stdev"` // nil means insufficient data
	Samples      int      `json:"samples"`
}

// MedianRecord is the median arrival gap of one route+stop
type MedianRecord struct {
	RouteName     string   `json:"routeName"`
	StopName      string   `json:"stopName"`
	ArrivalMedian *float64 `json:"arrival_median"`
	Samples       int      `json:"samples"`
}

// ArrivalGap is one consecutive-arrival difference that survived trimming
type ArrivalGap struct {
	RouteName    string    `json:"routeName"`
	StopName     string    `json:"stopName"`
	ServiceDate  string    `json:"serviceDate"`
	ArrivalTime  time.Time `json:"arrivalTime"`
	ArrivalDiff  float64   `json:"arrival_diff"` // minutes
	ExpectedFreq *float64  `json:"expectedFreq"`
}

// HeadwayRecord is the backward headway of one stop event
type HeadwayRecord struct {
	RouteName    string    `json:"routeName"`
	StopName     string    `json:"stopName"`
	Date         string    `json:"date"`
	ArrivalTime  time.Time `json:"arrivalTime"`
	Hour         int       `json:"hour"`
	HeadwayMin   float64   `json:"headway_min"`
	ExpectedFreq float64   `json:"expectedFreq"`
	IsBunched    bool      `json:"is_bunched"`
}

// BunchingRate is the share of bunched arrivals at one stop
type BunchingRate struct {
	StopName     string  `json:"stopName"`
	BunchingRate float64 `json:"bunching_rate"`
	Samples      int     `json:"samples"`
}

// RidershipRow is summed passenger load for one calendar date of a route
type RidershipRow struct {
	Month         string `json:"month"`
	MonthWeek     int    `json:"month_week"`
	WeekDay       string `json:"week_day"`
	RouteName     string `json:"routeName"`
	Date          string `json:"date"`
	PassengerLoad int64  `json:"passengerLoad"`
}

// CalendarCell is summed passenger load for one (month, week, weekday, route) cell
type CalendarCell struct {
	Month              string   `json:"month"`
	MonthWeek          int      `json:"month_week"`
	WeekDay            string   `json:"week_day"`
	RouteName          string   `json:"routeName"`
	RepresentativeDate string   `json:"date"`
	Dates              []string `json:"dates"`
	PassengerLoad      int64    `json:"passengerLoad"`
}

// RouteRidership pairs arrival consistency with average daily boardings
type RouteRidership struct {
	RouteName         string   `json:"routeName"`
	ArrivalStdev      *float64 `json:"arrival_stdev"`
	AvgDailyBoardings float64  `json:"avg_daily_boardings"`
}

// HoldoverComparison joins observed dwell against the holdover reference
type HoldoverComparison struct {
	RouteName        string    `json:"routeName"`
	StopName         string    `json:"stopName"`
	TimeBlock        TimeBlock `json:"timeBlock"`
	RouteKey         string    `json:"routeKey"`
	StopKey          string    `json:"stopKey"`
	Events           int       `json:"events"`
	MeanDwellMinutes *float64  `json:"meanDwellMinutes"`
	HoldoverMinutes  float64   `json:"holdoverMinutes"`
	IsHoldover       bool      `json:"isHoldover"`
}

// DwellSummary is mean stop duration for one grouping key
type DwellSummary struct {
	Key                     string   `json:"key"`
	Events                  int      `json:"events"`
	MeanStopDurationSeconds *float64 `json:"meanStopDurationSeconds"`
}
