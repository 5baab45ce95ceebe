package model

import (
	"time"

	"github.com/google/uuid"
)

type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "WARNING"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// Alert is one entry in the merged, severity-ordered list shown on the
// compliance dashboard.
type Alert struct {
	Severity AlertSeverity `json:"severity"`
	Type     ViolationType `json:"type"`
	Message  string        `json:"message"`
	Fraction float64       `json:"fraction"`
}

// LimitGauge is a pre-computed "percentage of limit used" view over one
// regulatory limit.
type LimitGauge struct {
	Used     float64 `json:"used"`
	Limit    float64 `json:"limit"`
	Fraction float64 `json:"fraction"`
}

type DriverBrief struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone"`
}

type VehicleBrief struct {
	ID          uuid.UUID `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
}

type TimeCardBrief struct {
	ID          uuid.UUID      `json:"id"`
	Status      TimeCardStatus `json:"status"`
	ClockInAt   time.Time      `json:"clock_in_at"`
	ClockOutAt  *time.Time     `json:"clock_out_at,omitempty"`
	HoursSoFar  float64        `json:"hours_so_far"`
	VehicleID   uuid.UUID      `json:"vehicle_id"`
}

type TripBrief struct {
	MaxDistanceNM       float64 `json:"max_distance_nm"`
	Exceeded            bool    `json:"exceeded"`
	MissingLocationData bool    `json:"missing_location_data"`
	WaypointCount       int     `json:"waypoint_count"`
}

type ExemptionBrief struct {
	WindowStart          time.Time `json:"window_start"`
	WindowEnd            time.Time `json:"window_end"`
	ExceedanceDays       int       `json:"exceedance_days"`
	MaxDays              int       `json:"max_days"`
	RequiresDetailedLogs bool      `json:"requires_detailed_logs"`
}

// StatusView is the single composed "today" read model for one driver.
type StatusView struct {
	Driver      DriverBrief     `json:"driver"`
	Date        time.Time       `json:"date"`
	TimeCard    *TimeCardBrief  `json:"time_card,omitempty"`
	Trip        *TripBrief      `json:"trip,omitempty"`
	Exemption   ExemptionBrief  `json:"exemption"`
	DailyDrive  LimitGauge      `json:"daily_driving"`
	DailyOnDuty LimitGauge      `json:"daily_on_duty"`
	Weekly      LimitGauge      `json:"weekly"`
	Window      LimitGauge      `json:"exemption_window"`
	Alerts      []Alert         `json:"alerts"`
}

// TimeCardSummary is one row of the driver history listing.
type TimeCardSummary struct {
	TimeCard       TimeCard `json:"time_card"`
	ViolationCount int      `json:"violation_count"`
}
