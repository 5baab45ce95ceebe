package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TripWaypoint is a single GPS sample recorded while a driver holds an open
// time card. Out-of-order and duplicate samples are tolerated.
type TripWaypoint struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID   uuid.UUID `gorm:"type:uuid;not null" json:"driver_id"`
	TripDate   time.Time `gorm:"type:date;not null" json:"trip_date"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
	Lat        float64   `gorm:"not null" json:"lat"`
	Lng        float64   `gorm:"not null" json:"lng"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TripWaypoint) TableName() string {
	return "trip_waypoints"
}

func (w *TripWaypoint) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// DailyTrip is the per-day distance summary for one driver: the furthest
// point from base observed across the day's waypoints. Exceeded is derived
// from MaxDistanceNM against the configured radius, never set independently.
// MissingLocationData marks a day finalized with zero waypoints.
type DailyTrip struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_daily_trip_driver_date,priority:1" json:"driver_id"`
	TripDate            time.Time `gorm:"type:date;not null;uniqueIndex:uniq_daily_trip_driver_date,priority:2" json:"trip_date"`
	BaseLat             float64   `gorm:"not null" json:"base_lat"`
	BaseLng             float64   `gorm:"not null" json:"base_lng"`
	MaxDistanceNM       float64   `gorm:"not null;default:0" json:"max_distance_nm"`
	FurthestLat         *float64  `json:"furthest_lat"`
	FurthestLng         *float64  `json:"furthest_lng"`
	Exceeded            bool      `gorm:"not null;default:false" json:"exceeded"`
	MissingLocationData bool      `gorm:"not null;default:false" json:"missing_location_data"`
	WaypointCount       int       `gorm:"not null;default:0" json:"waypoint_count"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyTrip) TableName() string {
	return "daily_trips"
}

func (d *DailyTrip) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
