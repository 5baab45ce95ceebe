package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExemptionStatus is the rolling 30-calendar-day exceedance count for one
// driver, keyed by the start of the window it was computed over. It is always
// recomputed from daily_trips, never incremented, so backfilled corrections
// cannot make it drift.
type ExemptionStatus struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_exemption_driver_window,priority:1" json:"driver_id"`
	WindowStart          time.Time `gorm:"type:date;not null;uniqueIndex:uniq_exemption_driver_window,priority:2" json:"window_start"`
	WindowEnd            time.Time `gorm:"type:date;not null" json:"window_end"`
	ExceedanceDays       int       `gorm:"not null;default:0" json:"exceedance_days"`
	RequiresDetailedLogs bool      `gorm:"not null;default:false" json:"requires_detailed_logs"`
	ComputedAt           time.Time `gorm:"not null" json:"computed_at"`
}

func (ExemptionStatus) TableName() string {
	return "exemption_statuses"
}

func (s *ExemptionStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// WeeklyHOS is the cumulative on-duty total over the carrier's rolling
// 7-or-8-day window ending at WindowEnd, recomputed from closed time cards.
type WeeklyHOS struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_weekly_driver_window,priority:1" json:"driver_id"`
	WindowStart time.Time `gorm:"type:date;not null;uniqueIndex:uniq_weekly_driver_window,priority:2" json:"window_start"`
	WindowEnd   time.Time `gorm:"type:date;not null" json:"window_end"`
	WindowDays  int       `gorm:"not null" json:"window_days"`
	OnDutyHours float64   `gorm:"not null;default:0" json:"on_duty_hours"`
	LimitHours  float64   `gorm:"not null" json:"limit_hours"`
	Exceeded    bool      `gorm:"not null;default:false" json:"exceeded"`
	ComputedAt  time.Time `gorm:"not null" json:"computed_at"`
}

func (WeeklyHOS) TableName() string {
	return "weekly_hos"
}

func (w *WeeklyHOS) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
