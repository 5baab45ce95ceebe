package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimeCardStatus string

const (
	TimeCardStatusOpen       TimeCardStatus = "OPEN"
	TimeCardStatusClosed     TimeCardStatus = "CLOSED"
	TimeCardStatusSuperseded TimeCardStatus = "SUPERSEDED"
)

// TimeCard is one duty period for one driver on one calendar day. It is
// created OPEN at clock-in, transitions to CLOSED exactly once at clock-out,
// and is never deleted: corrections insert a replacement row and mark the
// original SUPERSEDED.
//
// DrivingHours currently equals OnDutyHours (no idle/moving split); it is
// stored separately so GPS-based trip segmentation can diverge later without
// a schema change.
type TimeCard struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID     uuid.UUID      `gorm:"type:uuid;not null" json:"driver_id"`
	VehicleID    uuid.UUID      `gorm:"type:uuid;not null" json:"vehicle_id"`
	CardDate     time.Time      `gorm:"type:date;not null" json:"card_date"`
	ClockInAt    time.Time      `gorm:"not null" json:"clock_in_at"`
	ClockInLat   float64        `gorm:"not null" json:"clock_in_lat"`
	ClockInLng   float64        `gorm:"not null" json:"clock_in_lng"`
	ClockOutAt   *time.Time     `json:"clock_out_at"`
	ClockOutLat  *float64       `json:"clock_out_lat"`
	ClockOutLng  *float64       `json:"clock_out_lng"`
	SignatureRef *string        `gorm:"type:text" json:"signature_ref"`
	OnDutyHours  float64        `gorm:"not null;default:0" json:"on_duty_hours"`
	DrivingHours float64        `gorm:"not null;default:0" json:"driving_hours"`
	Notes        string         `gorm:"type:text" json:"notes"`
	Status       TimeCardStatus `gorm:"type:time_card_status;not null;default:'OPEN'" json:"status"`
	SupersededBy *uuid.UUID     `gorm:"type:uuid" json:"superseded_by,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Driver  *Driver  `gorm:"foreignKey:DriverID" json:"-"`
	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"-"`
}

func (TimeCard) TableName() string {
	return "time_cards"
}

func (c *TimeCard) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TimeCardAuditLog records one amendment of a closed time card: which row was
// superseded, which row replaced it, the old and new interval, who did it.
type TimeCardAuditLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TimeCardID    uuid.UUID  `gorm:"type:uuid;not null" json:"time_card_id"`
	ReplacementID uuid.UUID  `gorm:"type:uuid;not null" json:"replacement_id"`
	OldClockInAt  time.Time  `gorm:"not null" json:"old_clock_in_at"`
	OldClockOutAt *time.Time `json:"old_clock_out_at"`
	NewClockInAt  time.Time  `gorm:"not null" json:"new_clock_in_at"`
	NewClockOutAt *time.Time `json:"new_clock_out_at"`
	Note          string     `gorm:"type:text" json:"note"`
	ChangedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"changed_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (TimeCardAuditLog) TableName() string {
	return "timecard_audit_log"
}

func (l *TimeCardAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
