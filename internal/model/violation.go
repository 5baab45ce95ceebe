package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ViolationType string

const (
	ViolationTypeDrivingLimitExceeded ViolationType = "DRIVING_LIMIT_EXCEEDED"
	ViolationTypeOnDutyLimitExceeded  ViolationType = "ON_DUTY_LIMIT_EXCEEDED"
	ViolationTypeInsufficientOffDuty  ViolationType = "INSUFFICIENT_OFF_DUTY"
	ViolationTypeWeeklyLimitExceeded  ViolationType = "WEEKLY_LIMIT_EXCEEDED"
	ViolationTypeDetailedLogsRequired ViolationType = "DETAILED_LOGS_REQUIRED"
	ViolationTypeNoLocationData       ViolationType = "NO_LOCATION_DATA"
)

type ViolationSeverity string

const (
	ViolationSeverityWarning  ViolationSeverity = "WARNING"
	ViolationSeverityCritical ViolationSeverity = "CRITICAL"
)

// Violation is an advisory compliance finding. Violations are recorded, never
// used to block the operation that produced them: a driver mid-trip must be
// allowed to finish it.
type Violation struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID      uuid.UUID         `gorm:"type:uuid;not null" json:"driver_id"`
	TimeCardID    *uuid.UUID        `gorm:"type:uuid" json:"time_card_id,omitempty"`
	ViolationDate time.Time         `gorm:"type:date;not null" json:"violation_date"`
	Type          ViolationType     `gorm:"type:varchar(64);not null" json:"type"`
	Severity      ViolationSeverity `gorm:"type:hos_violation_severity;not null" json:"severity"`
	Measured      float64           `gorm:"not null;default:0" json:"measured"`
	Limit         float64           `gorm:"column:limit_value;not null;default:0" json:"limit"`
	Description   string            `gorm:"type:text" json:"description"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Violation) TableName() string {
	return "hos_violations"
}

func (v *Violation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
