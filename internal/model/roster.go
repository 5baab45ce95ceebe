package model

import "github.com/google/uuid"

// Driver and Vehicle are read-only roster reference data owned by the main
// platform; this service only validates against them.

type Driver struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName      string    `gorm:"type:varchar(255)" json:"full_name"`
	Phone         string    `gorm:"type:varchar(32)" json:"phone"`
	LicenseNumber string    `gorm:"type:varchar(64)" json:"license_number"`
	Active        bool      `gorm:"not null;default:true" json:"active"`
}

func (Driver) TableName() string {
	return "drivers"
}

type Vehicle struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlateNumber string    `gorm:"type:varchar(32)" json:"plate_number"`
	Make        string    `gorm:"type:varchar(64)" json:"make"`
	Model       string    `gorm:"type:varchar(64)" json:"model"`
	Capacity    int       `gorm:"not null;default:0" json:"capacity"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
