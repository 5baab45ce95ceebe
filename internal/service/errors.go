package service

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidStatus    = errors.New("invalid time card status")

	ErrAlreadyClockedIn      = errors.New("driver is already clocked in")
	ErrVehicleInUse          = errors.New("vehicle is in use by another open time card")
	ErrNoOpenTimeCard        = errors.New("no open time card")
	ErrClockOutBeforeClockIn = errors.New("clock-out timestamp precedes clock-in")

	ErrUnknownDriver   = errors.New("unknown driver")
	ErrUnknownVehicle  = errors.New("unknown vehicle")
	ErrInactiveDriver  = errors.New("driver is not active")
	ErrInactiveVehicle = errors.New("vehicle is not active")

	// ErrStorageUnavailable hides storage-layer detail from callers.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
