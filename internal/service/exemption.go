package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/model"
)

// ExemptionTracker maintains the rolling-window count of days on which a
// driver exceeded the exemption radius. The count is always recomputed from
// daily_trips over the trailing window, never incremented, so corrections to
// historical days are picked up automatically. The detailed-logs flag flips
// on when the in-window count passes the maximum and clears by itself once
// old exceedance days roll out of the window.
type ExemptionTracker struct {
	trips      TripRepo
	compliance ComplianceRepo
	windowDays int
	maxDays    int
	now        func() time.Time
}

func NewExemptionTracker(trips TripRepo, compliance ComplianceRepo, windowDays, maxDays int) *ExemptionTracker {
	return &ExemptionTracker{
		trips:      trips,
		compliance: compliance,
		windowDays: windowDays,
		maxDays:    maxDays,
		now:        time.Now,
	}
}

// Recompute rescans the windowDays ending at asOf and persists the result.
// A day counts at most once however many waypoints exceeded the radius.
func (t *ExemptionTracker) Recompute(ctx context.Context, driverID uuid.UUID, asOf time.Time) (*model.ExemptionStatus, error) {
	windowStart := asOf.AddDate(0, 0, -(t.windowDays - 1))

	trips, err := t.trips.TripsInWindow(ctx, driverID, windowStart, asOf)
	if err != nil {
		return nil, storageErr(err)
	}

	count := 0
	for _, trip := range trips {
		if trip.Exceeded {
			count++
		}
	}

	status := &model.ExemptionStatus{
		DriverID:             driverID,
		WindowStart:          windowStart,
		WindowEnd:            asOf,
		ExceedanceDays:       count,
		RequiresDetailedLogs: count > t.maxDays,
		ComputedAt:           t.now().UTC(),
	}

	if err := t.compliance.UpsertExemption(ctx, status); err != nil {
		return nil, storageErr(err)
	}
	return status, nil
}
