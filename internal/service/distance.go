package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/geo"
	"hos-service/internal/model"
)

// DistanceTracker owns the per-day distance-from-base summary. The maximum
// distance only grows as waypoints are added within a day; Finalize rescans
// all of them so the result never depends on ingestion order.
type DistanceTracker struct {
	trips    TripRepo
	base     geo.Coordinate
	radiusNM float64
}

func NewDistanceTracker(trips TripRepo, base geo.Coordinate, radiusNM float64) *DistanceTracker {
	return &DistanceTracker{trips: trips, base: base, radiusNM: radiusNM}
}

// Seed initializes the day's trip from the clock-in location.
func (t *DistanceTracker) Seed(ctx context.Context, driverID uuid.UUID, day time.Time, loc geo.Coordinate) (*model.DailyTrip, error) {
	dist, err := geo.Distance(t.base, loc)
	if err != nil {
		return nil, err
	}
	dist = round2(dist)
	trip := &model.DailyTrip{
		DriverID:      driverID,
		TripDate:      day,
		BaseLat:       t.base.Lat,
		BaseLng:       t.base.Lng,
		MaxDistanceNM: dist,
		FurthestLat:   &loc.Lat,
		FurthestLng:   &loc.Lng,
		Exceeded:      dist > t.radiusNM,
		WaypointCount: 1,
	}
	if err := t.trips.UpsertDailyTrip(ctx, trip); err != nil {
		return nil, storageErr(err)
	}
	return trip, nil
}

// Finalize rescans the day's waypoints and writes the definitive summary.
// A day with no recorded waypoints is conservatively not exceeded but is
// flagged as missing location data.
func (t *DistanceTracker) Finalize(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.DailyTrip, error) {
	waypoints, err := t.trips.WaypointsForDay(ctx, driverID, day)
	if err != nil {
		return nil, storageErr(err)
	}

	trip := &model.DailyTrip{
		DriverID: driverID,
		TripDate: day,
		BaseLat:  t.base.Lat,
		BaseLng:  t.base.Lng,
	}

	if len(waypoints) == 0 {
		trip.MissingLocationData = true
	} else {
		for _, wp := range waypoints {
			dist, err := geo.Distance(t.base, geo.Coordinate{Lat: wp.Lat, Lng: wp.Lng})
			if err != nil {
				return nil, err
			}
			if dist > trip.MaxDistanceNM || trip.FurthestLat == nil {
				lat, lng := wp.Lat, wp.Lng
				trip.MaxDistanceNM = dist
				trip.FurthestLat = &lat
				trip.FurthestLng = &lng
			}
		}
		trip.WaypointCount = len(waypoints)
		// distances are classified at 0.01 NM precision so a day at exactly
		// the radius is not flagged by float noise
		trip.MaxDistanceNM = round2(trip.MaxDistanceNM)
		trip.Exceeded = trip.MaxDistanceNM > t.radiusNM
	}

	if err := t.trips.UpsertDailyTrip(ctx, trip); err != nil {
		return nil, storageErr(err)
	}
	return trip, nil
}
