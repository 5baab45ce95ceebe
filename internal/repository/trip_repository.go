package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hos-service/internal/model"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) AppendWaypoint(ctx context.Context, wp *model.TripWaypoint) error {
	return r.db.WithContext(ctx).Create(wp).Error
}

func (r *TripRepository) WaypointsForDay(ctx context.Context, driverID uuid.UUID, day time.Time) ([]model.TripWaypoint, error) {
	var waypoints []model.TripWaypoint
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND trip_date = ?", driverID, day).
		Order("recorded_at ASC").
		Find(&waypoints).Error
	if err != nil {
		return nil, err
	}
	return waypoints, nil
}

// UpsertDailyTrip writes the day's distance summary, replacing any earlier
// computation for the same (driver, day).
func (r *TripRepository) UpsertDailyTrip(ctx context.Context, trip *model.DailyTrip) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "driver_id"}, {Name: "trip_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"base_lat", "base_lng", "max_distance_nm",
				"furthest_lat", "furthest_lng",
				"exceeded", "missing_location_data", "waypoint_count",
				"updated_at",
			}),
		}).
		Create(trip).Error
}

func (r *TripRepository) TripForDay(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.DailyTrip, error) {
	var trip model.DailyTrip
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND trip_date = ?", driverID, day).
		First(&trip).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// TripsInWindow returns the driver's daily trips with trip_date in [from, to]
// inclusive, oldest first.
func (r *TripRepository) TripsInWindow(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.DailyTrip, error) {
	var trips []model.DailyTrip
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND trip_date BETWEEN ? AND ?", driverID, from, to).
		Order("trip_date ASC").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}
