package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/model"
	"hos-service/internal/repository"
)

// Repository interfaces are declared on the consumer side so the services
// can be exercised against in-memory fakes.

type TimeCardRepo interface {
	CreateOpen(ctx context.Context, card *model.TimeCard) error
	GetOpenByDriver(ctx context.Context, driverID uuid.UUID) (*model.TimeCard, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TimeCard, error)
	Close(ctx context.Context, card *model.TimeCard) error
	ClosedInWindow(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.TimeCard, error)
	ForDay(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.TimeCard, error)
	LastClosedBefore(ctx context.Context, driverID uuid.UUID, before time.Time, exclude uuid.UUID) (*model.TimeCard, error)
	ListByDriverRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.TimeCard, error)
	Supersede(ctx context.Context, oldID uuid.UUID, replacement *model.TimeCard, audit *model.TimeCardAuditLog) error
}

type TripRepo interface {
	AppendWaypoint(ctx context.Context, wp *model.TripWaypoint) error
	WaypointsForDay(ctx context.Context, driverID uuid.UUID, day time.Time) ([]model.TripWaypoint, error)
	UpsertDailyTrip(ctx context.Context, trip *model.DailyTrip) error
	TripForDay(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.DailyTrip, error)
	TripsInWindow(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.DailyTrip, error)
}

type ComplianceRepo interface {
	UpsertExemption(ctx context.Context, status *model.ExemptionStatus) error
	LatestExemption(ctx context.Context, driverID uuid.UUID) (*model.ExemptionStatus, error)
	UpsertWeekly(ctx context.Context, weekly *model.WeeklyHOS) error
	SaveViolations(ctx context.Context, violations []model.Violation) error
	DeleteForTimeCard(ctx context.Context, timeCardID uuid.UUID) error
	ListViolations(ctx context.Context, filter repository.ViolationFilter) ([]model.Violation, error)
	CountByTimeCardIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
}

type RosterRepo interface {
	GetDriver(ctx context.Context, id uuid.UUID) (*model.Driver, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
}
