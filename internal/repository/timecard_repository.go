package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"hos-service/internal/model"
)

const pgUniqueViolation = "23505"

var (
	// ErrDriverCardOpen and ErrVehicleCardOpen surface the partial unique
	// indexes on open time cards. Concurrent clock-ins race on the index,
	// not on application code, so exactly one can win.
	ErrDriverCardOpen  = errors.New("driver already has an open time card")
	ErrVehicleCardOpen = errors.New("vehicle already has an open time card")
)

type TimeCardRepository struct {
	db *gorm.DB
}

func NewTimeCardRepository(db *gorm.DB) *TimeCardRepository {
	return &TimeCardRepository{db: db}
}

// CreateOpen inserts a new OPEN time card. Unique-index conflicts are
// translated into the typed open-card errors.
func (r *TimeCardRepository) CreateOpen(ctx context.Context, card *model.TimeCard) error {
	err := r.db.WithContext(ctx).Create(card).Error
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "uniq_open_time_card_per_driver":
			return ErrDriverCardOpen
		case "uniq_open_time_card_per_vehicle":
			return ErrVehicleCardOpen
		}
	}
	return err
}

func (r *TimeCardRepository) GetOpenByDriver(ctx context.Context, driverID uuid.UUID) (*model.TimeCard, error) {
	var card model.TimeCard
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status = ?", driverID, model.TimeCardStatusOpen).
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *TimeCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeCard, error) {
	var card model.TimeCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// Close records the clock-out on an open card. The status predicate makes a
// racing double clock-out lose with ErrRecordNotFound instead of silently
// rewriting the row.
func (r *TimeCardRepository) Close(ctx context.Context, card *model.TimeCard) error {
	result := r.db.WithContext(ctx).
		Model(&model.TimeCard{}).
		Where("id = ? AND status = ?", card.ID, model.TimeCardStatusOpen).
		Updates(map[string]interface{}{
			"clock_out_at":  card.ClockOutAt,
			"clock_out_lat": card.ClockOutLat,
			"clock_out_lng": card.ClockOutLng,
			"signature_ref": card.SignatureRef,
			"on_duty_hours": card.OnDutyHours,
			"driving_hours": card.DrivingHours,
			"notes":         card.Notes,
			"status":        model.TimeCardStatusClosed,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	card.Status = model.TimeCardStatusClosed
	return nil
}

// ClosedInWindow returns CLOSED (non-superseded) cards with card_date in
// [from, to] inclusive, oldest first.
func (r *TimeCardRepository) ClosedInWindow(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.TimeCard, error) {
	var cards []model.TimeCard
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status = ? AND card_date BETWEEN ? AND ?",
			driverID, model.TimeCardStatusClosed, from, to).
		Order("card_date ASC, clock_in_at ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// ForDay returns the driver's non-superseded card for one calendar day,
// open or closed.
func (r *TimeCardRepository) ForDay(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.TimeCard, error) {
	var card model.TimeCard
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND card_date = ? AND status <> ?",
			driverID, day, model.TimeCardStatusSuperseded).
		Order("clock_in_at DESC").
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// LastClosedBefore returns the most recent CLOSED card whose clock-out
// precedes the given instant, excluding the given card.
func (r *TimeCardRepository) LastClosedBefore(ctx context.Context, driverID uuid.UUID, before time.Time, exclude uuid.UUID) (*model.TimeCard, error) {
	var card model.TimeCard
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status = ? AND clock_out_at <= ? AND id <> ?",
			driverID, model.TimeCardStatusClosed, before, exclude).
		Order("clock_out_at DESC").
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *TimeCardRepository) ListByDriverRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.TimeCard, error) {
	var cards []model.TimeCard
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status <> ? AND card_date BETWEEN ? AND ?",
			driverID, model.TimeCardStatusSuperseded, from, to).
		Order("card_date DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Supersede atomically marks the old card SUPERSEDED, inserts its
// replacement, and writes the audit row.
func (r *TimeCardRepository) Supersede(ctx context.Context, oldID uuid.UUID, replacement *model.TimeCard, audit *model.TimeCardAuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(replacement).Error; err != nil {
			return err
		}
		result := tx.Model(&model.TimeCard{}).
			Where("id = ? AND status = ?", oldID, model.TimeCardStatusClosed).
			Updates(map[string]interface{}{
				"status":        model.TimeCardStatusSuperseded,
				"superseded_by": replacement.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		audit.ReplacementID = replacement.ID
		return tx.Create(audit).Error
	})
}
