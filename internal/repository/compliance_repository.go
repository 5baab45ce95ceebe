package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hos-service/internal/model"
)

type ComplianceRepository struct {
	db *gorm.DB
}

func NewComplianceRepository(db *gorm.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

func (r *ComplianceRepository) UpsertExemption(ctx context.Context, status *model.ExemptionStatus) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "driver_id"}, {Name: "window_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"window_end", "exceedance_days", "requires_detailed_logs", "computed_at",
			}),
		}).
		Create(status).Error
}

// LatestExemption returns the most recently computed window for the driver.
func (r *ComplianceRepository) LatestExemption(ctx context.Context, driverID uuid.UUID) (*model.ExemptionStatus, error) {
	var status model.ExemptionStatus
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("window_start DESC").
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *ComplianceRepository) UpsertWeekly(ctx context.Context, weekly *model.WeeklyHOS) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "driver_id"}, {Name: "window_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"window_end", "window_days", "on_duty_hours", "limit_hours", "exceeded", "computed_at",
			}),
		}).
		Create(weekly).Error
}

func (r *ComplianceRepository) SaveViolations(ctx context.Context, violations []model.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&violations).Error
}

// DeleteForTimeCard removes the violations a superseded card produced, so a
// corrected day is represented only by its re-evaluation.
func (r *ComplianceRepository) DeleteForTimeCard(ctx context.Context, timeCardID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("time_card_id = ?", timeCardID).
		Delete(&model.Violation{}).Error
}

type ViolationFilter struct {
	DriverID   *uuid.UUID
	Types      []model.ViolationType
	Severities []model.ViolationSeverity
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

func (r *ComplianceRepository) ListViolations(ctx context.Context, filter ViolationFilter) ([]model.Violation, error) {
	query := r.db.WithContext(ctx).Model(&model.Violation{})

	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if len(filter.Severities) > 0 {
		query = query.Where("severity IN ?", filter.Severities)
	}
	if filter.DateFrom != nil {
		query = query.Where("violation_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("violation_date <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var violations []model.Violation
	if err := query.Order("violation_date DESC, created_at DESC").Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

// CountByTimeCardIDs returns per-card violation counts for history listings.
func (r *ComplianceRepository) CountByTimeCardIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		TimeCardID uuid.UUID
		Total      int
	}
	err := r.db.WithContext(ctx).
		Model(&model.Violation{}).
		Select("time_card_id, COUNT(*) AS total").
		Where("time_card_id IN ?", ids).
		Group("time_card_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.TimeCardID] = row.Total
	}
	return counts, nil
}
