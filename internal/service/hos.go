package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hos-service/internal/config"
	"hos-service/internal/model"
)

// Evaluator applies the daily and weekly hours-of-service limits. All of its
// findings are advisory: they are recorded for the dashboard and invoicing
// sync, never used to block a clock-in or clock-out.
type Evaluator struct {
	timeCards  TimeCardRepo
	compliance ComplianceRepo
	rules      config.ComplianceRules
	now        func() time.Time
}

func NewEvaluator(timeCards TimeCardRepo, compliance ComplianceRepo, rules config.ComplianceRules) *Evaluator {
	return &Evaluator{timeCards: timeCards, compliance: compliance, rules: rules, now: time.Now}
}

// EvaluateDay checks a closed card against the daily driving, on-duty, and
// off-duty-gap limits. At or above the warn fraction a WARNING is emitted;
// past the limit it becomes CRITICAL.
func (e *Evaluator) EvaluateDay(ctx context.Context, card *model.TimeCard) ([]model.Violation, error) {
	var violations []model.Violation

	if v := e.limitViolation(card, model.ViolationTypeDrivingLimitExceeded,
		card.DrivingHours, e.rules.MaxDrivingHoursPerDay, "driving time"); v != nil {
		violations = append(violations, *v)
	}
	if v := e.limitViolation(card, model.ViolationTypeOnDutyLimitExceeded,
		card.OnDutyHours, e.rules.MaxOnDutyHoursPerDay, "on-duty time"); v != nil {
		violations = append(violations, *v)
	}

	prev, err := e.timeCards.LastClosedBefore(ctx, card.DriverID, card.ClockInAt, card.ID)
	switch {
	case err == nil:
		if prev.ClockOutAt != nil {
			gap := round2(card.ClockInAt.Sub(*prev.ClockOutAt).Hours())
			if gap < e.rules.MinOffDutyHours {
				violations = append(violations, model.Violation{
					DriverID:      card.DriverID,
					TimeCardID:    &card.ID,
					ViolationDate: card.CardDate,
					Type:          model.ViolationTypeInsufficientOffDuty,
					Severity:      model.ViolationSeverityCritical,
					Measured:      gap,
					Limit:         e.rules.MinOffDutyHours,
					Description: fmt.Sprintf("only %.2fh off duty since previous shift, %.0fh required",
						gap, e.rules.MinOffDutyHours),
				})
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first recorded shift, nothing to compare against
	default:
		return nil, storageErr(err)
	}

	return violations, nil
}

func (e *Evaluator) limitViolation(card *model.TimeCard, vType model.ViolationType, used, limit float64, label string) *model.Violation {
	if limit <= 0 || used < limit*e.rules.WarnAtFraction {
		return nil
	}
	v := &model.Violation{
		DriverID:      card.DriverID,
		TimeCardID:    &card.ID,
		ViolationDate: card.CardDate,
		Type:          vType,
		Severity:      model.ViolationSeverityWarning,
		Measured:      used,
		Limit:         limit,
		Description:   fmt.Sprintf("%s %.2fh at %.0f%% of the %.0fh daily limit", label, used, used/limit*100, limit),
	}
	if used > limit {
		v.Severity = model.ViolationSeverityCritical
		v.Description = fmt.Sprintf("%s %.2fh exceeds the %.0fh daily limit", label, used, limit)
	}
	return v
}

// EvaluateWeek recomputes the cumulative on-duty total over the rolling
// window ending at windowEnd and persists the result.
func (e *Evaluator) EvaluateWeek(ctx context.Context, driverID uuid.UUID, windowEnd time.Time) (*model.WeeklyHOS, error) {
	windowStart := windowEnd.AddDate(0, 0, -(e.rules.WeeklyWindowDays - 1))

	cards, err := e.timeCards.ClosedInWindow(ctx, driverID, windowStart, windowEnd)
	if err != nil {
		return nil, storageErr(err)
	}

	var total float64
	for _, card := range cards {
		total += card.OnDutyHours
	}
	total = round2(total)

	weekly := &model.WeeklyHOS{
		DriverID:    driverID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		WindowDays:  e.rules.WeeklyWindowDays,
		OnDutyHours: total,
		LimitHours:  e.rules.WeeklyLimitHours,
		Exceeded:    total > e.rules.WeeklyLimitHours,
		ComputedAt:  e.now().UTC(),
	}
	if err := e.compliance.UpsertWeekly(ctx, weekly); err != nil {
		return nil, storageErr(err)
	}
	return weekly, nil
}
