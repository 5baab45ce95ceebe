package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hos-service/internal/config"
	"hos-service/internal/model"
	"hos-service/internal/repository"
)

// StatusService composes the ledger, distance, exemption, and HOS views into
// the single "today" read model the rest of the platform consumes. Every
// aggregate is recomputed on demand from its bounded window.
type StatusService struct {
	timeCards  TimeCardRepo
	trips      TripRepo
	compliance ComplianceRepo
	roster     RosterRepo
	evaluator  *Evaluator
	exemption  *ExemptionTracker
	rules      config.ComplianceRules
	loc        *time.Location
	now        func() time.Time
}

func NewStatusService(
	timeCards TimeCardRepo,
	trips TripRepo,
	compliance ComplianceRepo,
	roster RosterRepo,
	evaluator *Evaluator,
	exemption *ExemptionTracker,
	rules config.ComplianceRules,
	loc *time.Location,
) *StatusService {
	return &StatusService{
		timeCards:  timeCards,
		trips:      trips,
		compliance: compliance,
		roster:     roster,
		evaluator:  evaluator,
		exemption:  exemption,
		rules:      rules,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *StatusService) TodayStatus(ctx context.Context, principal model.Principal, driverID uuid.UUID) (*model.StatusView, error) {
	if !principal.ActsFor(driverID) {
		return nil, ErrPermissionDenied
	}

	driver, err := s.roster.GetDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownDriver
		}
		return nil, storageErr(err)
	}

	now := s.now()
	today := dayOf(now, s.loc)

	view := &model.StatusView{
		Driver: model.DriverBrief{ID: driver.ID, FullName: driver.FullName, Phone: driver.Phone},
		Date:   today,
	}

	var drivingUsed, onDutyUsed float64
	card, err := s.timeCards.ForDay(ctx, driverID, today)
	switch {
	case err == nil:
		brief := &model.TimeCardBrief{
			ID:         card.ID,
			Status:     card.Status,
			ClockInAt:  card.ClockInAt,
			ClockOutAt: card.ClockOutAt,
			VehicleID:  card.VehicleID,
		}
		if card.Status == model.TimeCardStatusOpen {
			brief.HoursSoFar = round2(now.Sub(card.ClockInAt).Hours())
			drivingUsed = brief.HoursSoFar
			onDutyUsed = brief.HoursSoFar
		} else {
			brief.HoursSoFar = card.OnDutyHours
			drivingUsed = card.DrivingHours
			onDutyUsed = card.OnDutyHours
		}
		view.TimeCard = brief
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, storageErr(err)
	}

	trip, err := s.trips.TripForDay(ctx, driverID, today)
	switch {
	case err == nil:
		view.Trip = &model.TripBrief{
			MaxDistanceNM:       trip.MaxDistanceNM,
			Exceeded:            trip.Exceeded,
			MissingLocationData: trip.MissingLocationData,
			WaypointCount:       trip.WaypointCount,
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, storageErr(err)
	}

	exemption, err := s.exemption.Recompute(ctx, driverID, today)
	if err != nil {
		return nil, err
	}
	view.Exemption = model.ExemptionBrief{
		WindowStart:          exemption.WindowStart,
		WindowEnd:            exemption.WindowEnd,
		ExceedanceDays:       exemption.ExceedanceDays,
		MaxDays:              s.rules.ExemptionMaxDays,
		RequiresDetailedLogs: exemption.RequiresDetailedLogs,
	}

	weekly, err := s.evaluator.EvaluateWeek(ctx, driverID, today)
	if err != nil {
		return nil, err
	}
	weeklyUsed := weekly.OnDutyHours
	if card != nil && card.Status == model.TimeCardStatusOpen {
		// an open shift is not a closed card yet but still counts toward
		// the live weekly margin
		weeklyUsed = round2(weeklyUsed + onDutyUsed)
	}

	view.DailyDrive = gauge(drivingUsed, s.rules.MaxDrivingHoursPerDay)
	view.DailyOnDuty = gauge(onDutyUsed, s.rules.MaxOnDutyHoursPerDay)
	view.Weekly = gauge(weeklyUsed, s.rules.WeeklyLimitHours)
	view.Window = gauge(float64(exemption.ExceedanceDays), float64(s.rules.ExemptionMaxDays))

	view.Alerts = s.buildAlerts(view)
	return view, nil
}

func gauge(used, limit float64) model.LimitGauge {
	g := model.LimitGauge{Used: used, Limit: limit}
	if limit > 0 {
		g.Fraction = used / limit
	}
	return g
}

func (s *StatusService) buildAlerts(view *model.StatusView) []model.Alert {
	alerts := make([]model.Alert, 0, 4)

	add := func(g model.LimitGauge, vType model.ViolationType, label, unit string) {
		if g.Fraction < s.rules.WarnAtFraction {
			return
		}
		severity := model.AlertSeverityWarning
		if g.Fraction >= 1 {
			severity = model.AlertSeverityCritical
		}
		alerts = append(alerts, model.Alert{
			Severity: severity,
			Type:     vType,
			Fraction: g.Fraction,
			Message:  fmt.Sprintf("%s at %.0f%% of limit (%.2f of %.0f %s)", label, g.Fraction*100, g.Used, g.Limit, unit),
		})
	}

	add(view.DailyDrive, model.ViolationTypeDrivingLimitExceeded, "daily driving time", "h")
	add(view.DailyOnDuty, model.ViolationTypeOnDutyLimitExceeded, "daily on-duty time", "h")
	add(view.Weekly, model.ViolationTypeWeeklyLimitExceeded, "weekly on-duty time", "h")
	add(view.Window, model.ViolationTypeDetailedLogsRequired, "exemption window exceedance days", "days")

	if view.Exemption.RequiresDetailedLogs {
		alerts = append(alerts, model.Alert{
			Severity: model.AlertSeverityCritical,
			Type:     model.ViolationTypeDetailedLogsRequired,
			Fraction: view.Window.Fraction,
			Message:  "exemption exhausted, detailed duty logs required",
		})
	}
	if view.Trip != nil && view.Trip.MissingLocationData {
		alerts = append(alerts, model.Alert{
			Severity: model.AlertSeverityWarning,
			Type:     model.ViolationTypeNoLocationData,
			Message:  "no GPS samples recorded today, distance from base unknown",
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity != alerts[j].Severity {
			return alerts[i].Severity == model.AlertSeverityCritical
		}
		return alerts[i].Fraction > alerts[j].Fraction
	})
	return alerts
}

// ActualHours is the invoicing pull: the closed card's worked hours replace
// the tour's estimated duration before a final invoice is generated.
func (s *StatusService) ActualHours(ctx context.Context, principal model.Principal, driverID uuid.UUID, date time.Time) (float64, error) {
	if !(principal.IsBilling() || principal.IsAdmin()) {
		return 0, ErrPermissionDenied
	}

	card, err := s.timeCards.ForDay(ctx, driverID, dayOf(date, s.loc))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, storageErr(err)
	}
	if card.Status != model.TimeCardStatusClosed {
		return 0, ErrInvalidStatus
	}
	return card.OnDutyHours, nil
}

func (s *StatusService) History(ctx context.Context, principal model.Principal, driverID uuid.UUID, from, to time.Time) ([]model.TimeCardSummary, error) {
	if !principal.ActsFor(driverID) {
		return nil, ErrPermissionDenied
	}

	cards, err := s.timeCards.ListByDriverRange(ctx, driverID, dayOf(from, s.loc), dayOf(to, s.loc))
	if err != nil {
		return nil, storageErr(err)
	}

	ids := make([]uuid.UUID, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	counts, err := s.compliance.CountByTimeCardIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(err)
	}

	summaries := make([]model.TimeCardSummary, 0, len(cards))
	for _, card := range cards {
		summaries = append(summaries, model.TimeCardSummary{
			TimeCard:       card,
			ViolationCount: counts[card.ID],
		})
	}
	return summaries, nil
}

type ListViolationsOptions struct {
	DriverID   *uuid.UUID
	Types      []model.ViolationType
	Severities []model.ViolationSeverity
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

func (s *StatusService) ListViolations(ctx context.Context, principal model.Principal, opts ListViolationsOptions) ([]model.Violation, error) {
	if !principal.CanManage() {
		return nil, ErrPermissionDenied
	}

	violations, err := s.compliance.ListViolations(ctx, repository.ViolationFilter{
		DriverID:   opts.DriverID,
		Types:      opts.Types,
		Severities: opts.Severities,
		DateFrom:   opts.DateFrom,
		DateTo:     opts.DateTo,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return violations, nil
}
