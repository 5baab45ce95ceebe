package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hos-service/internal/config"
	"hos-service/internal/geo"
	"hos-service/internal/model"
	"hos-service/internal/repository"
)

// Ledger owns the per-driver, per-day time-card state machine
// (NONE → OPEN → CLOSED) and drives the compliance evaluations that fire
// at clock-out.
type Ledger struct {
	timeCards  TimeCardRepo
	trips      TripRepo
	compliance ComplianceRepo
	roster     RosterRepo
	distance   *DistanceTracker
	exemption  *ExemptionTracker
	evaluator  *Evaluator
	rules      config.ComplianceRules
	loc        *time.Location
	log        zerolog.Logger
}

func NewLedger(
	timeCards TimeCardRepo,
	trips TripRepo,
	compliance ComplianceRepo,
	roster RosterRepo,
	distance *DistanceTracker,
	exemption *ExemptionTracker,
	evaluator *Evaluator,
	rules config.ComplianceRules,
	loc *time.Location,
	log zerolog.Logger,
) *Ledger {
	return &Ledger{
		timeCards:  timeCards,
		trips:      trips,
		compliance: compliance,
		roster:     roster,
		distance:   distance,
		exemption:  exemption,
		evaluator:  evaluator,
		rules:      rules,
		loc:        loc,
		log:        log,
	}
}

type ClockInInput struct {
	DriverID  uuid.UUID
	VehicleID uuid.UUID
	Timestamp time.Time
	Location  geo.Coordinate
	Notes     string
}

func (l *Ledger) ClockIn(ctx context.Context, principal model.Principal, in ClockInInput) (*model.TimeCard, error) {
	if !principal.ActsFor(in.DriverID) {
		return nil, ErrPermissionDenied
	}
	if err := in.Location.Validate(); err != nil {
		return nil, err
	}

	driver, err := l.roster.GetDriver(ctx, in.DriverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownDriver
		}
		return nil, storageErr(err)
	}
	if !driver.Active {
		return nil, ErrInactiveDriver
	}
	vehicle, err := l.roster.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownVehicle
		}
		return nil, storageErr(err)
	}
	if !vehicle.Active {
		return nil, ErrInactiveVehicle
	}

	day := dayOf(in.Timestamp, l.loc)
	card := &model.TimeCard{
		DriverID:   in.DriverID,
		VehicleID:  in.VehicleID,
		CardDate:   day,
		ClockInAt:  in.Timestamp,
		ClockInLat: in.Location.Lat,
		ClockInLng: in.Location.Lng,
		Notes:      in.Notes,
		Status:     model.TimeCardStatusOpen,
	}

	if err := l.timeCards.CreateOpen(ctx, card); err != nil {
		switch {
		case errors.Is(err, repository.ErrDriverCardOpen):
			return nil, ErrAlreadyClockedIn
		case errors.Is(err, repository.ErrVehicleCardOpen):
			return nil, ErrVehicleInUse
		default:
			return nil, storageErr(err)
		}
	}

	if err := l.trips.AppendWaypoint(ctx, &model.TripWaypoint{
		DriverID:   in.DriverID,
		TripDate:   day,
		RecordedAt: in.Timestamp,
		Lat:        in.Location.Lat,
		Lng:        in.Location.Lng,
	}); err != nil {
		return nil, storageErr(err)
	}
	if _, err := l.distance.Seed(ctx, in.DriverID, day, in.Location); err != nil {
		return nil, err
	}

	l.log.Info().
		Str("driver_id", in.DriverID.String()).
		Str("vehicle_id", in.VehicleID.String()).
		Time("clock_in_at", in.Timestamp).
		Msg("driver clocked in")

	return card, nil
}

// RecordWaypoint appends a GPS sample to the driver's open day. Samples that
// arrive with no open time card are discarded, not errored: mobile GPS
// polling often outlives the duty period by a few samples.
func (l *Ledger) RecordWaypoint(ctx context.Context, principal model.Principal, driverID uuid.UUID, ts time.Time, loc geo.Coordinate) error {
	if !principal.ActsFor(driverID) {
		return ErrPermissionDenied
	}
	if err := loc.Validate(); err != nil {
		return err
	}

	card, err := l.timeCards.GetOpenByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.log.Debug().Str("driver_id", driverID.String()).Msg("waypoint outside duty period discarded")
			return nil
		}
		return storageErr(err)
	}

	if err := l.trips.AppendWaypoint(ctx, &model.TripWaypoint{
		DriverID:   driverID,
		TripDate:   card.CardDate,
		RecordedAt: ts,
		Lat:        loc.Lat,
		Lng:        loc.Lng,
	}); err != nil {
		return storageErr(err)
	}
	return nil
}

type ClockOutInput struct {
	DriverID     uuid.UUID
	Timestamp    time.Time
	Location     geo.Coordinate
	SignatureRef string
	Notes        string
}

type ClockOutResult struct {
	TimeCard    *model.TimeCard   `json:"time_card"`
	Violations  []model.Violation `json:"violations"`
	HoursWorked float64           `json:"hours_worked"`
}

func (l *Ledger) ClockOut(ctx context.Context, principal model.Principal, in ClockOutInput) (*ClockOutResult, error) {
	if !principal.ActsFor(in.DriverID) {
		return nil, ErrPermissionDenied
	}
	if err := in.Location.Validate(); err != nil {
		return nil, err
	}

	card, err := l.timeCards.GetOpenByDriver(ctx, in.DriverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenTimeCard
		}
		return nil, storageErr(err)
	}
	if !in.Timestamp.After(card.ClockInAt) {
		return nil, ErrClockOutBeforeClockIn
	}

	hours := round2(in.Timestamp.Sub(card.ClockInAt).Hours())
	ts := in.Timestamp
	card.ClockOutAt = &ts
	card.ClockOutLat = &in.Location.Lat
	card.ClockOutLng = &in.Location.Lng
	if in.SignatureRef != "" {
		card.SignatureRef = &in.SignatureRef
	}
	card.OnDutyHours = hours
	// Driving time is recorded as the full duty period until GPS trip
	// segmentation can split out idle time.
	card.DrivingHours = hours
	if in.Notes != "" {
		if card.Notes != "" {
			card.Notes = card.Notes + "\n" + in.Notes
		} else {
			card.Notes = in.Notes
		}
	}

	if err := l.timeCards.Close(ctx, card); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenTimeCard
		}
		return nil, storageErr(err)
	}

	violations, err := l.evaluateClosedCard(ctx, card)
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("driver_id", in.DriverID.String()).
		Float64("hours", hours).
		Int("violations", len(violations)).
		Msg("driver clocked out")

	return &ClockOutResult{TimeCard: card, Violations: violations, HoursWorked: hours}, nil
}

// evaluateClosedCard runs every compliance check that fires when a card
// closes: day's distance, daily limits, weekly aggregate, exemption window.
// Violations are collected and stored, never returned as failures.
func (l *Ledger) evaluateClosedCard(ctx context.Context, card *model.TimeCard) ([]model.Violation, error) {
	trip, err := l.distance.Finalize(ctx, card.DriverID, card.CardDate)
	if err != nil {
		return nil, err
	}

	violations, err := l.evaluator.EvaluateDay(ctx, card)
	if err != nil {
		return nil, err
	}

	if trip.MissingLocationData {
		violations = append(violations, model.Violation{
			DriverID:      card.DriverID,
			TimeCardID:    &card.ID,
			ViolationDate: card.CardDate,
			Type:          model.ViolationTypeNoLocationData,
			Severity:      model.ViolationSeverityWarning,
			Description:   "no GPS samples recorded for this duty period, distance from base unknown",
		})
	}

	weekly, err := l.evaluator.EvaluateWeek(ctx, card.DriverID, card.CardDate)
	if err != nil {
		return nil, err
	}
	if weekly.Exceeded {
		violations = append(violations, model.Violation{
			DriverID:      card.DriverID,
			TimeCardID:    &card.ID,
			ViolationDate: card.CardDate,
			Type:          model.ViolationTypeWeeklyLimitExceeded,
			Severity:      model.ViolationSeverityCritical,
			Measured:      weekly.OnDutyHours,
			Limit:         weekly.LimitHours,
			Description: fmt.Sprintf("%.2fh on duty in the trailing %d days exceeds the %.0fh limit",
				weekly.OnDutyHours, weekly.WindowDays, weekly.LimitHours),
		})
	}

	var wasRequired bool
	prev, err := l.compliance.LatestExemption(ctx, card.DriverID)
	switch {
	case err == nil:
		wasRequired = prev.RequiresDetailedLogs
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, storageErr(err)
	}

	exemption, err := l.exemption.Recompute(ctx, card.DriverID, card.CardDate)
	if err != nil {
		return nil, err
	}
	if exemption.RequiresDetailedLogs && !wasRequired {
		violations = append(violations, model.Violation{
			DriverID:      card.DriverID,
			TimeCardID:    &card.ID,
			ViolationDate: card.CardDate,
			Type:          model.ViolationTypeDetailedLogsRequired,
			Severity:      model.ViolationSeverityCritical,
			Measured:      float64(exemption.ExceedanceDays),
			Limit:         float64(l.rules.ExemptionMaxDays),
			Description: fmt.Sprintf("%d days over the %.0f NM radius in the trailing %d days, detailed duty logs now required",
				exemption.ExceedanceDays, l.rules.ExemptionRadiusNM, l.rules.ExemptionWindowDays),
		})
	}

	if err := l.compliance.SaveViolations(ctx, violations); err != nil {
		return nil, storageErr(err)
	}
	return violations, nil
}

type AmendInput struct {
	TimeCardID  uuid.UUID
	NewClockIn  *time.Time
	NewClockOut *time.Time
	Note        string
}

// Amend supersedes a closed time card with a corrected copy and re-runs the
// day's compliance evaluation. The original row is kept for the audit trail.
func (l *Ledger) Amend(ctx context.Context, principal model.Principal, in AmendInput) (*model.TimeCard, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if in.NewClockIn == nil && in.NewClockOut == nil {
		return nil, ErrInvalidInput
	}

	card, err := l.timeCards.GetByID(ctx, in.TimeCardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}
	if card.Status != model.TimeCardStatusClosed {
		return nil, ErrInvalidStatus
	}

	clockIn := card.ClockInAt
	if in.NewClockIn != nil {
		clockIn = *in.NewClockIn
	}
	clockOut := card.ClockOutAt
	if in.NewClockOut != nil {
		clockOut = in.NewClockOut
	}
	if clockOut == nil || !clockOut.After(clockIn) {
		return nil, ErrClockOutBeforeClockIn
	}

	hours := round2(clockOut.Sub(clockIn).Hours())
	replacement := &model.TimeCard{
		ID:           uuid.New(),
		DriverID:     card.DriverID,
		VehicleID:    card.VehicleID,
		CardDate:     dayOf(clockIn, l.loc),
		ClockInAt:    clockIn,
		ClockInLat:   card.ClockInLat,
		ClockInLng:   card.ClockInLng,
		ClockOutAt:   clockOut,
		ClockOutLat:  card.ClockOutLat,
		ClockOutLng:  card.ClockOutLng,
		SignatureRef: card.SignatureRef,
		OnDutyHours:  hours,
		DrivingHours: hours,
		Notes:        card.Notes,
		Status:       model.TimeCardStatusClosed,
	}
	audit := &model.TimeCardAuditLog{
		TimeCardID:    card.ID,
		OldClockInAt:  card.ClockInAt,
		OldClockOutAt: card.ClockOutAt,
		NewClockInAt:  clockIn,
		NewClockOutAt: clockOut,
		Note:          in.Note,
		ChangedBy:     principal.UserID,
	}

	if err := l.timeCards.Supersede(ctx, card.ID, replacement, audit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidStatus
		}
		return nil, storageErr(err)
	}
	if err := l.compliance.DeleteForTimeCard(ctx, card.ID); err != nil {
		return nil, storageErr(err)
	}

	if _, err := l.evaluateClosedCard(ctx, replacement); err != nil {
		return nil, err
	}

	l.log.Info().
		Str("time_card_id", card.ID.String()).
		Str("replacement_id", replacement.ID.String()).
		Str("changed_by", principal.UserID.String()).
		Msg("time card amended")

	return replacement, nil
}
