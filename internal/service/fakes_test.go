package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hos-service/internal/config"
	"hos-service/internal/geo"
	"hos-service/internal/model"
	"hos-service/internal/repository"
)

type fakeTimeCardRepo struct {
	cards  map[uuid.UUID]*model.TimeCard
	audits []model.TimeCardAuditLog
}

func newFakeTimeCardRepo() *fakeTimeCardRepo {
	return &fakeTimeCardRepo{cards: make(map[uuid.UUID]*model.TimeCard)}
}

func (f *fakeTimeCardRepo) CreateOpen(ctx context.Context, card *model.TimeCard) error {
	for _, existing := range f.cards {
		if existing.Status != model.TimeCardStatusOpen {
			continue
		}
		if existing.DriverID == card.DriverID {
			return repository.ErrDriverCardOpen
		}
		if existing.VehicleID == card.VehicleID {
			return repository.ErrVehicleCardOpen
		}
	}
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	stored := *card
	f.cards[card.ID] = &stored
	return nil
}

func (f *fakeTimeCardRepo) GetOpenByDriver(ctx context.Context, driverID uuid.UUID) (*model.TimeCard, error) {
	for _, card := range f.cards {
		if card.DriverID == driverID && card.Status == model.TimeCardStatusOpen {
			copy := *card
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTimeCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeCard, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *card
	return &copy, nil
}

func (f *fakeTimeCardRepo) Close(ctx context.Context, card *model.TimeCard) error {
	stored, ok := f.cards[card.ID]
	if !ok || stored.Status != model.TimeCardStatusOpen {
		return gorm.ErrRecordNotFound
	}
	updated := *card
	updated.Status = model.TimeCardStatusClosed
	f.cards[card.ID] = &updated
	card.Status = model.TimeCardStatusClosed
	return nil
}

func (f *fakeTimeCardRepo) ClosedInWindow(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.TimeCard, error) {
	var out []model.TimeCard
	for _, card := range f.cards {
		if card.DriverID == driverID && card.Status == model.TimeCardStatusClosed &&
			!card.CardDate.Before(from) && !card.CardDate.After(to) {
			out = append(out, *card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardDate.Before(out[j].CardDate) })
	return out, nil
}

func (f *fakeTimeCardRepo) ForDay(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.TimeCard, error) {
	var latest *model.TimeCard
	for _, card := range f.cards {
		if card.DriverID == driverID && card.Status != model.TimeCardStatusSuperseded && card.CardDate.Equal(day) {
			if latest == nil || card.ClockInAt.After(latest.ClockInAt) {
				latest = card
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *latest
	return &copy, nil
}

func (f *fakeTimeCardRepo) LastClosedBefore(ctx context.Context, driverID uuid.UUID, before time.Time, exclude uuid.UUID) (*model.TimeCard, error) {
	var last *model.TimeCard
	for _, card := range f.cards {
		if card.ID == exclude || card.DriverID != driverID || card.Status != model.TimeCardStatusClosed || card.ClockOutAt == nil {
			continue
		}
		if card.ClockOutAt.After(before) {
			continue
		}
		if last == nil || card.ClockOutAt.After(*last.ClockOutAt) {
			last = card
		}
	}
	if last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *last
	return &copy, nil
}

func (f *fakeTimeCardRepo) ListByDriverRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.TimeCard, error) {
	var out []model.TimeCard
	for _, card := range f.cards {
		if card.DriverID == driverID && card.Status != model.TimeCardStatusSuperseded &&
			!card.CardDate.Before(from) && !card.CardDate.After(to) {
			out = append(out, *card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardDate.After(out[j].CardDate) })
	return out, nil
}

func (f *fakeTimeCardRepo) Supersede(ctx context.Context, oldID uuid.UUID, replacement *model.TimeCard, audit *model.TimeCardAuditLog) error {
	old, ok := f.cards[oldID]
	if !ok || old.Status != model.TimeCardStatusClosed {
		return gorm.ErrRecordNotFound
	}
	stored := *replacement
	f.cards[replacement.ID] = &stored
	old.Status = model.TimeCardStatusSuperseded
	old.SupersededBy = &replacement.ID
	audit.ReplacementID = replacement.ID
	f.audits = append(f.audits, *audit)
	return nil
}

type tripKey struct {
	driver uuid.UUID
	day    int64
}

type fakeTripRepo struct {
	waypoints []model.TripWaypoint
	trips     map[tripKey]*model.DailyTrip
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: make(map[tripKey]*model.DailyTrip)}
}

func (f *fakeTripRepo) AppendWaypoint(ctx context.Context, wp *model.TripWaypoint) error {
	stored := *wp
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	f.waypoints = append(f.waypoints, stored)
	return nil
}

func (f *fakeTripRepo) WaypointsForDay(ctx context.Context, driverID uuid.UUID, day time.Time) ([]model.TripWaypoint, error) {
	var out []model.TripWaypoint
	for _, wp := range f.waypoints {
		if wp.DriverID == driverID && wp.TripDate.Equal(day) {
			out = append(out, wp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (f *fakeTripRepo) UpsertDailyTrip(ctx context.Context, trip *model.DailyTrip) error {
	stored := *trip
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	f.trips[tripKey{driver: trip.DriverID, day: trip.TripDate.Unix()}] = &stored
	return nil
}

func (f *fakeTripRepo) TripForDay(ctx context.Context, driverID uuid.UUID, day time.Time) (*model.DailyTrip, error) {
	trip, ok := f.trips[tripKey{driver: driverID, day: day.Unix()}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *trip
	return &copy, nil
}

func (f *fakeTripRepo) TripsInWindow(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]model.DailyTrip, error) {
	var out []model.DailyTrip
	for _, trip := range f.trips {
		if trip.DriverID == driverID && !trip.TripDate.Before(from) && !trip.TripDate.After(to) {
			out = append(out, *trip)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TripDate.Before(out[j].TripDate) })
	return out, nil
}

type exemptionKey struct {
	driver uuid.UUID
	start  int64
}

type fakeComplianceRepo struct {
	exemptions map[exemptionKey]*model.ExemptionStatus
	weekly     map[exemptionKey]*model.WeeklyHOS
	violations []model.Violation
}

func newFakeComplianceRepo() *fakeComplianceRepo {
	return &fakeComplianceRepo{
		exemptions: make(map[exemptionKey]*model.ExemptionStatus),
		weekly:     make(map[exemptionKey]*model.WeeklyHOS),
	}
}

func (f *fakeComplianceRepo) UpsertExemption(ctx context.Context, status *model.ExemptionStatus) error {
	stored := *status
	f.exemptions[exemptionKey{driver: status.DriverID, start: status.WindowStart.Unix()}] = &stored
	return nil
}

func (f *fakeComplianceRepo) LatestExemption(ctx context.Context, driverID uuid.UUID) (*model.ExemptionStatus, error) {
	var latest *model.ExemptionStatus
	for _, status := range f.exemptions {
		if status.DriverID != driverID {
			continue
		}
		if latest == nil || status.WindowStart.After(latest.WindowStart) {
			latest = status
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *latest
	return &copy, nil
}

func (f *fakeComplianceRepo) UpsertWeekly(ctx context.Context, weekly *model.WeeklyHOS) error {
	stored := *weekly
	f.weekly[exemptionKey{driver: weekly.DriverID, start: weekly.WindowStart.Unix()}] = &stored
	return nil
}

func (f *fakeComplianceRepo) SaveViolations(ctx context.Context, violations []model.Violation) error {
	f.violations = append(f.violations, violations...)
	return nil
}

func (f *fakeComplianceRepo) DeleteForTimeCard(ctx context.Context, timeCardID uuid.UUID) error {
	kept := f.violations[:0]
	for _, v := range f.violations {
		if v.TimeCardID == nil || *v.TimeCardID != timeCardID {
			kept = append(kept, v)
		}
	}
	f.violations = kept
	return nil
}

func (f *fakeComplianceRepo) ListViolations(ctx context.Context, filter repository.ViolationFilter) ([]model.Violation, error) {
	var out []model.Violation
	for _, v := range f.violations {
		if filter.DriverID != nil && v.DriverID != *filter.DriverID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeComplianceRepo) CountByTimeCardIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, v := range f.violations {
		if v.TimeCardID == nil {
			continue
		}
		for _, id := range ids {
			if *v.TimeCardID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (f *fakeComplianceRepo) byType(vType model.ViolationType) []model.Violation {
	var out []model.Violation
	for _, v := range f.violations {
		if v.Type == vType {
			out = append(out, v)
		}
	}
	return out
}

type fakeRosterRepo struct {
	drivers  map[uuid.UUID]*model.Driver
	vehicles map[uuid.UUID]*model.Vehicle
}

func newFakeRosterRepo() *fakeRosterRepo {
	return &fakeRosterRepo{
		drivers:  make(map[uuid.UUID]*model.Driver),
		vehicles: make(map[uuid.UUID]*model.Vehicle),
	}
}

func (f *fakeRosterRepo) GetDriver(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	driver, ok := f.drivers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return driver, nil
}

func (f *fakeRosterRepo) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, ok := f.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vehicle, nil
}

// fixture wires the services over the in-memory fakes with the default rules
// and the carrier base at Walla Walla.
type fixture struct {
	timeCards  *fakeTimeCardRepo
	trips      *fakeTripRepo
	compliance *fakeComplianceRepo
	roster     *fakeRosterRepo

	rules     config.ComplianceRules
	base      geo.Coordinate
	distance  *DistanceTracker
	exemption *ExemptionTracker
	evaluator *Evaluator
	ledger    *Ledger
	status    *StatusService

	driverID  uuid.UUID
	vehicleID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		timeCards:  newFakeTimeCardRepo(),
		trips:      newFakeTripRepo(),
		compliance: newFakeComplianceRepo(),
		roster:     newFakeRosterRepo(),
		rules: config.ComplianceRules{
			MaxDrivingHoursPerDay: 10,
			MaxOnDutyHoursPerDay:  15,
			MinOffDutyHours:       8,
			WeeklyLimitHours:      60,
			WeeklyWindowDays:      7,
			ExemptionRadiusNM:     150,
			ExemptionMaxDays:      8,
			ExemptionWindowDays:   30,
			WarnAtFraction:        0.8,
		},
		base:      geo.Coordinate{Lat: 46.0645, Lng: -118.3430},
		driverID:  uuid.New(),
		vehicleID: uuid.New(),
	}

	f.roster.drivers[f.driverID] = &model.Driver{ID: f.driverID, FullName: "Dana Reyes", Active: true}
	f.roster.vehicles[f.vehicleID] = &model.Vehicle{ID: f.vehicleID, PlateNumber: "TOUR-01", Active: true}

	f.distance = NewDistanceTracker(f.trips, f.base, f.rules.ExemptionRadiusNM)
	f.exemption = NewExemptionTracker(f.trips, f.compliance, f.rules.ExemptionWindowDays, f.rules.ExemptionMaxDays)
	f.evaluator = NewEvaluator(f.timeCards, f.compliance, f.rules)
	f.ledger = NewLedger(f.timeCards, f.trips, f.compliance, f.roster,
		f.distance, f.exemption, f.evaluator, f.rules, time.UTC, zerolog.Nop())
	f.status = NewStatusService(f.timeCards, f.trips, f.compliance, f.roster,
		f.evaluator, f.exemption, f.rules, time.UTC)

	return f
}

func (f *fixture) driverPrincipal() model.Principal {
	id := f.driverID
	return model.Principal{UserID: uuid.New(), Role: model.UserRoleDriver, DriverID: &id}
}

func (f *fixture) adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
}

// addExceedanceDay seeds a finalized daily trip that exceeded the radius.
func (f *fixture) addExceedanceDay(day time.Time) {
	f.trips.trips[tripKey{driver: f.driverID, day: day.Unix()}] = &model.DailyTrip{
		ID:            uuid.New(),
		DriverID:      f.driverID,
		TripDate:      day,
		BaseLat:       f.base.Lat,
		BaseLng:       f.base.Lng,
		MaxDistanceNM: 200,
		Exceeded:      true,
		WaypointCount: 3,
	}
}

// addClosedCard seeds a CLOSED time card with the given worked hours
// starting 08:00 on the given day.
func (f *fixture) addClosedCard(day time.Time, hours float64) *model.TimeCard {
	clockIn := day.Add(8 * time.Hour)
	clockOut := clockIn.Add(time.Duration(hours * float64(time.Hour)))
	card := &model.TimeCard{
		ID:           uuid.New(),
		DriverID:     f.driverID,
		VehicleID:    f.vehicleID,
		CardDate:     day,
		ClockInAt:    clockIn,
		ClockOutAt:   &clockOut,
		OnDutyHours:  hours,
		DrivingHours: hours,
		Status:       model.TimeCardStatusClosed,
	}
	f.timeCards.cards[card.ID] = card
	return card
}

func day(n int) time.Time {
	return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

var testCtx = context.Background()
