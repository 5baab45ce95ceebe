package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"hos-service/internal/model"
)

func TestEvaluator_EvaluateDay_limits(t *testing.T) {
	f := newFixture()

	// comfortably under every limit
	card := f.addClosedCard(day(1), 6)
	violations, err := f.evaluator.EvaluateDay(testCtx, card)
	require.NoError(t, err)
	require.Empty(t, violations)

	// 11h driving/on-duty: over the 10h driving limit, under the 15h on-duty limit
	card = f.addClosedCard(day(3), 11)
	violations, err = f.evaluator.EvaluateDay(testCtx, card)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, model.ViolationTypeDrivingLimitExceeded, violations[0].Type)
	require.Equal(t, model.ViolationSeverityCritical, violations[0].Severity)
	require.InDelta(t, 11, violations[0].Measured, 0.001)
	require.InDelta(t, 10, violations[0].Limit, 0.001)

	// 16h: over both daily limits
	card = f.addClosedCard(day(5), 16)
	violations, err = f.evaluator.EvaluateDay(testCtx, card)
	require.NoError(t, err)
	require.Len(t, violations, 2)
}

func TestEvaluator_EvaluateDay_warnBand(t *testing.T) {
	f := newFixture()

	// 8.5h is 85% of the driving limit: warning, not critical
	card := f.addClosedCard(day(1), 8.5)
	violations, err := f.evaluator.EvaluateDay(testCtx, card)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, model.ViolationTypeDrivingLimitExceeded, violations[0].Type)
	require.Equal(t, model.ViolationSeverityWarning, violations[0].Severity)
}

func TestEvaluator_EvaluateDay_offDutyGap(t *testing.T) {
	f := newFixture()

	// shift ends 22:00 on day 1; next begins 04:00 on day 2: a 6h gap
	f.addClosedCard(day(1), 14)

	clockIn := day(2).Add(4 * time.Hour)
	clockOut := clockIn.Add(6 * time.Hour)
	second := &model.TimeCard{
		ID:           uuid.New(),
		DriverID:     f.driverID,
		VehicleID:    f.vehicleID,
		CardDate:     day(2),
		ClockInAt:    clockIn,
		ClockOutAt:   &clockOut,
		OnDutyHours:  6,
		DrivingHours: 6,
		Status:       model.TimeCardStatusClosed,
	}
	f.timeCards.cards[second.ID] = second

	violations, err := f.evaluator.EvaluateDay(testCtx, second)
	require.NoError(t, err)

	var gap *model.Violation
	for i := range violations {
		if violations[i].Type == model.ViolationTypeInsufficientOffDuty {
			gap = &violations[i]
		}
	}
	require.NotNil(t, gap)
	require.Equal(t, model.ViolationSeverityCritical, gap.Severity)
	require.InDelta(t, 6, gap.Measured, 0.001)
	require.InDelta(t, 8, gap.Limit, 0.001)
}

func TestEvaluator_EvaluateWeek(t *testing.T) {
	f := newFixture()

	// [10,10,10,10,10,5,0] sums to 55 under the 60h limit
	hours := []float64{10, 10, 10, 10, 10, 5}
	for i, h := range hours {
		f.addClosedCard(day(i+1), h)
	}

	weekly, err := f.evaluator.EvaluateWeek(testCtx, f.driverID, day(7))
	require.NoError(t, err)
	require.Equal(t, day(1), weekly.WindowStart)
	require.InDelta(t, 55, weekly.OnDutyHours, 0.001)
	require.False(t, weekly.Exceeded)

	// one more 10h day pushes the rolling sum to 65
	f.addClosedCard(day(7), 10)
	weekly, err = f.evaluator.EvaluateWeek(testCtx, f.driverID, day(7))
	require.NoError(t, err)
	require.InDelta(t, 65, weekly.OnDutyHours, 0.001)
	require.True(t, weekly.Exceeded)

	// the window slides: anchored at day 8, day 1 falls out
	weekly, err = f.evaluator.EvaluateWeek(testCtx, f.driverID, day(8))
	require.NoError(t, err)
	require.InDelta(t, 55, weekly.OnDutyHours, 0.001)
	require.False(t, weekly.Exceeded)
}

func TestEvaluator_EvaluateWeek_eightDayPattern(t *testing.T) {
	f := newFixture()
	f.rules.WeeklyLimitHours = 70
	f.rules.WeeklyWindowDays = 8
	f.evaluator = NewEvaluator(f.timeCards, f.compliance, f.rules)

	for i := 1; i <= 8; i++ {
		f.addClosedCard(day(i), 9)
	}

	weekly, err := f.evaluator.EvaluateWeek(testCtx, f.driverID, day(8))
	require.NoError(t, err)
	require.Equal(t, 8, weekly.WindowDays)
	require.InDelta(t, 72, weekly.OnDutyHours, 0.001)
	require.True(t, weekly.Exceeded)
}
