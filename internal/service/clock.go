package service

import (
	"math"
	"time"
)

// dayOf maps an instant onto its calendar day in the carrier's timezone,
// represented as midnight UTC so DATE columns and window arithmetic agree.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
