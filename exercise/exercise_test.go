package exercise_test

import (
	"testing"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/exercise"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/swap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPeriods(t *testing.T) []swap.SchedulePeriod {
	t.Helper()
	periods, err := swap.GenerateSchedule(date(2020, 7, 15), date(2025, 7, 14), swap.LegConvention{
		Frequency: market.FreqQuarterly,
		DayCount:  market.Act360,
		Calendar:  calendar.TARGET,
	})
	if err != nil {
		t.Fatalf("GenerateSchedule error: %v", err)
	}
	return periods
}

func TestBermudanUsesEveryAccrualStart(t *testing.T) {
	t.Parallel()

	periods := floatPeriods(t)
	s, err := exercise.Build(market.Bermudan, periods, date(2020, 7, 15), nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(s.Dates) != len(periods) {
		t.Fatalf("dates = %d, want %d", len(s.Dates), len(periods))
	}
	for i := range s.Dates {
		if !s.Dates[i].Equal(periods[i].StartDate) {
			t.Fatalf("date %d = %s, want %s", i, s.Dates[i], periods[i].StartDate)
		}
		if i > 0 && !s.Dates[i].After(s.Dates[i-1]) {
			t.Fatalf("dates not strictly increasing at %d", i)
		}
	}
	if !s.EuropeanStart.Equal(date(2020, 7, 15)) {
		t.Fatalf("EuropeanStart = %s", s.EuropeanStart)
	}
}

func TestEuropeanKeepsFirstDate(t *testing.T) {
	t.Parallel()

	periods := floatPeriods(t)
	s, err := exercise.Build(market.European, periods, date(2020, 7, 15), nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(s.Dates) != 1 || !s.First().Equal(periods[0].StartDate) {
		t.Fatalf("European dates = %v", s.Dates)
	}
}

func TestOverrideShiftsEveryDate(t *testing.T) {
	t.Parallel()

	periods := floatPeriods(t)
	override := date(2020, 7, 5)
	s, err := exercise.Build(market.Bermudan, periods, date(2020, 7, 15), &override)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	for i := range s.Dates {
		if want := periods[i].StartDate.AddDate(0, 0, -10); !s.Dates[i].Equal(want) {
			t.Fatalf("date %d = %s, want %s", i, s.Dates[i], want)
		}
	}
	if !s.EuropeanStart.Equal(override) {
		t.Fatalf("EuropeanStart = %s, want override", s.EuropeanStart)
	}

	later := date(2020, 8, 1)
	e, err := exercise.Build(market.European, periods, date(2020, 7, 15), &later)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(e.Dates) != 1 || !e.First().Equal(later) {
		t.Fatalf("European override dates = %v", e.Dates)
	}
}

func TestBuildRejectsUnsupportedInput(t *testing.T) {
	t.Parallel()

	periods := floatPeriods(t)
	for _, style := range []market.ExerciseStyle{market.American, "ASIAN"} {
		if _, err := exercise.Build(style, periods, date(2020, 7, 15), nil); !failure.IsType(err, failure.TypeBadInput) {
			t.Fatalf("style %s: expected BAD_INPUT, got %v", style, err)
		}
	}
	if _, err := exercise.Build(market.Bermudan, nil, date(2020, 7, 15), nil); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for empty periods, got %v", err)
	}
	dup := []swap.SchedulePeriod{periods[1], periods[0]}
	if _, err := exercise.Build(market.Bermudan, dup, date(2020, 7, 15), nil); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for unordered periods, got %v", err)
	}
}
