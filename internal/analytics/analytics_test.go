package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompletionRateZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRate(0, 0))
	assert.Equal(t, 0.0, CompletionRate(5, 0))
}

func TestCompletionRateRounding(t *testing.T) {
	assert.Equal(t, 33.3, CompletionRate(1, 3))
	assert.Equal(t, 66.7, CompletionRate(2, 3))
	assert.Equal(t, 100.0, CompletionRate(3, 3))
}

func TestBuildTrendsDenseAndOrdered(t *testing.T) {
	today := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	counts := DailyCounts{
		Completed:    map[string]int{"2026-08-30": 2},
		Created:      map[string]int{"2026-08-29": 4},
		FocusSeconds: map[string]int{"2026-08-31": 3000},
	}

	trends := BuildTrends(counts, 3, today)
	assert.Len(t, trends, 3)
	assert.Equal(t, "2026-08-29", trends[0].Date)
	assert.Equal(t, "2026-08-30", trends[1].Date)
	assert.Equal(t, "2026-08-31", trends[2].Date)

	assert.Equal(t, 4, trends[0].Created)
	assert.Equal(t, 0, trends[0].Completed)
	assert.Equal(t, 2, trends[1].Completed)
	assert.Equal(t, 50, trends[2].FocusMinutes)
}

func TestBuildTrendsEmptyCounts(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	trends := BuildTrends(DailyCounts{}, 5, today)
	assert.Len(t, trends, 5)
	for _, p := range trends {
		assert.Zero(t, p.Completed)
		assert.Zero(t, p.Created)
		assert.Zero(t, p.FocusMinutes)
	}
}

func TestBuildBurndownConservation(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	completedByDay := map[string]int{
		"2026-08-29": 1,
		"2026-08-31": 2,
	}

	points := BuildBurndown(10, 3, completedByDay, 3, today)
	assert.Len(t, points, 3)

	// remaining + completed always equals the total.
	for _, p := range points {
		assert.Equal(t, 10, p.Remaining+p.Completed)
	}

	assert.Equal(t, 4, points[0].Completed)
	assert.Equal(t, 4, points[1].Completed)
	assert.Equal(t, 6, points[2].Completed)
	assert.Equal(t, 4, points[2].Remaining)
}

func TestBuildBurndownSingleDay(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	points := BuildBurndown(4, 1, map[string]int{"2026-08-31": 1}, 1, today)
	assert.Len(t, points, 1)
	assert.Equal(t, "2026-08-31", points[0].Date)
	assert.Equal(t, 2, points[0].Completed)
	assert.Equal(t, 2, points[0].Remaining)
}

func TestSortAllocations(t *testing.T) {
	allocs := []ProjectAllocation{
		{Project: "A", TotalMinutes: 10},
		{Project: "B", TotalMinutes: 40},
		{Project: "C", TotalMinutes: 25},
	}
	SortAllocations(allocs)
	assert.Equal(t, "B", allocs[0].Project)
	assert.Equal(t, "C", allocs[1].Project)
	assert.Equal(t, "A", allocs[2].Project)
}
