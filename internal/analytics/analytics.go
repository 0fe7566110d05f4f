package analytics

import (
	"math"
	"sort"
	"time"
)

type Overview struct {
	TotalTasks        int     `json:"total_tasks"`
	Completed         int     `json:"completed"`
	InProgress        int     `json:"in_progress"`
	Overdue           int     `json:"overdue"`
	CompletionRate    float64 `json:"completion_rate"`
	TodayCompleted    int     `json:"today_completed"`
	TodayFocusMinutes int     `json:"today_focus_minutes"`
}

type TrendPoint struct {
	Date         string `json:"date"`
	Completed    int    `json:"completed"`
	Created      int    `json:"created"`
	FocusMinutes int    `json:"focus_minutes"`
}

type BurndownPoint struct {
	Date      string `json:"date"`
	Remaining int    `json:"remaining"`
	Completed int    `json:"completed"`
}

type ProjectAllocation struct {
	Project      string `json:"project"`
	TotalMinutes int    `json:"total_minutes"`
}

type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

type TimeAllocation struct {
	ByProject  []ProjectAllocation `json:"by_project"`
	ByEnergy   []TierCount         `json:"by_energy"`
	ByPriority []TierCount         `json:"by_priority"`
}

const DateLayout = "2006-01-02"

// CompletionRate returns done/total as a percentage rounded to one decimal.
// Zero total yields zero, not an error.
func CompletionRate(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}

// DailyCounts holds per-day task and focus aggregates keyed by DateLayout.
type DailyCounts struct {
	Completed    map[string]int
	Created      map[string]int
	FocusSeconds map[string]int
}

// BuildTrends expands sparse per-day aggregates into a dense series of the
// last days entries ordered oldest to newest. Days without data show zeros.
func BuildTrends(counts DailyCounts, days int, today time.Time) []TrendPoint {
	trends := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(DateLayout)
		trends = append(trends, TrendPoint{
			Date:         date,
			Completed:    counts.Completed[date],
			Created:      counts.Created[date],
			FocusMinutes: counts.FocusSeconds[date] / 60,
		})
	}
	return trends
}

// BuildBurndown produces one point per day in [today-days+1, today].
// completedBefore counts tasks finished before the window, completedByDay
// holds per-day completions inside it. total is the current task count and is
// applied to every day; the chart does not reconstruct historical totals.
func BuildBurndown(total, completedBefore int, completedByDay map[string]int, days int, today time.Time) []BurndownPoint {
	points := make([]BurndownPoint, 0, days)
	cumulative := completedBefore
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(DateLayout)
		cumulative += completedByDay[date]
		points = append(points, BurndownPoint{
			Date:      date,
			Remaining: total - cumulative,
			Completed: cumulative,
		})
	}
	return points
}

// SortAllocations orders project allocations by total minutes, descending.
func SortAllocations(allocs []ProjectAllocation) {
	sort.SliceStable(allocs, func(i, j int) bool {
		return allocs[i].TotalMinutes > allocs[j].TotalMinutes
	})
}
