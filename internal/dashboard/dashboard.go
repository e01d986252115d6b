// Package dashboard derives display aggregates from a user's progress.
// Nothing here is stored; values are recomputed from the raw entries on every call.
package dashboard

import (
	"sort"
	"time"

	"github.com/2beens/fittrack/internal/users"
)

const DefaultRecentCount = 3

type BalanceKind string

const (
	Surplus BalanceKind = "surplus"
	Deficit BalanceKind = "deficit"
)

type Summary struct {
	Weight       *float64
	Measurements *string

	WorkoutCount  int
	MealCount     int
	TotalBurned   int
	TotalMinutes  int
	TotalConsumed int
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64

	Balance     int
	BalanceKind BalanceKind

	// last appended entries, not the newest timestamps
	LastWorkout *users.Workout
	LastMeal    *users.Meal

	RecentWorkouts []users.Workout
	RecentMeals    []users.Meal
}

func TotalCaloriesBurned(workouts []users.Workout) int {
	total := 0
	for _, w := range workouts {
		total += w.Calories
	}
	return total
}

func TotalMinutes(workouts []users.Workout) int {
	total := 0
	for _, w := range workouts {
		total += w.Duration
	}
	return total
}

func TotalCaloriesConsumed(meals []users.Meal) int {
	total := 0
	for _, m := range meals {
		total += m.Calories
	}
	return total
}

// Balance is consumed minus burned. Zero counts as a deficit.
func Balance(consumed, burned int) (int, BalanceKind) {
	balance := consumed - burned
	if balance > 0 {
		return balance, Surplus
	}
	return balance, Deficit
}

// RecentWorkouts returns up to n workouts, latest timestamp first.
// Equal timestamps keep their insertion order.
func RecentWorkouts(workouts []users.Workout, n int) []users.Workout {
	sorted := make([]users.Workout, len(workouts))
	copy(sorted, workouts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted[:min(n, len(sorted))]
}

// RecentMeals is RecentWorkouts for meals.
func RecentMeals(meals []users.Meal, n int) []users.Meal {
	sorted := make([]users.Meal, len(meals))
	copy(sorted, meals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted[:min(n, len(sorted))]
}

func Summarize(progress users.Progress) Summary {
	s := Summary{
		Weight:         progress.Weight,
		Measurements:   progress.Measurements,
		WorkoutCount:   len(progress.Workouts),
		MealCount:      len(progress.Meals),
		TotalBurned:    TotalCaloriesBurned(progress.Workouts),
		TotalMinutes:   TotalMinutes(progress.Workouts),
		TotalConsumed:  TotalCaloriesConsumed(progress.Meals),
		RecentWorkouts: RecentWorkouts(progress.Workouts, DefaultRecentCount),
		RecentMeals:    RecentMeals(progress.Meals, DefaultRecentCount),
	}
	s.Balance, s.BalanceKind = Balance(s.TotalConsumed, s.TotalBurned)

	for _, m := range progress.Meals {
		s.TotalProtein += m.Protein
		s.TotalCarbs += m.Carbs
		s.TotalFat += m.Fat
	}

	if n := len(progress.Workouts); n > 0 {
		last := progress.Workouts[n-1]
		s.LastWorkout = &last
	}
	if n := len(progress.Meals); n > 0 {
		last := progress.Meals[n-1]
		s.LastMeal = &last
	}

	return s
}

// LastWorkoutTime is the zero time when there are no workouts.
func (s Summary) LastWorkoutTime() time.Time {
	if s.LastWorkout == nil {
		return time.Time{}
	}
	return s.LastWorkout.Timestamp
}

func (s Summary) LastMealTime() time.Time {
	if s.LastMeal == nil {
		return time.Time{}
	}
	return s.LastMeal.Timestamp
}
