package dashboard_test

import (
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/dashboard"
	"github.com/2beens/fittrack/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func at(hours int) time.Time {
	return t0.Add(time.Duration(hours) * time.Hour)
}

func TestTotals(t *testing.T) {
	assert.Equal(t, 350, dashboard.TotalCaloriesBurned([]users.Workout{{Calories: 100}, {Calories: 250}}))
	assert.Equal(t, 75, dashboard.TotalMinutes([]users.Workout{{Duration: 30}, {Duration: 45}}))
	assert.Equal(t, 1800, dashboard.TotalCaloriesConsumed([]users.Meal{{Calories: 600}, {Calories: 1200}}))
	assert.Equal(t, 0, dashboard.TotalCaloriesBurned(nil))
	assert.Equal(t, 0, dashboard.TotalCaloriesConsumed([]users.Meal{}))
}

func TestBalance(t *testing.T) {
	balance, kind := dashboard.Balance(1800, 500)
	assert.Equal(t, 1300, balance)
	assert.Equal(t, dashboard.Surplus, kind)

	balance, kind = dashboard.Balance(400, 900)
	assert.Equal(t, -500, balance)
	assert.Equal(t, dashboard.Deficit, kind)

	balance, kind = dashboard.Balance(700, 700)
	assert.Equal(t, 0, balance)
	assert.Equal(t, dashboard.Deficit, kind)
}

func TestRecentWorkouts(t *testing.T) {
	// appended out of order on purpose
	workouts := []users.Workout{
		{Timestamp: at(3), Detail: "T3"},
		{Timestamp: at(1), Detail: "T1"},
		{Timestamp: at(5), Detail: "T5"},
		{Timestamp: at(2), Detail: "T2"},
		{Timestamp: at(4), Detail: "T4"},
	}

	recent := dashboard.RecentWorkouts(workouts, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "T5", recent[0].Detail)
	assert.Equal(t, "T4", recent[1].Detail)
	assert.Equal(t, "T3", recent[2].Detail)
	// input is left untouched
	assert.Equal(t, "T3", workouts[0].Detail)

	recent = dashboard.RecentWorkouts(workouts[:2], 3)
	require.Len(t, recent, 2)
	assert.Equal(t, "T3", recent[0].Detail)
	assert.Equal(t, "T1", recent[1].Detail)

	assert.Empty(t, dashboard.RecentWorkouts(nil, 3))
}

func TestRecentMeals_TiesKeepInsertionOrder(t *testing.T) {
	meals := []users.Meal{
		{Timestamp: at(1), Description: "a"},
		{Timestamp: at(2), Description: "b"},
		{Timestamp: at(2), Description: "c"},
		{Timestamp: at(2), Description: "d"},
	}

	recent := dashboard.RecentMeals(meals, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "b", recent[0].Description)
	assert.Equal(t, "c", recent[1].Description)
	assert.Equal(t, "d", recent[2].Description)
}

func TestSummarize(t *testing.T) {
	weight := 82.4
	progress := users.Progress{
		Weight: &weight,
		Workouts: []users.Workout{
			{Timestamp: at(4), Detail: "run", Duration: 30, Calories: 300},
			{Timestamp: at(1), Detail: "walk", Duration: 45, Calories: 200},
		},
		Meals: []users.Meal{
			{Timestamp: at(2), Description: "lunch", Calories: 1000, Protein: 40, Carbs: 120, Fat: 30},
			{Timestamp: at(3), Description: "dinner", Calories: 800, Protein: 35.5, Carbs: 60, Fat: 25},
		},
	}

	s := dashboard.Summarize(progress)
	assert.Equal(t, 2, s.WorkoutCount)
	assert.Equal(t, 2, s.MealCount)
	assert.Equal(t, 500, s.TotalBurned)
	assert.Equal(t, 75, s.TotalMinutes)
	assert.Equal(t, 1800, s.TotalConsumed)
	assert.Equal(t, 1300, s.Balance)
	assert.Equal(t, dashboard.Surplus, s.BalanceKind)
	assert.InDelta(t, 75.5, s.TotalProtein, 0.0001)
	assert.InDelta(t, 180.0, s.TotalCarbs, 0.0001)
	assert.InDelta(t, 55.0, s.TotalFat, 0.0001)
	assert.Equal(t, 82.4, *s.Weight)
	assert.Nil(t, s.Measurements)

	require.NotNil(t, s.LastWorkout)
	assert.Equal(t, "walk", s.LastWorkout.Detail)
	assert.Equal(t, at(1), s.LastWorkoutTime())
	require.NotNil(t, s.LastMeal)
	assert.Equal(t, "dinner", s.LastMeal.Description)

	require.Len(t, s.RecentWorkouts, 2)
	assert.Equal(t, "run", s.RecentWorkouts[0].Detail)
}

func TestSummarize_Empty(t *testing.T) {
	s := dashboard.Summarize(users.NewProgress())
	assert.Zero(t, s.WorkoutCount)
	assert.Zero(t, s.Balance)
	assert.Equal(t, dashboard.Deficit, s.BalanceKind)
	assert.Nil(t, s.LastWorkout)
	assert.Nil(t, s.LastMeal)
	assert.True(t, s.LastWorkoutTime().IsZero())
	assert.True(t, s.LastMealTime().IsZero())
	assert.Empty(t, s.RecentWorkouts)
	assert.Empty(t, s.RecentMeals)
}
