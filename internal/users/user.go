package users

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Workout is one exercise session. Immutable once appended.
type Workout struct {
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail"`
	Duration  int       `json:"duration"` // minutes
	Calories  int       `json:"calories"` // burned
}

// Meal is one food log entry. Immutable once appended.
type Meal struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Calories    int       `json:"calories"` // consumed
	Protein     float64   `json:"protein"`  // grams
	Carbs       float64   `json:"carbs"`    // grams
	Fat         float64   `json:"fat"`      // grams
}

// Progress is embedded in User and never addressed on its own.
// Workouts and Meals keep insertion order.
type Progress struct {
	Weight       *float64  `json:"weight,omitempty"` // kg
	Measurements *string   `json:"measurements,omitempty"`
	Workouts     []Workout `json:"workouts"`
	Meals        []Meal    `json:"meals"`
}

type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Progress Progress `json:"progress"`
}

// UserInput is the create/replace payload. A nil Progress means "no progress":
// on create the defaults are used, on update the stored progress is cleared.
type UserInput struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Progress *Progress `json:"progress"`
}

type WorkoutInput struct {
	Detail   string `json:"detail"`
	Duration int    `json:"duration"`
	Calories int    `json:"calories"`
}

type MealInput struct {
	Description string  `json:"description"`
	Calories    int     `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
}

func NewProgress() Progress {
	return Progress{
		Workouts: []Workout{},
		Meals:    []Meal{},
	}
}

// Clone returns a deep copy, sequences are never nil in the copy.
func (p Progress) Clone() Progress {
	c := Progress{
		Workouts: make([]Workout, len(p.Workouts)),
		Meals:    make([]Meal, len(p.Meals)),
	}
	if p.Weight != nil {
		w := *p.Weight
		c.Weight = &w
	}
	if p.Measurements != nil {
		m := *p.Measurements
		c.Measurements = &m
	}
	copy(c.Workouts, p.Workouts)
	copy(c.Meals, p.Meals)
	return c
}

// stamped returns a copy where entries without a timestamp get now.
func (p Progress) stamped(now time.Time) Progress {
	c := p.Clone()
	for i := range c.Workouts {
		if c.Workouts[i].Timestamp.IsZero() {
			c.Workouts[i].Timestamp = now
		}
	}
	for i := range c.Meals {
		if c.Meals[i].Timestamp.IsZero() {
			c.Meals[i].Timestamp = now
		}
	}
	return c
}

func (p Progress) Validate() error {
	if p.Weight != nil {
		if err := checkAmount("weight", *p.Weight); err != nil {
			return err
		}
	}
	for i, w := range p.Workouts {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("workout %d: %w", i, err)
		}
	}
	for i, m := range p.Meals {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("meal %d: %w", i, err)
		}
	}
	return nil
}

func (w Workout) Validate() error {
	if w.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	if w.Calories < 0 {
		return fmt.Errorf("%w: calories must not be negative", ErrInvalidInput)
	}
	return nil
}

func (m Meal) Validate() error {
	if m.Calories < 0 {
		return fmt.Errorf("%w: calories must not be negative", ErrInvalidInput)
	}
	for _, amount := range []struct {
		name  string
		value float64
	}{
		{"protein", m.Protein},
		{"carbs", m.Carbs},
		{"fat", m.Fat},
	} {
		if err := checkAmount(amount.name, amount.value); err != nil {
			return err
		}
	}
	return nil
}

// checkAmount rejects NaN and infinities, which cannot be encoded as json.
func checkAmount(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, name)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return nil
}

func (u User) Clone() User {
	u.Progress = u.Progress.Clone()
	return u
}
