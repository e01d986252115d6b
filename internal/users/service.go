package users

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=users_mocks_test.go -package=users_test

type usersRepo interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	Add(ctx context.Context, user User) (*User, error)
	Update(ctx context.Context, user User) (*User, error)
	Delete(ctx context.Context, id string) error
	AppendWorkout(ctx context.Context, id string, workout Workout) (*User, error)
	AppendMeal(ctx context.Context, id string, meal Meal) (*User, error)
}

type Service struct {
	repo    usersRepo
	nowFunc func() time.Time
	newID   func() string
}

func NewService(repo usersRepo) *Service {
	return &Service{
		repo:    repo,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
}

// WithClock replaces the time source used to stamp new entries.
func (s *Service) WithClock(nowFunc func() time.Time) *Service {
	s.nowFunc = nowFunc
	return s
}

func (s *Service) List(ctx context.Context) (_ []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	if !validID(id) {
		return nil, ErrUserNotFound
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) Create(ctx context.Context, input UserInput) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	progress, err := s.progressFromInput(input.Progress)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Add(ctx, User{
		ID:       s.newID(),
		Name:     input.Name,
		Email:    input.Email,
		Progress: progress,
	})
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	return user, nil
}

// Update replaces the whole document. Fields left out of the input are not
// merged from the stored user; a missing progress resets it to the defaults.
func (s *Service) Update(ctx context.Context, id string, input UserInput) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	if !validID(id) {
		return nil, ErrUserNotFound
	}

	progress, err := s.progressFromInput(input.Progress)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Update(ctx, User{
		ID:       id,
		Name:     input.Name,
		Email:    input.Email,
		Progress: progress,
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	if !validID(id) {
		return ErrUserNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Service) AddWorkout(ctx context.Context, id string, input WorkoutInput) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.add_workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	if !validID(id) {
		return nil, ErrUserNotFound
	}

	workout := Workout{
		Timestamp: s.nowFunc(),
		Detail:    input.Detail,
		Duration:  input.Duration,
		Calories:  input.Calories,
	}
	if err := workout.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.AppendWorkout(ctx, id, workout)
	if err != nil {
		return nil, fmt.Errorf("append workout: %w", err)
	}
	return user, nil
}

func (s *Service) AddMeal(ctx context.Context, id string, input MealInput) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.add_meal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	if !validID(id) {
		return nil, ErrUserNotFound
	}

	meal := Meal{
		Timestamp:   s.nowFunc(),
		Description: input.Description,
		Calories:    input.Calories,
		Protein:     input.Protein,
		Carbs:       input.Carbs,
		Fat:         input.Fat,
	}
	if err := meal.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.AppendMeal(ctx, id, meal)
	if err != nil {
		return nil, fmt.Errorf("append meal: %w", err)
	}
	return user, nil
}

func (s *Service) progressFromInput(input *Progress) (Progress, error) {
	if input == nil {
		return NewProgress(), nil
	}
	if err := input.Validate(); err != nil {
		return Progress{}, err
	}
	return input.stamped(s.nowFunc()), nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
