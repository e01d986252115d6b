package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Repo stores one row per user, progress kept as a single jsonb document.
// Every method is a single statement.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) List(ctx context.Context) (_ []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id::text, name, email, progress
			FROM public.fitness_user
			ORDER BY seq;
		`,
	)
	if err != nil {
		return nil, fmt.Errorf("users [query]: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Progress); err != nil {
			return nil, fmt.Errorf("users [rows scan]: %w", err)
		}
		user.Progress = user.Progress.Clone()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users [rows]: %w", err)
	}

	return users, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return r.scanUser(r.db.QueryRow(
		ctx,
		`
			SELECT
				id::text, name, email, progress
			FROM public.fitness_user
			WHERE id = $1;
		`,
		userID,
	))
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", user.ID))

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}

	return r.scanUser(r.db.QueryRow(
		ctx,
		`
			INSERT INTO public.fitness_user (id, name, email, progress)
			VALUES ($1, $2, $3, $4)
			RETURNING id::text, name, email, progress;
		`,
		userID,
		user.Name,
		user.Email,
		user.Progress.Clone(),
	))
}

func (r *Repo) Update(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", user.ID))

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return r.scanUser(r.db.QueryRow(
		ctx,
		`
			UPDATE public.fitness_user
			SET name = $2, email = $3, progress = $4
			WHERE id = $1
			RETURNING id::text, name, email, progress;
		`,
		userID,
		user.Name,
		user.Email,
		user.Progress.Clone(),
	))
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrUserNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM public.fitness_user WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *Repo) AppendWorkout(ctx context.Context, id string, workout Workout) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.append_workout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	return r.appendEntry(ctx, id, "workouts", workout)
}

func (r *Repo) AppendMeal(ctx context.Context, id string, meal Meal) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.append_meal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	return r.appendEntry(ctx, id, "meals", meal)
}

// appendEntry concatenates entry to the progress array in one UPDATE, so two
// concurrent appends on the same user both end up in the document.
func (r *Repo) appendEntry(ctx context.Context, id, field string, entry any) (*User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return r.scanUser(r.db.QueryRow(
		ctx,
		`
			UPDATE public.fitness_user
			SET progress = jsonb_set(
				progress,
				ARRAY[$2::text],
				COALESCE(progress->$2::text, '[]'::jsonb) || jsonb_build_array($3::jsonb)
			)
			WHERE id = $1
			RETURNING id::text, name, email, progress;
		`,
		userID,
		field,
		entry,
	))
}

func (r *Repo) scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Progress); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user [row scan]: %w", err)
	}
	user.Progress = user.Progress.Clone()
	return &user, nil
}
