package users

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users_test

type usersService interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, input UserInput) (*User, error)
	Update(ctx context.Context, id string, input UserInput) (*User, error)
	Delete(ctx context.Context, id string) error
	AddWorkout(ctx context.Context, id string, input WorkoutInput) (*User, error)
	AddMeal(ctx context.Context, id string, input MealInput) (*User, error)
}

type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type Handler struct {
	service        usersService
	metricsManager *metrics.Manager
}

func NewHandler(service usersService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/users", handler.HandleList).Methods("GET", "OPTIONS").Name("list-users")
	router.HandleFunc("/users", handler.HandleCreate).Methods("POST").Name("create-user")
	router.HandleFunc("/users/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-user")
	router.HandleFunc("/users/{id}", handler.HandleUpdate).Methods("PUT").Name("update-user")
	router.HandleFunc("/users/{id}", handler.HandleDelete).Methods("DELETE").Name("delete-user")
	router.HandleFunc("/users/{id}/workouts", handler.HandleAddWorkout).Methods("POST", "OPTIONS").Name("add-workout")
	router.HandleFunc("/users/{id}/meals", handler.HandleAddMeal).Methods("POST", "OPTIONS").Name("add-meal")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.list")
	defer span.End()

	users, err := handler.service.List(ctx)
	if err != nil {
		handler.writeServiceError(w, "list users", "", err)
		return
	}

	pkg.WriteJSON(w, users, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	user, err := handler.service.Get(ctx, id)
	if err != nil {
		handler.writeServiceError(w, "get user", id, err)
		return
	}

	pkg.WriteJSON(w, user, http.StatusOK)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.create")
	defer span.End()

	var input UserInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeDecodeError(w, "create user", "", err)
		return
	}

	user, err := handler.service.Create(ctx, input)
	if err != nil {
		handler.writeServiceError(w, "create user", "", err)
		return
	}

	handler.metricsManager.CounterUsersCreated.Inc()
	log.Debugf("user created: %s", user.ID)
	pkg.WriteJSON(w, user, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	var input UserInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeDecodeError(w, "update user", id, err)
		return
	}

	user, err := handler.service.Update(ctx, id, input)
	if err != nil {
		handler.writeServiceError(w, "update user", id, err)
		return
	}

	pkg.WriteJSON(w, user, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := handler.service.Delete(ctx, id); err != nil {
		handler.writeServiceError(w, "delete user", id, err)
		return
	}

	handler.metricsManager.CounterUsersDeleted.Inc()
	log.Debugf("user deleted: %s", id)
	pkg.WriteJSON(w, DeleteResponse{Message: "user deleted", ID: id}, http.StatusOK)
}

func (handler *Handler) HandleAddWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.add_workout")
	defer span.End()

	id := mux.Vars(r)["id"]
	var input WorkoutInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeDecodeError(w, "add workout", id, err)
		return
	}

	user, err := handler.service.AddWorkout(ctx, id, input)
	if err != nil {
		handler.writeServiceError(w, "add workout", id, err)
		return
	}

	handler.metricsManager.CounterWorkouts.Inc()
	pkg.WriteJSON(w, user, http.StatusCreated)
}

func (handler *Handler) HandleAddMeal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.add_meal")
	defer span.End()

	id := mux.Vars(r)["id"]
	var input MealInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeDecodeError(w, "add meal", id, err)
		return
	}

	user, err := handler.service.AddMeal(ctx, id, input)
	if err != nil {
		handler.writeServiceError(w, "add meal", id, err)
		return
	}

	handler.metricsManager.CounterMeals.Inc()
	pkg.WriteJSON(w, user, http.StatusCreated)
}

func (handler *Handler) writeServiceError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		log.Debugf("%s [%s]: %s", op, id, err)
		pkg.WriteJSONError(w, ErrUserNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		log.Debugf("%s [%s]: %s", op, id, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s [%s]: %s", op, id, err)
		pkg.WriteJSONError(w, op+" failed", http.StatusInternalServerError)
	}
}

var (
	errInvalidContentType = errors.New("invalid content type")
	errInvalidBody        = errors.New("invalid request body")
	errBodyTooLarge       = errors.New("request body too large")
)

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != pkg.ContentType.JSON {
			return errInvalidContentType
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return errBodyTooLarge
		}
		return errInvalidBody
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, op, id string, err error) {
	log.Debugf("%s [%s], decode body: %s", op, id, err)
	status := http.StatusBadRequest
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	pkg.WriteJSONError(w, err.Error(), status)
}
