package web

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/2beens/fittrack/internal/dashboard"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/users"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	TabDashboard = "dashboard"
	TabProfile   = "profile"
	TabWorkout   = "workout"
	TabMeal      = "meal"
)

var tabs = []string{TabDashboard, TabProfile, TabWorkout, TabMeal}

var errNotFinite = errors.New("not a finite number")

type usersService interface {
	List(ctx context.Context) ([]users.User, error)
	Get(ctx context.Context, id string) (*users.User, error)
	Create(ctx context.Context, input users.UserInput) (*users.User, error)
	Update(ctx context.Context, id string, input users.UserInput) (*users.User, error)
	Delete(ctx context.Context, id string) error
	AddWorkout(ctx context.Context, id string, input users.WorkoutInput) (*users.User, error)
	AddMeal(ctx context.Context, id string, input users.MealInput) (*users.User, error)
}

type tipper interface {
	RandomTip() string
}

type userForm struct {
	Name         string
	Email        string
	Weight       string
	Measurements string
}

type indexPageData struct {
	Users []users.User
	Tip   string
	Form  userForm
	Error string
}

type userPageData struct {
	User    users.User
	Summary dashboard.Summary
	Tab     string
	Tabs    []string
	Tip     string
	Error   string
}

type notFoundPageData struct {
	Message string
	Error   string
}

// Handler serves the HTML pages. It calls the same service as the JSON API.
type Handler struct {
	service   usersService
	advisor   tipper
	templates *Templates
}

func NewHandler(service usersService, advisor tipper, templates *Templates) *Handler {
	return &Handler{
		service:   service,
		advisor:   advisor,
		templates: templates,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/", handler.HandleRoot).Methods("GET").Name("root")
	router.HandleFunc("/ui", handler.HandleIndex).Methods("GET").Name("ui-index")
	router.HandleFunc("/ui/users", handler.HandleCreateUser).Methods("POST").Name("ui-create-user")
	router.HandleFunc("/ui/users/{id}", handler.HandleUserPage).Methods("GET").Name("ui-user")
	router.HandleFunc("/ui/users/{id}/profile", handler.HandleUpdateProfile).Methods("POST").Name("ui-update-profile")
	router.HandleFunc("/ui/users/{id}/workouts", handler.HandleAddWorkout).Methods("POST").Name("ui-add-workout")
	router.HandleFunc("/ui/users/{id}/meals", handler.HandleAddMeal).Methods("POST").Name("ui-add-meal")
	router.HandleFunc("/ui/users/{id}/delete", handler.HandleDeleteUser).Methods("POST").Name("ui-delete-user")
}

func (handler *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/ui", http.StatusFound)
}

func (handler *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.index")
	defer span.End()

	handler.renderIndex(ctx, w, http.StatusOK, userForm{}, "")
}

func (handler *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.create_user")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		handler.renderIndex(ctx, w, http.StatusBadRequest, userForm{}, "Invalid form submission.")
		return
	}

	form := userForm{
		Name:         strings.TrimSpace(r.PostForm.Get("name")),
		Email:        strings.TrimSpace(r.PostForm.Get("email")),
		Weight:       strings.TrimSpace(r.PostForm.Get("weight")),
		Measurements: strings.TrimSpace(r.PostForm.Get("measurements")),
	}
	if form.Name == "" {
		handler.renderIndex(ctx, w, http.StatusBadRequest, form, "Name is required.")
		return
	}

	progress := users.NewProgress()
	weight, err := parseOptionalFloat(form.Weight)
	if err != nil {
		handler.renderIndex(ctx, w, http.StatusBadRequest, form, "Weight must be a number.")
		return
	}
	progress.Weight = weight
	if form.Measurements != "" {
		progress.Measurements = &form.Measurements
	}

	user, err := handler.service.Create(ctx, users.UserInput{
		Name:     form.Name,
		Email:    form.Email,
		Progress: &progress,
	})
	if err != nil {
		status, message := errorStatus(err, "Could not create the user.")
		handler.renderIndex(ctx, w, status, form, message)
		return
	}

	redirectToTab(w, r, user.ID, TabDashboard)
}

func (handler *Handler) HandleUserPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.user")
	defer span.End()

	id := mux.Vars(r)["id"]
	tab := r.URL.Query().Get("tab")
	if !slices.Contains(tabs, tab) {
		tab = TabDashboard
	}

	user, err := handler.service.Get(ctx, id)
	if err != nil {
		handler.renderLoadError(w, id, err)
		return
	}

	handler.renderUser(w, http.StatusOK, user, tab, "")
}

// HandleUpdateProfile replaces the user document. Updates are whole-document
// replacements, so the stored workouts and meals are sent back unchanged.
func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.update_profile")
	defer span.End()

	id := mux.Vars(r)["id"]
	user, err := handler.service.Get(ctx, id)
	if err != nil {
		handler.renderLoadError(w, id, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabProfile, "Invalid form submission.")
		return
	}

	name := strings.TrimSpace(r.PostForm.Get("name"))
	if name == "" {
		handler.renderUser(w, http.StatusBadRequest, user, TabProfile, "Name is required.")
		return
	}
	weight, err := parseOptionalFloat(r.PostForm.Get("weight"))
	if err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabProfile, "Weight must be a number.")
		return
	}

	progress := user.Progress.Clone()
	progress.Weight = weight
	progress.Measurements = nil
	if measurements := strings.TrimSpace(r.PostForm.Get("measurements")); measurements != "" {
		progress.Measurements = &measurements
	}

	if _, err := handler.service.Update(ctx, id, users.UserInput{
		Name:     name,
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Progress: &progress,
	}); err != nil {
		handler.renderActionError(w, user, TabProfile, err, "Could not save the profile.")
		return
	}

	redirectToTab(w, r, id, TabDashboard)
}

func (handler *Handler) HandleAddWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.add_workout")
	defer span.End()

	id := mux.Vars(r)["id"]
	user, err := handler.service.Get(ctx, id)
	if err != nil {
		handler.renderLoadError(w, id, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabWorkout, "Invalid form submission.")
		return
	}

	input := users.WorkoutInput{Detail: strings.TrimSpace(r.PostForm.Get("detail"))}
	if input.Duration, err = parseInt(r.PostForm.Get("duration")); err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabWorkout, "Duration must be a whole number.")
		return
	}
	if input.Calories, err = parseInt(r.PostForm.Get("calories")); err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabWorkout, "Calories must be a whole number.")
		return
	}

	if _, err := handler.service.AddWorkout(ctx, id, input); err != nil {
		handler.renderActionError(w, user, TabWorkout, err, "Could not add the workout.")
		return
	}

	redirectToTab(w, r, id, TabDashboard)
}

func (handler *Handler) HandleAddMeal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.add_meal")
	defer span.End()

	id := mux.Vars(r)["id"]
	user, err := handler.service.Get(ctx, id)
	if err != nil {
		handler.renderLoadError(w, id, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabMeal, "Invalid form submission.")
		return
	}

	input := users.MealInput{Description: strings.TrimSpace(r.PostForm.Get("description"))}
	if input.Calories, err = parseInt(r.PostForm.Get("calories")); err != nil {
		handler.renderUser(w, http.StatusBadRequest, user, TabMeal, "Calories must be a whole number.")
		return
	}
	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"protein", &input.Protein},
		{"carbs", &input.Carbs},
		{"fat", &input.Fat},
	} {
		if *field.dst, err = parseFloat(r.PostForm.Get(field.name)); err != nil {
			handler.renderUser(w, http.StatusBadRequest, user, TabMeal, fmt.Sprintf("%s must be a number.", capitalize(field.name)))
			return
		}
	}

	if _, err := handler.service.AddMeal(ctx, id, input); err != nil {
		handler.renderActionError(w, user, TabMeal, err, "Could not add the meal.")
		return
	}

	redirectToTab(w, r, id, TabDashboard)
}

func (handler *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.web.delete_user")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := handler.service.Delete(ctx, id); err != nil {
		handler.renderLoadError(w, id, err)
		return
	}

	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

func (handler *Handler) renderIndex(ctx context.Context, w http.ResponseWriter, status int, form userForm, errMessage string) {
	list, err := handler.service.List(ctx)
	if err != nil {
		log.Errorf("ui: list users: %s", err)
		list = []users.User{}
		if errMessage == "" {
			errMessage = "Could not load the users."
			status = http.StatusInternalServerError
		}
	}

	handler.render(w, status, "index.html", indexPageData{
		Users: list,
		Tip:   handler.advisor.RandomTip(),
		Form:  form,
		Error: errMessage,
	})
}

func (handler *Handler) renderUser(w http.ResponseWriter, status int, user *users.User, tab, errMessage string) {
	handler.render(w, status, "user.html", userPageData{
		User:    *user,
		Summary: dashboard.Summarize(user.Progress),
		Tab:     tab,
		Tabs:    tabs,
		Tip:     handler.advisor.RandomTip(),
		Error:   errMessage,
	})
}

// renderActionError keeps the page as it was before the failed action and shows the error on top.
func (handler *Handler) renderActionError(w http.ResponseWriter, user *users.User, tab string, err error, fallback string) {
	if errors.Is(err, users.ErrUserNotFound) {
		handler.renderLoadError(w, user.ID, err)
		return
	}
	status, message := errorStatus(err, fallback)
	handler.renderUser(w, status, user, tab, message)
}

func (handler *Handler) renderLoadError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, users.ErrUserNotFound) {
		log.Debugf("ui: user [%s] not found", id)
		handler.render(w, http.StatusNotFound, "not_found.html", notFoundPageData{
			Message: "This user does not exist.",
		})
		return
	}

	log.Errorf("ui: load user [%s]: %s", id, err)
	handler.render(w, http.StatusInternalServerError, "not_found.html", notFoundPageData{
		Message: "Something went wrong.",
		Error:   "Could not load the user.",
	})
}

func (handler *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	if err := handler.templates.Render(w, status, name, data); err != nil {
		log.Errorf("ui: render %s: %s", name, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func errorStatus(err error, fallback string) (int, string) {
	if errors.Is(err, users.ErrInvalidInput) {
		message := err.Error()
		if _, detail, found := strings.Cut(message, users.ErrInvalidInput.Error()+": "); found {
			message = detail
		}
		return http.StatusBadRequest, capitalize(message) + "."
	}
	log.Errorf("ui: %s", err)
	return http.StatusInternalServerError, fallback
}

func redirectToTab(w http.ResponseWriter, r *http.Request, id, tab string) {
	target := fmt.Sprintf("/ui/users/%s?tab=%s", url.PathEscape(id), url.QueryEscape(tab))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func parseInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseFloat(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func parseOptionalFloat(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := parseFloat(value)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
