package advice

import (
	"net/http"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
)

type TipResponse struct {
	Tip string `json:"tip"`
}

type Handler struct {
	advisor        *Advisor
	metricsManager *metrics.Manager
}

func NewHandler(advisor *Advisor, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		advisor:        advisor,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/advice", handler.HandleRandomTip).Methods("GET", "OPTIONS").Name("advice")
}

func (handler *Handler) HandleRandomTip(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.advice.random")
	defer span.End()

	tip := handler.advisor.RandomTip()
	span.SetAttributes(attribute.String("advice.tip", tip))
	handler.metricsManager.CounterTipsServed.Inc()

	pkg.WriteJSON(w, TipResponse{Tip: tip}, http.StatusOK)
}
