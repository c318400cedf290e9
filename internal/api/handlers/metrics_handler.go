package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

type MetricsHandler struct {
	metrics *services.MetricsService
}

func NewMetricsHandler(metrics *services.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func (h *MetricsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metrics.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}

// Daily returns the counter snapshot for one day; defaults to today.
func (h *MetricsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	metric, err := h.metrics.Daily(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if metric == nil {
		http.Error(w, "no metrics for that day", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metric)
}
