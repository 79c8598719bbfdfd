package place

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/studyspots/studyspots-api/internal/types"
)

// Handler exposes the query service endpoints over plain HTTP/JSON.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// GetNearbyCafes handles GET /cafes?lat=&lng=&address=&radius_km=&limit=.
func (h *Handler) GetNearbyCafes(w http.ResponseWriter, r *http.Request) {
	query := NearbyQuery{
		Address: r.URL.Query().Get("address"),
	}

	if v := r.URL.Query().Get("lat"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lat")
			return
		}
		query.Lat = &lat
	}
	if v := r.URL.Query().Get("lng"); v != "" {
		lng, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lng")
			return
		}
		query.Lng = &lng
	}
	if v := r.URL.Query().Get("radius_km"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			writeError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
		query.RadiusKm = radius
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = limit
	}

	results, err := h.service.NearbyCafes(r.Context(), query)
	if err != nil {
		if errors.Is(err, types.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, "need a location: lat/lng or a resolvable address")
			return
		}
		h.logger.ErrorContext(r.Context(), "nearby cafes request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if results == nil {
		results = []types.CafeResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// RequestCity handles POST /requests with {"city": ..., "email": ...}.
func (h *Handler) RequestCity(w http.ResponseWriter, r *http.Request) {
	var request types.CityRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RequestCity(r.Context(), request); err != nil {
		if errors.Is(err, types.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, "city is required")
			return
		}
		h.logger.ErrorContext(r.Context(), "city request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
