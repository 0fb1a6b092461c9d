package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Zarutan454/website-Template-sub013/internal/middleware"
	"github.com/Zarutan454/website-Template-sub013/internal/models"
	"github.com/Zarutan454/website-Template-sub013/internal/service"
	"github.com/Zarutan454/website-Template-sub013/pkg/logger"
)

// MiningHandler exposes the engine to the web front-end.
type MiningHandler struct {
	mining   service.MiningServiceInterface
	validate *validator.Validate
	log      *logger.Logger
}

func NewMiningHandler(mining service.MiningServiceInterface, log *logger.Logger) *MiningHandler {
	return &MiningHandler{
		mining:   mining,
		validate: validator.New(),
		log:      log,
	}
}

// StartMining handles POST /api/mining/start
func (h *MiningHandler) StartMining(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.mining.StartMining(r.Context(), userID); err != nil {
		h.log.WithUserID(userID).WithError(err).Error("Failed to start mining")
		writeError(w, http.StatusBadGateway, "failed to start mining")
		return
	}

	h.Status(w, r)
}

// StopMining handles POST /api/mining/stop
func (h *MiningHandler) StopMining(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.mining.StopMining(r.Context(), userID); err != nil {
		h.log.WithUserID(userID).WithError(err).Error("Failed to stop mining")
		writeError(w, http.StatusBadGateway, "failed to stop mining")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

// Status handles GET /api/mining/status
func (h *MiningHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := h.mining.Status(r.Context(), userID)
	if err != nil {
		h.log.WithUserID(userID).WithError(err).Error("Failed to read status")
		writeError(w, http.StatusInternalServerError, "failed to read status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// RecordActivity handles POST /api/mining/activity
func (h *MiningHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid activity_type")
		return
	}

	record, err := h.mining.RecordActivity(r.Context(), userID, req.ActivityType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDailyLimitReached):
			writeError(w, http.StatusTooManyRequests, "daily activity limit reached")
		case errors.Is(err, service.ErrUnknownActivityType):
			writeError(w, http.StatusUnprocessableEntity, "invalid activity_type")
		default:
			h.log.WithUserID(userID).WithError(err).Error("Failed to record activity")
			writeError(w, http.StatusInternalServerError, "failed to record activity")
		}
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// Interaction handles POST /api/mining/interaction. Non-rewarded user
// actions (scrolling, opening a panel) only reset the decay clock.
func (h *MiningHandler) Interaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.mining.RecordInteraction(userID)
	writeJSON(w, http.StatusOK, map[string]bool{"recorded": true})
}

// Activities handles GET /api/mining/activities
func (h *MiningHandler) Activities(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := h.mining.RecentActivities(r.Context(), userID)
	if err != nil {
		h.log.WithUserID(userID).WithError(err).Error("Failed to list activities")
		writeError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// ActivityCount handles GET /api/mining/activities/count?type=
func (h *MiningHandler) ActivityCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	activityType := r.URL.Query().Get("type")
	if activityType == "" {
		writeError(w, http.StatusBadRequest, "missing type parameter")
		return
	}

	count := h.mining.ActivityCountByType(r.Context(), userID, activityType)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activity_type": activityType,
		"count":         count,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
