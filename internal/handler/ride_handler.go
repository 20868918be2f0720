package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/arvindrao/savaari/internal/errors"
	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/middleware"
	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/service"
	"github.com/arvindrao/savaari/pkg/utils"
)

type RideHandler struct {
	rideService     service.RideService
	estimateService service.EstimateService
	validate        *validator.Validate
}

func NewRideHandler(rideService service.RideService, estimateService service.EstimateService) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		estimateService: estimateService,
		validate:        validator.New(),
	}
}

func (h *RideHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rides/fare-estimate", h.FareEstimate)
	r.Post("/rides", h.RequestRide)
	r.Get("/rides/{id}", h.GetRide)
	r.Post("/rides/{id}/cancel", h.CancelRide)
	r.Post("/rides/{id}/status", h.UpdateStatus)
}

// POST /v1/rides/fare-estimate
func (h *RideHandler) FareEstimate(w http.ResponseWriter, r *http.Request) {
	var req models.FareEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	estimate, err := h.estimateService.Estimate(r.Context(), &req, time.Now())
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, estimate)
}

// POST /v1/rides
func (h *RideHandler) RequestRide(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	idempotencyKey := r.Header.Get(middleware.IdempotencyHeader)

	ride, err := h.rideService.RequestRide(r.Context(), userID, &req, idempotencyKey)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, ride.ToResponse())
}

// GET /v1/rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	ride, err := h.rideService.GetRide(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, ride)
}

// POST /v1/rides/{id}/cancel
func (h *RideHandler) CancelRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	var req models.CancelRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ride, err := h.rideService.CancelRide(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, ride.ToResponse())
}

// POST /v1/rides/{id}/status
func (h *RideHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	var req models.UpdateRideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ride, err := h.rideService.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, ride.ToResponse())
}

func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*apperrors.APIError); ok {
		utils.Error(w, apiErr)
		return
	}

	var confErr *fare.ConfigurationError
	if errors.As(err, &confErr) {
		utils.Error(w, apperrors.FareNotConfigured(confErr.Error()))
		return
	}

	switch err {
	case apperrors.ErrUserHasActiveRide:
		utils.Error(w, apperrors.UserHasActiveRide())
	case apperrors.ErrInvalidCredentials:
		utils.Error(w, apperrors.InvalidCredentials())
	default:
		utils.InternalError(w, "internal server error")
	}
}
