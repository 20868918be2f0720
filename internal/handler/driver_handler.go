package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/service"
	"github.com/arvindrao/savaari/pkg/utils"
)

type DriverHandler struct {
	rideService service.RideService
	validate    *validator.Validate
}

func NewDriverHandler(rideService service.RideService) *DriverHandler {
	return &DriverHandler{
		rideService: rideService,
		validate:    validator.New(),
	}
}

func (h *DriverHandler) RegisterRoutes(r chi.Router) {
	r.Post("/drivers/{id}/location", h.UpdateLocation)
}

// POST /v1/drivers/{id}/location
func (h *DriverHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "id")
	if driverID == "" {
		utils.BadRequest(w, "driver id is required")
		return
	}

	var req models.UpdateDriverLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.rideService.UpdateDriverLocation(r.Context(), driverID, &req); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
