package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arvindrao/savaari/internal/middleware"
	"github.com/arvindrao/savaari/internal/service"
	"github.com/arvindrao/savaari/pkg/utils"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/subscriptions/validate", h.Validate)
}

// POST /v1/subscriptions/validate
func (h *SubscriptionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		utils.Unauthorized(w, "authentication required")
		return
	}

	validation, err := h.subscriptionService.Validate(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, validation)
}
