package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arvindrao/savaari/internal/middleware"
	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/service"
	"github.com/arvindrao/savaari/pkg/utils"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}

func (h *UserHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/me", h.Me)
}

// POST /v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	auth, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, auth)
}

// POST /v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	auth, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, auth)
}

// GET /v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if user == nil {
		utils.NotFound(w, "user")
		return
	}

	utils.Success(w, http.StatusOK, user.ToResponse())
}
