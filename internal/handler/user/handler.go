package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/middleware"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/service/user"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *user.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/users", h.authMW.Authenticate())
	{
		grp.GET("/profile", h.Profile)
		grp.PUT("/profile", h.UpdateProfile)
		grp.GET("/doctors", h.Doctors)
		grp.GET("/search", h.Search)

		staff := h.authMW.RequireRole(model.RoleDoctor, model.RoleAdmin)
		grp.GET("/patients", staff, h.Patients)
		grp.GET("/:id", staff, h.Lookup)
	}
}

func (h *Handler) Profile(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) Doctors(c *gin.Context) {
	doctors, err := h.service.Doctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) Patients(c *gin.Context) {
	patients, err := h.service.Patients(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Lookup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid user id", err))
		return
	}

	u, err := h.service.Lookup(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) Search(c *gin.Context) {
	term := c.Query("q")
	var role model.Role
	if r := c.Query("role"); r != "" {
		parsed, err := model.ParseRole(r)
		if err != nil {
			httputil.RespondWithError(c, errors.InvalidArgument("invalid role filter", err))
			return
		}
		role = parsed
	}

	results, err := h.service.Search(c.Request.Context(), term, role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, results)
}
