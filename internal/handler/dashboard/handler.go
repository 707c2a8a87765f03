package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/smarthealth/healthconnect-api/internal/middleware"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/service/dashboard"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

type Handler struct {
	service *dashboard.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *dashboard.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/dashboard", h.authMW.Authenticate())
	{
		grp.GET("/patient", h.authMW.RequireRole(model.RolePatient), h.Patient)
		grp.GET("/doctor", h.authMW.RequireRole(model.RoleDoctor), h.Doctor)
		grp.GET("/admin", h.authMW.RequireRole(model.RoleAdmin), h.Admin)
	}
}

func (h *Handler) Patient(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	dash, err := h.service.Patient(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dash)
}

func (h *Handler) Doctor(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	dash, err := h.service.Doctor(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dash)
}

func (h *Handler) Admin(c *gin.Context) {
	dash, err := h.service.Admin(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dash)
}
