package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/middleware"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/service/appointment"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *appointment.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/appointments", h.authMW.Authenticate())
	{
		grp.POST("", h.authMW.RequireRole(model.RolePatient), h.Book)
		grp.GET("", h.List)
		grp.GET("/upcoming", h.Upcoming)
		grp.GET("/today", h.authMW.RequireRole(model.RoleDoctor), h.Today)
		grp.GET("/stats", h.Stats)
		grp.GET("/slots", h.AvailableSlots)
		grp.GET("/:id", h.Get)
		grp.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) Book(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	appt, err := h.service.Book(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid appointment ID", err))
		return
	}
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	appt, err := h.service.Get(c.Request.Context(), id, userID, role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid appointment ID", err))
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	appt, err := h.service.UpdateStatus(c.Request.Context(), id, userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

// List returns the requester's own appointments, role deciding which side of
// the relation is queried.
func (h *Handler) List(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	filters, err := filtersFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var appts []*model.Appointment
	if role == model.RoleDoctor {
		appts, err = h.service.ListForDoctor(c.Request.Context(), userID, filters)
	} else {
		appts, err = h.service.ListForPatient(c.Request.Context(), userID, filters)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) Upcoming(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	appts, err := h.service.Upcoming(c.Request.Context(), userID, role, 10)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) Today(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	appts, err := h.service.Today(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) Stats(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	stats, err := h.service.Stats(c.Request.Context(), userID, role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid doctor ID", err))
		return
	}

	day := time.Now().AddDate(0, 0, 1)
	if d := c.Query("date"); d != "" {
		day, err = time.Parse("2006-01-02", d)
		if err != nil {
			httputil.RespondWithError(c, errors.InvalidArgument("invalid date, expected YYYY-MM-DD", err))
			return
		}
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), doctorID, day, 0)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func filtersFromQuery(c *gin.Context) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}

	if s := c.Query("status"); s != "" {
		status, err := model.ParseAppointmentStatus(s)
		if err != nil {
			return nil, errors.InvalidArgument("invalid status filter", err)
		}
		filters.Status = status
	}
	if d := c.Query("from"); d != "" {
		from, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return nil, errors.InvalidArgument("invalid from filter", err)
		}
		filters.From = from
	}
	if d := c.Query("to"); d != "" {
		to, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return nil, errors.InvalidArgument("invalid to filter", err)
		}
		filters.To = to
	}
	return filters, nil
}
