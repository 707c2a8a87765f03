package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/middleware"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/service/appointment"
	"github.com/smarthealth/healthconnect-api/internal/service/directory"
	"github.com/smarthealth/healthconnect-api/internal/service/user"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

// Handler exposes the admin-only management surface.
type Handler struct {
	users        *user.Service
	appointments *appointment.Service
	directory    *directory.Service
	authMW       *middleware.AuthMiddleware
}

func NewHandler(
	users *user.Service,
	appointments *appointment.Service,
	directory *directory.Service,
	authMW *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		users:        users,
		appointments: appointments,
		directory:    directory,
		authMW:       authMW,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/admin", h.authMW.Authenticate(), h.authMW.RequireRole(model.RoleAdmin))
	{
		grp.GET("/users", h.ListUsers)
		grp.GET("/users/stats", h.UserStats)
		grp.PATCH("/users/:id/activate", h.ActivateUser)
		grp.PATCH("/users/:id/deactivate", h.DeactivateUser)
		grp.DELETE("/users/:id", h.DeleteUser)

		grp.GET("/appointments", h.ListAppointments)
		grp.DELETE("/appointments/:id", h.DeleteAppointment)

		grp.POST("/doctors", h.CreateDoctor)
		grp.GET("/doctors", h.ListDoctors)
		grp.GET("/doctors/:id", h.GetDoctor)
		grp.PUT("/doctors/:id", h.UpdateDoctor)
		grp.DELETE("/doctors/:id", h.DeleteDoctor)
		grp.PATCH("/doctors/:id/patients", h.AdjustDoctorPatients)

		grp.POST("/departments", h.CreateDepartment)
		grp.GET("/departments", h.ListDepartments)
		grp.GET("/departments/:id", h.GetDepartment)
		grp.PUT("/departments/:id", h.UpdateDepartment)
		grp.DELETE("/departments/:id", h.DeleteDepartment)
		grp.PATCH("/departments/:id/doctors", h.AdjustDepartmentDoctors)
	}
}

func (h *Handler) ListUsers(c *gin.Context) {
	filters := &model.UserFilters{SearchTerm: c.Query("q")}
	if r := c.Query("role"); r != "" {
		role, err := model.ParseRole(r)
		if err != nil {
			httputil.RespondWithError(c, errors.InvalidArgument("invalid role filter", err))
			return
		}
		filters.Role = role
	}

	users, err := h.users.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) UserStats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) ActivateUser(c *gin.Context)   { h.setUserActive(c, true) }
func (h *Handler) DeactivateUser(c *gin.Context) { h.setUserActive(c, false) }

func (h *Handler) setUserActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid user ID", err))
		return
	}
	if err := h.users.SetActive(c.Request.Context(), id, active); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "is_active": active})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid user ID", err))
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "user deleted"})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseAppointmentStatus(s)
		if err != nil {
			httputil.RespondWithError(c, errors.InvalidArgument("invalid status filter", err))
			return
		}
		filters.Status = status
	}
	if d := c.Query("doctor_id"); d != "" {
		doctorID, err := uuid.Parse(d)
		if err != nil {
			httputil.RespondWithError(c, errors.InvalidArgument("invalid doctor ID", err))
			return
		}
		filters.DoctorID = doctorID
	}

	appts, err := h.appointments.AdminList(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid appointment ID", err))
		return
	}
	if err := h.appointments.AdminDelete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "appointment deleted"})
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	doctor, err := h.directory.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doctor)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.directory.ListDoctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid doctor ID", err))
		return
	}
	doctor, err := h.directory.GetDoctor(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid doctor ID", err))
		return
	}
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	doctor, err := h.directory.UpdateDoctor(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid doctor ID", err))
		return
	}
	if err := h.directory.DeleteDoctor(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "doctor deleted"})
}

type adjustCountRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *Handler) AdjustDoctorPatients(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid doctor ID", err))
		return
	}
	var req adjustCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.directory.AdjustDoctorPatients(c.Request.Context(), id, req.Delta); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "delta": req.Delta})
}

func (h *Handler) AdjustDepartmentDoctors(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid department ID", err))
		return
	}
	var req adjustCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	if err := h.directory.AdjustDepartmentDoctors(c.Request.Context(), id, req.Delta); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "delta": req.Delta})
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req model.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	dept, err := h.directory.CreateDepartment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, dept)
}

func (h *Handler) ListDepartments(c *gin.Context) {
	depts, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, depts)
}

func (h *Handler) GetDepartment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid department ID", err))
		return
	}
	dept, err := h.directory.GetDepartment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dept)
}

func (h *Handler) UpdateDepartment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid department ID", err))
		return
	}
	var req model.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	dept, err := h.directory.UpdateDepartment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dept)
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid department ID", err))
		return
	}
	if err := h.directory.DeleteDepartment(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "department deleted"})
}
