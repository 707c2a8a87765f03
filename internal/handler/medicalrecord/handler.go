package medicalrecord

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/middleware"
	"github.com/smarthealth/healthconnect-api/internal/model"
	"github.com/smarthealth/healthconnect-api/internal/service/medical"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

type Handler struct {
	service *medical.Service
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service *medical.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/medical-records", h.authMW.Authenticate())
	{
		grp.POST("", h.authMW.RequireRole(model.RoleDoctor), h.Create)
		grp.GET("", h.ListMine)
		grp.GET("/stats", h.Stats)
		grp.GET("/patient/:id", h.authMW.RequireRole(model.RoleDoctor, model.RoleAdmin), h.PatientHistory)
		grp.GET("/:id", h.Get)
		grp.PUT("/:id", h.authMW.RequireRole(model.RoleDoctor), h.Update)
		grp.DELETE("/:id", h.authMW.RequireRole(model.RoleDoctor, model.RoleAdmin), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	record, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, record)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid record ID", err))
		return
	}
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	record, err := h.service.Get(c.Request.Context(), id, userID, role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid record ID", err))
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	var req model.UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	record, err := h.service.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid record ID", err))
		return
	}
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	if err := h.service.Delete(c.Request.Context(), id, userID, role); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "record deleted"})
}

// ListMine returns the requester's own records: a patient's chart or a
// doctor's authored entries.
func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	filters, err := filtersFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var records []*model.MedicalRecord
	if role == model.RoleDoctor {
		records, err = h.service.ListAuthored(c.Request.Context(), userID, filters)
	} else {
		records, err = h.service.ListForPatient(c.Request.Context(), userID, filters)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) PatientHistory(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument("invalid patient ID", err))
		return
	}
	userID, _ := middleware.UserIDFromContext(c)
	role, _ := middleware.RoleFromContext(c)

	filters, err := filtersFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	records, err := h.service.ListPatientHistory(c.Request.Context(), patientID, userID, role, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
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

func filtersFromQuery(c *gin.Context) (*model.RecordFilters, error) {
	filters := &model.RecordFilters{
		SearchTerm: c.Query("q"),
	}
	if t := c.Query("type"); t != "" {
		recordType, err := model.ParseRecordType(t)
		if err != nil {
			return nil, errors.InvalidArgument("invalid record type filter", err)
		}
		filters.Type = recordType
	}
	if l := c.Query("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			return nil, errors.InvalidArgument("invalid limit", err)
		}
		filters.Limit = limit
	}
	return filters, nil
}
