package symptom

import (
	"github.com/gin-gonic/gin"

	"github.com/smarthealth/healthconnect-api/internal/service/symptom"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

type Handler struct {
	checker *symptom.Checker
}

func NewHandler(checker *symptom.Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/symptoms")
	{
		grp.GET("", h.List)
		grp.POST("/check", h.Check)
	}
}

func (h *Handler) List(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.checker.Symptoms())
}

type checkRequest struct {
	Description string `json:"description" binding:"required,max=2000"`
}

func (h *Handler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, h.checker.Check(req.Description))
}
