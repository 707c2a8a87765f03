package httputil

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/smarthealth/healthconnect-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	Total     int `json:"total"`
	TotalPage int `json:"total_pages"`
}

// PaginatedResponse wraps paginated data
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

var statusByCode = map[errors.ErrorCode]int{
	errors.ErrNotFound:        http.StatusNotFound,
	errors.ErrConflict:        http.StatusConflict,
	errors.ErrForbidden:       http.StatusForbidden,
	errors.ErrInvalidArgument: http.StatusBadRequest,
	errors.ErrUnauthorized:    http.StatusUnauthorized,
	errors.ErrInternal:        http.StatusInternalServerError,
}

var labelByCode = map[errors.ErrorCode]string{
	errors.ErrNotFound:        "NOT_FOUND",
	errors.ErrConflict:        "CONFLICT",
	errors.ErrForbidden:       "FORBIDDEN",
	errors.ErrInvalidArgument: "INVALID_ARGUMENT",
	errors.ErrUnauthorized:    "UNAUTHORIZED",
	errors.ErrInternal:        "INTERNAL",
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an error onto the taxonomy and sends it. Messages of
// internal errors are never leaked to the client.
func RespondWithError(c *gin.Context, err error) {
	code := errors.ErrInternal
	message := "internal server error"

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}

	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    labelByCode[code],
			Message: message,
		},
	})
}

// RespondWithValidationError reports a request binding failure as 400.
// Field-level validation failures are flattened into one readable message.
func RespondWithValidationError(c *gin.Context, err error) {
	message := err.Error()

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
		}
		message = strings.Join(parts, "; ")
	}

	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Code:    labelByCode[errors.ErrInvalidArgument],
			Message: message,
		},
	})
}

// RespondWithPagination sends a paginated response
func RespondWithPagination(c *gin.Context, data interface{}, page, pageSize, total int) {
	totalPages := (total + pageSize - 1) / pageSize

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PaginatedResponse{
			Data: data,
			Pagination: Pagination{
				Page:      page,
				PageSize:  pageSize,
				Total:     total,
				TotalPage: totalPages,
			},
		},
	})
}
