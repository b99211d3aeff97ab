package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// Envelope is the JSON body shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Meta carries pagination details.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes 200 with items and pagination meta.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

// BadRequest writes 400 with a validation error.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Error: &ErrorBody{Code: string(domain.CodeValidation), Message: message},
	})
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
		Error: &ErrorBody{Code: "unauthorized", Message: message},
	})
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{
		Error: &ErrorBody{Code: string(domain.CodeForbidden), Message: message},
	})
}

// Error maps err to an HTTP status. Non-business errors become 500 without leaking details.
func Error(c *gin.Context, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Envelope{
			Error: &ErrorBody{Code: "internal_error", Message: "internal server error"},
		})
		return
	}
	c.JSON(StatusFor(appErr.Code), Envelope{
		Error: &ErrorBody{Code: string(appErr.Code), Message: appErr.Message, Field: appErr.Field},
	})
}

// StatusFor returns the HTTP status for a business error code.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeInvalidState, domain.CodeConflict, domain.CodeResourceUnavailable, domain.CodeAlreadyConfirmed:
		return http.StatusConflict
	case domain.CodeCodeMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
