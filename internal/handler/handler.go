package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/application"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/middleware"
	"github.com/picktoride/service-rental/internal/platform/response"
)

var staffRoles = []auth.Role{auth.RoleStaff, auth.RoleAdmin}

// actorFrom returns the authenticated caller, writing 401 when the context has none.
func actorFrom(c *gin.Context) (application.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return application.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return application.Actor{}, false
	}
	return application.Actor{UserID: userID, Role: role}, true
}

// pathID parses the :id path parameter, writing 400 when it is not a uuid.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
