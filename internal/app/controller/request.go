package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter and answers 400 when it is not one.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(repository.DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > repository.MaxPageSize {
		size = repository.DefaultPageSize
	}
	return page, size
}

func actorFromContext(c *gin.Context) service.Actor {
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetUserRole(c)
	return service.Actor{
		UserID:    userID,
		Role:      role,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func requestMeta(c *gin.Context) service.RequestMeta {
	meta := service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if userID, ok := middleware.GetUserID(c); ok {
		meta.UserID = &userID
	}
	return meta
}
