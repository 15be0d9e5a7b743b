package handler

import (
	"backend/internal/service"

	"github.com/gin-gonic/gin"
)

// actorFromContext builds the acting user from the JWT claims stored by the
// auth middleware.
func actorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		UserCode:   c.GetString("userCode"),
		Role:       c.GetString("userRole"),
		BranchCode: c.GetString("branchCode"),
	}
}
