package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func getHome(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "Exchange Platform API v1"})
}

// operatorID identifies the acting operator for audit stamps. Upstream
// gateways inject the header; absent that, actions are attributed to system.
func operatorID(c *gin.Context) string {
	if id := c.GetHeader("X-Operator-ID"); id != "" {
		return id
	}
	return "system"
}
