package handlers

import (
	"github.com/gin-gonic/gin"
)

func ownerID(c *gin.Context) string {
	v, ok := c.Get("owner_id")
	if !ok {
		return ""
	}
	if id, ok := v.(string); ok {
		return id
	}
	return ""
}
