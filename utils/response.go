package utils

import "github.com/gin-gonic/gin"

// RespondWithError aborts with {"error": message}.
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// RespondWithFieldErrors aborts with a per-field error map.
func RespondWithFieldErrors(c *gin.Context, status int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "fields": fields})
}
