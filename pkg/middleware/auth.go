package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHeaderMiddleware rejects requests that carry neither an Authorization
// header nor an apikey header. It does not validate the credential itself;
// the gateway in front of this service does that. The error body mirrors
// what dashboard clients already expect from the previous deployment.
func AuthHeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" && c.GetHeader("apikey") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Missing authorization header",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
