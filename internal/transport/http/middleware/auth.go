package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/pkg/auth"
	"github.com/iamasit07/connect4-engine/pkg/httputil"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

// ClaimsKey is the gin context key holding the validated *auth.TableClaims.
const ClaimsKey = "table_claims"

// TableAuth requires a table token issued for the table named by the :id path param.
func TableAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !uid.IsTableID(c.Param("id")) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Table not found", "code": "table_not_found"})
			return
		}

		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "unauthorized"})
			return
		}

		claims, err := auth.ValidateForTable(secret, tokenString, c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "unauthorized"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
