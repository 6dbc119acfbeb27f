package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// Identity 可选的 Bearer 认证：没带 token 放行，带了就必须有效，并注入 user_id / role
func Identity(tokens *pkg.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization format"})
			return
		}

		claims, err := tokens.ParseAccess(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// AdminRequired X-Admin-Token 匹配或 token 角色为 admin
func AdminRequired(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken != "" {
			given := c.GetHeader("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(given), []byte(adminToken)) == 1 {
				c.Next()
				return
			}
		}
		if role, ok := c.Get(ContextRoleKey); ok && role == model.RoleAdmin {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
	}
}

// CurrentUserID token 中的用户 ID，未认证时返回 false
func CurrentUserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
