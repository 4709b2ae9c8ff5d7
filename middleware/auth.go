package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/arjun-kv/CivicMinutes/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer token and stores the caller's identity
// and role in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handleAuthError(c, "Authorization token not provided")
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			handleAuthError(c, "Invalid Authorization header format")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			handleAuthError(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Invalid token claims")
			return
		}

		role, err := models.ParseRole(fmt.Sprint(claims["role"]))
		if err != nil {
			handleAuthError(c, "Unknown role")
			return
		}

		c.Set("user_id", fmt.Sprint(claims["sub"]))
		c.Set("username", fmt.Sprint(claims["username"]))
		c.Set("role", string(role))
		c.Next()
	}
}

// RequireRole gates a route to the given roles. Unauthorized callers get a
// rejection, never a silent no-op.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := models.Role(c.GetString("role"))
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions for this action"})
		c.Abort()
	}
}

// RequireAdministrative gates a route to dpo and collector users.
func RequireAdministrative() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !models.Role(c.GetString("role")).IsAdministrative() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Administrative role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func handleAuthError(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}
