package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// adminClaimsKey is the gin context key holding validated admin claims.
const adminClaimsKey = "admin_claims"

// AdminClaims is the JWT payload the admin endpoints require.
type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTAuth guards the /api/admin group. Requests need a bearer token signed
// with the shared secret using HMAC.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token de autorización requerido."})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims := &AdminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido o expirado."})
			return
		}

		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

// AdminClaimsFrom returns the validated claims set by JWTAuth.
func AdminClaimsFrom(c *gin.Context) (*AdminClaims, bool) {
	v, ok := c.Get(adminClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*AdminClaims)
	return claims, ok
}

// IssueAdminToken signs a token for username, valid for ttl. Used by
// operational tooling to mint admin credentials.
func IssueAdminToken(secret, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
