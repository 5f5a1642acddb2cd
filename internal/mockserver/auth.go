package mockserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in tokens.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

const (
	tokenIssuer = "quizpath-mock"
	tokenTTL    = 8 * time.Hour
	ctxUserID   = "userID"
	ctxRole     = "role"
)

// Claims are the token claims issued at login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	hmac []byte
	now  func() time.Time
}

func (a *authService) issue(u *user) (string, error) {
	now := a.now()
	claims := &Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *authService) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's id and role on the context.
func (a *authService) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Missing bearer token"})
			return
		}
		claims, err := a.parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid or expired token"})
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid token subject"})
			return
		}
		c.Set(ctxUserID, id)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) int64 { return c.GetInt64(ctxUserID) }
