package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/facility-booking/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims — токен сервиса идентификации: sub — внешний идентификатор субъекта.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func CreateAccessToken(secret []byte, sub string, role model.Role, ttl time.Duration) (string, error) {
	claims := Claims{
		Sub:  sub,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseValidate(secret []byte, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Sub == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// RequesterResolver сопоставляет субъект токена с локальным пользователем.
type RequesterResolver interface {
	Resolve(ctx context.Context, externalRef string, role model.Role) (*model.User, error)
}

// JWTAuth проверяет bearer-токен и кладёт в контекст ID пользователя и роль.
func JWTAuth(secret []byte, users RequesterResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{ErrorKind: "Unauthorized", Message: "missing bearer token"})
			return
		}
		claims, err := ParseValidate(secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{ErrorKind: "Unauthorized", Message: "invalid token"})
			return
		}
		u, err := users.Resolve(c.Request.Context(), claims.Sub, model.Role(claims.Role))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(ctxUserID, u.ID)
		c.Set(ctxRole, u.Role)
		c.Next()
	}
}

func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := map[model.Role]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, _ := c.Get(ctxRole)
		role, _ := v.(model.Role)
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{ErrorKind: "Forbidden", Message: "insufficient role"})
			return
		}
		c.Next()
	}
}

func requesterID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(uuid.UUID)
	return id
}
