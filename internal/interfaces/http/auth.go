package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/timesheet-approval/internal/domain/entity"
)

const actorKey = "actor"

// Claims is the JWT payload identifying an actor
type Claims struct {
	UserID      int64       `json:"uid"`
	Login       string      `json:"login"`
	DisplayName string      `json:"name"`
	Role        entity.Role `json:"role"`
	LocationID  int64       `json:"loc,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 actor tokens
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates a new Authenticator. ttl of 0 means 12 hours.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for actor
func (a *Authenticator) Issue(actor entity.Actor) (string, error) {
	if err := validateActor(actor); err != nil {
		return "", err
	}
	now := a.now()
	claims := Claims{
		UserID:      actor.UserID,
		Login:       actor.Login,
		DisplayName: actor.DisplayName,
		Role:        actor.Role,
		LocationID:  actor.LocationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies a token and returns its actor
func (a *Authenticator) Parse(tokenString string) (entity.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return entity.Actor{}, err
	}

	actor := entity.Actor{
		UserID:      claims.UserID,
		Login:       claims.Login,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
		LocationID:  claims.LocationID,
	}
	if err := validateActor(actor); err != nil {
		return entity.Actor{}, err
	}
	return actor, nil
}

func validateActor(actor entity.Actor) error {
	switch actor.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleClient:
		if actor.LocationID == 0 {
			return errors.New("client actors need a location")
		}
		return nil
	}
	return fmt.Errorf("unknown role %q", actor.Role)
}

// Middleware rejects requests without a valid bearer token
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "missing bearer token"})
			return
		}
		actor, err := a.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "invalid token"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAdmin rejects non-administrators
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{Error: "administrator access required"})
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
