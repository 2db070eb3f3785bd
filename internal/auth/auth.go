package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
)

const principalKey = "synapse.principal"

var (
	ErrNoSecret     = errors.New("token verification is not configured")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Principal is the caller a request acts for. The zero value is anonymous.
type Principal struct {
	UserID        uuid.UUID
	Authenticated bool
}

func Anonymous() Principal { return Principal{} }

// OwnerID is the id stamped on records the principal creates.
func (p Principal) OwnerID() uuid.UUID {
	if !p.Authenticated {
		return models.AnonymousOwnerID
	}
	return p.UserID
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks an HS256 token and returns the principal named by its subject.
func (v *Verifier) Verify(tokenString string) (Principal, error) {
	if len(v.secret) == 0 {
		return Principal{}, ErrNoSecret
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return Principal{UserID: userID, Authenticated: true}, nil
}

type Middleware struct {
	log      *logger.Logger
	verifier *Verifier
}

func NewMiddleware(log *logger.Logger, verifier *Verifier) *Middleware {
	return &Middleware{log: log.With("middleware", "AuthMiddleware"), verifier: verifier}
}

// OptionalAuth attaches a principal to every request. Requests without a
// bearer token continue as anonymous; a token that fails verification is
// refused with 401.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Set(principalKey, Anonymous())
			c.Next()
			return
		}
		principal, err := m.verifier.Verify(tokenString)
		if err != nil {
			m.log.Debug("Rejected bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal set by OptionalAuth, or anonymous.
func PrincipalFrom(c *gin.Context) Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Anonymous()
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
