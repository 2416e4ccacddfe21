package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maternal-survey/survey-api/internal/httputil"
	"github.com/maternal-survey/survey-api/internal/logging"
)

type userIDKey struct{}

// Claims are the JWT claims issued by the auth endpoints.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer identifies tokens minted by this gateway.
const TokenIssuer = "maternal-survey-api"

// tokenTTL is how long an issued token stays valid.
const tokenTTL = 24 * time.Hour

// IssueToken mints an HS256 token for the given user.
func IssueToken(secret []byte, userID, email string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    TokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AuthMiddleware validates Bearer tokens on protected routes.
type AuthMiddleware struct {
	secret []byte
	logger *logging.Logger
}

// NewAuthMiddleware creates a JWT authentication middleware.
func NewAuthMiddleware(secret []byte, logger *logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: secret, logger: logger}
}

// Handler returns the middleware handler. Failures flow through the terminal
// error handler as 401s.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, r, m.logger, httputil.NewError(http.StatusUnauthorized, "missing authorization"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteError(w, r, m.logger, httputil.NewError(http.StatusUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.logger.ForRequest(r.Context()).WithError(err).Warn("token validation failed")
			httputil.WriteError(w, r, m.logger, httputil.NewError(http.StatusUnauthorized, "invalid token").Wrap(err))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GetUserID extracts the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}
