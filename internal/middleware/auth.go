package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"draws-api/pkg/errors"
	"draws-api/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// OperatorContextKey is the key for operator identity in context
	OperatorContextKey ContextKey = "operator"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// Operator is the authenticated admin identity attached to a request
type Operator struct {
	ID   string
	Role string
}

// OperatorClaims are the JWT claims issued to draw operators
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorAuth creates the operator authentication middleware. Operator
// tokens are first-party HS256 JWTs issued by the admin auth service;
// authorization semantics beyond identity stay out of the core.
func OperatorAuth(secret string, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			claims := &OperatorClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.WithError(err).Error("Operator token validation failed")
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			if claims.Subject == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token has no subject"), logger)
				return
			}

			operator := &Operator{ID: claims.Subject, Role: claims.Role}
			ctx := context.WithValue(r.Context(), OperatorContextKey, operator)
			r = r.WithContext(ctx)

			logger.WithField("operator_id", operator.ID).Debug("Operator authenticated successfully")

			next.ServeHTTP(w, r)
		})
	}
}

// OperatorFromContext returns the authenticated operator, if any
func OperatorFromContext(ctx context.Context) *Operator {
	op, _ := ctx.Value(OperatorContextKey).(*Operator)
	return op
}

// RequestID creates a middleware that assigns each request an id
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Generate request ID (simple timestamp-based for now)
			requestID := generateRequestID()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			r = r.WithContext(ctx)

			w.Header().Set("X-Request-ID", requestID)

			logger = logger.WithField("request_id", requestID)

			next.ServeHTTP(w, r)
		})
	}
}

// generateRequestID generates a simple request ID
func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Error("Request error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
