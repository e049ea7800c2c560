package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kiez-net/kiez/internal/domain"
	jwt_internal "github.com/kiez-net/kiez/internal/jwt"
	"github.com/kiez-net/kiez/internal/utils"
)

// Key to store the user claims in the request context
type key int

const UserClaimsKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService    jwt_internal.JwtService
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, secureCookies bool) *Auth {
	return &Auth{jwtService: jwtService, secureCookies: secureCookies}
}

// NeedAuth returns middleware that requires authentication
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly returns middleware that requires a global admin
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// OptionalAuth populates user context if a valid token is present, but never rejects
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := a.extractUser(r)
			if user != nil {
				ctx := context.WithValue(r.Context(), UserClaimsKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// extractUser extracts and validates the user from the JWT in cookie or header.
func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	uidFloat, ok := claims["uid"].(float64)
	if !ok {
		return nil, errInvalidClaims
	}
	email, ok := claims["email"].(string)
	if !ok {
		return nil, errInvalidClaims
	}
	isAdmin, ok := claims["admin"].(bool)
	if !ok {
		return nil, errInvalidClaims
	}

	return &domain.User{Id: int64(uidFloat), Email: email, Admin: isAdmin}, nil
}

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Nicht autorisiert", http.StatusUnauthorized)
				case errInvalidClaims:
					http.Error(w, "Invalid token", http.StatusUnauthorized)
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			if adminOnly && !user.Admin {
				http.Error(w, "Nur für Admins", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext retrieves the user from the context
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
