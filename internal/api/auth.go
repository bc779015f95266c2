package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey struct{}

// Claims are issued by the external auth service: sub is the profile id.
type Claims struct {
	Role common.Role `json:"role"`
	jwt.RegisteredClaims
}

func WithUser(ctx context.Context, user common.CurrentUser) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

func UserFrom(ctx context.Context) (common.CurrentUser, bool) {
	user, ok := ctx.Value(contextKey{}).(common.CurrentUser)
	return user, ok
}

// ParseToken verifies an HS256 token and returns the caller it names.
func ParseToken(tokenStr string, secret []byte) (common.CurrentUser, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return common.CurrentUser{}, ErrUnauthorized("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return common.CurrentUser{}, ErrUnauthorized("invalid subject")
	}
	switch claims.Role {
	case common.RoleAdmin, common.RoleBarber, common.RoleClient:
	default:
		return common.CurrentUser{}, ErrUnauthorized("unknown role")
	}
	return common.CurrentUser{ID: id, Role: claims.Role}, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, r, ErrUnauthorized("missing bearer token"))
			return
		}
		user, err := ParseToken(strings.TrimPrefix(header, "Bearer "), s.secret)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// requireRole rejects callers with none of the given roles.
func requireRole(roles ...common.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFrom(r.Context())
			for _, role := range roles {
				if user.Is(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusForbidden, errorBody{Error: common.ErrForbidden.Error()})
		})
	}
}
