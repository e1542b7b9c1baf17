package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/http/render"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRoles   contextKey = "roles"
	ContextKeyCidades contextKey = "cidades"
	ContextKeyCity    contextKey = "city"
)

// Auth valida o JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				render.Error(w, http.StatusUnauthorized, "AUTH", "token ausente", nil)
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				render.Error(w, http.StatusUnauthorized, "AUTH", "token inválido", nil)
				return
			}

			ctx := WithClaims(r.Context(), claims.Subject, claims.Roles, claims.Cidades)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims injeta identidade no contexto.
func WithClaims(ctx context.Context, subject string, roles, cidades []string) context.Context {
	ctx = context.WithValue(ctx, ContextKeySubject, subject)
	ctx = context.WithValue(ctx, ContextKeyRoles, roles)
	return context.WithValue(ctx, ContextKeyCidades, cidades)
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetRoles recupera roles do contexto.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyRoles).([]string)
	return val
}

// GetCidades recupera os municípios liberados no token.
func GetCidades(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyCidades).([]string)
	return val
}

// HasRole indica se o usuário do contexto possui algum dos papéis.
func HasRole(ctx context.Context, roles ...string) bool {
	for _, have := range GetRoles(ctx) {
		have = strings.ToUpper(strings.TrimSpace(have))
		for _, want := range roles {
			if have == strings.ToUpper(want) {
				return true
			}
		}
	}
	return false
}

// RequireRoles garante que o usuário possua pelo menos um dos papéis informados.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasRole(r.Context(), roles...) {
				render.Error(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff libera administração, gestão e avaliação.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRoles(auth.RoleAdmin, auth.RoleGestor, auth.RoleAvaliador)(next)
}
