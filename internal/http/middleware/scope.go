package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/http/render"
	"github.com/gestaozabele/cultura/internal/tenant"
)

// CityLookup confirma a existência de um município pelo código.
type CityLookup interface {
	GetByCodigo(ctx context.Context, codigo string) (*tenant.Tenant, error)
}

// CityScope valida o município ativo (X-Cidade ou ?cidade=) e o injeta no
// contexto. Sem usuário autenticado, basta o município existir; com usuário,
// o token precisa liberar o município, exceto para ADMIN e PROPONENTE.
func CityScope(cities CityLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := strings.TrimSpace(r.Header.Get("X-Cidade"))
			if code == "" {
				code = strings.TrimSpace(r.URL.Query().Get("cidade"))
			}
			if code == "" {
				render.Error(w, http.StatusBadRequest, "VALIDATION", "cidade não informada", nil)
				return
			}

			if _, err := cities.GetByCodigo(r.Context(), code); err != nil {
				if errors.Is(err, tenant.ErrNotFound) {
					render.Error(w, http.StatusNotFound, "NOT_FOUND", "cidade não encontrada", nil)
					return
				}
				render.Internal(w, err, "city_scope")
				return
			}

			if GetSubject(r.Context()) != "" && !cityAllowed(r.Context(), code) {
				render.Error(w, http.StatusForbidden, "FORBIDDEN", "sem acesso a esta cidade", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetCity(r.Context(), code)))
		})
	}
}

func cityAllowed(ctx context.Context, code string) bool {
	if HasRole(ctx, auth.RoleAdmin, auth.RoleProponente) {
		return true
	}
	for _, allowed := range GetCidades(ctx) {
		if strings.EqualFold(strings.TrimSpace(allowed), code) {
			return true
		}
	}
	return false
}

// SetCity injeta o município ativo no contexto.
func SetCity(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ContextKeyCity, code)
}

// GetCity retorna o município ativo do contexto.
func GetCity(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyCity).(string)
	return val
}
