package proponente

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
)

func newRouter(svc *Service, subject string, roles ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := httpmiddleware.WithClaims(req.Context(), subject, roles, nil)
			ctx = httpmiddleware.SetCity(ctx, "c1")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestProponenteHandlers(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, extract.Default(), zerolog.Nop())
	ownID, _ := store.Insert(context.Background(), Collection, "c1", docstore.Record{"tipo": "fisica", "userId": "u-1", "nomeCompleto": "Ana"})
	otherID, _ := store.Insert(context.Background(), Collection, "c1", docstore.Record{"tipo": "fisica", "userId": "u-2", "nomeCompleto": "Bia"})

	proponente := newRouter(svc, "u-1", "PROPONENTE")
	gestor := newRouter(svc, "g-1", "GESTOR")

	tests := []struct {
		name     string
		router   http.Handler
		method   string
		path     string
		body     string
		status   int
		contains string
	}{
		{"create", proponente, http.MethodPost, "/proponentes/", `{"tipo":"coletivo","dados":{"dadosColetivo":{"nomeColetivo":"Reisado"}}}`, http.StatusCreated, "Reisado"},
		{"create-tipo-invalido", proponente, http.MethodPost, "/proponentes/", `{"tipo":"mei","dados":{"a":1}}`, http.StatusBadRequest, "VALIDATION"},
		{"create-json-invalido", proponente, http.MethodPost, "/proponentes/", `{`, http.StatusBadRequest, "JSON inválido"},
		{"list-proprio", proponente, http.MethodGet, "/proponentes/?q=bia", "", http.StatusOK, `"proponentes":[]`},
		{"list-gestor", gestor, http.MethodGet, "/proponentes/?q=bia", "", http.StatusOK, otherID},
		{"get-proprio", proponente, http.MethodGet, "/proponentes/" + ownID, "", http.StatusOK, `"nome":"Ana"`},
		{"get-alheio", proponente, http.MethodGet, "/proponentes/" + otherID, "", http.StatusForbidden, "FORBIDDEN"},
		{"get-inexistente", gestor, http.MethodGet, "/proponentes/nada", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body *strings.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			rec := httptest.NewRecorder()
			tc.router.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.contains) {
				t.Fatalf("resposta sem %q: %s", tc.contains, rec.Body.String())
			}
		})
	}
}
