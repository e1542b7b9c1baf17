package projeto

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
)

func routerAs(f *fixture, subject string, roles ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := httpmiddleware.WithClaims(req.Context(), subject, roles, []string{cidade})
			ctx = httpmiddleware.SetCity(ctx, cidade)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(f.svc, 1024).RegisterRoutes(r)
	return r
}

func TestProjetoHandlers(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)
	_, err := f.svc.AssignReviewer(context.Background(), cidade, p.ID, "aval-1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	prop := routerAs(f, "u-prop", "PROPONENTE")
	outro := routerAs(f, "u-outro", "PROPONENTE")
	gestor := routerAs(f, "g-1", "GESTOR")
	aval := routerAs(f, "aval-1", "AVALIADOR")

	base := "/projetos/" + p.ID.String()
	tests := []struct {
		name     string
		router   http.Handler
		method   string
		path     string
		body     string
		status   int
		contains string
	}{
		{"create", prop, http.MethodPost, "/projetos", `{"edital_id":"` + f.editalID.String() + `","proponente_id":"` + f.proponenteID + `","titulo":"Oficina","valor":500}`, http.StatusCreated, `"etapa":"inscricao"`},
		{"create-edital-fechado", prop, http.MethodPost, "/projetos", `{"edital_id":"` + f.fechadoID.String() + `","proponente_id":"` + f.proponenteID + `","titulo":"Oficina","valor":500}`, http.StatusConflict, "CONFLICT"},
		{"create-sem-valor", prop, http.MethodPost, "/projetos", `{"edital_id":"` + f.editalID.String() + `","proponente_id":"x","titulo":"Oficina"}`, http.StatusBadRequest, "valor"},
		{"get-dono", prop, http.MethodGet, base, "", http.StatusOK, p.ID.String()},
		{"get-avaliador", aval, http.MethodGet, base, "", http.StatusOK, p.ID.String()},
		{"get-alheio", outro, http.MethodGet, base, "", http.StatusForbidden, "FORBIDDEN"},
		{"get-id-invalido", gestor, http.MethodGet, "/projetos/abc", "", http.StatusBadRequest, "id inválido"},
		{"status-sem-papel", prop, http.MethodPost, base + "/status", `{"status":"aprovado"}`, http.StatusForbidden, "FORBIDDEN"},
		{"etapa-indecisa", gestor, http.MethodPost, base + "/etapa", `{"etapa":"habilitacao"}`, http.StatusUnprocessableEntity, "WORKFLOW"},
		{"status-aprovado", gestor, http.MethodPost, base + "/status", `{"status":"aprovado"}`, http.StatusOK, `"status":"aprovado"`},
		{"etapa-avanca", gestor, http.MethodPost, base + "/etapa", `{"etapa":"habilitacao"}`, http.StatusOK, `"etapa":"habilitacao"`},
		{"etapa-desconhecida", gestor, http.MethodPost, base + "/etapa", `{"etapa":"fim"}`, http.StatusBadRequest, "VALIDATION"},
		{"notas-fora-avaliacao", aval, http.MethodPost, base + "/notas", `{"notas":[{"criterio":"mérito","valor":9}]}`, http.StatusUnprocessableEntity, "WORKFLOW"},
		{"notas-acima", aval, http.MethodPost, base + "/notas", `{"notas":[{"criterio":"mérito","valor":12}]}`, http.StatusBadRequest, "VALIDATION"},
		{"list-proprio", prop, http.MethodGet, "/projetos", "", http.StatusOK, p.ID.String()},
		{"list-outro", outro, http.MethodGet, "/projetos", "", http.StatusOK, `"projetos":[]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
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

func TestProjetoUploadHandler(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)
	prop := routerAs(f, "u-prop", "PROPONENTE")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("arquivo", "orcamento.pdf")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/projetos/"+p.ID.String()+"/documentos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	prop.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "orcamento.pdf") {
		t.Fatalf("documento sem nome: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/projetos/"+p.ID.String()+"/documentos", nil)
	rec = httptest.NewRecorder()
	prop.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "orcamento.pdf") {
		t.Fatalf("listagem inesperada %d: %s", rec.Code, rec.Body.String())
	}
}
