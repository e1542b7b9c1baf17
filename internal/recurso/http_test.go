package recurso

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/cultura/internal/auth"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
)

type caller struct {
	subject string
	roles   []string
}

var (
	dono   = caller{"u-prop", []string{auth.RoleProponente}}
	outro  = caller{"u-outro", []string{auth.RoleProponente}}
	gestor = caller{"u-gestor", []string{auth.RoleGestor}}
)

func serve(t *testing.T, r http.Handler, who caller, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := httpmiddleware.WithClaims(req.Context(), who.subject, who.roles, []string{cidade})
	req = req.WithContext(httpmiddleware.SetCity(ctx, cidade))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeRecurso(t *testing.T, rec *httptest.ResponseRecorder) Recurso {
	t.Helper()
	var body struct {
		Data struct {
			Recurso Recurso `json:"recurso"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data.Recurso
}

func TestHandlerAppealFlow(t *testing.T) {
	svc, _, projetos, projetoID := newFixture()
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	rec := serve(t, r, outro, http.MethodPost, "/projetos/"+projetoID.String()+"/recursos", `{"justificativa":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, r, dono, http.MethodPost, "/projetos/"+projetoID.String()+"/recursos", `{"justificativa":"Nota do critério 2 ignorou o anexo."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	aberto := decodeRecurso(t, rec)
	path := "/recursos/" + aberto.ID.String()

	rec = serve(t, r, dono, http.MethodPost, "/projetos/"+projetoID.String()+"/recursos", `{"justificativa":"de novo"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, r, outro, http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, r, dono, http.MethodPost, path+"/mensagens", `{"corpo":"Segue a planilha."}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(t, r, dono, http.MethodPatch, path, `{"status":"deferido","parecer":"ok"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, r, gestor, http.MethodPatch, path, `{"status":"deferido"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, r, gestor, http.MethodPatch, path, `{"status":"deferido","parecer":"Anexo considerado."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, StatusDeferido, decodeRecurso(t, rec).Status)
	assert.True(t, projetos.resolved[projetoID])

	rec = serve(t, r, gestor, http.MethodPatch, path, `{"status":"indeferido","parecer":"mudou"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, r, dono, http.MethodGet, path+"/mensagens", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs struct {
		Data struct {
			Mensagens []Mensagem `json:"mensagens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs.Data.Mensagens, 2)
	assert.Equal(t, AutorProponente, msgs.Data.Mensagens[0].AutorTipo)
	assert.Equal(t, AutorSistema, msgs.Data.Mensagens[1].AutorTipo)
}

func TestHandlerListScopesByAuthor(t *testing.T) {
	svc, _, _, projetoID := newFixture()
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	rec := serve(t, r, dono, http.MethodPost, "/projetos/"+projetoID.String()+"/recursos", `{"justificativa":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	count := func(who caller) int {
		rec := serve(t, r, who, http.MethodGet, "/recursos", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data struct {
				Recursos []Recurso `json:"recursos"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return len(body.Data.Recursos)
	}

	assert.Equal(t, 1, count(dono))
	assert.Equal(t, 0, count(outro))
	assert.Equal(t, 1, count(gestor))

	rec = serve(t, r, gestor, http.MethodGet, "/recursos?projeto_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(t, r, gestor, http.MethodGet, "/recursos/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
