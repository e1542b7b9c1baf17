package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
	"github.com/gestaozabele/cultura/internal/mapping"
	"github.com/gestaozabele/cultura/internal/tenant"
)

type fakeFetcher struct {
	data mapping.Collections
	err  error
}

func (f *fakeFetcher) FetchCategoryData(ctx context.Context, cityID string) (mapping.Collections, error) {
	if f.err != nil {
		return mapping.EmptyCollections(), &mapping.FetchError{CityID: cityID, Err: f.err}
	}
	return f.data, nil
}

func espacos() mapping.Collections {
	c := mapping.EmptyCollections()
	c.Espacos = []docstore.Record{
		{"id": "e1", "nomeEspaco": "Casa do Cordel", "contato": map[string]any{"telefone": "86 3222-1111"}},
		{"id": "e2", "dadosEspaco": map[string]any{"nomeEspaco": "Teatro Municipal"}, "email": "teatro@x.com"},
	}
	return c
}

func TestRunExportWritesFilteredCSV(t *testing.T) {
	browser := mapping.NewBrowser(&fakeFetcher{data: espacos()}, extract.Default())

	var buf bytes.Buffer
	n, err := runExport(context.Background(), browser, "0001", "espacos", "cordel", &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,nome,email,telefone", lines[0])
	assert.Equal(t, "e1,Casa do Cordel,—,86 3222-1111", lines[1])
}

func TestRunExportErrors(t *testing.T) {
	browser := mapping.NewBrowser(&fakeFetcher{err: errors.New("timeout")}, extract.Default())

	_, err := runExport(context.Background(), browser, "0001", "teatros", "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "categoria inválida")

	_, err = runExport(context.Background(), browser, " ", "agentes", "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "--cidade")

	_, err = runExport(context.Background(), browser, "0001", "agentes", "", &bytes.Buffer{})
	assert.EqualError(t, err, mapping.FetchErrorMessage)
}

func TestRunToken(t *testing.T) {
	secret := strings.Repeat("s", 32)
	tokenFlags.subject = "gestor-1"
	tokenFlags.roles = []string{"gestor"}
	tokenFlags.cidades = []string{"0001"}
	tokenFlags.ttl = time.Minute
	defer func() { tokenFlags.roles, tokenFlags.cidades = nil, nil }()

	var buf bytes.Buffer
	require.NoError(t, runToken(secret, &buf))

	claims, err := auth.NewJWTManager(secret, time.Minute).ParseAndValidate(strings.TrimSpace(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, "gestor-1", claims.Subject)
	assert.Equal(t, []string{auth.RoleGestor}, claims.Roles)
	assert.Equal(t, []string{"0001"}, claims.Cidades)

	assert.Error(t, runToken("curto", &bytes.Buffer{}))

	tokenFlags.roles = []string{"PREFEITO"}
	assert.ErrorContains(t, runToken(secret, &bytes.Buffer{}), "papel desconhecido")
}

type stubCidades struct {
	created tenant.CreateTenantInput
	list    []tenant.Tenant
}

func (s *stubCidades) Create(ctx context.Context, input tenant.CreateTenantInput) (*tenant.Tenant, error) {
	s.created = input
	return &tenant.Tenant{ID: uuid.New(), Codigo: input.Codigo, DisplayName: input.DisplayName}, nil
}

func (s *stubCidades) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.list, nil
}

func TestRunCidadeCreate(t *testing.T) {
	defer func() { cidadeFlags.codigo, cidadeFlags.nome, cidadeFlags.settingsJSON = "", "", "" }()
	stub := &stubCidades{}

	require.Error(t, runCidadeCreate(context.Background(), stub, &bytes.Buffer{}))

	cidadeFlags.codigo = "2211209"
	cidadeFlags.nome = "São João do Piauí"
	cidadeFlags.settingsJSON = `{"corPrimaria":"#123456"}`

	var buf bytes.Buffer
	require.NoError(t, runCidadeCreate(context.Background(), stub, &buf))
	assert.Equal(t, "#123456", stub.created.Settings["corPrimaria"])
	assert.Contains(t, buf.String(), "São João do Piauí (2211209)")
}

func TestRunCidadeList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runCidadeList(context.Background(), &stubCidades{}, &buf))
	assert.Contains(t, buf.String(), "nenhum município")

	buf.Reset()
	stub := &stubCidades{list: []tenant.Tenant{{Codigo: "2211209", DisplayName: "São João do Piauí", UF: "PI", Slug: "sao-joao-do-piaui"}}}
	require.NoError(t, runCidadeList(context.Background(), stub, &buf))
	assert.Contains(t, buf.String(), "CÓDIGO")
	assert.Contains(t, buf.String(), "sao-joao-do-piaui")
}
