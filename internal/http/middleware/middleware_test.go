package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/tenant"
)

type cityMap map[string]bool

func (c cityMap) GetByCodigo(ctx context.Context, codigo string) (*tenant.Tenant, error) {
	if codigo == "falha" {
		return nil, errors.New("db fora")
	}
	if !c[codigo] {
		return nil, tenant.ErrNotFound
	}
	return &tenant.Tenant{Codigo: codigo}, nil
}

func echoCity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetCity(r.Context())))
	})
}

func TestCityScope(t *testing.T) {
	scope := CityScope(cityMap{"0001": true, "0002": true})

	cases := []struct {
		name    string
		target  string
		header  string
		roles   []string
		cidades []string
		want    int
		body    string
	}{
		{name: "anônimo por query", target: "/?cidade=0001", want: http.StatusOK, body: "0001"},
		{name: "header tem prioridade", target: "/?cidade=0001", header: "0002", want: http.StatusOK, body: "0002"},
		{name: "sem cidade", target: "/", want: http.StatusBadRequest},
		{name: "cidade desconhecida", target: "/?cidade=9999", want: http.StatusNotFound},
		{name: "erro de lookup", target: "/?cidade=falha", want: http.StatusInternalServerError},
		{name: "gestor liberado", target: "/?cidade=0001", roles: []string{auth.RoleGestor}, cidades: []string{"0001"}, want: http.StatusOK, body: "0001"},
		{name: "gestor de outra cidade", target: "/?cidade=0002", roles: []string{auth.RoleGestor}, cidades: []string{"0001"}, want: http.StatusForbidden},
		{name: "admin em qualquer cidade", target: "/?cidade=0002", roles: []string{auth.RoleAdmin}, want: http.StatusOK, body: "0002"},
		{name: "proponente em qualquer cidade", target: "/?cidade=0002", roles: []string{auth.RoleProponente}, want: http.StatusOK, body: "0002"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("X-Cidade", tc.header)
			}
			if tc.roles != nil {
				req = req.WithContext(WithClaims(req.Context(), "u1", tc.roles, tc.cidades))
			}
			rec := httptest.NewRecorder()
			scope(echoCity()).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAuthInjectsClaims(t *testing.T) {
	manager := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Minute)
	token, err := manager.GenerateAccessToken("avaliador-1", []string{auth.RoleAvaliador}, []string{"0001"})
	require.NoError(t, err)

	var subject string
	var staff, gestor bool
	h := Auth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
		staff = HasRole(r.Context(), auth.RoleAdmin, auth.RoleGestor, auth.RoleAvaliador)
		gestor = HasRole(r.Context(), auth.RoleGestor)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "avaliador-1", subject)
	assert.True(t, staff)
	assert.False(t, gestor)

	other := auth.NewJWTManager("outro-segredo-com-mais-de-32-caracteres", time.Minute)
	forged, err := other.GenerateAccessToken("x", []string{auth.RoleAdmin}, nil)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RequireStaff(ok)

	for roles, want := range map[string]int{
		auth.RoleAvaliador:  http.StatusOK,
		auth.RoleGestor:     http.StatusOK,
		auth.RoleProponente: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithClaims(req.Context(), "u", []string{roles}, nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, roles)
	}
}

func TestIPRateLimit(t *testing.T) {
	h := IPRateLimit(NewRateLimiter(0.001, 2))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORSWildcard(t *testing.T) {
	h := CORS([]string{"*.zabele.pi.gov.br"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://cultura.zabele.pi.gov.br")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://cultura.zabele.pi.gov.br", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://zabele.pi.gov.br")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitRetryAfterAndPrune(t *testing.T) {
	limiter := NewRateLimiter(0.5, 1)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	ok, _ := limiter.take("ip:a")
	require.True(t, ok)
	ok, wait := limiter.take("ip:a")
	require.False(t, ok)
	assert.Equal(t, "2", retryAfterSeconds(wait))

	clock = clock.Add(limiterIdleTTL + limiterPruneEvery)
	ok, _ = limiter.take("ip:b")
	require.True(t, ok)
	assert.NotContains(t, limiter.buckets, "ip:a")
}

func TestUserRateLimitWithoutSubjectPasses(t *testing.T) {
	h := UserRateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRecoverRendersEnvelope(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"INTERNAL"`)
}

func TestCORSExposesDownloadHeaders(t *testing.T) {
	h := CORS([]string{"https://cultura.zabele.pi.gov.br"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://cultura.zabele.pi.gov.br")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	assert.Empty(t, rec.Header().Get("Access-Control-Max-Age"))
}
