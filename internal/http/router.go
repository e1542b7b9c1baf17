package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/config"
	"github.com/gestaozabele/cultura/internal/edital"
	"github.com/gestaozabele/cultura/internal/extract"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
	"github.com/gestaozabele/cultura/internal/http/render"
	"github.com/gestaozabele/cultura/internal/mapping"
	"github.com/gestaozabele/cultura/internal/projeto"
	"github.com/gestaozabele/cultura/internal/proponente"
	"github.com/gestaozabele/cultura/internal/recurso"
	"github.com/gestaozabele/cultura/internal/tenant"
)

// Services agrupa os serviços montados em cmd/api.
type Services struct {
	Tenants     *tenant.Service
	Mapping     mapping.Fetcher
	Registry    *extract.Registry
	Editais     *edital.Service
	Proponentes *proponente.Service
	Projetos    *projeto.Service
	Recursos    *recurso.Service
}

// Handler concentra os endpoints de infraestrutura.
type Handler struct {
	checks        map[string]func(context.Context) error
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, jwtManager *auth.JWTManager, svc Services) http.Handler {
	h := &Handler{
		checks: map[string]func(context.Context) error{
			"db": func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	cidadeHandler := tenant.NewHandler(svc.Tenants)
	editalHandler := edital.NewHandler(svc.Editais)
	mappingHandler := mapping.NewHandler(svc.Mapping, svc.Registry)
	proponenteHandler := proponente.NewHandler(svc.Proponentes)
	projetoHandler := projeto.NewHandler(svc.Projetos, cfg.UploadMaxBytes)
	recursoHandler := recurso.NewHandler(svc.Recursos)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(public chi.Router) {
			public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

			cidadeHandler.RegisterRoutes(public)

			public.Group(func(scoped chi.Router) {
				scoped.Use(httpmiddleware.CityScope(svc.Tenants))
				editalHandler.RegisterPublicRoutes(scoped)
			})
		})

		v1.Group(func(private chi.Router) {
			private.Use(httpmiddleware.Auth(jwtManager))
			private.Use(httpmiddleware.UserRateLimit(h.authLimiter))
			private.Use(httpmiddleware.CityScope(svc.Tenants))

			private.Group(func(gestao chi.Router) {
				gestao.Use(httpmiddleware.RequireRoles(auth.RoleAdmin, auth.RoleGestor))
				editalHandler.RegisterRoutes(gestao)
			})
			private.Group(func(staff chi.Router) {
				staff.Use(httpmiddleware.RequireStaff)
				mappingHandler.RegisterRoutes(staff)
			})

			proponenteHandler.RegisterRoutes(private)
			projetoHandler.RegisterRoutes(private)
			recursoHandler.RegisterRoutes(private)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]any{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		render.Error(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", failed)
		return
	}

	render.JSON(w, http.StatusOK, map[string]bool{"ready": true})
}
