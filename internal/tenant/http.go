package tenant

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/cultura/internal/http/render"
)

// Lister é o recorte do serviço usado pela tela de seleção de município.
type Lister interface {
	List(ctx context.Context) ([]Tenant, error)
}

// Handler expõe a lista pública de municípios.
type Handler struct {
	service Lister
}

func NewHandler(service Lister) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/cidades", h.handleList)
}

type cidadeResponse struct {
	Codigo string `json:"codigo"`
	Slug   string `json:"slug"`
	Nome   string `json:"nome"`
	UF     string `json:"uf"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		render.Internal(w, err, "cidades_list")
		return
	}

	out := make([]cidadeResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, cidadeResponse{Codigo: t.Codigo, Slug: t.Slug, Nome: t.DisplayName, UF: t.UF})
	}
	render.JSON(w, http.StatusOK, map[string]any{"cidades": out})
}
