package mapping

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/cultura/internal/extract"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
	"github.com/gestaozabele/cultura/internal/http/render"
)

// Handler expõe o mapeamento cultural via HTTP. Cada requisição busca uma
// coleção nova; nada é guardado entre requisições.
type Handler struct {
	fetcher  Fetcher
	registry *extract.Registry
}

func NewHandler(fetcher Fetcher, registry *extract.Registry) *Handler {
	return &Handler{fetcher: fetcher, registry: registry}
}

// RegisterRoutes assume município já validado no contexto (CityScope).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/mapeamento", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/export.csv", h.handleExport)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	cityID := httpmiddleware.GetCity(ctx)
	term := r.URL.Query().Get("q")

	var only []Categoria
	if raw := r.URL.Query().Get("categoria"); raw != "" {
		cat, ok := ParseCategoria(raw)
		if !ok {
			render.Error(w, http.StatusBadRequest, "VALIDATION", "categoria inválida", nil)
			return
		}
		only = []Categoria{cat}
	} else {
		only = Categorias
	}

	data, err := h.fetcher.FetchCategoryData(ctx, cityID)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	views := make(map[Categoria]TableView, len(only))
	for _, cat := range only {
		views[cat] = Render(Input{
			Title:     cat.Title(),
			Records:   data.Of(cat),
			Extractor: h.registry.For(cat.Kind()),
		}, term)
	}

	logRequest(r, "GET /mapeamento", cityID, start)
	render.JSON(w, http.StatusOK, map[string]any{"cidade": cityID, "abas": views})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	cityID := httpmiddleware.GetCity(ctx)

	cat, ok := ParseCategoria(r.URL.Query().Get("categoria"))
	if !ok {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "categoria inválida", nil)
		return
	}

	data, err := h.fetcher.FetchCategoryData(ctx, cityID)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	view := Render(Input{
		Title:     cat.Title(),
		Records:   data.Of(cat),
		Extractor: h.registry.For(cat.Kind()),
	}, r.URL.Query().Get("q"))

	body, err := gocsv.MarshalBytes(view.Rows)
	if err != nil {
		render.Internal(w, err, "mapeamento_export")
		return
	}

	filename := fmt.Sprintf("mapeamento-%s-%s.csv", cityID, cat)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)

	logRequest(r, "GET /mapeamento/export.csv", cityID, start)
}

func writeFetchError(w http.ResponseWriter, err error) {
	var fe *FetchError
	if errors.As(err, &fe) {
		render.Error(w, http.StatusBadGateway, "FETCH", fe.Message(), nil)
		return
	}
	render.Internal(w, err, "mapeamento")
}

func logRequest(r *http.Request, label, cityID string, start time.Time) {
	log.Info().
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Str("user_id", httpmiddleware.GetSubject(r.Context())).
		Str("cidade", cityID).
		Str("label", label).
		Dur("duration", time.Since(start)).
		Msg("mapeamento_request")
}
