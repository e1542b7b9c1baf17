package proponente

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/cultura/internal/auth"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
	"github.com/gestaozabele/cultura/internal/http/render"
	"github.com/gestaozabele/cultura/internal/util"
)

// Handler expõe cadastros de proponentes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/proponentes", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
	})
}

type createPayload struct {
	Tipo  string         `json:"tipo" validate:"required,oneof=fisica juridica coletivo"`
	Dados map[string]any `json:"dados" validate:"required"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID := httpmiddleware.GetSubject(ctx)
	if userID == "" {
		render.Error(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload createPayload
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if err := util.Validate(payload); err != nil {
		writeValidation(w, err)
		return
	}

	cityID := httpmiddleware.GetCity(ctx)
	rec, err := h.service.Create(ctx, CreateInput{
		CityID: cityID,
		UserID: userID,
		Tipo:   payload.Tipo,
		Dados:  payload.Dados,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "POST /proponentes", start)
	render.JSON(w, http.StatusCreated, map[string]any{"proponente": rec})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	filter := ListFilter{
		Tipo: r.URL.Query().Get("tipo"),
		Term: r.URL.Query().Get("q"),
	}
	// Proponente só enxerga os próprios cadastros.
	if !httpmiddleware.HasRole(ctx, auth.RoleAdmin, auth.RoleGestor, auth.RoleAvaliador) {
		filter.UserID = httpmiddleware.GetSubject(ctx)
		if filter.UserID == "" {
			render.Error(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
			return
		}
	}

	items, err := h.service.List(ctx, httpmiddleware.GetCity(ctx), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "GET /proponentes", start)
	render.JSON(w, http.StatusOK, map[string]any{"proponentes": items})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	rec, err := h.service.Get(ctx, httpmiddleware.GetCity(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !httpmiddleware.HasRole(ctx, auth.RoleAdmin, auth.RoleGestor, auth.RoleAvaliador) &&
		!Owner(rec, httpmiddleware.GetSubject(ctx)) {
		writeServiceError(w, ErrForbidden)
		return
	}

	logRequest(r, "GET /proponentes/{id}", start)
	render.JSON(w, http.StatusOK, map[string]any{
		"proponente": rec,
		"resumo":     h.service.Summarize(rec),
	})
}

func writeValidation(w http.ResponseWriter, err error) {
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "dados inválidos", verr.Fields)
		return
	}
	render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		render.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		render.Error(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
	case errors.Is(err, ErrInvalidTipo), errors.Is(err, ErrEmptyDados):
		render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		render.Internal(w, err, "proponente")
	}
}

func logRequest(r *http.Request, label string, start time.Time) {
	ctx := r.Context()
	log.Info().
		Str("request_id", chimiddleware.GetReqID(ctx)).
		Str("user_id", httpmiddleware.GetSubject(ctx)).
		Str("cidade", httpmiddleware.GetCity(ctx)).
		Str("label", label).
		Dur("duration", time.Since(start)).
		Msg("proponente_request")
}
