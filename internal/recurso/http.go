package recurso

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/cultura/internal/auth"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
	"github.com/gestaozabele/cultura/internal/http/render"
	"github.com/gestaozabele/cultura/internal/projeto"
)

// Handler expõe recursos e o fio de mensagens.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/projetos/{id}/recursos", h.handleOpen)
	r.Get("/recursos", h.handleList)
	r.Get("/recursos/{id}", h.handleGet)
	r.With(httpmiddleware.RequireRoles(auth.RoleAdmin, auth.RoleGestor)).Patch("/recursos/{id}", h.handleUpdate)
	r.Post("/recursos/{id}/mensagens", h.handleAddMessage)
	r.Get("/recursos/{id}/mensagens", h.handleListMessages)
}

func isGestao(r *http.Request) bool {
	return httpmiddleware.HasRole(r.Context(), auth.RoleAdmin, auth.RoleGestor)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	subject := httpmiddleware.GetSubject(ctx)
	if subject == "" {
		render.Error(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	projetoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Justificativa string `json:"justificativa"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rec, err := h.service.Open(ctx, OpenInput{
		CityID:        httpmiddleware.GetCity(ctx),
		ProjetoID:     projetoID,
		Justificativa: payload.Justificativa,
		CriadoPor:     subject,
		OwnerOnly:     !isGestao(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "POST /projetos/{id}/recursos", start)
	render.JSON(w, http.StatusCreated, map[string]any{"recurso": rec})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	q := r.URL.Query()

	filter := Filter{CityID: httpmiddleware.GetCity(ctx)}
	if raw := strings.TrimSpace(q.Get("projeto_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			render.Error(w, http.StatusBadRequest, "VALIDATION", "projeto_id inválido", nil)
			return
		}
		filter.ProjetoID = &id
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Status = append(filter.Status, part)
			}
		}
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}
	if !isGestao(r) {
		filter.CriadoPor = httpmiddleware.GetSubject(ctx)
		if filter.CriadoPor == "" {
			render.Error(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
			return
		}
	}

	recursos, err := h.service.List(ctx, filter)
	if err != nil {
		render.Internal(w, err, "recurso_list")
		return
	}

	logRequest(r, "GET /recursos", start)
	render.JSON(w, http.StatusOK, map[string]any{"recursos": recursos})
}

// load busca o recurso do município; fora da gestão só o autor enxerga.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Recurso, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return nil, false
	}
	rec, err := h.service.Get(r.Context(), httpmiddleware.GetCity(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if !isGestao(r) && rec.CriadoPor != httpmiddleware.GetSubject(r.Context()) {
		writeServiceError(w, ErrForbidden)
		return nil, false
	}
	return rec, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"recurso": rec})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status  *string `json:"status"`
		Parecer *string `json:"parecer"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	updated, err := h.service.Update(r.Context(), rec.CityID, rec.ID, payload.Status, payload.Parecer)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "PATCH /recursos/{id}", start)
	render.JSON(w, http.StatusOK, map[string]any{"recurso": updated})
}

func (h *Handler) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	var payload struct {
		Corpo string `json:"corpo"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	autor := AutorProponente
	if isGestao(r) {
		autor = AutorGestao
	}
	subject := httpmiddleware.GetSubject(r.Context())

	msg, err := h.service.AddMessage(r.Context(), rec.CityID, MessageInput{
		RecursoID: rec.ID,
		AutorTipo: autor,
		AutorID:   &subject,
		Corpo:     payload.Corpo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "POST /recursos/{id}/mensagens", start)
	render.JSON(w, http.StatusCreated, map[string]any{"mensagem": msg})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	mensagens, err := h.service.ListMessages(r.Context(), rec.CityID, rec.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"mensagens": mensagens})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, projeto.ErrNotFound):
		render.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		render.Error(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
	case errors.Is(err, ErrAlreadyOpen), errors.Is(err, ErrDecided), errors.Is(err, projeto.ErrConflict):
		render.Error(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrNotInRecurso), errors.Is(err, projeto.ErrInvalidTransition):
		render.Error(w, http.StatusUnprocessableEntity, "WORKFLOW", err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidAuthor),
		errors.Is(err, ErrParecerRequired), errors.Is(err, ErrMissingField):
		render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		render.Internal(w, err, "recurso")
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
		Msg("recurso_request")
}
