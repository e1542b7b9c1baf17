package projeto

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/cultura/internal/auth"
	"github.com/gestaozabele/cultura/internal/edital"
	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
	"github.com/gestaozabele/cultura/internal/http/render"
	"github.com/gestaozabele/cultura/internal/proponente"
	"github.com/gestaozabele/cultura/internal/storage"
	"github.com/gestaozabele/cultura/internal/util"
)

// Handler expõe inscrições, fluxo de etapas, avaliação e anexos.
type Handler struct {
	service   *Service
	maxUpload int64
}

func NewHandler(service *Service, maxUpload int64) *Handler {
	return &Handler{service: service, maxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	gestao := httpmiddleware.RequireRoles(auth.RoleAdmin, auth.RoleGestor)

	r.Post("/projetos", h.handleCreate)
	r.Get("/projetos", h.handleList)
	r.Get("/projetos/{id}", h.handleGet)
	r.With(gestao).Post("/projetos/{id}/status", h.handleDecide)
	r.With(gestao).Post("/projetos/{id}/etapa", h.handleAdvance)
	r.With(gestao).Post("/projetos/{id}/avaliador", h.handleAssign)
	r.With(httpmiddleware.RequireRoles(auth.RoleAvaliador)).Post("/projetos/{id}/notas", h.handleScore)
	r.With(httpmiddleware.RequireStaff).Get("/projetos/{id}/notas", h.handleListNotas)
	r.Post("/projetos/{id}/documentos", h.handleUpload)
	r.Get("/projetos/{id}/documentos", h.handleListDocumentos)
}

func isGestao(r *http.Request) bool {
	return httpmiddleware.HasRole(r.Context(), auth.RoleAdmin, auth.RoleGestor)
}

// canView libera gestão, o avaliador designado e quem inscreveu.
func canView(r *http.Request, p *Projeto) bool {
	if isGestao(r) {
		return true
	}
	subject := httpmiddleware.GetSubject(r.Context())
	if subject == "" {
		return false
	}
	if p.AvaliadorID != nil && *p.AvaliadorID == subject && httpmiddleware.HasRole(r.Context(), auth.RoleAvaliador) {
		return true
	}
	return p.CriadoPor == subject
}

type createPayload struct {
	EditalID     string  `json:"edital_id" validate:"required,uuid"`
	ProponenteID string  `json:"proponente_id" validate:"required"`
	Titulo       string  `json:"titulo" validate:"required,max=200"`
	Resumo       string  `json:"resumo" validate:"max=4000"`
	Valor        float64 `json:"valor" validate:"gt=0"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	subject := httpmiddleware.GetSubject(ctx)
	if subject == "" {
		render.Error(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload createPayload
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if !validate(w, payload) {
		return
	}

	p, err := h.service.Create(ctx, CreateInput{
		CityID:       httpmiddleware.GetCity(ctx),
		EditalID:     uuid.MustParse(payload.EditalID),
		ProponenteID: payload.ProponenteID,
		Titulo:       payload.Titulo,
		Resumo:       payload.Resumo,
		Valor:        payload.Valor,
		CriadoPor:    subject,
		OwnerOnly:    !isGestao(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "POST /projetos", start)
	render.JSON(w, http.StatusCreated, map[string]any{"projeto": p})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	q := r.URL.Query()

	var filter Filter
	if raw := strings.TrimSpace(q.Get("edital_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			render.Error(w, http.StatusBadRequest, "VALIDATION", "edital_id inválido", nil)
			return
		}
		filter.EditalID = &id
	}
	if raw := q.Get("etapa"); raw != "" {
		etapa, err := ParseEtapa(raw)
		if err != nil {
			render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		filter.Etapa = etapa
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}

	switch {
	case isGestao(r):
	case httpmiddleware.HasRole(ctx, auth.RoleAvaliador):
		filter.AvaliadorID = httpmiddleware.GetSubject(ctx)
	default:
		filter.CriadoPor = httpmiddleware.GetSubject(ctx)
	}
	if !isGestao(r) && filter.AvaliadorID == "" && filter.CriadoPor == "" {
		render.Error(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	projetos, err := h.service.List(ctx, httpmiddleware.GetCity(ctx), filter)
	if err != nil {
		render.Internal(w, err, "projeto_list")
		return
	}

	logRequest(r, "GET /projetos", start)
	render.JSON(w, http.StatusOK, map[string]any{"projetos": projetos})
}

// load busca o projeto do município e confere a visibilidade do usuário.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Projeto, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return nil, false
	}
	p, err := h.service.Get(r.Context(), httpmiddleware.GetCity(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if !canView(r, p) {
		writeServiceError(w, ErrForbidden)
		return nil, false
	}
	return p, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	logRequest(r, "GET /projetos/{id}", start)
	render.JSON(w, http.StatusOK, map[string]any{"projeto": p})
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status" validate:"required"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if !validate(w, payload) {
		return
	}

	updated, err := h.service.Decide(r.Context(), p.CityID, p.ID, payload.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logRequest(r, "POST /projetos/{id}/status", start)
	render.JSON(w, http.StatusOK, map[string]any{"projeto": updated})
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var payload struct {
		Etapa string `json:"etapa" validate:"required"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if !validate(w, payload) {
		return
	}
	to, err := ParseEtapa(payload.Etapa)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := h.service.Advance(r.Context(), p.CityID, p.ID, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logRequest(r, "POST /projetos/{id}/etapa", start)
	render.JSON(w, http.StatusOK, map[string]any{"projeto": updated})
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var payload struct {
		AvaliadorID string `json:"avaliador_id" validate:"required"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if !validate(w, payload) {
		return
	}

	updated, err := h.service.AssignReviewer(r.Context(), p.CityID, p.ID, payload.AvaliadorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logRequest(r, "POST /projetos/{id}/avaliador", start)
	render.JSON(w, http.StatusOK, map[string]any{"projeto": updated})
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var payload struct {
		Notas []NotaCriterio `json:"notas" validate:"required,min=1,dive"`
	}
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if !validate(w, payload) {
		return
	}

	updated, err := h.service.Score(r.Context(), p.CityID, p.ID, httpmiddleware.GetSubject(r.Context()), payload.Notas)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logRequest(r, "POST /projetos/{id}/notas", start)
	render.JSON(w, http.StatusOK, map[string]any{"projeto": updated})
}

func (h *Handler) handleListNotas(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	notas, err := h.service.ListNotas(r.Context(), p.CityID, p.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"notas": notas, "media": p.Nota})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	if !isGestao(r) && p.CriadoPor != httpmiddleware.GetSubject(r.Context()) {
		writeServiceError(w, ErrForbidden)
		return
	}

	// folga para os cabeçalhos do multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, ErrFileTooLarge)
			return
		}
		render.Error(w, http.StatusBadRequest, "VALIDATION", "formulário inválido", nil)
		return
	}
	file, header, err := r.FormFile("arquivo")
	if err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "campo arquivo obrigatório", nil)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo", nil)
		return
	}

	doc, err := h.service.Upload(r.Context(), p.CityID, p.ID, UploadInput{
		Nome:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
		EnviadoPor:  httpmiddleware.GetSubject(r.Context()),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logRequest(r, "POST /projetos/{id}/documentos", start)
	render.JSON(w, http.StatusCreated, map[string]any{"documento": doc})
}

func (h *Handler) handleListDocumentos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	docs, err := h.service.ListDocumentos(r.Context(), p.CityID, p.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"documentos": docs})
}

func validate(w http.ResponseWriter, payload any) bool {
	err := util.Validate(payload)
	if err == nil {
		return true
	}
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "dados inválidos", verr.Fields)
		return false
	}
	render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	return false
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, edital.ErrNotFound), errors.Is(err, proponente.ErrNotFound):
		render.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotReviewer):
		render.Error(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, ErrConflict), errors.Is(err, edital.ErrClosed):
		render.Error(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrFileTooLarge):
		render.Error(w, http.StatusRequestEntityTooLarge, "VALIDATION", err.Error(), nil)
	case errors.Is(err, storage.ErrNotConfigured):
		render.Error(w, http.StatusServiceUnavailable, "INTERNAL", "armazenamento de anexos indisponível", nil)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrStageUndecided),
		errors.Is(err, ErrNotInAvaliacao), errors.Is(err, ErrReviewerLocked):
		render.Error(w, http.StatusUnprocessableEntity, "WORKFLOW", err.Error(), nil)
	case errors.Is(err, ErrInvalidEtapa), errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidNota),
		errors.Is(err, ErrNotasVazias), errors.Is(err, ErrCriterioRepetido), errors.Is(err, ErrInvalidValor),
		errors.Is(err, ErrEmptyFile), errors.Is(err, ErrMissingField):
		render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		render.Internal(w, err, "projeto")
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
		Msg("projeto_request")
}
