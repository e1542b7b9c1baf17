package edital

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/gestaozabele/cultura/internal/http/middleware"
	"github.com/gestaozabele/cultura/internal/http/render"
	"github.com/gestaozabele/cultura/internal/util"
)

// Handler expõe editais. A leitura é pública por município; a publicação
// exige papel de gestão, aplicado pelo router.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes assume CityScope já aplicado.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/editais", h.handleList)
	r.Get("/editais/{id}", h.handleGet)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/editais", h.handleCreate)
}

type createPayload struct {
	Titulo     string    `json:"titulo" validate:"required,max=200"`
	Descricao  string    `json:"descricao"`
	AbreEm     time.Time `json:"abre_em" validate:"required"`
	EncerraEm  time.Time `json:"encerra_em" validate:"required,gtfield=AbreEm"`
	ValorTotal float64   `json:"valor_total" validate:"gte=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	editais, err := h.service.List(ctx, httpmiddleware.GetCity(ctx))
	if err != nil {
		render.Internal(w, err, "edital_list")
		return
	}

	logRequest(r, "GET /editais", start)
	render.JSON(w, http.StatusOK, map[string]any{"editais": editais})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	e, err := h.service.Get(ctx, httpmiddleware.GetCity(ctx), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "GET /editais/{id}", start)
	render.JSON(w, http.StatusOK, map[string]any{"edital": e})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var payload createPayload
	if err := render.Decode(r, &payload, false); err != nil {
		render.Error(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if err := util.Validate(payload); err != nil {
		var verr *util.ValidationError
		if errors.As(err, &verr) {
			render.Error(w, http.StatusBadRequest, "VALIDATION", "dados inválidos", verr.Fields)
			return
		}
		render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	e, err := h.service.Create(ctx, CreateInput{
		CityID:     httpmiddleware.GetCity(ctx),
		Titulo:     payload.Titulo,
		Descricao:  payload.Descricao,
		AbreEm:     payload.AbreEm,
		EncerraEm:  payload.EncerraEm,
		ValorTotal: payload.ValorTotal,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logRequest(r, "POST /editais", start)
	render.JSON(w, http.StatusCreated, map[string]any{"edital": e})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		render.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidDates), errors.Is(err, ErrInvalidValor), errors.Is(err, ErrMissingTitle):
		render.Error(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		render.Internal(w, err, "edital")
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
		Msg("edital_request")
}
