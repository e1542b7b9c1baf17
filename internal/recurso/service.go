package recurso

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/cultura/internal/projeto"
)

// Store é o acesso a dados usado pelo serviço.
type Store interface {
	Create(ctx context.Context, input OpenInput) (*Recurso, error)
	Get(ctx context.Context, id uuid.UUID) (*Recurso, error)
	HasActive(ctx context.Context, projetoID uuid.UUID) (bool, error)
	List(ctx context.Context, filter Filter) ([]Recurso, error)
	Update(ctx context.Context, input UpdateInput) (*Recurso, error)
	Decide(ctx context.Context, input UpdateInput, deferido bool, msg MessageInput) (*Recurso, error)
	CreateMessage(ctx context.Context, input MessageInput) (*Mensagem, error)
	ListMessages(ctx context.Context, recursoID uuid.UUID) ([]Mensagem, error)
}

// Projetos é o lado do fluxo de projetos que o recurso consulta.
type Projetos interface {
	Get(ctx context.Context, cityID string, id uuid.UUID) (*projeto.Projeto, error)
}

// Service reúne regras de negócio para recursos.
type Service struct {
	repo     Store
	projetos Projetos
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Store, projetos Projetos, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		projetos: projetos,
		logger:   logger.With().Str("component", "recurso").Logger(),
		now:      time.Now,
	}
}

// Open registra recurso para projeto em etapa de recurso, um por vez.
func (s *Service) Open(ctx context.Context, input OpenInput) (*Recurso, error) {
	input.Justificativa = strings.TrimSpace(input.Justificativa)
	if input.Justificativa == "" {
		return nil, fmt.Errorf("%w: justificativa", ErrMissingField)
	}

	p, err := s.projetos.Get(ctx, input.CityID, input.ProjetoID)
	if err != nil {
		return nil, err
	}
	if input.OwnerOnly && p.CriadoPor != input.CriadoPor {
		return nil, ErrForbidden
	}
	if p.Etapa != projeto.EtapaRecurso || p.Status != projeto.StatusPendente {
		return nil, ErrNotInRecurso
	}

	active, err := s.repo.HasActive(ctx, input.ProjetoID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrAlreadyOpen
	}

	rec, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("cidade", input.CityID).Str("recurso", rec.ID.String()).Str("projeto", input.ProjetoID.String()).Msg("recurso aberto")
	return rec, nil
}

// Get devolve o recurso somente se pertencer ao município.
func (s *Service) Get(ctx context.Context, cityID string, id uuid.UUID) (*Recurso, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.CityID != cityID {
		return nil, ErrNotFound
	}
	return rec, nil
}

// List lista recursos dentro do filtro informado.
func (s *Service) List(ctx context.Context, filter Filter) ([]Recurso, error) {
	if len(filter.Status) > 0 {
		normalized := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			status = NormalizeStatus(status)
			if IsValidStatus(status) {
				normalized = append(normalized, status)
			}
		}
		filter.Status = normalized
	}
	return s.repo.List(ctx, filter)
}

// Update muda status e parecer. Deferir ou indeferir exige parecer, é final
// e resolve a etapa de recurso do projeto junto com a decisão.
func (s *Service) Update(ctx context.Context, cityID string, id uuid.UUID, status, parecer *string) (*Recurso, error) {
	current, err := s.Get(ctx, cityID, id)
	if err != nil {
		return nil, err
	}
	if current.Decided() {
		return nil, ErrDecided
	}

	update := UpdateInput{ID: id}
	if parecer != nil {
		trimmed := strings.TrimSpace(*parecer)
		update.Parecer = &trimmed
	}

	if status == nil {
		return s.repo.Update(ctx, update)
	}
	normalized := NormalizeStatus(*status)
	if !IsValidStatus(normalized) {
		return nil, ErrInvalidStatus
	}
	update.Status = &normalized
	if normalized != StatusDeferido && normalized != StatusIndeferido {
		return s.repo.Update(ctx, update)
	}

	finalParecer := current.Parecer
	if update.Parecer != nil {
		finalParecer = update.Parecer
	}
	if finalParecer == nil || *finalParecer == "" {
		return nil, ErrParecerRequired
	}

	p, err := s.projetos.Get(ctx, cityID, current.ProjetoID)
	if err != nil {
		return nil, err
	}
	if p.Etapa != projeto.EtapaRecurso || p.Status != projeto.StatusPendente {
		return nil, ErrNotInRecurso
	}

	now := s.now()
	update.DecididoEm = &now
	decided, err := s.repo.Decide(ctx, update, normalized == StatusDeferido, MessageInput{
		RecursoID: id,
		AutorTipo: AutorSistema,
		Corpo:     "Recurso " + normalized + ".",
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("recurso", id.String()).Str("projeto", current.ProjetoID.String()).Str("status", decided.Status).Msg("recurso decidido")
	return decided, nil
}

// AddMessage adiciona nova mensagem enquanto o recurso não foi decidido.
func (s *Service) AddMessage(ctx context.Context, cityID string, input MessageInput) (*Mensagem, error) {
	input.Corpo = strings.TrimSpace(input.Corpo)
	if input.Corpo == "" {
		return nil, fmt.Errorf("%w: mensagem", ErrMissingField)
	}
	input.AutorTipo = strings.ToLower(strings.TrimSpace(input.AutorTipo))
	if input.AutorTipo == "" {
		input.AutorTipo = AutorGestao
	}
	if !IsValidAuthor(input.AutorTipo) {
		return nil, ErrInvalidAuthor
	}

	rec, err := s.Get(ctx, cityID, input.RecursoID)
	if err != nil {
		return nil, err
	}
	if rec.Decided() {
		return nil, ErrDecided
	}
	return s.repo.CreateMessage(ctx, input)
}

// ListMessages lista interações do recurso.
func (s *Service) ListMessages(ctx context.Context, cityID string, recursoID uuid.UUID) ([]Mensagem, error) {
	if _, err := s.Get(ctx, cityID, recursoID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, recursoID)
}
