package proponente

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
	"github.com/gestaozabele/cultura/internal/search"
)

// Service mantém cadastros de proponentes escopados por município.
type Service struct {
	store     docstore.Store
	extractor extract.Extractor
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(store docstore.Store, registry *extract.Registry, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		extractor: registry.Proponente(),
		logger:    logger.With().Str("component", "proponente").Logger(),
		now:       time.Now,
	}
}

// Create grava o formulário como veio, acrescentando tipo, usuário e data.
func (s *Service) Create(ctx context.Context, input CreateInput) (docstore.Record, error) {
	tipo, ok := NormalizeTipo(input.Tipo)
	if !ok {
		return nil, ErrInvalidTipo
	}
	if len(input.Dados) == 0 {
		return nil, ErrEmptyDados
	}

	doc := make(docstore.Record, len(input.Dados)+3)
	for k, v := range input.Dados {
		doc[k] = v
	}
	doc[FieldTipo] = tipo
	doc[FieldUserID] = input.UserID
	doc[FieldCriadoEm] = s.now().UTC().Format(time.RFC3339)

	id, err := s.store.Insert(ctx, Collection, input.CityID, doc)
	if err != nil {
		return nil, fmt.Errorf("proponente: inserir: %w", err)
	}
	s.logger.Info().Str("cidade", input.CityID).Str("id", id).Str("tipo", tipo).Msg("proponente cadastrado")

	return s.Get(ctx, input.CityID, id)
}

// Get devolve o cadastro somente se pertencer ao município.
func (s *Service) Get(ctx context.Context, cityID, id string) (docstore.Record, error) {
	rec, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.CityID() != cityID {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Owner indica se o cadastro pertence ao usuário.
func Owner(rec docstore.Record, userID string) bool {
	owner, _ := rec[FieldUserID].(string)
	return userID != "" && owner == userID
}

// ListFilter restringe a listagem. Campos vazios não filtram.
type ListFilter struct {
	Tipo   string
	Term   string
	UserID string
}

// List devolve resumos na ordem do armazenamento, filtrados pelo termo de busca.
func (s *Service) List(ctx context.Context, cityID string, filter ListFilter) ([]Summary, error) {
	if filter.Tipo != "" {
		tipo, ok := NormalizeTipo(filter.Tipo)
		if !ok {
			return nil, ErrInvalidTipo
		}
		filter.Tipo = tipo
	}

	records, err := s.store.ListByCity(ctx, Collection, cityID)
	if err != nil {
		return nil, fmt.Errorf("proponente: listar: %w", err)
	}

	kept := records[:0:0]
	for _, rec := range records {
		if filter.Tipo != "" && recordTipo(rec) != filter.Tipo {
			continue
		}
		if filter.UserID != "" && !Owner(rec, filter.UserID) {
			continue
		}
		kept = append(kept, rec)
	}

	matched := search.Filter(kept, filter.Term, s.extractor)
	out := make([]Summary, 0, len(matched))
	for _, rec := range matched {
		out = append(out, s.Summarize(rec))
	}
	return out, nil
}

// Summarize projeta o cadastro nos campos de exibição.
func (s *Service) Summarize(rec docstore.Record) Summary {
	res := extract.Extract(s.extractor, rec)
	return Summary{
		ID:       rec.ID(),
		Tipo:     recordTipo(rec),
		Nome:     res.Name,
		Email:    res.Email,
		Telefone: res.Phone,
	}
}

// recordTipo lê o tipo gravado com a mesma normalização da entrada, já que
// cadastros antigos podem ter "Fisica" ou "JURIDICA".
func recordTipo(rec docstore.Record) string {
	raw, _ := rec[FieldTipo].(string)
	tipo, _ := NormalizeTipo(raw)
	return tipo
}
