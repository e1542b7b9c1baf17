package projeto

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/edital"
	"github.com/gestaozabele/cultura/internal/proponente"
	"github.com/gestaozabele/cultura/internal/storage"
)

// Store é o acesso a dados usado pelo serviço.
type Store interface {
	Create(ctx context.Context, input CreateInput) (*Projeto, error)
	Get(ctx context.Context, id uuid.UUID) (*Projeto, error)
	List(ctx context.Context, cityID string, filter Filter) ([]Projeto, error)
	UpdateEtapa(ctx context.Context, id uuid.UUID, from Etapa, status string, to Etapa, newStatus string) (*Projeto, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, etapa Etapa, status string) (*Projeto, error)
	SetAvaliador(ctx context.Context, id uuid.UUID, avaliadorID string) (*Projeto, error)
	ReplaceNotas(ctx context.Context, id uuid.UUID, avaliadorID string, notas []NotaCriterio, media float64) (*Projeto, error)
	ListNotas(ctx context.Context, id uuid.UUID) ([]NotaCriterio, error)
	AddDocumento(ctx context.Context, doc Documento) (*Documento, error)
	ListDocumentos(ctx context.Context, id uuid.UUID) ([]Documento, error)
}

// EditalLookup resolve o edital da inscrição.
type EditalLookup interface {
	Get(ctx context.Context, cityID string, id uuid.UUID) (*edital.Edital, error)
}

// ProponenteLookup resolve o cadastro do proponente.
type ProponenteLookup interface {
	Get(ctx context.Context, cityID, id string) (docstore.Record, error)
}

// Service aplica o fluxo de etapas, a avaliação e os anexos.
type Service struct {
	repo        Store
	editais     EditalLookup
	proponentes ProponenteLookup
	uploader    storage.Uploader
	maxUpload   int64
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(repo Store, editais EditalLookup, proponentes ProponenteLookup, uploader storage.Uploader, maxUpload int64, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		editais:     editais,
		proponentes: proponentes,
		uploader:    uploader,
		maxUpload:   maxUpload,
		logger:      logger.With().Str("component", "projeto").Logger(),
		now:         time.Now,
	}
}

// Create inscreve um projeto em edital aberto.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Projeto, error) {
	input.Titulo = strings.TrimSpace(input.Titulo)
	input.Resumo = strings.TrimSpace(input.Resumo)
	if input.Titulo == "" {
		return nil, fmt.Errorf("%w: título", ErrMissingField)
	}

	e, err := s.editais.Get(ctx, input.CityID, input.EditalID)
	if err != nil {
		return nil, err
	}
	if !e.AcceptsAt(s.now()) {
		return nil, edital.ErrClosed
	}
	if input.Valor <= 0 || (e.ValorTotal > 0 && input.Valor > e.ValorTotal) {
		return nil, ErrInvalidValor
	}

	rec, err := s.proponentes.Get(ctx, input.CityID, input.ProponenteID)
	if err != nil {
		return nil, err
	}
	if input.OwnerOnly && !proponente.Owner(rec, input.CriadoPor) {
		return nil, ErrForbidden
	}

	p, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("cidade", input.CityID).Str("projeto", p.ID.String()).Str("edital", e.Slug).Msg("inscrição registrada")
	return p, nil
}

// Get devolve o projeto somente se pertencer ao município.
func (s *Service) Get(ctx context.Context, cityID string, id uuid.UUID) (*Projeto, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CityID != cityID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, cityID string, filter Filter) ([]Projeto, error) {
	return s.repo.List(ctx, cityID, filter)
}

// Decide registra aprovado/reprovado (ou reabre como pendente) na etapa atual.
// A etapa de recurso fica de fora.
func (s *Service) Decide(ctx context.Context, cityID string, id uuid.UUID, status string) (*Projeto, error) {
	status, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, cityID, id)
	if err != nil {
		return nil, err
	}
	switch p.Etapa {
	case EtapaConcluido:
		return nil, fmt.Errorf("%w: projeto concluído", ErrInvalidTransition)
	case EtapaRecurso:
		// o status do recurso vem só da decisão do recurso
		return nil, fmt.Errorf("%w: etapa de recurso é decidida pelo recurso", ErrInvalidTransition)
	}
	return s.repo.UpdateStatus(ctx, id, p.Etapa, status)
}

// Advance move o projeto para a etapa seguinte.
func (s *Service) Advance(ctx context.Context, cityID string, id uuid.UUID, to Etapa) (*Projeto, error) {
	p, err := s.Get(ctx, cityID, id)
	if err != nil {
		return nil, err
	}
	newStatus, err := CheckAdvance(p.Etapa, to, p.Status)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateEtapa(ctx, id, p.Etapa, p.Status, to, newStatus)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("projeto", id.String()).Str("de", string(p.Etapa)).Str("para", string(to)).Msg("etapa avançada")
	return updated, nil
}

// AssignReviewer designa o avaliador até a etapa de avaliação inclusive.
func (s *Service) AssignReviewer(ctx context.Context, cityID string, id uuid.UUID, avaliadorID string) (*Projeto, error) {
	avaliadorID = strings.TrimSpace(avaliadorID)
	if avaliadorID == "" {
		return nil, fmt.Errorf("%w: avaliador", ErrMissingField)
	}
	p, err := s.Get(ctx, cityID, id)
	if err != nil {
		return nil, err
	}
	if p.Etapa.index() > EtapaAvaliacao.index() {
		return nil, ErrReviewerLocked
	}
	return s.repo.SetAvaliador(ctx, id, avaliadorID)
}

// Score grava as notas do avaliador designado e a média de 0 a 10.
func (s *Service) Score(ctx context.Context, cityID string, id uuid.UUID, avaliadorID string, notas []NotaCriterio) (*Projeto, error) {
	if len(notas) == 0 {
		return nil, ErrNotasVazias
	}
	seen := make(map[string]struct{}, len(notas))
	clean := make([]NotaCriterio, 0, len(notas))
	var sum float64
	for _, n := range notas {
		n.Criterio = strings.TrimSpace(n.Criterio)
		if n.Criterio == "" {
			return nil, fmt.Errorf("%w: critério", ErrMissingField)
		}
		key := strings.ToLower(n.Criterio)
		if _, dup := seen[key]; dup {
			return nil, ErrCriterioRepetido
		}
		seen[key] = struct{}{}
		if n.Valor < 0 || n.Valor > 10 || math.IsNaN(n.Valor) {
			return nil, ErrInvalidNota
		}
		sum += n.Valor
		clean = append(clean, n)
	}

	p, err := s.Get(ctx, cityID, id)
	if err != nil {
		return nil, err
	}
	if p.Etapa != EtapaAvaliacao {
		return nil, ErrNotInAvaliacao
	}
	if p.AvaliadorID == nil || *p.AvaliadorID != avaliadorID {
		return nil, ErrNotReviewer
	}

	media := math.Round(sum/float64(len(clean))*100) / 100
	return s.repo.ReplaceNotas(ctx, id, avaliadorID, clean, media)
}

func (s *Service) ListNotas(ctx context.Context, cityID string, id uuid.UUID) ([]NotaCriterio, error) {
	if _, err := s.Get(ctx, cityID, id); err != nil {
		return nil, err
	}
	return s.repo.ListNotas(ctx, id)
}

// Upload envia o anexo ao bucket e registra o documento. Se o registro
// falhar, o objeto é removido.
func (s *Service) Upload(ctx context.Context, cityID string, id uuid.UUID, input UploadInput) (*Documento, error) {
	if len(input.Body) == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxUpload > 0 && int64(len(input.Body)) > s.maxUpload {
		return nil, ErrFileTooLarge
	}
	p, err := s.Get(ctx, cityID, id)
	if err != nil {
		return nil, err
	}
	if p.Etapa == EtapaConcluido {
		return nil, fmt.Errorf("%w: projeto concluído", ErrInvalidTransition)
	}

	key := storage.ProjectKey(cityID, id.String(), input.Nome)
	res, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        input.Body,
		ContentType: input.ContentType,
	})
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.AddDocumento(ctx, Documento{
		ProjetoID:   id,
		Nome:        input.Nome,
		Chave:       res.Key,
		URL:         res.URL,
		ContentType: input.ContentType,
		Tamanho:     int64(len(input.Body)),
		EnviadoPor:  input.EnviadoPor,
	})
	if err != nil {
		if delErr := s.uploader.Delete(ctx, res.Key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("chave", res.Key).Msg("anexo órfão no bucket")
		}
		return nil, err
	}
	return doc, nil
}

func (s *Service) ListDocumentos(ctx context.Context, cityID string, id uuid.UUID) ([]Documento, error) {
	if _, err := s.Get(ctx, cityID, id); err != nil {
		return nil, err
	}
	return s.repo.ListDocumentos(ctx, id)
}
