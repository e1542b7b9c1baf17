package edital

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store é o acesso a dados usado pelo serviço.
type Store interface {
	Create(ctx context.Context, input CreateInput) (*Edital, error)
	Get(ctx context.Context, id uuid.UUID) (*Edital, error)
	ListByCity(ctx context.Context, cityID string) ([]Edital, error)
	SlugExists(ctx context.Context, cityID, slug string) (bool, error)
	CloseExpired(ctx context.Context, now time.Time) ([]Edital, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service publica editais e mantém a listagem pública em cache.
type Service struct {
	repo     Store
	cache    redisCommander
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService aceita cache nulo; nesse caso toda listagem vai ao banco.
func NewService(repo Store, cache redisCommander, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "edital").Logger(),
		now:      time.Now,
	}
}

func cacheKey(cityID string) string {
	return "cultura:editais:" + cityID
}

// Create valida e publica um edital com slug único no município.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Edital, error) {
	input.Titulo = strings.TrimSpace(input.Titulo)
	input.Descricao = strings.TrimSpace(input.Descricao)
	if input.Titulo == "" {
		return nil, ErrMissingTitle
	}
	if !input.EncerraEm.After(input.AbreEm) {
		return nil, ErrInvalidDates
	}
	if input.ValorTotal < 0 {
		return nil, ErrInvalidValor
	}

	base := slug.Make(input.Titulo)
	if base == "" {
		base = "edital"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, input.CityID, candidate)
		if err != nil {
			return nil, fmt.Errorf("edital: verificar slug: %w", err)
		}
		if !exists {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	input.Slug = candidate

	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, input.CityID)
	s.logger.Info().Str("cidade", input.CityID).Str("slug", created.Slug).Msg("edital publicado")
	return created, nil
}

// Get devolve o edital somente se pertencer ao município.
func (s *Service) Get(ctx context.Context, cityID string, id uuid.UUID) (*Edital, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.CityID != cityID {
		return nil, ErrNotFound
	}
	return e, nil
}

// List devolve os editais do município, do cache quando possível.
func (s *Service) List(ctx context.Context, cityID string) ([]Edital, error) {
	key := cacheKey(cityID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached []Edital
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("cidade", cityID).Msg("cache de editais indisponível")
		}
	}

	editais, err := s.repo.ListByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(editais); err == nil {
			_ = s.cache.Set(ctx, key, payload, s.cacheTTL).Err()
		}
	}
	return editais, nil
}

// CloseExpired encerra editais vencidos e limpa o cache das cidades afetadas.
func (s *Service) CloseExpired(ctx context.Context) (int, error) {
	closed, err := s.repo.CloseExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	seen := map[string]struct{}{}
	for _, e := range closed {
		if _, ok := seen[e.CityID]; ok {
			continue
		}
		seen[e.CityID] = struct{}{}
		s.invalidate(ctx, e.CityID)
	}
	if len(closed) > 0 {
		s.logger.Info().Int("total", len(closed)).Msg("editais encerrados")
	}
	return len(closed), nil
}

func (s *Service) invalidate(ctx context.Context, cityID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(cityID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Str("cidade", cityID).Msg("falha ao invalidar cache de editais")
	}
}
