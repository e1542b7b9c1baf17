package tenant

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Store é o acesso a dados usado pelo serviço.
type Store interface {
	GetByDomain(ctx context.Context, domain string) (*Tenant, error)
	GetByCodigo(ctx context.Context, codigo string) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Create(ctx context.Context, input CreateTenantInput) (*Tenant, error)
	UpdateSettings(ctx context.Context, tenantID uuid.UUID, settings map[string]any) error
}

// Service contém as regras de negócio para resolução e cadastro de municípios.
type Service struct {
	repo     Store
	cache    sync.Map
	cacheTTL time.Duration
}

// cachedTenant armazena dados no cache em memória.
type cachedTenant struct {
	tenant   Tenant
	expireAt time.Time
}

// NewService cria uma nova instância de Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo, cacheTTL: 2 * time.Minute}
}

// Resolve encontra município pelo host informado.
func (s *Service) Resolve(ctx context.Context, host string) (*Tenant, error) {
	normalized := normalizeDomain(host)
	if normalized == "" {
		return nil, ErrNotFound
	}
	return s.cached(ctx, "domain:"+normalized, func() (*Tenant, error) {
		return s.repo.GetByDomain(ctx, normalized)
	})
}

// GetByCodigo encontra município pelo código usado como cityId.
func (s *Service) GetByCodigo(ctx context.Context, codigo string) (*Tenant, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return nil, ErrNotFound
	}
	return s.cached(ctx, "codigo:"+codigo, func() (*Tenant, error) {
		return s.repo.GetByCodigo(ctx, codigo)
	})
}

func (s *Service) cached(ctx context.Context, key string, load func() (*Tenant, error)) (*Tenant, error) {
	if v, ok := s.cache.Load(key); ok {
		entry := v.(cachedTenant)
		if time.Now().Before(entry.expireAt) {
			tenantCopy := entry.tenant
			return &tenantCopy, nil
		}
		s.cache.Delete(key)
	}

	tenant, err := load()
	if err != nil {
		return nil, err
	}
	s.store(*tenant)

	tenantCopy := *tenant
	return &tenantCopy, nil
}

func (s *Service) store(t Tenant) {
	entry := cachedTenant{tenant: t, expireAt: time.Now().Add(s.cacheTTL)}
	s.cache.Store("codigo:"+t.Codigo, entry)
	if t.Domain != "" {
		s.cache.Store("domain:"+t.Domain, entry)
	}
}

// Create registra um novo município.
func (s *Service) Create(ctx context.Context, input CreateTenantInput) (*Tenant, error) {
	input.Codigo = strings.TrimSpace(input.Codigo)
	if !validCodigo(input.Codigo) {
		return nil, ErrInvalidCodigo
	}
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.UF = strings.ToUpper(strings.TrimSpace(input.UF))
	input.Slug = normalizeSlug(input.Slug)
	if input.Slug == "" {
		input.Slug = normalizeSlug(input.DisplayName)
	}
	input.Domain = normalizeDomain(input.Domain)
	if input.Settings == nil {
		input.Settings = map[string]any{}
	}

	tenant, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.store(*tenant)
	return tenant, nil
}

// UpdateSettings substitui o JSON de configuração do município.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings map[string]any) error {
	id, err := uuid.Parse(strings.TrimSpace(tenantID))
	if err != nil {
		return err
	}
	if settings == nil {
		settings = map[string]any{}
	}

	if err := s.repo.UpdateSettings(ctx, id, settings); err != nil {
		return err
	}

	// Limpa cache forçando refetch na próxima resolução.
	s.cache.Range(func(key, value any) bool {
		entry := value.(cachedTenant)
		if entry.tenant.ID == id {
			s.cache.Delete(key)
		}
		return true
	})

	return nil
}

// List devolve todos os municípios.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	// Atualiza cache com o snapshot atual.
	for _, tenant := range tenants {
		s.store(tenant)
	}

	return tenants, nil
}

func validCodigo(codigo string) bool {
	if codigo == "" || len(codigo) > 16 {
		return false
	}
	for _, r := range codigo {
		if !unicode.IsDigit(r) && !unicode.IsLetter(r) && r != '-' {
			return false
		}
	}
	return true
}

func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(strings.ToLower(domain))
	domain = strings.TrimSuffix(domain, ".")
	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}
	return domain
}

func normalizeSlug(value string) string {
	return slug.Make(strings.TrimSpace(value))
}

// DecodeSettings tenta converter dados arbitrários em map.
func DecodeSettings(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return map[string]any{}, nil
	}
	return m, nil
}
