package edital

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	editais []Edital
	lists   int
}

func (m *memRepo) Create(ctx context.Context, input CreateInput) (*Edital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Edital{
		ID: uuid.New(), CityID: input.CityID, Slug: input.Slug, Titulo: input.Titulo,
		Descricao: input.Descricao, Status: StatusAberto, AbreEm: input.AbreEm,
		EncerraEm: input.EncerraEm, ValorTotal: input.ValorTotal, CriadoEm: time.Now(),
	}
	m.editais = append(m.editais, e)
	return &e, nil
}

func (m *memRepo) Get(ctx context.Context, id uuid.UUID) (*Edital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.editais {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) ListByCity(ctx context.Context, cityID string) ([]Edital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := []Edital{}
	for _, e := range m.editais {
		if e.CityID == cityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) SlugExists(ctx context.Context, cityID, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.editais {
		if e.CityID == cityID && e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CloseExpired(ctx context.Context, now time.Time) ([]Edital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var closed []Edital
	for i := range m.editais {
		if m.editais[i].Status == StatusAberto && !m.editais[i].EncerraEm.After(now) {
			m.editais[i].Status = StatusEncerrado
			closed = append(closed, m.editais[i])
		}
	}
	return closed, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(raw), nil)
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.dels = append(c.dels, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func sampleInput(city, titulo string) CreateInput {
	abre := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return CreateInput{CityID: city, Titulo: titulo, AbreEm: abre, EncerraEm: abre.AddDate(0, 1, 0), ValorTotal: 150000}
}

func TestCreateSlugs(t *testing.T) {
	svc := NewService(&memRepo{}, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx, sampleInput("c1", "Prêmio Culturas Populares"))
	require.NoError(t, err)
	assert.Equal(t, "premio-culturas-populares", first.Slug)
	assert.Equal(t, StatusAberto, first.Status)

	second, err := svc.Create(ctx, sampleInput("c1", "Prêmio Culturas Populares"))
	require.NoError(t, err)
	assert.Equal(t, "premio-culturas-populares-2", second.Slug)

	other, err := svc.Create(ctx, sampleInput("c2", "Prêmio Culturas Populares"))
	require.NoError(t, err)
	assert.Equal(t, "premio-culturas-populares", other.Slug, "slug é único por município")
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&memRepo{}, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	in := sampleInput("c1", "X")
	in.EncerraEm = in.AbreEm
	_, err := svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidDates)

	in = sampleInput("c1", "X")
	in.ValorTotal = -1
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidValor)

	_, err = svc.Create(ctx, sampleInput("c1", "   "))
	assert.ErrorIs(t, err, ErrMissingTitle)
}

func TestListUsesCache(t *testing.T) {
	repo := &memRepo{}
	cache := newFakeCache()
	svc := NewService(repo, cache, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, sampleInput("c1", "Edital A"))
	require.NoError(t, err)

	first, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.lists, "segunda leitura vem do cache")

	_, err = svc.Create(ctx, sampleInput("c1", "Edital B"))
	require.NoError(t, err)
	third, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, repo.lists)
}

func TestGetEnforcesCity(t *testing.T) {
	svc := NewService(&memRepo{}, nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	e, err := svc.Create(ctx, sampleInput("c1", "Edital"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, "c2", e.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	got, err := svc.Get(ctx, "c1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
}

func TestCloseExpired(t *testing.T) {
	repo := &memRepo{}
	cache := newFakeCache()
	svc := NewService(repo, cache, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, sampleInput("c1", "Vencido"))
	require.NoError(t, err)
	cache.dels = nil

	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	n, err := svc.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{cacheKey("c1")}, cache.dels)

	n, err = svc.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := svc.List(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, StatusEncerrado, list[0].Status)
}

func TestAcceptsAt(t *testing.T) {
	in := sampleInput("c1", "x")
	e := Edital{Status: StatusAberto, AbreEm: in.AbreEm, EncerraEm: in.EncerraEm}
	assert.False(t, e.AcceptsAt(in.AbreEm.Add(-time.Second)))
	assert.True(t, e.AcceptsAt(in.AbreEm))
	assert.False(t, e.AcceptsAt(in.EncerraEm))
	e.Status = StatusEncerrado
	assert.False(t, e.AcceptsAt(in.AbreEm))
}

func TestCloserSchedule(t *testing.T) {
	svc := NewService(&memRepo{}, nil, time.Minute, zerolog.Nop())
	_, err := NewCloser(svc, "not a schedule", zerolog.Nop())
	assert.Error(t, err)

	c, err := NewCloser(svc, "*/5 * * * *", zerolog.Nop())
	require.NoError(t, err)
	c.Run()
	c.Start()
	c.Stop()
}
