package mapping

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
)

type fakeFetcher struct {
	data  map[string]Collections
	err   error
	calls int
}

func (f *fakeFetcher) FetchCategoryData(ctx context.Context, cityID string) (Collections, error) {
	f.calls++
	if f.err != nil {
		return EmptyCollections(), &FetchError{CityID: cityID, Err: f.err}
	}
	if c, ok := f.data[cityID]; ok {
		return c, nil
	}
	return EmptyCollections(), nil
}

func cityData(prefix string, names ...string) Collections {
	c := EmptyCollections()
	for i, n := range names {
		c.Agentes = append(c.Agentes, docstore.Record{"id": prefix + string(rune('a'+i)), "nome": n})
	}
	return c
}

func rowIDs(v TableView) []string {
	out := []string{}
	for _, r := range v.Rows {
		out = append(out, r.ID)
	}
	return out
}

func TestBrowserDiscardsStaleTenant(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]Collections{
		"0001": cityData("x", "Maria"),
		"0002": cityData("y", "João", "Joana"),
	}}
	b := NewBrowser(fetcher, extract.Default())

	first := b.Select("0001")
	assert.Equal(t, StateLoading, b.View(CategoriaAgentes).State)

	second := b.Select("0002")
	dataSecond, err := b.Fetch(context.Background(), second)
	require.NoError(t, err)
	require.True(t, b.Commit(second, dataSecond, nil))

	dataFirst, _ := b.Fetch(context.Background(), first)
	assert.False(t, b.Commit(first, dataFirst, nil), "resposta antiga não pode sobrescrever a nova")

	view := b.View(CategoriaAgentes)
	assert.Equal(t, StateReady, view.State)
	assert.Equal(t, []string{"ya", "yb"}, rowIDs(view))
	assert.Equal(t, "0002", b.CityID())
}

func TestBrowserDiscardsStaleRetry(t *testing.T) {
	b := NewBrowser(&fakeFetcher{}, extract.Default())

	old := b.Select("0001")
	fresh := b.Retry()
	assert.Equal(t, old.CityID, fresh.CityID)

	assert.True(t, b.Commit(fresh, cityData("n", "Nova"), nil))
	assert.False(t, b.Commit(old, cityData("v", "Velha"), nil))
	assert.Equal(t, []string{"na"}, rowIDs(b.View(CategoriaAgentes)))
}

func TestBrowserRetryNeverUndoesConcurrentSelect(t *testing.T) {
	b := NewBrowser(&fakeFetcher{}, extract.Default())

	for i := 0; i < 200; i++ {
		b.Select("0001")
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Retry()
		}()
		go func() {
			defer wg.Done()
			b.Select("0002")
		}()
		wg.Wait()
		require.Equal(t, "0002", b.CityID(), "iteração %d", i)
	}
}

func TestBrowserErrorState(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("unavailable")}
	b := NewBrowser(fetcher, extract.Default())

	assert.True(t, b.Load(context.Background(), "0001"))
	for _, cat := range Categorias {
		view := b.View(cat)
		assert.Equal(t, StateError, view.State)
		assert.Equal(t, FetchErrorMessage, view.Error)
		assert.Empty(t, view.Rows)
	}

	fetcher.err = nil
	fetcher.data = map[string]Collections{"0001": cityData("r", "Recuperado")}
	t2 := b.Retry()
	data, err := b.Fetch(context.Background(), t2)
	require.NoError(t, err)
	require.True(t, b.Commit(t2, data, err))
	assert.Equal(t, StateReady, b.View(CategoriaAgentes).State)
}

func TestBrowserUnsetTenant(t *testing.T) {
	fetcher := &fakeFetcher{}
	b := NewBrowser(fetcher, extract.Default())

	assert.True(t, b.Load(context.Background(), ""))
	assert.Equal(t, 0, fetcher.calls)

	view := b.View(CategoriaEspacos)
	assert.Equal(t, StateReady, view.State)
	assert.Empty(t, view.Rows)
	assert.Equal(t, "Nenhum registro encontrado", view.Message)
}

func TestBrowserSearchAndClear(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]Collections{
		"0001": cityData("m", "Maria", "Bruno", "Mariana", "Ana Maria"),
	}}
	b := NewBrowser(fetcher, extract.Default())
	require.True(t, b.Load(context.Background(), "0001"))

	before := rowIDs(b.View(CategoriaAgentes))

	b.SetSearch(CategoriaAgentes, "maria")
	assert.Equal(t, []string{"ma", "mc", "md"}, rowIDs(b.View(CategoriaAgentes)))
	assert.Empty(t, b.Search(CategoriaColetivos), "outras abas não são afetadas")

	b.SetSearch(CategoriaAgentes, "")
	assert.Equal(t, before, rowIDs(b.View(CategoriaAgentes)))
	assert.Equal(t, 1, fetcher.calls, "busca não reconsulta o armazenamento")
}
