package mapping

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gestaozabele/cultura/internal/extract"
)

// Ticket identifica uma busca iniciada: município e geração capturados no
// início. Só resultados com ticket atual são aplicados.
type Ticket struct {
	CityID     string
	Generation uint64
}

// Browser mantém o estado de navegação de um operador: município
// selecionado, coleções carregadas e termo de busca por aba.
type Browser struct {
	fetcher  Fetcher
	registry *extract.Registry

	mu         sync.Mutex
	cityID     string
	generation uint64
	loading    bool
	errMsg     string
	data       Collections
	terms      map[Categoria]string
}

// NewBrowser cria o navegador sem município selecionado.
func NewBrowser(fetcher Fetcher, registry *extract.Registry) *Browser {
	return &Browser{
		fetcher:  fetcher,
		registry: registry,
		data:     EmptyCollections(),
		terms:    make(map[Categoria]string),
	}
}

// Select troca o município e reinicia em carregamento. Município vazio
// produz estado vazio imediatamente, sem busca.
func (b *Browser) Select(cityID string) Ticket {
	cityID = strings.TrimSpace(cityID)

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selectLocked(cityID)
}

// Retry reinicia a busca para o município atual. Leitura e troca acontecem
// sob a mesma trava para não desfazer um Select concorrente.
func (b *Browser) Retry() Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selectLocked(b.cityID)
}

func (b *Browser) selectLocked(cityID string) Ticket {
	b.generation++
	b.cityID = cityID
	b.errMsg = ""
	b.data = EmptyCollections()
	b.loading = cityID != ""
	return Ticket{CityID: cityID, Generation: b.generation}
}

// Commit aplica o resultado de uma busca. Devolve false quando o ticket
// ficou obsoleto (outro município ou busca mais nova), caso em que nada muda.
func (b *Browser) Commit(t Ticket, data Collections, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.Generation != b.generation || t.CityID != b.cityID {
		return false
	}

	b.loading = false
	if err != nil {
		b.data = EmptyCollections()
		var fe *FetchError
		if errors.As(err, &fe) {
			b.errMsg = fe.Message()
		} else {
			b.errMsg = FetchErrorMessage
		}
		return true
	}

	b.errMsg = ""
	b.data = data
	return true
}

// Fetch executa a busca do ticket no Fetcher configurado.
func (b *Browser) Fetch(ctx context.Context, t Ticket) (Collections, error) {
	if t.CityID == "" {
		return EmptyCollections(), nil
	}
	return b.fetcher.FetchCategoryData(ctx, t.CityID)
}

// Load seleciona o município, busca e aplica o resultado de forma síncrona.
func (b *Browser) Load(ctx context.Context, cityID string) bool {
	t := b.Select(cityID)
	data, err := b.Fetch(ctx, t)
	return b.Commit(t, data, err)
}

// CityID devolve o município selecionado.
func (b *Browser) CityID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cityID
}

// SetSearch guarda o termo da aba. A busca é feita em memória, sem nova consulta.
func (b *Browser) SetSearch(cat Categoria, term string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.terms[cat] = term
}

// Search devolve o termo atual da aba.
func (b *Browser) Search(cat Categoria) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terms[cat]
}

// View renderiza a aba informada.
func (b *Browser) View(cat Categoria) TableView {
	b.mu.Lock()
	in := Input{
		Title:     cat.Title(),
		Records:   b.data.Of(cat),
		Loading:   b.loading,
		Err:       b.errMsg,
		Extractor: b.registry.For(cat.Kind()),
	}
	term := b.terms[cat]
	b.mu.Unlock()

	return Render(in, term)
}
