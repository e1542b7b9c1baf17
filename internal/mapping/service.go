// Package mapping implementa o mapeamento cultural do município: busca
// concorrente das três categorias (agentes, coletivos sem CNPJ e espaços
// culturais) e a apresentação genérica em abas e tabelas.
package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
)

// Categoria identifica uma aba do mapeamento.
type Categoria string

const (
	CategoriaAgentes   Categoria = "agentes"
	CategoriaColetivos Categoria = "coletivos"
	CategoriaEspacos   Categoria = "espacos"
)

// Categorias lista as abas na ordem de exibição.
var Categorias = []Categoria{CategoriaAgentes, CategoriaColetivos, CategoriaEspacos}

// FetchErrorMessage é a mensagem exibida ao usuário quando a busca falha.
const FetchErrorMessage = "Não foi possível carregar os dados do mapeamento. Tente novamente."

// ParseCategoria valida o nome recebido da interface.
func ParseCategoria(value string) (Categoria, bool) {
	c := Categoria(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Categorias {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Collection devolve o nome da coleção no armazenamento.
func (c Categoria) Collection() string {
	switch c {
	case CategoriaAgentes:
		return "mapeamento_agentes"
	case CategoriaColetivos:
		return "mapeamento_coletivos"
	case CategoriaEspacos:
		return "mapeamento_espacos"
	}
	return ""
}

// Kind devolve o tipo de extrator da categoria.
func (c Categoria) Kind() extract.Kind {
	switch c {
	case CategoriaAgentes:
		return extract.KindAgente
	case CategoriaColetivos:
		return extract.KindColetivoSemCNPJ
	case CategoriaEspacos:
		return extract.KindEspacoCultural
	}
	return ""
}

// Title devolve o rótulo da aba.
func (c Categoria) Title() string {
	switch c {
	case CategoriaAgentes:
		return "Agentes Culturais"
	case CategoriaColetivos:
		return "Coletivos sem CNPJ"
	case CategoriaEspacos:
		return "Espaços Culturais"
	}
	return string(c)
}

// Collections agrupa os registros das três categorias de um município.
type Collections struct {
	Agentes   []docstore.Record `json:"agentes"`
	Coletivos []docstore.Record `json:"coletivos"`
	Espacos   []docstore.Record `json:"espacos"`
}

// EmptyCollections devolve coleções vazias (não nulas).
func EmptyCollections() Collections {
	return Collections{
		Agentes:   []docstore.Record{},
		Coletivos: []docstore.Record{},
		Espacos:   []docstore.Record{},
	}
}

// Of devolve a coleção da categoria.
func (c Collections) Of(cat Categoria) []docstore.Record {
	switch cat {
	case CategoriaAgentes:
		return c.Agentes
	case CategoriaColetivos:
		return c.Coletivos
	case CategoriaEspacos:
		return c.Espacos
	}
	return nil
}

// FetchError é a única falha exposta pelo serviço; carrega a mensagem
// localizada e preserva a causa para logs.
type FetchError struct {
	CityID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("mapeamento: cidade %s: %v", e.CityID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Message devolve o texto para o usuário.
func (e *FetchError) Message() string { return FetchErrorMessage }

// Fetcher é o contrato consumido pela apresentação.
type Fetcher interface {
	FetchCategoryData(ctx context.Context, cityID string) (Collections, error)
}

// Service busca as categorias no armazenamento de documentos. Não guarda
// estado entre chamadas.
type Service struct {
	store  docstore.Store
	logger zerolog.Logger
}

// NewService cria o serviço de busca.
func NewService(store docstore.Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// FetchCategoryData consulta as três categorias em paralelo. Ou todas
// respondem, ou a chamada falha com coleções vazias.
func (s *Service) FetchCategoryData(ctx context.Context, cityID string) (Collections, error) {
	cityID = strings.TrimSpace(cityID)
	if cityID == "" {
		return EmptyCollections(), nil
	}

	results := make([][]docstore.Record, len(Categorias))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range Categorias {
		i, cat := i, cat
		g.Go(func() error {
			recs, err := s.store.ListByCity(gctx, cat.Collection(), cityID)
			if err != nil {
				return fmt.Errorf("%s: %w", cat, err)
			}
			results[i] = s.scoped(cat, cityID, recs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("city_id", cityID).Msg("mapeamento: falha ao buscar categorias")
		return EmptyCollections(), &FetchError{CityID: cityID, Err: err}
	}

	return Collections{
		Agentes:   results[0],
		Coletivos: results[1],
		Espacos:   results[2],
	}, nil
}

// scoped descarta registros de outro município; o armazenamento já filtra,
// então qualquer descarte indica dado inconsistente.
func (s *Service) scoped(cat Categoria, cityID string, recs []docstore.Record) []docstore.Record {
	out := make([]docstore.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.CityID() != cityID {
			s.logger.Warn().Str("categoria", string(cat)).Str("id", rec.ID()).
				Str("city_id", cityID).Str("record_city_id", rec.CityID()).
				Msg("mapeamento: registro fora do escopo descartado")
			continue
		}
		out = append(out, rec)
	}
	return out
}
