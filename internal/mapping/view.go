package mapping

import (
	"fmt"
	"strings"

	"github.com/gestaozabele/cultura/internal/docstore"
	"github.com/gestaozabele/cultura/internal/extract"
	"github.com/gestaozabele/cultura/internal/search"
)

// Placeholder ocupa células sem valor, deixando lacunas visíveis.
const Placeholder = "—"

// State é o estado exclusivo de uma tabela.
type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateReady   State = "ready"
)

// Row é uma linha renderizada.
type Row struct {
	ID       string `json:"id" csv:"id"`
	Nome     string `json:"nome" csv:"nome"`
	Email    string `json:"email" csv:"email"`
	Telefone string `json:"telefone" csv:"telefone"`
}

// Input descreve o que a tabela genérica precisa para renderizar.
type Input struct {
	Title     string
	Records   []docstore.Record
	Loading   bool
	Err       string
	Extractor extract.Extractor
}

// TableView é o resultado da renderização, independente do formato do registro.
type TableView struct {
	Title   string `json:"titulo"`
	State   State  `json:"estado"`
	Error   string `json:"erro,omitempty"`
	Term    string `json:"busca,omitempty"`
	Total   int    `json:"total"`
	Rows    []Row  `json:"linhas"`
	Message string `json:"mensagem,omitempty"`
}

// Render aplica a busca e projeta os registros em linhas.
func Render(in Input, term string) TableView {
	view := TableView{Title: in.Title, Term: term, Rows: []Row{}}

	switch {
	case in.Loading:
		view.State = StateLoading
		return view
	case in.Err != "":
		view.State = StateError
		view.Error = in.Err
		return view
	}

	view.State = StateReady
	view.Total = len(in.Records)

	filtered := search.Filter(in.Records, term, in.Extractor)
	for _, rec := range filtered {
		view.Rows = append(view.Rows, RowOf(rec, in.Extractor))
	}

	if len(view.Rows) == 0 {
		if strings.TrimSpace(term) != "" {
			view.Message = fmt.Sprintf("Nenhum resultado para %q", strings.TrimSpace(term))
		} else {
			view.Message = "Nenhum registro encontrado"
		}
	}
	return view
}

// RowOf projeta um registro usando o extrator.
func RowOf(rec docstore.Record, ex extract.Extractor) Row {
	res := extract.Extract(ex, rec)
	id := rec.ID()
	if id == "" {
		id = Placeholder
	}
	return Row{
		ID:       id,
		Nome:     orPlaceholder(res.Name),
		Email:    orPlaceholder(res.Email),
		Telefone: orPlaceholder(res.Phone),
	}
}

func orPlaceholder(v *string) string {
	if v == nil {
		return Placeholder
	}
	return *v
}
