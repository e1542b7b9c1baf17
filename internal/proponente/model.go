package proponente

import (
	"errors"
	"strings"

	"github.com/gestaozabele/cultura/internal/extract"
)

// Collection guarda os cadastros de proponentes no banco de documentos.
const Collection = "proponentes"

var (
	ErrNotFound    = errors.New("proponente não encontrado")
	ErrInvalidTipo = errors.New("tipo de proponente inválido")
	ErrEmptyDados  = errors.New("dados do proponente obrigatórios")
	ErrForbidden   = errors.New("sem acesso ao proponente")
)

// Campos gravados pelo portal junto dos blocos livres do formulário.
const (
	FieldTipo     = "tipo"
	FieldUserID   = "userId"
	FieldCriadoEm = "criadoEm"
)

var tipos = map[string]extract.Kind{
	"fisica":   extract.KindPessoaFisica,
	"juridica": extract.KindPessoaJuridica,
	"coletivo": extract.KindColetivo,
}

// NormalizeTipo devolve o tipo em minúsculas e se ele é aceito.
func NormalizeTipo(tipo string) (string, bool) {
	tipo = strings.ToLower(strings.TrimSpace(tipo))
	_, ok := tipos[tipo]
	return tipo, ok
}

// Summary é a linha de listagem, já com os campos de exibição extraídos.
type Summary struct {
	ID       string  `json:"id"`
	Tipo     string  `json:"tipo"`
	Nome     *string `json:"nome"`
	Email    *string `json:"email"`
	Telefone *string `json:"telefone"`
}

// CreateInput encapsula um novo cadastro.
type CreateInput struct {
	CityID string
	UserID string
	Tipo   string
	Dados  map[string]any
}
