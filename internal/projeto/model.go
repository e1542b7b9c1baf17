package projeto

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("projeto não encontrado")
	ErrConflict         = errors.New("projeto alterado por outra operação")
	ErrForbidden        = errors.New("sem acesso ao projeto")
	ErrNotReviewer      = errors.New("avaliador não designado para o projeto")
	ErrNotInAvaliacao   = errors.New("notas só podem ser lançadas na avaliação")
	ErrInvalidNota      = errors.New("nota deve estar entre 0 e 10")
	ErrNotasVazias      = errors.New("informe ao menos um critério")
	ErrCriterioRepetido = errors.New("critério repetido")
	ErrInvalidValor     = errors.New("valor solicitado inválido")
	ErrFileTooLarge     = errors.New("arquivo excede o tamanho máximo")
	ErrEmptyFile        = errors.New("arquivo vazio")
	ErrReviewerLocked   = errors.New("avaliador só pode ser trocado até a avaliação")
	ErrMissingField     = errors.New("campo obrigatório")
)

// Projeto é uma inscrição de proponente em um edital.
type Projeto struct {
	ID           uuid.UUID  `json:"id"`
	EditalID     uuid.UUID  `json:"edital_id"`
	CityID       string     `json:"cidade"`
	ProponenteID string     `json:"proponente_id"`
	Titulo       string     `json:"titulo"`
	Resumo       string     `json:"resumo"`
	Valor        float64    `json:"valor"`
	Etapa        Etapa      `json:"etapa"`
	Status       string     `json:"status"`
	AvaliadorID  *string    `json:"avaliador_id,omitempty"`
	Nota         *float64   `json:"nota,omitempty"`
	CriadoPor    string     `json:"criado_por"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm time.Time  `json:"atualizado_em"`
	ConcluidoEm  *time.Time `json:"concluido_em,omitempty"`
}

// NotaCriterio é a nota de um critério de avaliação.
type NotaCriterio struct {
	Criterio string  `json:"criterio" validate:"required,max=120"`
	Valor    float64 `json:"valor" validate:"gte=0,lte=10"`
}

// Documento é um anexo enviado ao bucket.
type Documento struct {
	ID          uuid.UUID `json:"id"`
	ProjetoID   uuid.UUID `json:"projeto_id"`
	Nome        string    `json:"nome"`
	Chave       string    `json:"chave"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Tamanho     int64     `json:"tamanho"`
	EnviadoPor  string    `json:"enviado_por"`
	CriadoEm    time.Time `json:"criado_em"`
}

// CreateInput encapsula uma nova inscrição.
type CreateInput struct {
	CityID       string
	EditalID     uuid.UUID
	ProponenteID string
	Titulo       string
	Resumo       string
	Valor        float64
	CriadoPor    string
	// OwnerOnly exige que o proponente pertença a CriadoPor.
	OwnerOnly bool
}

// Filter restringe a listagem. Campos vazios não filtram.
type Filter struct {
	EditalID    *uuid.UUID
	Etapa       Etapa
	AvaliadorID string
	CriadoPor   string
	Limit       int
	Offset      int
}

// UploadInput é um arquivo recebido para anexar ao projeto.
type UploadInput struct {
	Nome        string
	ContentType string
	Body        []byte
	EnviadoPor  string
}
