package recurso

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("recurso não encontrado")
	ErrMessageNotFound = errors.New("mensagem não encontrada")
	ErrInvalidStatus   = errors.New("status inválido")
	ErrInvalidAuthor   = errors.New("tipo de autor inválido")
	ErrNotInRecurso    = errors.New("projeto não está na etapa de recurso")
	ErrAlreadyOpen     = errors.New("já existe recurso em andamento para o projeto")
	ErrDecided         = errors.New("recurso já decidido")
	ErrParecerRequired = errors.New("parecer obrigatório para decidir")
	ErrForbidden       = errors.New("sem acesso ao recurso")
	ErrMissingField    = errors.New("campo obrigatório")
)

const (
	StatusAberto     = "aberto"
	StatusEmAnalise  = "em_analise"
	StatusDeferido   = "deferido"
	StatusIndeferido = "indeferido"

	AutorProponente = "proponente"
	AutorGestao     = "gestao"
	AutorSistema    = "sistema"
)

var (
	validStatuses = map[string]struct{}{
		StatusAberto:     {},
		StatusEmAnalise:  {},
		StatusDeferido:   {},
		StatusIndeferido: {},
	}
	validAuthorTypes = map[string]struct{}{
		AutorProponente: {},
		AutorGestao:     {},
		AutorSistema:    {},
	}
)

// Recurso é o pedido de revisão de um projeto reprovado na avaliação.
type Recurso struct {
	ID            uuid.UUID  `json:"id"`
	ProjetoID     uuid.UUID  `json:"projeto_id"`
	CityID        string     `json:"cidade"`
	Status        string     `json:"status"`
	Justificativa string     `json:"justificativa"`
	Parecer       *string    `json:"parecer,omitempty"`
	CriadoPor     string     `json:"criado_por"`
	CriadoEm      time.Time  `json:"criado_em"`
	AtualizadoEm  time.Time  `json:"atualizado_em"`
	DecididoEm    *time.Time `json:"decidido_em,omitempty"`
}

// Decided indica se o recurso já tem decisão final.
func (r Recurso) Decided() bool {
	return r.Status == StatusDeferido || r.Status == StatusIndeferido
}

// Mensagem é uma interação no recurso.
type Mensagem struct {
	ID        uuid.UUID `json:"id"`
	RecursoID uuid.UUID `json:"recurso_id"`
	AutorTipo string    `json:"autor_tipo"`
	AutorID   *string   `json:"autor_id,omitempty"`
	Corpo     string    `json:"corpo"`
	CriadoEm  time.Time `json:"criado_em"`
}

// OpenInput encapsula a abertura de recurso.
type OpenInput struct {
	CityID        string
	ProjetoID     uuid.UUID
	Justificativa string
	CriadoPor     string
	// OwnerOnly exige que o projeto tenha sido inscrito por CriadoPor.
	OwnerOnly bool
}

// UpdateInput altera status e parecer. Campos nulos não mudam.
type UpdateInput struct {
	ID         uuid.UUID
	Status     *string
	Parecer    *string
	DecididoEm *time.Time
}

// MessageInput encapsula nova mensagem no recurso.
type MessageInput struct {
	RecursoID uuid.UUID
	AutorTipo string
	AutorID   *string
	Corpo     string
}

// Filter permite filtrar listagem de recursos.
type Filter struct {
	CityID    string
	ProjetoID *uuid.UUID
	Status    []string
	CriadoPor string
	Limit     int
	Offset    int
}

// NormalizeStatus garante padrão em letras minúsculas.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return StatusAberto
	}
	return status
}

func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

func IsValidAuthor(author string) bool {
	_, ok := validAuthorTypes[strings.ToLower(strings.TrimSpace(author))]
	return ok
}
