package edital

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("edital não encontrado")
	ErrInvalidDates = errors.New("encerramento deve ser posterior à abertura")
	ErrInvalidValor = errors.New("valor total não pode ser negativo")
	ErrClosed       = errors.New("edital encerrado")
	ErrMissingTitle = errors.New("título obrigatório")
)

const (
	StatusAberto    = "aberto"
	StatusEncerrado = "encerrado"
)

// Edital é uma chamada pública de fomento de um município.
type Edital struct {
	ID         uuid.UUID `json:"id"`
	CityID     string    `json:"cidade"`
	Slug       string    `json:"slug"`
	Titulo     string    `json:"titulo"`
	Descricao  string    `json:"descricao"`
	Status     string    `json:"status"`
	AbreEm     time.Time `json:"abre_em"`
	EncerraEm  time.Time `json:"encerra_em"`
	ValorTotal float64   `json:"valor_total"`
	CriadoEm   time.Time `json:"criado_em"`
}

// AcceptsAt indica se o edital recebe inscrições no instante informado.
func (e Edital) AcceptsAt(now time.Time) bool {
	return e.Status == StatusAberto && !now.Before(e.AbreEm) && now.Before(e.EncerraEm)
}

// CreateInput encapsula campos para publicar um edital.
type CreateInput struct {
	CityID     string
	Slug       string
	Titulo     string
	Descricao  string
	AbreEm     time.Time
	EncerraEm  time.Time
	ValorTotal float64
}
