package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("cidade não encontrada")
	ErrInvalidCodigo = errors.New("código da cidade inválido")
)

// Tenant representa um município atendido pelo portal. Codigo é o cityId
// gravado em todos os documentos do município.
type Tenant struct {
	ID          uuid.UUID      `json:"id"`
	Codigo      string         `json:"codigo"`
	Slug        string         `json:"slug"`
	DisplayName string         `json:"display_name"`
	UF          string         `json:"uf"`
	Domain      string         `json:"domain"`
	Settings    map[string]any `json:"settings"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateTenantInput contém os campos necessários para registrar um município.
type CreateTenantInput struct {
	Codigo      string
	Slug        string
	DisplayName string
	UF          string
	Domain      string
	Settings    map[string]any
}
