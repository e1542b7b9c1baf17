package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantColumns = `id, codigo, slug, display_name, uf, domain, settings, created_at, updated_at`

// Repository provê acesso ao armazenamento de municípios.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de municípios.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByDomain busca município pelo domínio normalizado.
func (r *Repository) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE domain = $1`, domain)
	return scanTenant(row)
}

// GetByCodigo busca município pelo código (cityId).
func (r *Repository) GetByCodigo(ctx context.Context, codigo string) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE codigo = $1`, codigo)
	return scanTenant(row)
}

// List devolve todos os municípios ordenados por nome.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tenants, nil
}

// Create insere um novo município e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateTenantInput) (*Tenant, error) {
	query := `
        INSERT INTO tenants (codigo, slug, display_name, uf, domain, settings)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + tenantColumns

	settingsJSON, err := jsonMarshalMap(input.Settings)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, query,
		input.Codigo,
		input.Slug,
		input.DisplayName,
		input.UF,
		input.Domain,
		settingsJSON,
	)

	return scanTenant(row)
}

// UpdateSettings atualiza apenas o campo settings e o timestamp.
func (r *Repository) UpdateSettings(ctx context.Context, tenantID uuid.UUID, settings map[string]any) error {
	const query = `
        UPDATE tenants
        SET settings = $2,
            updated_at = $3
        WHERE id = $1
    `

	settingsJSON, err := jsonMarshalMap(settings)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, tenantID, settingsJSON, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var (
		t           Tenant
		domain      *string
		settingsRaw []byte
	)

	if err := row.Scan(&t.ID, &t.Codigo, &t.Slug, &t.DisplayName, &t.UF, &domain, &settingsRaw, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if domain != nil {
		t.Domain = *domain
	}

	settings, err := DecodeSettings(settingsRaw)
	if err != nil {
		return nil, err
	}
	t.Settings = settings

	return &t, nil
}

func jsonMarshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
