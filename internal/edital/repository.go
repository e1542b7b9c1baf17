package edital

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columns = `id, city_id, slug, titulo, descricao, status, abre_em, encerra_em, valor_total, criado_em`

// Repository persiste editais no Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, input CreateInput) (*Edital, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO editais (city_id, slug, titulo, descricao, status, abre_em, encerra_em, valor_total)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+columns,
		input.CityID, input.Slug, input.Titulo, input.Descricao, StatusAberto,
		input.AbreEm, input.EncerraEm, input.ValorTotal,
	)
	return scanEdital(row)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Edital, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM editais WHERE id = $1`, id)
	return scanEdital(row)
}

func (r *Repository) ListByCity(ctx context.Context, cityID string) ([]Edital, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+columns+`
        FROM editais
        WHERE city_id = $1
        ORDER BY abre_em DESC, titulo`, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	editais := []Edital{}
	for rows.Next() {
		e, err := scanEdital(rows)
		if err != nil {
			return nil, err
		}
		editais = append(editais, *e)
	}
	return editais, rows.Err()
}

func (r *Repository) SlugExists(ctx context.Context, cityID, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM editais WHERE city_id = $1 AND slug = $2)`, cityID, slug).Scan(&exists)
	return exists, err
}

// CloseExpired encerra editais vencidos e devolve os afetados.
func (r *Repository) CloseExpired(ctx context.Context, now time.Time) ([]Edital, error) {
	rows, err := r.pool.Query(ctx, `
        UPDATE editais
        SET status = $1
        WHERE status = $2 AND encerra_em <= $3
        RETURNING `+columns, StatusEncerrado, StatusAberto, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var closed []Edital
	for rows.Next() {
		e, err := scanEdital(rows)
		if err != nil {
			return nil, err
		}
		closed = append(closed, *e)
	}
	return closed, rows.Err()
}

func scanEdital(row pgx.Row) (*Edital, error) {
	var e Edital
	if err := row.Scan(&e.ID, &e.CityID, &e.Slug, &e.Titulo, &e.Descricao, &e.Status, &e.AbreEm, &e.EncerraEm, &e.ValorTotal, &e.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
