package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres guarda documentos como JSONB na tabela documentos.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres cria o armazenamento sobre o pool informado.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) ListByCity(ctx context.Context, collection, cityID string) ([]Record, error) {
	const query = `
        SELECT id, city_id, dados
        FROM documentos
        WHERE colecao = $1 AND city_id = $2
        ORDER BY criado_em, id
    `

	rows, err := p.pool.Query(ctx, query, collection, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	const query = `
        SELECT id, city_id, dados
        FROM documentos
        WHERE colecao = $1 AND id = $2
    `
	return scanRecord(p.pool.QueryRow(ctx, query, collection, uid))
}

func (p *Postgres) Insert(ctx context.Context, collection, cityID string, data Record) (string, error) {
	const query = `
        INSERT INTO documentos (colecao, city_id, dados, criado_em, atualizado_em)
        VALUES ($1, $2, $3, $4, $4)
        RETURNING id
    `

	payload, err := marshalData(data)
	if err != nil {
		return "", err
	}

	var id uuid.UUID
	if err := p.pool.QueryRow(ctx, query, collection, cityID, payload, time.Now()).Scan(&id); err != nil {
		return "", err
	}
	return id.String(), nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	const query = `
        UPDATE documentos
        SET dados = dados || $3::jsonb,
            atualizado_em = $4
        WHERE colecao = $1 AND id = $2
    `

	payload, err := marshalData(fields)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, query, collection, uid, payload, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		id     uuid.UUID
		cityID string
		raw    []byte
	)
	if err := row.Scan(&id, &cityID, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec := Record{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
	}
	rec[FieldID] = id.String()
	rec[FieldCityID] = cityID
	return rec, nil
}

// marshalData remove id e cityId, que vivem em colunas próprias.
func marshalData(data map[string]any) ([]byte, error) {
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if k == FieldID || k == FieldCityID {
			continue
		}
		clean[k] = v
	}
	return json.Marshal(clean)
}
