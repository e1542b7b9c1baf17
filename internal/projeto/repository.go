package projeto

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/cultura/internal/db"
)

const columns = `id, edital_id, city_id, proponente_id, titulo, resumo, valor, etapa, status,
        avaliador_id, nota, criado_por, criado_em, atualizado_em, concluido_em`

// Repository persiste projetos, notas e anexos.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, input CreateInput) (*Projeto, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO projetos (edital_id, city_id, proponente_id, titulo, resumo, valor, etapa, status, criado_por)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+columns,
		input.EditalID, input.CityID, input.ProponenteID, input.Titulo, input.Resumo, input.Valor,
		EtapaInscricao, StatusPendente, input.CriadoPor,
	)
	return scanProjeto(row)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Projeto, error) {
	return scanProjeto(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM projetos WHERE id = $1`, id))
}

func (r *Repository) List(ctx context.Context, cityID string, filter Filter) ([]Projeto, error) {
	clauses := []string{"city_id = $1"}
	args := []any{cityID}
	idx := 2

	if filter.EditalID != nil {
		clauses = append(clauses, fmt.Sprintf("edital_id = $%d", idx))
		args = append(args, *filter.EditalID)
		idx++
	}
	if filter.Etapa != "" {
		clauses = append(clauses, fmt.Sprintf("etapa = $%d", idx))
		args = append(args, filter.Etapa)
		idx++
	}
	if filter.AvaliadorID != "" {
		clauses = append(clauses, fmt.Sprintf("avaliador_id = $%d", idx))
		args = append(args, filter.AvaliadorID)
		idx++
	}
	if filter.CriadoPor != "" {
		clauses = append(clauses, fmt.Sprintf("criado_por = $%d", idx))
		args = append(args, filter.CriadoPor)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + columns + ` FROM projetos WHERE ` + strings.Join(clauses, " AND ") +
		fmt.Sprintf(" ORDER BY criado_em DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projetos := []Projeto{}
	for rows.Next() {
		p, err := scanProjeto(rows)
		if err != nil {
			return nil, err
		}
		projetos = append(projetos, *p)
	}
	return projetos, rows.Err()
}

// UpdateEtapa move o projeto somente se ele ainda estiver em from/status.
func (r *Repository) UpdateEtapa(ctx context.Context, id uuid.UUID, from Etapa, status string, to Etapa, newStatus string) (*Projeto, error) {
	var concluido *time.Time
	if to == EtapaConcluido {
		now := time.Now()
		concluido = &now
	}
	p, err := scanProjeto(r.pool.QueryRow(ctx, `
        UPDATE projetos
        SET etapa = $1, status = $2, concluido_em = COALESCE($3, concluido_em), atualizado_em = now()
        WHERE id = $4 AND etapa = $5 AND status = $6
        RETURNING `+columns, to, newStatus, concluido, id, from, status))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrConflict
	}
	return p, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, etapa Etapa, status string) (*Projeto, error) {
	p, err := scanProjeto(r.pool.QueryRow(ctx, `
        UPDATE projetos
        SET status = $1, atualizado_em = now()
        WHERE id = $2 AND etapa = $3
        RETURNING `+columns, status, id, etapa))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrConflict
	}
	return p, err
}

// ResolveAppealTx grava no projeto a decisão do recurso usando a transação
// de quem decide. Vale apenas para projeto em recurso ainda pendente.
func ResolveAppealTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, deferido bool) (*Projeto, error) {
	p, err := scanProjeto(tx.QueryRow(ctx, `
        UPDATE projetos
        SET status = $1, atualizado_em = now()
        WHERE id = $2 AND etapa = $3 AND status = $4
        RETURNING `+columns, AppealOutcome(deferido), id, EtapaRecurso, StatusPendente))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrConflict
	}
	return p, err
}

func (r *Repository) SetAvaliador(ctx context.Context, id uuid.UUID, avaliadorID string) (*Projeto, error) {
	return scanProjeto(r.pool.QueryRow(ctx, `
        UPDATE projetos
        SET avaliador_id = $1, atualizado_em = now()
        WHERE id = $2
        RETURNING `+columns, avaliadorID, id))
}

// ReplaceNotas troca as notas do avaliador e grava a média em uma transação.
func (r *Repository) ReplaceNotas(ctx context.Context, id uuid.UUID, avaliadorID string, notas []NotaCriterio, media float64) (*Projeto, error) {
	var out *Projeto
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM projeto_notas WHERE projeto_id = $1 AND avaliador_id = $2`, id, avaliadorID); err != nil {
			return err
		}
		for _, n := range notas {
			if _, err := tx.Exec(ctx, `
                INSERT INTO projeto_notas (projeto_id, avaliador_id, criterio, valor)
                VALUES ($1, $2, $3, $4)`, id, avaliadorID, n.Criterio, n.Valor); err != nil {
				return err
			}
		}
		p, err := scanProjeto(tx.QueryRow(ctx, `
            UPDATE projetos
            SET nota = $1, atualizado_em = now()
            WHERE id = $2 AND etapa = $3 AND avaliador_id = $4
            RETURNING `+columns, media, id, EtapaAvaliacao, avaliadorID))
		if errors.Is(err, ErrNotFound) {
			return ErrConflict
		}
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) ListNotas(ctx context.Context, id uuid.UUID) ([]NotaCriterio, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT criterio, valor
        FROM projeto_notas
        WHERE projeto_id = $1
        ORDER BY criterio`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notas := []NotaCriterio{}
	for rows.Next() {
		var n NotaCriterio
		if err := rows.Scan(&n.Criterio, &n.Valor); err != nil {
			return nil, err
		}
		notas = append(notas, n)
	}
	return notas, rows.Err()
}

func (r *Repository) AddDocumento(ctx context.Context, doc Documento) (*Documento, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO projeto_documentos (projeto_id, nome, chave, url, content_type, tamanho, enviado_por)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, projeto_id, nome, chave, url, content_type, tamanho, enviado_por, criado_em`,
		doc.ProjetoID, doc.Nome, doc.Chave, doc.URL, doc.ContentType, doc.Tamanho, doc.EnviadoPor)
	return scanDocumento(row)
}

func (r *Repository) ListDocumentos(ctx context.Context, id uuid.UUID) ([]Documento, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, projeto_id, nome, chave, url, content_type, tamanho, enviado_por, criado_em
        FROM projeto_documentos
        WHERE projeto_id = $1
        ORDER BY criado_em`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Documento{}
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func scanProjeto(row pgx.Row) (*Projeto, error) {
	var p Projeto
	if err := row.Scan(&p.ID, &p.EditalID, &p.CityID, &p.ProponenteID, &p.Titulo, &p.Resumo, &p.Valor,
		&p.Etapa, &p.Status, &p.AvaliadorID, &p.Nota, &p.CriadoPor, &p.CriadoEm, &p.AtualizadoEm, &p.ConcluidoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanDocumento(row pgx.Row) (*Documento, error) {
	var d Documento
	if err := row.Scan(&d.ID, &d.ProjetoID, &d.Nome, &d.Chave, &d.URL, &d.ContentType, &d.Tamanho, &d.EnviadoPor, &d.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
