package recurso

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/cultura/internal/db"
	"github.com/gestaozabele/cultura/internal/projeto"
)

const uniqueViolation = "23505"

const columns = `id, projeto_id, city_id, status, justificativa, parecer, criado_por, criado_em, atualizado_em, decidido_em`

// Repository provê acesso às tabelas de recursos.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create conta com o índice parcial recursos_um_ativo_idx: um segundo recurso
// ativo para o mesmo projeto vira ErrAlreadyOpen.
func (r *Repository) Create(ctx context.Context, input OpenInput) (*Recurso, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO recursos (projeto_id, city_id, status, justificativa, criado_por)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+columns,
		input.ProjetoID, input.CityID, StatusAberto, input.Justificativa, input.CriadoPor)
	rec, err := scanRecurso(row)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyOpen
	}
	return rec, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Recurso, error) {
	return scanRecurso(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM recursos WHERE id = $1`, id))
}

// HasActive indica se há recurso não decidido para o projeto.
func (r *Repository) HasActive(ctx context.Context, projetoID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM recursos WHERE projeto_id = $1 AND status = ANY($2))`,
		projetoID, []string{StatusAberto, StatusEmAnalise}).Scan(&exists)
	return exists, err
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Recurso, error) {
	clauses := []string{"city_id = $1"}
	args := []any{filter.CityID}
	idx := 2

	if filter.ProjetoID != nil {
		clauses = append(clauses, fmt.Sprintf("projeto_id = $%d", idx))
		args = append(args, *filter.ProjetoID)
		idx++
	}
	if len(filter.Status) > 0 {
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, filter.Status)
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

	query := `SELECT ` + columns + ` FROM recursos WHERE ` + strings.Join(clauses, " AND ") +
		fmt.Sprintf(" ORDER BY criado_em DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recursos := []Recurso{}
	for rows.Next() {
		rec, err := scanRecurso(rows)
		if err != nil {
			return nil, err
		}
		recursos = append(recursos, *rec)
	}
	return recursos, rows.Err()
}

func (r *Repository) Update(ctx context.Context, input UpdateInput) (*Recurso, error) {
	query, args, ok := updateQuery(input)
	if !ok {
		return r.Get(ctx, input.ID)
	}
	rec, err := scanRecurso(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrDecided
	}
	return rec, err
}

// Decide grava a decisão, o status do projeto e a mensagem do sistema em uma
// única transação. Projeto fora de recurso pendente desfaz tudo.
func (r *Repository) Decide(ctx context.Context, input UpdateInput, deferido bool, msg MessageInput) (*Recurso, error) {
	query, args, _ := updateQuery(input)
	var out *Recurso
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		rec, err := scanRecurso(tx.QueryRow(ctx, query, args...))
		if errors.Is(err, ErrNotFound) {
			return ErrDecided
		}
		if err != nil {
			return err
		}
		if _, err := projeto.ResolveAppealTx(ctx, tx, rec.ProjetoID, deferido); err != nil {
			if errors.Is(err, projeto.ErrConflict) {
				return ErrNotInRecurso
			}
			return err
		}
		if _, err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateQuery monta o UPDATE parcial. A decisão é final: a cláusula
// decidido_em IS NULL impede sobrescrever recurso deferido ou indeferido.
func updateQuery(input UpdateInput) (string, []any, bool) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", idx))
		args = append(args, *input.Status)
		idx++
	}
	if input.Parecer != nil {
		setParts = append(setParts, fmt.Sprintf("parecer = $%d", idx))
		args = append(args, *input.Parecer)
		idx++
	}
	if input.DecididoEm != nil {
		setParts = append(setParts, fmt.Sprintf("decidido_em = $%d", idx))
		args = append(args, *input.DecididoEm)
		idx++
	}
	if len(setParts) == 0 {
		return "", nil, false
	}
	setParts = append(setParts, "atualizado_em = now()")
	args = append(args, input.ID)

	query := fmt.Sprintf(`
        UPDATE recursos
        SET %s
        WHERE id = $%d AND decidido_em IS NULL
        RETURNING `+columns, strings.Join(setParts, ", "), idx)
	return query, args, true
}

func (r *Repository) CreateMessage(ctx context.Context, input MessageInput) (*Mensagem, error) {
	return insertMessage(ctx, r.pool, input)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertMessage(ctx context.Context, q queryRower, input MessageInput) (*Mensagem, error) {
	row := q.QueryRow(ctx, `
        INSERT INTO recurso_mensagens (recurso_id, autor_tipo, autor_id, corpo)
        VALUES ($1, $2, $3, $4)
        RETURNING id, recurso_id, autor_tipo, autor_id, corpo, criado_em`,
		input.RecursoID, input.AutorTipo, input.AutorID, input.Corpo)
	return scanMensagem(row)
}

func (r *Repository) ListMessages(ctx context.Context, recursoID uuid.UUID) ([]Mensagem, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, recurso_id, autor_tipo, autor_id, corpo, criado_em
        FROM recurso_mensagens
        WHERE recurso_id = $1
        ORDER BY criado_em ASC`, recursoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mensagens := []Mensagem{}
	for rows.Next() {
		msg, err := scanMensagem(rows)
		if err != nil {
			return nil, err
		}
		mensagens = append(mensagens, *msg)
	}
	return mensagens, rows.Err()
}

func scanRecurso(row pgx.Row) (*Recurso, error) {
	var rec Recurso
	if err := row.Scan(&rec.ID, &rec.ProjetoID, &rec.CityID, &rec.Status, &rec.Justificativa, &rec.Parecer,
		&rec.CriadoPor, &rec.CriadoEm, &rec.AtualizadoEm, &rec.DecididoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func scanMensagem(row pgx.Row) (*Mensagem, error) {
	var m Mensagem
	if err := row.Scan(&m.ID, &m.RecursoID, &m.AutorTipo, &m.AutorID, &m.Corpo, &m.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}
