package identifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/carehub/internal/platform/db"
	"github.com/careops/carehub/internal/platform/httperr"
)

// storePG is a Store over one namespace table. The table layout is
// identical across namespaces (patients_identifiers, tasks_identifiers);
// only the table name and owner column differ.
type storePG struct {
	pool     *pgxpool.Pool
	table    string
	ownerCol string
}

func NewPatientStore(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool, table: "patients_identifiers", ownerCol: "patient_id"}
}

func NewTaskStore(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool, table: "tasks_identifiers", ownerCol: "task_id"}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (s *storePG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *storePG) ListFor(ctx context.Context, ownerID uuid.UUID) ([]Identifier, error) {
	rows, err := s.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT system, value FROM %s WHERE %s = $1 ORDER BY system, value`, s.table, s.ownerCol),
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var idents []Identifier
	for rows.Next() {
		var i Identifier
		if err := rows.Scan(&i.System, &i.Value); err != nil {
			return nil, err
		}
		idents = append(idents, i)
	}
	return idents, rows.Err()
}

func (s *storePG) Insert(ctx context.Context, ownerID uuid.UUID, ident Identifier) error {
	_, err := s.conn(ctx).Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, %s, system, value) VALUES (uuid_generate_v4(), $1, $2, $3)`, s.table, s.ownerCol),
		ownerID, ident.System, ident.Value)
	if db.IsUniqueViolation(err) {
		return httperr.Conflict("identifier already in use", map[string]string{
			"system": ident.System,
			"value":  ident.Value,
		}).WithCause(err)
	}
	return err
}

func (s *storePG) DeleteExact(ctx context.Context, ownerID uuid.UUID, ident Identifier) error {
	_, err := s.conn(ctx).Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND system = $2 AND value = $3`, s.table, s.ownerCol),
		ownerID, ident.System, ident.Value)
	return err
}

func (s *storePG) FindOwner(ctx context.Context, ident Identifier) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := s.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE system = $1 AND value = $2 LIMIT 1`, s.ownerCol, s.table),
		ident.System, ident.Value).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, httperr.NotFound("identifier not found", map[string]string{
			"system": ident.System,
			"value":  ident.Value,
		})
	}
	if err != nil {
		return uuid.Nil, err
	}
	return ownerID, nil
}
