package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/carehub/internal/platform/db"
	"github.com/careops/carehub/internal/platform/httperr"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// identAgg folds a patient's identifier rows into a json array so the
// patient and its identifier set come back in one round trip.
const identAgg = `COALESCE(
		json_agg(json_build_object('system', pi.system, 'value', pi.value))
			FILTER (WHERE pi.system IS NOT NULL),
		'[]'
	)`

const patientCols = `p.id, p.first_name, p.last_name, p.created_at, p.updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, first_name, last_name, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		p.FirstName, p.LastName,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientCols+`, `+identAgg+` AS identifiers
		FROM patients p
		LEFT JOIN patients_identifiers pi ON p.id = pi.patient_id
		WHERE p.id = $1
		GROUP BY p.id`,
		id)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("patient not found", map[string]string{"id": id.String()})
	}
	return p, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+`, `+identAgg+` AS identifiers
		FROM patients p
		LEFT JOIN patients_identifiers pi ON p.id = pi.patient_id
		GROUP BY p.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name = $2, last_name = $3, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("patient not found", map[string]string{"id": p.ID.String()})
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("patient not found", map[string]string{"id": id.String()})
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.CreatedAt, &p.UpdatedAt, &p.Identifiers); err != nil {
		return nil, err
	}
	return &p, nil
}
