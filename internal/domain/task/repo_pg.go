package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const taskCols = `t.id, t.title, t.description, t.due_at, t.task_type, t.task_data, t.status,
	t.priority, t.patient_id, t.assigned_to_user_id, t.assigned_by_user_id,
	t.completed_at, t.created_at, t.updated_at`

const identAgg = `COALESCE(
		json_agg(json_build_object('system', ti.system, 'value', ti.value))
			FILTER (WHERE ti.system IS NOT NULL),
		'[]'
	)`

// populateCols resolves references as json objects, or SQL NULL when the
// reference is unset so the row scans into nil summaries.
const populateCols = `,
	CASE WHEN ub.id IS NULL THEN NULL ELSE
		json_build_object('id', ub.id, 'first_name', ub.first_name, 'last_name', ub.last_name, 'email', ub.email)
	END AS assigned_by,
	CASE WHEN ut.id IS NULL THEN NULL ELSE
		json_build_object('id', ut.id, 'first_name', ut.first_name, 'last_name', ut.last_name, 'email', ut.email)
	END AS assigned_to,
	CASE WHEN p.id IS NULL THEN NULL ELSE
		json_build_object('id', p.id, 'first_name', p.first_name, 'last_name', p.last_name)
	END AS patient`

const populateJoins = `
	LEFT JOIN users ub ON t.assigned_by_user_id = ub.id
	LEFT JOIN users ut ON t.assigned_to_user_id = ut.id
	LEFT JOIN patients p ON t.patient_id = p.id`

func (r *repoPG) Create(ctx context.Context, t *Task) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tasks (
			id, title, description, due_at, task_type, task_data, status, priority,
			patient_id, assigned_to_user_id, assigned_by_user_id, created_at, updated_at
		) VALUES (
			uuid_generate_v4(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		) RETURNING id, created_at, updated_at`,
		t.Title, t.Description, t.DueAt, t.TaskType, rawJSON(t.TaskData), t.Status, t.Priority,
		t.PatientID, t.AssignedToUserID, t.AssignedByUserID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+taskCols+`, `+identAgg+` AS identifiers
		FROM tasks t
		LEFT JOIN tasks_identifiers ti ON t.id = ti.task_id
		WHERE t.id = $1
		GROUP BY t.id`, id)

	var t Task
	if err := row.Scan(taskFields(&t)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httperr.NotFound("task not found", map[string]string{"id": id.String()})
		}
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) GetPopulated(ctx context.Context, id uuid.UUID) (*PopulatedTask, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+taskCols+`, `+identAgg+` AS identifiers`+populateCols+`
		FROM tasks t
		LEFT JOIN tasks_identifiers ti ON t.id = ti.task_id`+populateJoins+`
		WHERE t.id = $1
		GROUP BY t.id, ub.id, ut.id, p.id`, id)

	var pt PopulatedTask
	fields := append(taskFields(&pt.Task), &pt.AssignedBy, &pt.AssignedTo, &pt.Patient)
	if err := row.Scan(fields...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httperr.NotFound("task not found", map[string]string{"id": id.String()})
		}
		return nil, err
	}
	return &pt, nil
}

func (r *repoPG) List(ctx context.Context, opts ListOptions) ([]*PopulatedTask, int, error) {
	var conditions []string
	var args []interface{}

	if len(opts.Statuses) > 0 {
		statuses := make([]string, len(opts.Statuses))
		for i, s := range opts.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("t.status = ANY($%d)", len(args)))
	}
	if opts.PatientID != nil {
		args = append(args, *opts.PatientID)
		conditions = append(conditions, fmt.Sprintf("t.patient_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskCols + `, ` + identAgg + ` AS identifiers`
	groupBy := ` GROUP BY t.id`
	joins := ` FROM tasks t LEFT JOIN tasks_identifiers ti ON t.id = ti.task_id`
	if opts.Populate {
		query += populateCols
		joins += populateJoins
		groupBy += `, ub.id, ut.id, p.id`
	}
	args = append(args, opts.Limit, opts.Offset)
	query += joins + where + groupBy +
		fmt.Sprintf(` ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []*PopulatedTask
	for rows.Next() {
		var pt PopulatedTask
		fields := taskFields(&pt.Task)
		if opts.Populate {
			fields = append(fields, &pt.AssignedBy, &pt.AssignedTo, &pt.Patient)
		}
		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, &pt)
	}
	return tasks, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, t *Task) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE tasks SET
			title = $2, description = $3, due_at = $4, task_type = $5, task_data = $6,
			status = $7, priority = $8, patient_id = $9,
			assigned_to_user_id = $10, assigned_by_user_id = $11, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Title, t.Description, t.DueAt, t.TaskType, rawJSON(t.TaskData),
		t.Status, t.Priority, t.PatientID,
		t.AssignedToUserID, t.AssignedByUserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("task not found", map[string]string{"id": t.ID.String()})
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE tasks SET status = $2,
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("task not found", map[string]string{"id": id.String()})
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("task not found", map[string]string{"id": id.String()})
	}
	return nil
}

// taskFields lists scan destinations in taskCols order plus the
// identifier aggregate.
func taskFields(t *Task) []interface{} {
	return []interface{}{
		&t.ID, &t.Title, &t.Description, &t.DueAt, &t.TaskType, &t.TaskData, &t.Status,
		&t.Priority, &t.PatientID, &t.AssignedToUserID, &t.AssignedByUserID,
		&t.CompletedAt, &t.CreatedAt, &t.UpdatedAt, &t.Identifiers,
	}
}

// rawJSON keeps empty payloads as SQL NULL instead of invalid json.
func rawJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}
