package comment

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

const commentCols = `id, text, status, parent_id, created_by_user_id, updated_by_user_id,
	deleted_by_user_id, created_at, updated_at, deleted_at`

func (r *repoPG) Create(ctx context.Context, c *Comment) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO comments (id, text, status, parent_id, created_by_user_id, updated_by_user_id, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		c.Text, c.Status, c.ParentID, c.CreatedByUserID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	c, err := scanComment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+commentCols+` FROM comments WHERE id = $1 AND deleted_at IS NULL LIMIT 1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("comment not found", map[string]string{"id": id.String()})
	}
	return c, err
}

func (r *repoPG) Thread(ctx context.Context, id uuid.UUID) ([]*Comment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+commentCols+`
		FROM comments
		WHERE (id = $1 OR parent_id = $1) AND deleted_at IS NULL
		ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func (r *repoPG) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+joinCols+`
		FROM comments c
		JOIN tasks_comments tc ON tc.comment_id = c.id
		WHERE tc.task_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func (r *repoPG) Update(ctx context.Context, c *Comment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE comments SET text = $2, status = $3, updated_by_user_id = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.Text, c.Status, c.UpdatedByUserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("comment not found", map[string]string{"id": c.ID.String()})
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy *uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE comments SET deleted_at = NOW(), deleted_by_user_id = $2, status = $3
		WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedBy, StatusDeleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("comment not found", map[string]string{"id": id.String()})
	}
	return nil
}

func (r *repoPG) SoftDeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE comments SET deleted_at = NOW(), status = $2
		WHERE deleted_at IS NULL
		  AND id IN (SELECT comment_id FROM tasks_comments WHERE task_id = $1)`,
		taskID, StatusDeleted)
	return err
}

func (r *repoPG) Associate(ctx context.Context, taskID, commentID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO tasks_comments (id, task_id, comment_id) VALUES (uuid_generate_v4(), $1, $2)`,
		taskID, commentID)
	return err
}

func (r *repoPG) Disassociate(ctx context.Context, taskID, commentID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM tasks_comments WHERE task_id = $1 AND comment_id = $2`, taskID, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("association not found", map[string]string{
			"task_id":    taskID.String(),
			"comment_id": commentID.String(),
		})
	}
	return nil
}

func (r *repoPG) DisassociateAll(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM tasks_comments WHERE task_id = $1`, taskID)
	return err
}

// joinCols is the column list for queries aliasing comments as c.
const joinCols = `c.id, c.text, c.status, c.parent_id, c.created_by_user_id, c.updated_by_user_id,
	c.deleted_by_user_id, c.created_at, c.updated_at, c.deleted_at`

func scanComment(row pgx.Row) (*Comment, error) {
	var c Comment
	if err := row.Scan(&c.ID, &c.Text, &c.Status, &c.ParentID, &c.CreatedByUserID, &c.UpdatedByUserID,
		&c.DeletedByUserID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectComments(rows pgx.Rows) ([]*Comment, error) {
	var comments []*Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
