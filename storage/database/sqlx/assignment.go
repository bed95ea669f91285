package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     time.Time `db:"due_date"`
	Status      string    `db:"status"`
	OwnerID     string    `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const assignmentColumns = `"id", "title", "description", "due_date", "status", "owner_id", "created_at", "updated_at"`

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

func (repo *assignmentRepository) toRow(a assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate.UTC(),
		Status:      string(a.Status),
		OwnerID:     a.OwnerID,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func (repo *assignmentRepository) fromRow(row assignmentRow) assignment.Assignment {
	return assignment.Assignment{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		DueDate:     row.DueDate.UTC(),
		Status:      assignment.Status(row.Status),
		OwnerID:     row.OwnerID,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	q := `INSERT INTO "assignment" (` + assignmentColumns + `)
		VALUES (:id, :title, :description, :due_date, :status, :owner_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(a)); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM "assignment" WHERE "id" = $1`
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "selecting assignment")
	}
	return repo.fromRow(row), nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var w where
	if filter.OwnerID != "" {
		w.add(`"owner_id" = $%d`, filter.OwnerID)
	}
	if filter.Status != "" {
		w.add(`"status" = $%d`, string(filter.Status))
	}
	ord := core.DBOrdering{Field: `"created_at"`}

	var rows []assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM "assignment"` + w.String() + ` ORDER BY ` + ord.String() + `, "id" DESC`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	list := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		list = append(list, repo.fromRow(row))
	}
	return list, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := `UPDATE "assignment" SET "title" = :title, "description" = :description, "due_date" = :due_date,
		"status" = :status, "updated_at" = :updated_at WHERE "id" = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(a))
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM "assignment" WHERE "id" = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
