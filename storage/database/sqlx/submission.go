package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/submission"
)

type submissionRow struct {
	ID           string    `db:"id"`
	AssignmentID string    `db:"assignment_id"`
	StudentID    string    `db:"student_id"`
	Answer       string    `db:"answer"`
	SubmittedAt  time.Time `db:"submitted_at"`
	Status       string    `db:"status"`
	IsReviewed   bool      `db:"is_reviewed"`
}

const submissionColumns = `"id", "assignment_id", "student_id", "answer", "submitted_at", "status", "is_reviewed"`

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo *submissionRepository) toRow(s submission.Submission) submissionRow {
	return submissionRow{
		ID:           s.ID,
		AssignmentID: s.AssignmentID,
		StudentID:    s.StudentID,
		Answer:       s.Answer,
		SubmittedAt:  s.SubmittedAt.UTC(),
		Status:       string(s.Status),
		IsReviewed:   s.IsReviewed,
	}
}

func (repo *submissionRepository) fromRow(row submissionRow) submission.Submission {
	return submission.Submission{
		ID:           row.ID,
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		Answer:       row.Answer,
		SubmittedAt:  row.SubmittedAt.UTC(),
		Status:       submission.Status(row.Status),
		IsReviewed:   row.IsReviewed,
	}
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	s.ID = uuid.New().String()
	q := `INSERT INTO "submission" (` + submissionColumns + `)
		VALUES (:id, :assignment_id, :student_id, :answer, :submitted_at, :status, :is_reviewed)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(s)); err != nil {
		if isUniqueViolation(err) {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}
	var row submissionRow
	q := `SELECT ` + submissionColumns + ` FROM "submission" WHERE "id" = $1`
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "selecting submission")
	}
	return repo.fromRow(row), nil
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	var w where
	if filter.AssignmentID != "" {
		w.add(`"assignment_id" = $%d`, filter.AssignmentID)
	}
	if filter.StudentID != "" {
		w.add(`"student_id" = $%d`, filter.StudentID)
	}
	ord := core.DBOrdering{Field: `"submitted_at"`, Ascending: true}

	var rows []submissionRow
	q := `SELECT ` + submissionColumns + ` FROM "submission"` + w.String() + ` ORDER BY ` + ord.String() + `, "id" ASC`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	list := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		list = append(list, repo.fromRow(row))
	}
	return list, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	q := `UPDATE "submission" SET "answer" = :answer, "submitted_at" = :submitted_at, "status" = :status,
		"is_reviewed" = :is_reviewed WHERE "id" = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, repo.toRow(s))
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return s, nil
}
