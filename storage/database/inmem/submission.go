package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/coursework/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, sub := range repo.db.table {
		if sub.AssignmentID == s.AssignmentID && sub.StudentID == s.StudentID {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
	}
	s.ID = uuid.New().String()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	list := make([]submission.Submission, 0)
	for _, s := range repo.db.table {
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		list = append(list, *s)
	}
	submission.SortBySubmittedAt(list)
	return list, nil
}

func (repo *submissionRepository) UpdateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	repo.db.table[s.ID] = &s
	return s, nil
}
