package submission

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = core.NewWorkflowError(core.KindNotFound, msgSubmissionNotFound)
	ErrAlreadySubmitted = core.NewWorkflowError(core.KindAlreadySubmitted, msgAlreadySubmitted)
)

type (
	Repository interface {
		// CreateSubmission returns ErrAlreadySubmitted when the (assignment, student) pair is taken.
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	// AssignmentGetter is the part of assignment.Service a submission needs.
	AssignmentGetter interface {
		GetByID(ctx context.Context, id string) (assignment.Assignment, error)
	}

	// RedoNotifier tells a student that a resubmission was requested.
	RedoNotifier interface {
		NotifyRedo(ctx context.Context, a assignment.Assignment, s Submission)
	}

	Service struct {
		repo        Repository
		assignments AssignmentGetter
		notifier    RedoNotifier
	}
)

func NewService(repo Repository, assignments AssignmentGetter, notifier RedoNotifier) *Service {
	return &Service{repo: repo, assignments: assignments, notifier: notifier}
}

func (svc *Service) Submit(ctx context.Context, actor *session.Identity, assignmentID, answer string) (Submission, error) {
	a, err := svc.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}

	var known []Submission
	if actor != nil {
		known, err = svc.repo.QuerySubmissions(ctx, QueryFilter{AssignmentID: a.ID, StudentID: actor.ID})
		if err != nil {
			return Submission{}, errors.Wrap(err, "querying submissions")
		}
	}

	sub, err := Submit(actor, a, known, answer, NowFunc)
	if err != nil {
		return Submission{}, err
	}
	if sub.ID != "" {
		sub, err = svc.repo.UpdateSubmission(ctx, sub)
		return sub, errors.Wrap(err, "resubmitting")
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err == ErrAlreadySubmitted {
		return Submission{}, err
	}
	return sub, errors.Wrap(err, "creating submission")
}

func (svc *Service) List(ctx context.Context, actor *session.Identity, assignmentID string) ([]Submission, error) {
	a, err := svc.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissions(ctx, QueryFilter{AssignmentID: a.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return List(actor, a, subs)
}

func (svc *Service) RequestRedo(ctx context.Context, actor *session.Identity, id string) (Submission, error) {
	a, sub, err := svc.get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub, changed, err := RequestRedo(actor, a, sub)
	if err != nil || !changed {
		return sub, err
	}
	if sub, err = svc.repo.UpdateSubmission(ctx, sub); err != nil {
		return Submission{}, errors.Wrap(err, "requesting redo")
	}
	if svc.notifier != nil {
		svc.notifier.NotifyRedo(ctx, a, sub)
	}
	return sub, nil
}

func (svc *Service) MarkReviewed(ctx context.Context, actor *session.Identity, id string) (Submission, error) {
	a, sub, err := svc.get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub, changed, err := MarkReviewed(actor, a, sub)
	if err != nil || !changed {
		return sub, err
	}
	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	return sub, errors.Wrap(err, "marking reviewed")
}

func (svc *Service) get(ctx context.Context, id string) (assignment.Assignment, Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return assignment.Assignment{}, Submission{}, err
	}
	a, err := svc.assignments.GetByID(ctx, sub.AssignmentID)
	if err != nil {
		return assignment.Assignment{}, Submission{}, err
	}
	return a, sub, nil
}
