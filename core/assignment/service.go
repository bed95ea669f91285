package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/access"
	"github.com/trezcool/coursework/core/session"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewWorkflowError(core.KindNotFound, "assignment not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments applies AND operation on the set QueryFilter fields, newest first.
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error
	}

	// Service applies the assignment lifecycle against a Repository.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// Query lists the teacher's own assignments, or the published ones for a student.
func (svc *Service) Query(ctx context.Context, actor *session.Identity, status Status) ([]Assignment, error) {
	if actor == nil {
		return nil, access.Authorize(actor, session.RoleTeacher)
	}

	filter := QueryFilter{Status: status}
	if actor.IsTeacher() {
		filter.OwnerID = actor.ID
	} else {
		if status != "" && status != StatusPublished {
			return []Assignment{}, nil
		}
		filter.Status = StatusPublished
	}
	return svc.repo.QueryAssignments(ctx, filter)
}

func (svc *Service) Create(ctx context.Context, actor *session.Identity, f Fields) (Assignment, error) {
	a, err := New(actor, f, NowFunc)
	if err != nil {
		return Assignment{}, err
	}
	a, err = svc.repo.CreateAssignment(ctx, a)
	return a, errors.Wrap(err, "creating assignment")
}

func (svc *Service) ChangeStatus(ctx context.Context, actor *session.Identity, id string, to Status) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a, err = Transition(a, actor, to, NowFunc); err != nil {
		return Assignment{}, err
	}
	a, err = svc.repo.UpdateAssignment(ctx, a)
	return a, errors.Wrap(err, "updating assignment status")
}

func (svc *Service) Update(ctx context.Context, actor *session.Identity, id string, f Fields) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a, err = Edit(a, actor, f, NowFunc); err != nil {
		return Assignment{}, err
	}
	a, err = svc.repo.UpdateAssignment(ctx, a)
	return a, errors.Wrap(err, "updating assignment")
}

func (svc *Service) Delete(ctx context.Context, actor *session.Identity, id string) error {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return err
	}
	if err = CheckDelete(a, actor); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteAssignment(ctx, id), "deleting assignment")
}
