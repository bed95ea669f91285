package assignment

import (
	"fmt"
	"time"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/access"
	"github.com/trezcool/coursework/core/session"
)

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPublished
	case StatusPublished:
		return to == StatusDraft || to == StatusCompleted
	case StatusCompleted:
		return to == StatusPublished
	default:
		return false
	}
}

// AllowedTransitions lists the statuses reachable from `from`.
func AllowedTransitions(from Status) []Status {
	var to []Status
	for _, s := range Statuses {
		if CanTransition(from, s) {
			to = append(to, s)
		}
	}
	return to
}

// New creates a DRAFT Assignment owned by actor.
func New(actor *session.Identity, f Fields, now func() time.Time) (Assignment, error) {
	if err := access.Authorize(actor, session.RoleTeacher); err != nil {
		return Assignment{}, err
	}
	if err := f.Validate(); err != nil {
		return Assignment{}, err
	}

	ts := now().UTC()
	return Assignment{
		Title:       f.Title,
		Description: f.Description,
		DueDate:     f.DueDate.UTC(),
		Status:      StatusDraft,
		OwnerID:     actor.ID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Transition moves a to the target status on behalf of its owner.
func Transition(a Assignment, actor *session.Identity, to Status, now func() time.Time) (Assignment, error) {
	if err := access.AuthorizeOwner(actor, session.RoleTeacher, a.OwnerID); err != nil {
		return Assignment{}, err
	}
	if !CanTransition(a.Status, to) {
		return Assignment{}, core.NewWorkflowError(
			core.KindInvalidTransition,
			fmt.Sprintf("assignment status transition not allowed: %s -> %s", a.Status, statusLabel(to)),
		)
	}

	updated := a
	updated.Status = to
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Edit overwrites the provided fields of a DRAFT Assignment.
func Edit(a Assignment, actor *session.Identity, f Fields, now func() time.Time) (Assignment, error) {
	if err := access.AuthorizeOwner(actor, session.RoleTeacher, a.OwnerID); err != nil {
		return Assignment{}, err
	}
	if a.Status != StatusDraft {
		return Assignment{}, core.NewWorkflowError(core.KindEditNotAllowed, "only draft assignments can be edited")
	}
	f = f.merge(a)
	if err := f.Validate(); err != nil {
		return Assignment{}, err
	}

	updated := a
	updated.Title = f.Title
	updated.Description = f.Description
	updated.DueDate = f.DueDate.UTC()
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// CheckDelete allows deleting a DRAFT Assignment by its owner.
func CheckDelete(a Assignment, actor *session.Identity) error {
	if err := access.AuthorizeOwner(actor, session.RoleTeacher, a.OwnerID); err != nil {
		return err
	}
	if a.Status != StatusDraft {
		return core.NewWorkflowError(core.KindDeleteNotAllowed, "only draft assignments can be deleted")
	}
	return nil
}

func statusLabel(s Status) string {
	if s.IsValid() {
		return string(s)
	}
	return "UNSPECIFIED"
}
