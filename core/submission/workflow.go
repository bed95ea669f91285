package submission

import (
	"sort"
	"time"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/access"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
)

var (
	msgAlreadySubmitted   = "you have already submitted this assignment, wait for teacher review"
	msgSubmissionNotFound = "submission not found"
)

// Submit builds the submission of answer by a student.
// known are the submissions already known for the assignment; a REDO_REQUESTED one for the
// same student is superseded: the returned Submission keeps its ID.
func Submit(actor *session.Identity, a assignment.Assignment, known []Submission, answer string, now func() time.Time) (Submission, error) {
	if err := access.Authorize(actor, session.RoleStudent); err != nil {
		return Submission{}, err
	}
	if a.Status != assignment.StatusPublished {
		return Submission{}, core.NewWorkflowError(core.KindAssignmentNotOpen, "assignment is not open for submissions")
	}
	return Compose(actor, a.ID, known, answer, now)
}

// Compose is Submit for an assignment whose status is unknown to the caller.
func Compose(actor *session.Identity, assignmentID string, known []Submission, answer string, now func() time.Time) (Submission, error) {
	if err := access.Authorize(actor, session.RoleStudent); err != nil {
		return Submission{}, err
	}
	answer = core.CleanString(answer)
	if answer == "" {
		return Submission{}, core.NewWorkflowError(core.KindEmptyAnswer, "please write an answer before submitting")
	}

	sub := Submission{
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		Answer:       answer,
		SubmittedAt:  now().UTC(),
		Status:       StatusSubmitted,
	}
	if prior, ok := FindForStudent(known, assignmentID, actor.ID); ok {
		if prior.IsActive() {
			return Submission{}, core.NewWorkflowError(core.KindAlreadySubmitted, msgAlreadySubmitted)
		}
		sub.ID = prior.ID
	}
	return sub, nil
}

// FindForStudent returns the submission of a student for an assignment, preferring an active one.
func FindForStudent(subs []Submission, assignmentID, studentID string) (Submission, bool) {
	var (
		found Submission
		ok    bool
	)
	for _, s := range subs {
		if s.AssignmentID != assignmentID || s.StudentID != studentID {
			continue
		}
		if s.IsActive() {
			return s, true
		}
		found, ok = s, true
	}
	return found, ok
}

// RequestRedo asks the student to resubmit. Requesting it again is a no-op (changed = false).
// IsReviewed is left untouched until the student resubmits.
func RequestRedo(actor *session.Identity, a assignment.Assignment, s Submission) (updated Submission, changed bool, err error) {
	if err = checkTeacher(actor, a, s); err != nil {
		return Submission{}, false, err
	}
	if s.Status == StatusRedoRequested {
		return s, false, nil
	}
	s.Status = StatusRedoRequested
	return s, true, nil
}

// MarkReviewed flags s as reviewed. Marking it again is a no-op (changed = false).
func MarkReviewed(actor *session.Identity, a assignment.Assignment, s Submission) (updated Submission, changed bool, err error) {
	if err = checkTeacher(actor, a, s); err != nil {
		return Submission{}, false, err
	}
	if s.IsReviewed {
		return s, false, nil
	}
	s.IsReviewed = true
	return s, true, nil
}

// List returns the submissions of a, oldest first. Only the owning teacher may see them.
func List(actor *session.Identity, a assignment.Assignment, subs []Submission) ([]Submission, error) {
	if err := access.AuthorizeOwner(actor, session.RoleTeacher, a.OwnerID); err != nil {
		return nil, err
	}
	list := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if s.AssignmentID == a.ID {
			list = append(list, s)
		}
	}
	SortBySubmittedAt(list)
	return list, nil
}

// SortBySubmittedAt orders subs by submission time ascending, ties broken by ID.
func SortBySubmittedAt(subs []Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
	})
}

func checkTeacher(actor *session.Identity, a assignment.Assignment, s Submission) error {
	if err := access.AuthorizeOwner(actor, session.RoleTeacher, a.OwnerID); err != nil {
		return err
	}
	if s.AssignmentID != a.ID {
		return core.NewWorkflowError(core.KindNotFound, msgSubmissionNotFound)
	}
	return nil
}
