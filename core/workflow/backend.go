// Package workflow drives the assignment and submission lifecycles on behalf of the logged in user.
//
// Every operation checks the session, validates the requested change locally, performs a single
// round trip to the Backend and only then applies the response to the Store.
package workflow

import (
	"context"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
)

// Backend is the request/response collaborator holding the canonical data.
// Failures are *core.WorkflowError values: NotAuthenticated for a rejected token, AlreadySubmitted
// for a duplicate submission, NetworkFailure for anything else.
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (session.Identity, error)
	ListAssignments(ctx context.Context, token string, status assignment.Status) ([]assignment.Assignment, error)
	CreateAssignment(ctx context.Context, token string, f assignment.Fields) (assignment.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, token, id string, status assignment.Status) (assignment.Assignment, error)
	UpdateAssignmentFields(ctx context.Context, token, id string, f assignment.Fields) (assignment.Assignment, error)
	DeleteAssignment(ctx context.Context, token, id string) error
	ListSubmissions(ctx context.Context, token, assignmentID string) ([]submission.Submission, error)
	CreateSubmission(ctx context.Context, token, assignmentID, answer string) (submission.Submission, error)
	SetSubmissionStatus(ctx context.Context, token, id string, status submission.Status) (submission.Submission, error)
	MarkSubmissionReviewed(ctx context.Context, token, id string) (submission.Submission, error)
}
