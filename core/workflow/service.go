package workflow

import (
	"context"
	"reflect"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/access"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
)

var (
	NowFunc = time.Now // mockable

	// errors
	errAssignmentNotLoaded = core.NewWorkflowError(core.KindNotFound, "assignment not found, reload the list")
	errSubmissionNotLoaded = core.NewWorkflowError(core.KindNotFound, "submission not found, reload the submissions")
)

// Service is the entry point of every user action.
type Service struct {
	backend Backend
	session *session.Context
	store   *Store
	logger  core.Logger
}

func NewService(backend Backend, sess *session.Context, store *Store, logger core.Logger) (*Service, error) {
	err := vala.BeginValidation().Validate(
		isSet(backend, "backend"),
		vala.IsNotNil(sess, "session"),
		vala.IsNotNil(store, "store"),
		isSet(logger, "logger"),
	).Check()
	if err != nil {
		return nil, err
	}
	return &Service{backend: backend, session: sess, store: store, logger: logger}, nil
}

// isSet checks dep like vala.IsNotNil, which panics on struct values.
func isSet(dep interface{}, name string) vala.Checker {
	if dep != nil && reflect.ValueOf(dep).Kind() == reflect.Struct {
		return func() (bool, string) { return true, "" }
	}
	return vala.IsNotNil(dep, name)
}

// Session

func (svc *Service) Login(ctx context.Context, email, password string) (session.Identity, error) {
	email = core.CleanString(email, true)
	if email == "" || password == "" {
		var fields []core.FieldError
		if email == "" {
			fields = append(fields, core.FieldError{Field: "email", Error: "email is required"})
		}
		if password == "" {
			fields = append(fields, core.FieldError{Field: "password", Error: "password is required"})
		}
		return session.Identity{}, core.NewValidationError(errors.New("invalid credentials"), fields...)
	}

	id, err := svc.backend.Authenticate(ctx, email, password)
	if err != nil {
		return session.Identity{}, svc.fail("login", err, nil)
	}
	if err = svc.session.Login(id); err != nil {
		return session.Identity{}, svc.fail("login", err, &id)
	}
	svc.store.reset()
	svc.logger.Info("logged in", map[string]interface{}{"user": id.ID, "role": id.Role})
	return id, nil
}

func (svc *Service) Logout() error {
	svc.store.reset()
	return svc.session.Logout()
}

// Session returns the current identity, or nil when logged out.
func (svc *Service) Session() *session.Identity {
	return svc.session.Current()
}

// Read models

func (svc *Service) Assignments(status assignment.Status) []AssignmentView {
	return svc.store.Assignments(svc.session.Current(), status)
}

func (svc *Service) Assignment(id string) (AssignmentView, bool) {
	return svc.store.Assignment(svc.session.Current(), id)
}

func (svc *Service) Submissions(assignmentID string) []SubmissionView {
	return svc.store.Submissions(svc.session.Current(), assignmentID)
}

// Assignments

// LoadAssignments fetches the assignments visible to the current user, optionally filtered by status.
func (svc *Service) LoadAssignments(ctx context.Context, status assignment.Status) ([]AssignmentView, error) {
	sess := svc.session.Current()
	if sess == nil {
		return nil, svc.fail("load assignments", access.Authorize(sess, session.RoleTeacher), nil)
	}

	seq := svc.store.beginList()
	list, err := svc.backend.ListAssignments(ctx, sess.Token, status)
	if err != nil {
		return nil, svc.fail("load assignments", err, sess)
	}
	if !svc.store.replaceAssignments(seq, list) {
		svc.logger.Debug("stale assignments list dropped", *sess)
	} else if sess.IsStudent() {
		// students cannot list submissions: the backend decides on the next submit
		svc.store.forgetSubmissions(seq)
	}
	return svc.store.Assignments(sess, status), nil
}

func (svc *Service) CreateAssignment(ctx context.Context, f assignment.Fields) (AssignmentView, error) {
	sess := svc.session.Current()
	a, err := assignment.New(sess, f, NowFunc)
	if err != nil {
		return AssignmentView{}, svc.fail("create assignment", err, sess)
	}

	seq := svc.store.begin()
	rec, err := svc.backend.CreateAssignment(ctx, sess.Token, fieldsOf(a))
	if err != nil {
		return AssignmentView{}, svc.fail("create assignment", err, sess)
	}
	svc.store.addAssignment(seq, rec)
	v, _ := svc.store.Assignment(sess, rec.ID)
	return v, nil
}

// ChangeStatus moves an assignment along its lifecycle.
func (svc *Service) ChangeStatus(ctx context.Context, id string, to assignment.Status) (AssignmentView, error) {
	sess := svc.session.Current()
	a, err := svc.loadedAssignment(sess, session.RoleTeacher, id)
	if err != nil {
		return AssignmentView{}, svc.fail("change assignment status", err, sess)
	}
	if _, err = assignment.Transition(a, sess, to, NowFunc); err != nil {
		return AssignmentView{}, svc.fail("change assignment status", err, sess)
	}

	t := svc.store.beginAssignment(id)
	rec, err := svc.backend.UpdateAssignmentStatus(ctx, sess.Token, id, to)
	if err != nil {
		return AssignmentView{}, svc.fail("change assignment status", err, sess)
	}
	return svc.applyAssignment(sess, t, rec), nil
}

func (svc *Service) Publish(ctx context.Context, id string) (AssignmentView, error) {
	return svc.ChangeStatus(ctx, id, assignment.StatusPublished)
}

func (svc *Service) Unpublish(ctx context.Context, id string) (AssignmentView, error) {
	return svc.ChangeStatus(ctx, id, assignment.StatusDraft)
}

func (svc *Service) Complete(ctx context.Context, id string) (AssignmentView, error) {
	return svc.ChangeStatus(ctx, id, assignment.StatusCompleted)
}

func (svc *Service) Reopen(ctx context.Context, id string) (AssignmentView, error) {
	return svc.ChangeStatus(ctx, id, assignment.StatusPublished)
}

// EditAssignment overwrites the given fields of a draft; blank fields keep their current value.
func (svc *Service) EditAssignment(ctx context.Context, id string, f assignment.Fields) (AssignmentView, error) {
	sess := svc.session.Current()
	a, err := svc.loadedAssignment(sess, session.RoleTeacher, id)
	if err != nil {
		return AssignmentView{}, svc.fail("edit assignment", err, sess)
	}
	if a, err = assignment.Edit(a, sess, f, NowFunc); err != nil {
		return AssignmentView{}, svc.fail("edit assignment", err, sess)
	}

	t := svc.store.beginAssignment(id)
	rec, err := svc.backend.UpdateAssignmentFields(ctx, sess.Token, id, fieldsOf(a))
	if err != nil {
		return AssignmentView{}, svc.fail("edit assignment", err, sess)
	}
	return svc.applyAssignment(sess, t, rec), nil
}

func (svc *Service) DeleteAssignment(ctx context.Context, id string) error {
	sess := svc.session.Current()
	a, err := svc.loadedAssignment(sess, session.RoleTeacher, id)
	if err != nil {
		return svc.fail("delete assignment", err, sess)
	}
	if err = assignment.CheckDelete(a, sess); err != nil {
		return svc.fail("delete assignment", err, sess)
	}

	t := svc.store.beginAssignment(id)
	if err = svc.backend.DeleteAssignment(ctx, sess.Token, id); err != nil {
		return svc.fail("delete assignment", err, sess)
	}
	if !svc.store.removeAssignment(t) {
		svc.logger.Debug("stale assignment deletion dropped", *sess)
	}
	return nil
}

// Submissions

func (svc *Service) Submit(ctx context.Context, assignmentID, answer string) (SubmissionView, error) {
	sess := svc.session.Current()
	if err := access.Authorize(sess, session.RoleStudent); err != nil {
		return SubmissionView{}, svc.fail("submit", err, sess)
	}

	known := svc.store.knownSubmissions(assignmentID)
	var (
		sub submission.Submission
		err error
	)
	if a, ok := svc.store.assignment(assignmentID); ok {
		sub, err = submission.Submit(sess, a, known, answer, NowFunc)
	} else {
		// students only list open assignments: whether an unlisted one is open is the backend's call
		sub, err = submission.Compose(sess, assignmentID, known, answer, NowFunc)
	}
	if err != nil {
		return SubmissionView{}, svc.fail("submit", err, sess)
	}

	var (
		t   ticket
		seq uint64
	)
	if sub.ID != "" {
		t = svc.store.beginSubmission(sub.ID)
	} else {
		seq = svc.store.begin()
	}
	rec, err := svc.backend.CreateSubmission(ctx, sess.Token, assignmentID, sub.Answer)
	if err != nil {
		return SubmissionView{}, svc.fail("submit", err, sess)
	}
	if sub.ID == "" {
		svc.store.addSubmission(seq, rec)
	} else if !svc.store.applySubmission(t, rec) {
		svc.logger.Debug("stale submission dropped", *sess)
	}
	v, _ := svc.store.Submission(sess, rec.ID)
	return v, nil
}

// RequestRedo asks the student to resubmit; a submission already awaiting a redo is left as is.
func (svc *Service) RequestRedo(ctx context.Context, id string) (SubmissionView, error) {
	sess := svc.session.Current()
	a, sub, err := svc.loadedSubmission(sess, id)
	if err != nil {
		return SubmissionView{}, svc.fail("request redo", err, sess)
	}
	if _, changed, err := submission.RequestRedo(sess, a, sub); err != nil {
		return SubmissionView{}, svc.fail("request redo", err, sess)
	} else if !changed {
		v, _ := svc.store.Submission(sess, id)
		return v, nil
	}

	t := svc.store.beginSubmission(id)
	rec, err := svc.backend.SetSubmissionStatus(ctx, sess.Token, id, submission.StatusRedoRequested)
	if err != nil {
		return SubmissionView{}, svc.fail("request redo", err, sess)
	}
	return svc.applySubmission(sess, t, rec), nil
}

// MarkReviewed flags a submission as reviewed; an already reviewed one is left as is.
func (svc *Service) MarkReviewed(ctx context.Context, id string) (SubmissionView, error) {
	sess := svc.session.Current()
	a, sub, err := svc.loadedSubmission(sess, id)
	if err != nil {
		return SubmissionView{}, svc.fail("mark reviewed", err, sess)
	}
	if _, changed, err := submission.MarkReviewed(sess, a, sub); err != nil {
		return SubmissionView{}, svc.fail("mark reviewed", err, sess)
	} else if !changed {
		v, _ := svc.store.Submission(sess, id)
		return v, nil
	}

	t := svc.store.beginSubmission(id)
	rec, err := svc.backend.MarkSubmissionReviewed(ctx, sess.Token, id)
	if err != nil {
		return SubmissionView{}, svc.fail("mark reviewed", err, sess)
	}
	return svc.applySubmission(sess, t, rec), nil
}

// ShowSubmissions opens the submissions view of an assignment and fetches its submissions.
// The result is nil, with no error, when the view was hidden or reopened while the request was in flight.
func (svc *Service) ShowSubmissions(ctx context.Context, assignmentID string) ([]SubmissionView, error) {
	sess := svc.session.Current()
	a, err := svc.loadedAssignment(sess, session.RoleTeacher, assignmentID)
	if err != nil {
		return nil, svc.fail("show submissions", err, sess)
	}
	if _, err = submission.List(sess, a, nil); err != nil {
		return nil, svc.fail("show submissions", err, sess)
	}

	vt := svc.store.openSubmissions(a.ID)
	list, err := svc.backend.ListSubmissions(ctx, sess.Token, a.ID)
	if err != nil {
		svc.store.abortSubmissions(vt)
		return nil, svc.fail("show submissions", err, sess)
	}
	if !svc.store.replaceSubmissions(vt, list) {
		svc.logger.Debug("submissions discarded, view closed", *sess)
		return nil, nil
	}
	return svc.store.Submissions(sess, a.ID), nil
}

// HideSubmissions closes the submissions view; a pending fetch for it is discarded.
func (svc *Service) HideSubmissions(assignmentID string) {
	svc.store.closeSubmissions(assignmentID)
}

// ToggleSubmissions hides the view when shown, shows it otherwise.
func (svc *Service) ToggleSubmissions(ctx context.Context, assignmentID string) ([]SubmissionView, error) {
	if v, ok := svc.Assignment(assignmentID); ok && v.ShowingSubmissions {
		svc.HideSubmissions(assignmentID)
		return nil, nil
	}
	return svc.ShowSubmissions(ctx, assignmentID)
}

// helpers

// loadedAssignment checks the caller's role before looking the assignment up in the cache.
func (svc *Service) loadedAssignment(sess *session.Identity, role session.Role, id string) (assignment.Assignment, error) {
	if err := access.Authorize(sess, role); err != nil {
		return assignment.Assignment{}, err
	}
	a, ok := svc.store.assignment(id)
	if !ok {
		return assignment.Assignment{}, errAssignmentNotLoaded
	}
	return a, nil
}

func (svc *Service) loadedSubmission(sess *session.Identity, id string) (assignment.Assignment, submission.Submission, error) {
	if err := access.Authorize(sess, session.RoleTeacher); err != nil {
		return assignment.Assignment{}, submission.Submission{}, err
	}
	sub, ok := svc.store.submission(id)
	if !ok {
		return assignment.Assignment{}, submission.Submission{}, errSubmissionNotLoaded
	}
	a, err := svc.loadedAssignment(sess, session.RoleTeacher, sub.AssignmentID)
	return a, sub, err
}

func (svc *Service) applyAssignment(sess *session.Identity, t ticket, rec assignment.Assignment) AssignmentView {
	if !svc.store.applyAssignment(t, rec) {
		svc.logger.Debug("stale assignment dropped", *sess)
	}
	v, _ := svc.store.Assignment(sess, t.id)
	return v
}

func (svc *Service) applySubmission(sess *session.Identity, t ticket, rec submission.Submission) SubmissionView {
	if !svc.store.applySubmission(t, rec) {
		svc.logger.Debug("stale submission dropped", *sess)
	}
	v, _ := svc.store.Submission(sess, rec.ID)
	return v
}

// fail logs err and hands it back to the caller unchanged.
func (svc *Service) fail(op string, err error, sess *session.Identity) error {
	args := []interface{}{err}
	if sess != nil {
		args = append(args, *sess)
	}
	if core.IsKind(err, core.KindNetworkFailure) {
		svc.logger.Error(op+" failed", args...)
	} else {
		svc.logger.Warn(op+" rejected", args...)
	}
	return err
}

func fieldsOf(a assignment.Assignment) assignment.Fields {
	return assignment.Fields{Title: a.Title, Description: a.Description, DueDate: a.DueDate}
}
