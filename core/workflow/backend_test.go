package workflow_test

import (
	"context"
	"sync"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/workflow"
	"github.com/trezcool/coursework/storage/database/inmem"
)

// fakeBackend runs the server-side services against an in-memory database.
// Calls can be failed or held until released, to simulate slow responses.
type fakeBackend struct {
	asgSvc *assignment.Service
	subSvc *submission.Service

	mu       sync.Mutex
	accounts map[string]account // by email
	calls    []string
	fail     error
	hold     map[string]chan struct{}
	entered  chan string
}

type account struct {
	password string
	identity session.Identity
}

var _ workflow.Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	db := inmemdb.Open()
	asgSvc := assignment.NewService(inmemdb.NewAssignmentRepository(db))
	return &fakeBackend{
		asgSvc:   asgSvc,
		subSvc:   submission.NewService(inmemdb.NewSubmissionRepository(db), asgSvc, nil),
		accounts: make(map[string]account),
		hold:     make(map[string]chan struct{}),
		entered:  make(chan string, 1),
	}
}

func (b *fakeBackend) addAccount(email, password string, id session.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account{password: password, identity: id}
}

// holdNext blocks the next call to op until the returned channel is closed.
func (b *fakeBackend) holdNext(op string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	release := make(chan struct{})
	b.hold[op] = release
	return release
}

func (b *fakeBackend) failWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) enter(op string) error {
	b.mu.Lock()
	b.calls = append(b.calls, op)
	release := b.hold[op]
	delete(b.hold, op)
	err := b.fail
	b.mu.Unlock()

	if release != nil {
		b.entered <- op
		<-release
	}
	return err
}

func (b *fakeBackend) actor(token string) *session.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.identity.Token == token {
			id := acc.identity
			return &id
		}
	}
	return nil
}

func (b *fakeBackend) Authenticate(_ context.Context, email, password string) (session.Identity, error) {
	if err := b.enter("Authenticate"); err != nil {
		return session.Identity{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[email]
	if !ok || acc.password != password {
		return session.Identity{}, core.NewWorkflowError(core.KindNotAuthenticated, "invalid credentials")
	}
	return acc.identity, nil
}

func (b *fakeBackend) ListAssignments(ctx context.Context, token string, status assignment.Status) ([]assignment.Assignment, error) {
	// computed before the call can be held, like a response already on its way
	list, err := b.asgSvc.Query(ctx, b.actor(token), status)
	if hErr := b.enter("ListAssignments"); hErr != nil {
		return nil, hErr
	}
	return list, err
}

func (b *fakeBackend) CreateAssignment(ctx context.Context, token string, f assignment.Fields) (assignment.Assignment, error) {
	if err := b.enter("CreateAssignment"); err != nil {
		return assignment.Assignment{}, err
	}
	return b.asgSvc.Create(ctx, b.actor(token), f)
}

func (b *fakeBackend) UpdateAssignmentStatus(ctx context.Context, token, id string, status assignment.Status) (assignment.Assignment, error) {
	if err := b.enter("UpdateAssignmentStatus"); err != nil {
		return assignment.Assignment{}, err
	}
	return b.asgSvc.ChangeStatus(ctx, b.actor(token), id, status)
}

func (b *fakeBackend) UpdateAssignmentFields(ctx context.Context, token, id string, f assignment.Fields) (assignment.Assignment, error) {
	if err := b.enter("UpdateAssignmentFields"); err != nil {
		return assignment.Assignment{}, err
	}
	return b.asgSvc.Update(ctx, b.actor(token), id, f)
}

func (b *fakeBackend) DeleteAssignment(ctx context.Context, token, id string) error {
	if err := b.enter("DeleteAssignment"); err != nil {
		return err
	}
	return b.asgSvc.Delete(ctx, b.actor(token), id)
}

func (b *fakeBackend) ListSubmissions(ctx context.Context, token, assignmentID string) ([]submission.Submission, error) {
	if err := b.enter("ListSubmissions"); err != nil {
		return nil, err
	}
	return b.subSvc.List(ctx, b.actor(token), assignmentID)
}

func (b *fakeBackend) CreateSubmission(ctx context.Context, token, assignmentID, answer string) (submission.Submission, error) {
	if err := b.enter("CreateSubmission"); err != nil {
		return submission.Submission{}, err
	}
	return b.subSvc.Submit(ctx, b.actor(token), assignmentID, answer)
}

func (b *fakeBackend) SetSubmissionStatus(ctx context.Context, token, id string, status submission.Status) (submission.Submission, error) {
	if err := b.enter("SetSubmissionStatus"); err != nil {
		return submission.Submission{}, err
	}
	return b.subSvc.RequestRedo(ctx, b.actor(token), id)
}

func (b *fakeBackend) MarkSubmissionReviewed(ctx context.Context, token, id string) (submission.Submission, error) {
	if err := b.enter("MarkSubmissionReviewed"); err != nil {
		return submission.Submission{}, err
	}
	return b.subSvc.MarkReviewed(ctx, b.actor(token), id)
}
