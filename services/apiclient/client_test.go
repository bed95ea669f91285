package apiclient

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/apps/api/echo"
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/core/workflow"
	"github.com/trezcool/coursework/storage/database/inmem"
	"github.com/trezcool/coursework/tests"
)

const testPwd = "Kj8#mQ2!vb"

var (
	srv     *httptest.Server
	usrRepo user.Repository

	essay = assignment.Fields{Title: "Essay", Description: "Write", DueDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)}
)

func TestMain(m *testing.M) {
	core.Conf.TestMode = true

	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	asgSvc := assignment.NewService(inmemdb.NewAssignmentRepository(db))
	app := echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Logger:         testutil.NopLogger{},
		UserSvc:        user.NewService(usrRepo),
		AssignmentSvc:  asgSvc,
		SubmissionSvc:  submission.NewService(inmemdb.NewSubmissionRepository(db), asgSvc, nil),
	})
	srv = httptest.NewServer(app)

	code := m.Run()
	srv.Close()
	os.Exit(code)
}

func newClient() *Client {
	return New(srv.URL+"/api/", 5*time.Second)
}

func login(t *testing.T, c *Client, name, email string, role session.Role) session.Identity {
	t.Helper()
	testutil.CreateUser(t, usrRepo, name, email, testPwd, role, true)
	id, err := c.Authenticate(context.Background(), email, testPwd)
	require.NoError(t, err)
	return id
}

func TestClient_Authenticate(t *testing.T) {
	ctx := context.Background()
	c := newClient()
	usr := testutil.CreateUser(t, usrRepo, "Ada", "ada.client@test.cd", testPwd, session.RoleTeacher, true)

	_, err := c.Authenticate(ctx, usr.Email, "nope")
	assert.Equal(t, core.KindNotAuthenticated, core.KindOf(err))

	id, err := c.Authenticate(ctx, usr.Email, testPwd)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id.ID)
	assert.Equal(t, session.RoleTeacher, id.Role)
	assert.NotEmpty(t, id.Token)
}

func TestClient_errorKinds(t *testing.T) {
	ctx := context.Background()
	c := newClient()
	teacher := login(t, c, "Teacher", "teacher.kinds@test.cd", session.RoleTeacher)
	student := login(t, c, "Student", "student.kinds@test.cd", session.RoleStudent)

	a, err := c.CreateAssignment(ctx, teacher.Token, essay)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusDraft, a.Status)
	assert.True(t, essay.DueDate.Equal(a.DueDate))

	tests := []struct {
		name     string
		call     func() error
		wantKind core.ErrorKind
	}{
		{
			name:     "no token",
			call:     func() error { _, err := c.ListAssignments(ctx, "", ""); return err },
			wantKind: core.KindNotAuthenticated,
		},
		{
			name:     "expired or forged token",
			call:     func() error { _, err := c.ListAssignments(ctx, "lol", ""); return err },
			wantKind: core.KindNotAuthenticated,
		},
		{
			name:     "role mismatch",
			call:     func() error { _, err := c.CreateAssignment(ctx, student.Token, essay); return err },
			wantKind: core.KindRoleMismatch,
		},
		{
			name:     "not found",
			call:     func() error { return c.DeleteAssignment(ctx, teacher.Token, "lol") },
			wantKind: core.KindNotFound,
		},
		{
			name: "invalid transition",
			call: func() error {
				_, err := c.UpdateAssignmentStatus(ctx, teacher.Token, a.ID, assignment.StatusCompleted)
				return err
			},
			wantKind: core.KindInvalidTransition,
		},
		{
			name:     "assignment not open",
			call:     func() error { _, err := c.CreateSubmission(ctx, student.Token, a.ID, "42"); return err },
			wantKind: core.KindAssignmentNotOpen,
		},
		{
			name:     "unknown route",
			call:     func() error { return c.do(ctx, rest.Get, "/nope", teacher.Token, nil, nil, nil) },
			wantKind: core.KindNetworkFailure,
		},
		{
			name:     "unreachable server",
			call:     func() error { _, err := New("http://127.0.0.1:1", time.Second).ListAssignments(ctx, teacher.Token, ""); return err },
			wantKind: core.KindNetworkFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.Equal(t, tt.wantKind, core.KindOf(err), "err = %v", err)
		})
	}

	t.Run("validation errors keep their fields", func(t *testing.T) {
		_, err := c.CreateAssignment(ctx, teacher.Token, assignment.Fields{Title: " ", Description: "d", DueDate: essay.DueDate})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "err = %v", err)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "title", vErr.Fields[0].Field)
	})
}

func TestClient_withWorkflow(t *testing.T) {
	ctx := context.Background()
	c := newClient()
	testutil.CreateUser(t, usrRepo, "Teacher", "teacher.flow@test.cd", testPwd, session.RoleTeacher, true)
	testutil.CreateUser(t, usrRepo, "Student", "student.flow@test.cd", testPwd, session.RoleStudent, true)

	newService := func(email string) *workflow.Service {
		svc, err := workflow.NewService(c, session.NewContext(), workflow.NewStore(), testutil.NopLogger{})
		require.NoError(t, err)
		_, err = svc.Login(ctx, email, testPwd)
		require.NoError(t, err)
		return svc
	}
	teacher := newService("teacher.flow@test.cd")
	student := newService("student.flow@test.cd")

	a, err := teacher.CreateAssignment(ctx, essay)
	require.NoError(t, err)
	_, err = teacher.Publish(ctx, a.ID)
	require.NoError(t, err)

	_, err = student.LoadAssignments(ctx, assignment.StatusPublished)
	require.NoError(t, err)
	sub, err := student.Submit(ctx, a.ID, "42")
	require.NoError(t, err)

	subs, err := teacher.ShowSubmissions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	redo, err := teacher.RequestRedo(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusRedoRequested, redo.Status)

	_, err = student.LoadAssignments(ctx, "")
	require.NoError(t, err)
	resub, err := student.Submit(ctx, a.ID, "43")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resub.ID)
	assert.Equal(t, submission.StatusSubmitted, resub.Status)
	assert.False(t, resub.IsReviewed)

	// a fresh cache does not know about the active submission: the server refuses it
	student = newService("student.flow@test.cd")
	_, err = student.LoadAssignments(ctx, "")
	require.NoError(t, err)
	_, err = student.Submit(ctx, a.ID, "44")
	assert.Equal(t, core.KindAlreadySubmitted, core.KindOf(err))
}
