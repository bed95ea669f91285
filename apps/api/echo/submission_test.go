package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/services/email"
)

func Test_submissionApi(t *testing.T) {
	_, teacherToken := createUser(t, "Teacher", "teacher.subs@test.cd", session.RoleTeacher)
	_, otherToken := createUser(t, "Other", "other.subs@test.cd", session.RoleTeacher)
	student, studentToken := createUser(t, "Student", "student.subs@test.cd", session.RoleStudent)
	_, peerToken := createUser(t, "Peer", "peer.subs@test.cd", session.RoleStudent)

	draft := createAssignment(t, teacherToken, "Draft")
	a := createAssignment(t, teacherToken, "Essay")
	setStatus(t, teacherToken, a.ID, assignment.StatusPublished)

	answer := func(assignmentID, text string) []byte {
		return marshalObj(t, map[string]string{"assignmentId": assignmentID, "answer": text})
	}

	// first submission
	rec := serve(httpTest{method: http.MethodPost, path: "/api/submissions", token: studentToken, body: answer(a.ID, " 42 ")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub submission.Submission
	decode(t, rec, &sub)
	assert.Equal(t, "42", sub.Answer)
	assert.Equal(t, student.ID, sub.StudentID)
	assert.Equal(t, submission.StatusSubmitted, sub.Status)
	assert.False(t, sub.IsReviewed)

	status := func(s string) []byte { return marshalObj(t, map[string]string{"status": s}) }
	subPath := "/api/submissions/" + sub.ID

	tests := []httpTest{
		{name: "duplicate", method: http.MethodPost, path: "/api/submissions", token: studentToken, body: answer(a.ID, "43"), wantCode: http.StatusConflict, wantKind: core.KindAlreadySubmitted},
		{name: "empty answer", method: http.MethodPost, path: "/api/submissions", token: peerToken, body: answer(a.ID, "  "), wantCode: http.StatusBadRequest, wantKind: core.KindEmptyAnswer},
		{name: "draft assignment", method: http.MethodPost, path: "/api/submissions", token: peerToken, body: answer(draft.ID, "x"), wantCode: http.StatusConflict, wantKind: core.KindAssignmentNotOpen},
		{name: "teacher submits", method: http.MethodPost, path: "/api/submissions", token: teacherToken, body: answer(a.ID, "x"), wantCode: http.StatusForbidden, wantKind: core.KindRoleMismatch},
		{name: "unknown assignment", method: http.MethodPost, path: "/api/submissions", token: peerToken, body: answer("lol", "x"), wantCode: http.StatusNotFound, wantKind: core.KindNotFound},
		{name: "student lists", path: "/api/submissions/" + a.ID, token: studentToken, wantCode: http.StatusForbidden, wantKind: core.KindRoleMismatch},
		{name: "other teacher lists", path: "/api/submissions/" + a.ID, token: otherToken, wantCode: http.StatusForbidden, wantKind: core.KindNotOwner},
		{name: "owner lists", path: "/api/submissions/" + a.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marshalObj(t, []submission.Submission{sub})},
		{name: "bad status", method: http.MethodPut, path: subPath + "/status", token: teacherToken, body: status("lol"), wantCode: http.StatusBadRequest},
		{name: "status SUBMITTED refused", method: http.MethodPut, path: subPath + "/status", token: teacherToken, body: status("SUBMITTED"), wantCode: http.StatusBadRequest},
		{name: "other teacher redo", method: http.MethodPut, path: subPath + "/status", token: otherToken, body: status("REDO_REQUESTED"), wantCode: http.StatusForbidden, wantKind: core.KindNotOwner},
		{name: "student reviews", method: http.MethodPut, path: subPath + "/review", token: studentToken, wantCode: http.StatusForbidden, wantKind: core.KindRoleMismatch},
		{name: "unknown submission", method: http.MethodPut, path: "/api/submissions/lol/review", token: teacherToken, wantCode: http.StatusNotFound, wantKind: core.KindNotFound},
	}
	runHTTPTests(t, tests)

	t.Run("review, redo and resubmit", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		rec := serve(httpTest{method: http.MethodPut, path: subPath + "/review", token: teacherToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var reviewed submission.Submission
		decode(t, rec, &reviewed)
		assert.True(t, reviewed.IsReviewed)

		for i := 0; i < 2; i++ { // idempotent
			rec = serve(httpTest{method: http.MethodPut, path: subPath + "/status", token: teacherToken, body: status("redo_requested")})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
		var redo submission.Submission
		decode(t, rec, &redo)
		assert.Equal(t, submission.StatusRedoRequested, redo.Status)
		assert.True(t, redo.IsReviewed)
		assert.Len(t, emailsvc.SentMessages, 1, "the student is notified once")

		rec = serve(httpTest{method: http.MethodPost, path: "/api/submissions", token: studentToken, body: answer(a.ID, "43")})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resub submission.Submission
		decode(t, rec, &resub)
		assert.Equal(t, sub.ID, resub.ID)
		assert.Equal(t, "43", resub.Answer)
		assert.Equal(t, submission.StatusSubmitted, resub.Status)
		assert.False(t, resub.IsReviewed)
	})
}
