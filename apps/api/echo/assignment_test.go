package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
)

func createAssignment(t *testing.T, token, title string) assignment.Assignment {
	body := marshalObj(t, map[string]string{"title": title, "description": "Write", "dueDate": "2026-11-01"})
	rec := serve(httpTest{method: http.MethodPost, path: "/api/assignments", token: token, body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a assignment.Assignment
	decode(t, rec, &a)
	return a
}

func setStatus(t *testing.T, token, id string, status assignment.Status) assignment.Assignment {
	body := marshalObj(t, map[string]string{"status": string(status)})
	rec := serve(httpTest{method: http.MethodPut, path: "/api/assignments/" + id + "/status", token: token, body: body})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var a assignment.Assignment
	decode(t, rec, &a)
	return a
}

func Test_assignmentApi_create(t *testing.T) {
	_, teacherToken := createUser(t, "Teacher", "teacher.create@test.cd", session.RoleTeacher)
	_, studentToken := createUser(t, "Student", "student.create@test.cd", session.RoleStudent)

	body := func(title, desc, due string) []byte {
		return marshalObj(t, map[string]string{"title": title, "description": desc, "dueDate": due})
	}

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/assignments", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "teacher required", method: http.MethodPost, path: "/api/assignments", token: studentToken,
			body: body("Essay", "Write", "2026-11-01"), wantCode: http.StatusForbidden, wantKind: core.KindRoleMismatch,
		},
		{
			name: "blank fields", method: http.MethodPost, path: "/api/assignments", token: teacherToken,
			body: body(" ", "", "2026-11-01"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, ErrorResponse{
				Error:  "invalid input",
				Fields: map[string]string{"title": "this field cannot be blank", "description": "this field cannot be blank"},
			}),
		},
		{
			name: "bad due date", method: http.MethodPost, path: "/api/assignments", token: teacherToken,
			body: body("Essay", "Write", "tomorrow"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, ErrorResponse{
				Error:  "invalid due date",
				Fields: map[string]string{"dueDate": "due date must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"},
			}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("created as draft", func(t *testing.T) {
		a := createAssignment(t, teacherToken, " Essay ")
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, "Essay", a.Title)
		assert.Equal(t, assignment.StatusDraft, a.Status)
		assert.Equal(t, "2026-11-01", a.DueDate.Format("2006-01-02"))
	})
}

func Test_assignmentApi_query(t *testing.T) {
	teacher, teacherToken := createUser(t, "Teacher", "teacher.query@test.cd", session.RoleTeacher)
	_, otherToken := createUser(t, "Other", "other.query@test.cd", session.RoleTeacher)
	_, studentToken := createUser(t, "Student", "student.query@test.cd", session.RoleStudent)

	draft := createAssignment(t, teacherToken, "Draft")
	published := createAssignment(t, teacherToken, "Published")
	published = setStatus(t, teacherToken, published.ID, assignment.StatusPublished)

	tests := []httpTest{
		{
			name: "invalid status", path: "/api/assignments?status=lol", token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, ErrorResponse{
				Error:  "invalid status",
				Fields: map[string]string{"status": "status must be one of DRAFT, PUBLISHED or COMPLETED"},
			}),
		},
		{name: "own, newest first", path: "/api/assignments", token: teacherToken, wantCode: http.StatusOK, wantData: marshalObj(t, []assignment.Assignment{published, draft})},
		{name: "by status", path: "/api/assignments?status=draft", token: teacherToken, wantCode: http.StatusOK, wantData: marshalObj(t, []assignment.Assignment{draft})},
		{name: "other teacher", path: "/api/assignments", token: otherToken, wantCode: http.StatusOK, wantData: []byte("[]")},
		{name: "student: drafts hidden", path: "/api/assignments?status=DRAFT", token: studentToken, wantCode: http.StatusOK, wantData: []byte("[]")},
	}
	runHTTPTests(t, tests)

	t.Run("student sees published", func(t *testing.T) {
		rec := serve(httpTest{path: "/api/assignments", token: studentToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var list []assignment.Assignment
		decode(t, rec, &list)
		ids := make(map[string]bool)
		for _, a := range list {
			assert.Equal(t, assignment.StatusPublished, a.Status)
			ids[a.ID] = true
		}
		assert.True(t, ids[published.ID])
		assert.False(t, ids[draft.ID])
		assert.Equal(t, teacher.ID, published.OwnerID)
	})
}

func Test_assignmentApi_lifecycle(t *testing.T) {
	_, teacherToken := createUser(t, "Teacher", "teacher.lifecycle@test.cd", session.RoleTeacher)
	_, otherToken := createUser(t, "Other", "other.lifecycle@test.cd", session.RoleTeacher)
	_, studentToken := createUser(t, "Student", "student.lifecycle@test.cd", session.RoleStudent)

	a := createAssignment(t, teacherToken, "Essay")
	completed := createAssignment(t, teacherToken, "Done")
	setStatus(t, teacherToken, completed.ID, assignment.StatusPublished)
	setStatus(t, teacherToken, completed.ID, assignment.StatusCompleted)

	status := func(s string) []byte { return marshalObj(t, map[string]string{"status": s}) }
	title := func(s string) []byte { return marshalObj(t, map[string]string{"title": s}) }
	path := func(id string) string { return "/api/assignments/" + id }

	tests := []httpTest{
		{name: "not found", method: http.MethodPut, path: path("lol") + "/status", token: teacherToken, body: status("PUBLISHED"), wantCode: http.StatusNotFound, wantKind: core.KindNotFound},
		{name: "student publishes", method: http.MethodPut, path: path(a.ID) + "/status", token: studentToken, body: status("PUBLISHED"), wantCode: http.StatusForbidden, wantKind: core.KindRoleMismatch},
		{name: "other teacher publishes", method: http.MethodPut, path: path(a.ID) + "/status", token: otherToken, body: status("PUBLISHED"), wantCode: http.StatusForbidden, wantKind: core.KindNotOwner},
		{name: "draft -> completed", method: http.MethodPut, path: path(a.ID) + "/status", token: teacherToken, body: status("COMPLETED"), wantCode: http.StatusConflict, wantKind: core.KindInvalidTransition},
		{name: "unknown status", method: http.MethodPut, path: path(a.ID) + "/status", token: teacherToken, body: status("ARCHIVED"), wantCode: http.StatusConflict, wantKind: core.KindInvalidTransition},
		{name: "edit completed", method: http.MethodPut, path: path(completed.ID), token: teacherToken, body: title("x"), wantCode: http.StatusConflict, wantKind: core.KindEditNotAllowed},
		{name: "delete completed", method: http.MethodDelete, path: path(completed.ID), token: teacherToken, wantCode: http.StatusConflict, wantKind: core.KindDeleteNotAllowed},
		{name: "completed -> draft", method: http.MethodPut, path: path(completed.ID) + "/status", token: teacherToken, body: status("DRAFT"), wantCode: http.StatusConflict, wantKind: core.KindInvalidTransition},
		{name: "edit by other teacher", method: http.MethodPut, path: path(a.ID), token: otherToken, body: title("x"), wantCode: http.StatusForbidden, wantKind: core.KindNotOwner},
	}
	runHTTPTests(t, tests)

	t.Run("edit draft", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPut, path: path(a.ID), token: teacherToken, body: title("Poem")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var edited assignment.Assignment
		decode(t, rec, &edited)
		assert.Equal(t, "Poem", edited.Title)
		assert.Equal(t, a.Description, edited.Description)
		assert.True(t, a.DueDate.Equal(edited.DueDate))
	})

	t.Run("lowercase status accepted", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPut, path: path(a.ID) + "/status", token: teacherToken, body: status("published")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		setStatus(t, teacherToken, a.ID, assignment.StatusDraft)
	})

	t.Run("delete draft", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodDelete, path: path(a.ID), token: teacherToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = serve(httpTest{method: http.MethodDelete, path: path(a.ID), token: teacherToken})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
