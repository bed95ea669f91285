package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/session"
)

func Test_authApi_login(t *testing.T) {
	usr, _ := createUser(t, "Ada", "ada.login@test.cd", session.RoleTeacher)

	creds := func(email, pwd string) []byte {
		return marshalObj(t, map[string]string{"email": email, "password": pwd})
	}

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/login", body: creds("", ""),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, ErrorResponse{
				Error:  "invalid input",
				Fields: map[string]string{"email": "this field is required", "password": "this field is required"},
			}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/login", body: creds("lol@test.cd", testPwd),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, ErrorResponse{Error: "invalid credentials", Kind: core.KindNotAuthenticated}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login", body: creds(usr.Email, "nope"),
			wantCode: http.StatusUnauthorized, wantKind: core.KindNotAuthenticated,
		},
	}
	runHTTPTests(t, tests)

	t.Run("ok", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPost, path: "/api/auth/login", body: creds(" ADA.login@test.cd", testPwd)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var id session.Identity
		decode(t, rec, &id)
		assert.Equal(t, usr.ID, id.ID)
		assert.Equal(t, usr.Name, id.Name)
		assert.Equal(t, session.RoleTeacher, id.Role)
		require.NotEmpty(t, id.Token)

		// the token opens the protected endpoints
		rec = serve(httpTest{path: "/api/assignments", token: id.Token})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_jwtErrors(t *testing.T) {
	tests := []httpTest{
		{name: "missing token", path: "/api/assignments", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/api/assignments", token: "lol",
			wantCode: http.StatusUnauthorized, wantKind: core.KindNotAuthenticated,
		},
	}
	runHTTPTests(t, tests)
}
