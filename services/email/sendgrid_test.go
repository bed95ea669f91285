package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/tests"
)

func TestSendgridService_prepare(t *testing.T) {
	conf := core.LoadConfig("test")
	conf.TestMode = true
	svc := NewSendgridService(conf, testutil.NopLogger{})

	m := svc.prepare(core.EmailMessage{
		To:       []mail.Address{{Name: "Bo", Address: "bo@test.cd"}},
		Subject:  "Resubmission requested: Essay",
		Body:     "Please submit a new answer.",
		Category: CategoryRedoRequest,
		Refs:     map[string]string{"submission_id": "s1"},
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] Resubmission requested: Essay", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "bo@test.cd", p.To[0].Address)
	assert.Equal(t, "s1", p.CustomArgs["submission_id"])

	assert.Equal(t, []string{conf.AppName, CategoryRedoRequest}, m.Categories)
	assert.Equal(t, conf.FromEmail, m.From.Address)
	if assert.NotNil(t, m.MailSettings) && assert.NotNil(t, m.MailSettings.SandboxMode) {
		assert.True(t, *m.MailSettings.SandboxMode.Enable, "test mode must not deliver")
	}
}
