package emailsvc

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

const CategoryRedoRequest = "redo-request"

// UserGetter is the part of user.Service the notifier needs.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// RedoNotifier emails students when a teacher asks them to resubmit.
type RedoNotifier struct {
	users  UserGetter
	mail   core.EmailService
	logger core.Logger
}

var _ submission.RedoNotifier = (*RedoNotifier)(nil)

func NewRedoNotifier(users UserGetter, mailSvc core.EmailService, logger core.Logger) *RedoNotifier {
	return &RedoNotifier{users: users, mail: mailSvc, logger: logger}
}

func (n *RedoNotifier) NotifyRedo(ctx context.Context, a assignment.Assignment, s submission.Submission) {
	student, err := n.users.GetByID(ctx, s.StudentID)
	if err != nil {
		n.logger.Error(fmt.Sprintf("notifying redo: getting student %s", s.StudentID), err)
		return
	}
	if student.Email == "" {
		return
	}

	n.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "Resubmission requested: " + a.Title,
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour teacher asked you to redo your submission for %q (due %s).\nPlease submit a new answer.\n",
			student.Name, a.Title, a.DueDate.Format("2006-01-02"),
		),
		Category: CategoryRedoRequest,
		Refs:     map[string]string{"assignment_id": a.ID, "submission_id": s.ID},
	})
}
