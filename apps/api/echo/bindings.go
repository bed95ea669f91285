package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
)

var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

// assignmentPayload accepts the due date either as RFC 3339 or as a plain date.
type assignmentPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

func (p assignmentPayload) fields() (assignment.Fields, error) {
	f := assignment.Fields{Title: p.Title, Description: p.Description}
	if p.DueDate == "" {
		return f, nil
	}
	for _, layout := range dueDateLayouts {
		if d, err := time.Parse(layout, p.DueDate); err == nil {
			f.DueDate = d.UTC()
			return f, nil
		}
	}
	return f, core.NewValidationError(
		errors.New("invalid due date"),
		core.FieldError{Field: "dueDate", Error: "due date must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"},
	)
}

func bindAssignmentFields(ctx echo.Context) (assignment.Fields, error) {
	var p assignmentPayload
	if err := ctx.Bind(&p); err != nil {
		return assignment.Fields{}, err
	}
	return p.fields()
}

type statusPayload struct {
	Status string `json:"status"`
}

func bindAssignmentStatus(ctx echo.Context) (assignment.Status, error) {
	var p statusPayload
	if err := ctx.Bind(&p); err != nil {
		return "", err
	}
	// unknown labels reach the state machine, which rejects them as invalid transitions
	if s, ok := assignment.ParseStatus(p.Status); ok && s != "" {
		return s, nil
	}
	return assignment.Status(p.Status), nil
}

func bindSubmissionStatus(ctx echo.Context) (submission.Status, error) {
	var p statusPayload
	if err := ctx.Bind(&p); err != nil {
		return "", err
	}
	s, ok := submission.ParseStatus(p.Status)
	if !ok {
		return "", core.NewValidationError(
			errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "status must be " + string(submission.StatusRedoRequested)},
		)
	}
	return s, nil
}

type submissionPayload struct {
	AssignmentID string `json:"assignmentId"`
	Answer       string `json:"answer"`
}
