package submission

import (
	"strings"
	"time"

	"github.com/trezcool/coursework/core"
)

// Statuses
const (
	StatusSubmitted     Status = "SUBMITTED"
	StatusRedoRequested Status = "REDO_REQUESTED"
)

type Status string

func (s Status) IsValid() bool {
	return s == StatusSubmitted || s == StatusRedoRequested
}

func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToUpper(core.CleanString(value)))
	return s, s.IsValid()
}

type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	StudentID    string    `json:"studentId"`
	Answer       string    `json:"answer"`
	SubmittedAt  time.Time `json:"submittedAt"` // UTC
	Status       Status    `json:"status"`
	IsReviewed   bool      `json:"isReviewed"`
}

// IsActive reports whether s blocks another submission for the same (assignment, student) pair.
func (s Submission) IsActive() bool {
	return s.Status == StatusSubmitted
}

type QueryFilter struct {
	AssignmentID string
	StudentID    string
}
