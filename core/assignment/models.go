package assignment

import (
	"strings"
	"time"

	"github.com/trezcool/coursework/core"
)

// Statuses
const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusCompleted Status = "COMPLETED"
)

var Statuses = []Status{StatusDraft, StatusPublished, StatusCompleted}

type Status string

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus canonicalizes a status label. An empty label is valid and means "any".
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToUpper(core.CleanString(value)))
	if s == "" || s.IsValid() {
		return s, true
	}
	return "", false
}

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Status      Status    `json:"status"`
	OwnerID     string    `json:"teacherId"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// Fields are the teacher-editable attributes of an Assignment.
type Fields struct {
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"notblank"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

func (f *Fields) Validate() error {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	return core.Validate.Struct(f)
}

// merge fills blank fields from orig, so that only provided fields are overwritten.
func (f Fields) merge(orig Assignment) Fields {
	if core.CleanString(f.Title) == "" {
		f.Title = orig.Title
	}
	if core.CleanString(f.Description) == "" {
		f.Description = orig.Description
	}
	if f.DueDate.IsZero() {
		f.DueDate = orig.DueDate
	}
	return f
}

type QueryFilter struct {
	OwnerID string
	Status  Status
}
