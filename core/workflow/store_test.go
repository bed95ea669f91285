package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
)

var owner = &session.Identity{ID: "t1", Role: session.RoleTeacher, Token: "x"}

func TestStore_applyAssignment(t *testing.T) {
	s := NewStore()
	s.addAssignment(s.begin(), assignment.Assignment{ID: "a1", Status: assignment.StatusDraft, OwnerID: "t1"})

	first := s.beginAssignment("a1")
	second := s.beginAssignment("a1")

	assert.True(t, s.applyAssignment(second, assignment.Assignment{ID: "a1", Title: "second", OwnerID: "t1"}))
	assert.False(t, s.applyAssignment(first, assignment.Assignment{ID: "a1", Title: "first", OwnerID: "t1"}))

	v, ok := s.Assignment(owner, "a1")
	assert.True(t, ok)
	assert.Equal(t, "second", v.Title)
	assert.Equal(t, uint64(1), v.Version)

	// a request that never resolves does not hold back an older one
	older := s.beginAssignment("a1")
	_ = s.beginAssignment("a1") // failed
	assert.True(t, s.applyAssignment(older, assignment.Assignment{ID: "a1", Title: "older", OwnerID: "t1"}))
	v, _ = s.Assignment(owner, "a1")
	assert.Equal(t, "older", v.Title)
	assert.Equal(t, uint64(2), v.Version)

	// unknown entities are never created by a state-changing response
	assert.False(t, s.applyAssignment(s.beginAssignment("a2"), assignment.Assignment{ID: "a2"}))
	_, ok = s.Assignment(owner, "a2")
	assert.False(t, ok)
}

func TestStore_replaceAssignments(t *testing.T) {
	s := NewStore()
	old := s.beginList()
	current := s.beginList()

	assert.False(t, s.replaceAssignments(old, []assignment.Assignment{{ID: "old"}}))
	assert.True(t, s.replaceAssignments(current, []assignment.Assignment{{ID: "a2"}, {ID: "a1"}}))

	var ids []string
	for _, v := range s.Assignments(owner, "") {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"a2", "a1"}, ids)
}

func TestStore_replaceAssignmentsKeepsNewerChanges(t *testing.T) {
	s := NewStore()
	s.addAssignment(s.begin(), assignment.Assignment{ID: "a1", Status: assignment.StatusDraft, OwnerID: "t1"})
	s.addAssignment(s.begin(), assignment.Assignment{ID: "a2", OwnerID: "t1"})

	seq := s.beginList()
	s.addAssignment(s.begin(), assignment.Assignment{ID: "a3", OwnerID: "t1"})
	tk := s.beginAssignment("a1")
	assert.True(t, s.applyAssignment(tk, assignment.Assignment{ID: "a1", Status: assignment.StatusPublished, OwnerID: "t1"}))
	assert.True(t, s.removeAssignment(s.beginAssignment("a2")))

	// the list was answered before the create, the publish and the deletion
	assert.True(t, s.replaceAssignments(seq, []assignment.Assignment{
		{ID: "a2", OwnerID: "t1"},
		{ID: "a1", Status: assignment.StatusDraft, OwnerID: "t1"},
	}))

	var ids []string
	for _, v := range s.Assignments(owner, "") {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"a3", "a1"}, ids)
	v, _ := s.Assignment(owner, "a1")
	assert.Equal(t, assignment.StatusPublished, v.Status)
}

func TestStore_removeAssignmentCascades(t *testing.T) {
	s := NewStore()
	s.addAssignment(s.begin(), assignment.Assignment{ID: "a1", OwnerID: "t1"})
	s.addSubmission(s.begin(), submission.Submission{ID: "x1", AssignmentID: "a1", StudentID: "s1"})
	s.openSubmissions("a1")

	assert.True(t, s.removeAssignment(s.beginAssignment("a1")))
	assert.Empty(t, s.Assignments(owner, ""))
	_, ok := s.Submission(owner, "x1")
	assert.False(t, ok)
	assert.Empty(t, s.views)
}

func TestStore_submissionsView(t *testing.T) {
	s := NewStore()
	s.addAssignment(s.begin(), assignment.Assignment{ID: "a1", OwnerID: "t1"})
	t0 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	list := []submission.Submission{
		{ID: "x2", AssignmentID: "a1", StudentID: "s2", SubmittedAt: t0.Add(time.Minute)},
		{ID: "x1", AssignmentID: "a1", StudentID: "s1", SubmittedAt: t0},
	}

	// reopened while the first fetch was in flight
	stale := s.openSubmissions("a1")
	fresh := s.openSubmissions("a1")
	assert.False(t, s.replaceSubmissions(stale, list))
	assert.True(t, s.replaceSubmissions(fresh, list))

	views := s.Submissions(owner, "a1")
	if assert.Len(t, views, 2) {
		assert.Equal(t, "x1", views[0].ID)
		assert.True(t, views[0].CanRequestRedo)
	}

	// closed: discarded
	vt := s.openSubmissions("a1")
	s.closeSubmissions("a1")
	assert.False(t, s.replaceSubmissions(vt, nil))
	assert.Len(t, s.Submissions(owner, "a1"), 2)

	// a failed fetch only closes the view it opened
	failed := s.openSubmissions("a1")
	reopened := s.openSubmissions("a1")
	s.abortSubmissions(failed)
	assert.Equal(t, reopened.generation, s.views["a1"])
	s.abortSubmissions(reopened)
	_, shown := s.views["a1"]
	assert.False(t, shown)

	// other viewers get no actions
	student := &session.Identity{ID: "s1", Role: session.RoleStudent, Token: "y"}
	v, _ := s.Submission(student, "x1")
	assert.False(t, v.CanRequestRedo)
	assert.False(t, v.CanMarkReviewed)
}

func TestStore_addSubmissionSupersedes(t *testing.T) {
	s := NewStore()
	s.addSubmission(s.begin(), submission.Submission{ID: "x1", AssignmentID: "a1", StudentID: "s1", Status: submission.StatusRedoRequested})
	s.addSubmission(s.begin(), submission.Submission{ID: "x2", AssignmentID: "a1", StudentID: "s1", Status: submission.StatusSubmitted})

	subs := s.knownSubmissions("a1")
	if assert.Len(t, subs, 1) {
		assert.Equal(t, "x2", subs[0].ID)
	}

	tk := s.beginSubmission("x2")
	assert.True(t, s.applySubmission(tk, submission.Submission{ID: "x3", AssignmentID: "a1", StudentID: "s1"}))
	_, ok := s.submission("x2")
	assert.False(t, ok)
	_, ok = s.submission("x3")
	assert.True(t, ok)
}
