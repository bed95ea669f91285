package workflow

import (
	"sync"

	"github.com/trezcool/coursework/core/access"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
)

type (
	// AssignmentView is a read-only copy of a cached Assignment with the actions open to the viewer.
	AssignmentView struct {
		assignment.Assignment
		Version            uint64
		Transitions        []assignment.Status
		CanEdit            bool
		CanDelete          bool
		ShowingSubmissions bool
	}

	// SubmissionView is a read-only copy of a cached Submission with the actions open to the viewer.
	SubmissionView struct {
		submission.Submission
		Version         uint64
		CanRequestRedo  bool
		CanMarkReviewed bool
	}

	// ticket tags a state-changing request on an entity.
	// seq orders requests: a response is stale once the response of a newer request was applied.
	ticket struct {
		id  string
		seq uint64
	}

	// viewTicket tags a submissions list request with the view generation it was made for.
	viewTicket struct {
		assignmentID string
		generation   uint64
		seq          uint64
	}

	// applied is the seq of the request whose response the record holds.
	// A failed request never moves it.
	assignmentEntry struct {
		rec     assignment.Assignment
		version uint64
		applied uint64
	}

	submissionEntry struct {
		rec     submission.Submission
		version uint64
		applied uint64
	}
)

// Store is the single owner of the cached assignments and submissions.
// It is only mutated by Service, once a requested change has been accepted by the Backend.
type Store struct {
	mu          sync.RWMutex
	seq         uint64
	listIssued  uint64
	assignments map[string]*assignmentEntry
	order       []string // newest first
	submissions map[string]*submissionEntry
	removed     map[string]uint64 // deleted assignments: ID -> seq of the deletion
	views       map[string]uint64 // open submissions views: assignment ID -> generation
}

func NewStore() *Store {
	s := new(Store)
	s.reset()
	return s
}

// Read accessors

func (s *Store) Assignments(viewer *session.Identity, status assignment.Status) []AssignmentView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]AssignmentView, 0, len(s.order))
	for _, id := range s.order {
		e := s.assignments[id]
		if status != "" && e.rec.Status != status {
			continue
		}
		views = append(views, s.assignmentView(viewer, e))
	}
	return views
}

func (s *Store) Assignment(viewer *session.Identity, id string) (AssignmentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.assignments[id]
	if !ok {
		return AssignmentView{}, false
	}
	return s.assignmentView(viewer, e), true
}

// Submissions returns the cached submissions of an assignment, oldest first.
func (s *Store) Submissions(viewer *session.Identity, assignmentID string) []SubmissionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owner string
	if a, ok := s.assignments[assignmentID]; ok {
		owner = a.rec.OwnerID
	}
	subs := s.submissionsOf(assignmentID)
	submission.SortBySubmittedAt(subs)

	views := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, submissionView(viewer, owner, s.submissions[sub.ID]))
	}
	return views
}

func (s *Store) Submission(viewer *session.Identity, id string) (SubmissionView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.submissions[id]
	if !ok {
		return SubmissionView{}, false
	}
	var owner string
	if a, ok := s.assignments[e.rec.AssignmentID]; ok {
		owner = a.rec.OwnerID
	}
	return submissionView(viewer, owner, e), true
}

func (s *Store) assignmentView(viewer *session.Identity, e *assignmentEntry) AssignmentView {
	v := AssignmentView{Assignment: e.rec, Version: e.version}
	if access.AuthorizeOwner(viewer, session.RoleTeacher, e.rec.OwnerID) == nil {
		v.Transitions = assignment.AllowedTransitions(e.rec.Status)
		v.CanEdit = e.rec.Status == assignment.StatusDraft
		v.CanDelete = e.rec.Status == assignment.StatusDraft
	}
	_, v.ShowingSubmissions = s.views[e.rec.ID]
	return v
}

func submissionView(viewer *session.Identity, owner string, e *submissionEntry) SubmissionView {
	v := SubmissionView{Submission: e.rec, Version: e.version}
	if access.AuthorizeOwner(viewer, session.RoleTeacher, owner) == nil {
		v.CanRequestRedo = e.rec.Status != submission.StatusRedoRequested
		v.CanMarkReviewed = !e.rec.IsReviewed
	}
	return v
}

// internal reads, used by Service to validate requests

func (s *Store) assignment(id string) (assignment.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.assignments[id]
	if !ok {
		return assignment.Assignment{}, false
	}
	return e.rec, true
}

func (s *Store) submission(id string) (submission.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.submissions[id]
	if !ok {
		return submission.Submission{}, false
	}
	return e.rec, true
}

func (s *Store) knownSubmissions(assignmentID string) []submission.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submissionsOf(assignmentID)
}

func (s *Store) submissionsOf(assignmentID string) []submission.Submission {
	var subs []submission.Submission
	for _, e := range s.submissions {
		if e.rec.AssignmentID == assignmentID {
			subs = append(subs, e.rec)
		}
	}
	return subs
}

// Mutation entry points

func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = make(map[string]*assignmentEntry)
	s.order = nil
	s.submissions = make(map[string]*submissionEntry)
	s.removed = make(map[string]uint64)
	s.views = make(map[string]uint64)
	s.listIssued = 0
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// begin tags a request creating a new entity.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq()
}

// beginList tags an assignments list request.
func (s *Store) beginList() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listIssued = s.nextSeq()
	return s.listIssued
}

// replaceAssignments swaps the cached list for a fetched one. Entries holding the response of a
// request issued after the list request keep their cached record, and so do entries created since.
func (s *Store) replaceAssignments(seq uint64, list []assignment.Assignment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.listIssued {
		return false
	}
	listed := make(map[string]struct{}, len(list))
	for _, rec := range list {
		listed[rec.ID] = struct{}{}
	}
	entries := make(map[string]*assignmentEntry, len(list))
	order := make([]string, 0, len(list))
	for _, id := range s.order {
		// created after the list request
		if _, ok := listed[id]; !ok && s.assignments[id].applied > seq {
			entries[id] = s.assignments[id]
			order = append(order, id)
		}
	}
	for _, rec := range list {
		if deleted, ok := s.removed[rec.ID]; ok && deleted > seq {
			continue
		}
		e, ok := s.assignments[rec.ID]
		switch {
		case !ok:
			e = &assignmentEntry{rec: rec, applied: seq}
		case e.applied < seq:
			e.rec = rec
			e.version++
			e.applied = seq
		}
		entries[rec.ID] = e
		order = append(order, rec.ID)
	}
	s.assignments = entries
	s.order = order

	for id, e := range s.submissions {
		if _, ok := entries[e.rec.AssignmentID]; !ok {
			delete(s.submissions, id)
		}
	}
	for id := range s.views {
		if _, ok := entries[id]; !ok {
			delete(s.views, id)
		}
	}
	return true
}

// forgetSubmissions drops the cached submissions last updated by a request older than seq.
func (s *Store) forgetSubmissions(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.submissions {
		if e.applied < seq {
			delete(s.submissions, id)
		}
	}
}

// addAssignment caches a created assignment, newest first.
func (s *Store) addAssignment(seq uint64, rec assignment.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.assignments[rec.ID]; ok {
		if seq > e.applied {
			e.rec = rec
			e.version++
			e.applied = seq
		}
		return
	}
	s.assignments[rec.ID] = &assignmentEntry{rec: rec, applied: seq}
	s.order = append([]string{rec.ID}, s.order...)
}

func (s *Store) beginAssignment(id string) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ticket{id: id, seq: s.nextSeq()}
}

// applyAssignment overwrites the record by ID unless a newer response was applied.
func (s *Store) applyAssignment(t ticket, rec assignment.Assignment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.assignments[t.id]
	if !ok || t.seq < e.applied {
		return false
	}
	e.rec = rec
	e.version++
	e.applied = t.seq
	return true
}

func (s *Store) removeAssignment(t ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.assignments[t.id]
	if !ok || t.seq < e.applied {
		return false
	}
	delete(s.assignments, t.id)
	s.removed[t.id] = t.seq
	for i, id := range s.order {
		if id == t.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for id, sub := range s.submissions {
		if sub.rec.AssignmentID == t.id {
			delete(s.submissions, id)
		}
	}
	delete(s.views, t.id)
	return true
}

// openSubmissions marks the submissions view of an assignment as shown.
func (s *Store) openSubmissions(assignmentID string) viewTicket {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq()
	s.views[assignmentID] = seq
	return viewTicket{assignmentID: assignmentID, generation: seq, seq: seq}
}

// closeSubmissions hides the view; an outstanding list response for it will be discarded.
func (s *Store) closeSubmissions(assignmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, assignmentID)
}

// abortSubmissions hides the view opened by vt, unless it was reopened since.
func (s *Store) abortSubmissions(vt viewTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen, ok := s.views[vt.assignmentID]; ok && gen == vt.generation {
		delete(s.views, vt.assignmentID)
	}
}

func (s *Store) replaceSubmissions(vt viewTicket, list []submission.Submission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen, ok := s.views[vt.assignmentID]; !ok || gen != vt.generation {
		return false
	}
	fetched := make(map[string]struct{}, len(list))
	for _, rec := range list {
		fetched[rec.ID] = struct{}{}
		e, ok := s.submissions[rec.ID]
		switch {
		case !ok:
			s.submissions[rec.ID] = &submissionEntry{rec: rec, applied: vt.seq}
		case e.applied < vt.seq:
			e.rec = rec
			e.version++
			e.applied = vt.seq
		}
	}
	for id, e := range s.submissions {
		if _, ok := fetched[id]; !ok && e.rec.AssignmentID == vt.assignmentID && e.applied < vt.seq {
			delete(s.submissions, id)
		}
	}
	return true
}

func (s *Store) beginSubmission(id string) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ticket{id: id, seq: s.nextSeq()}
}

// applySubmission overwrites the submission t was issued for, unless a newer response was applied.
// rec may carry a new ID when the backend stored a resubmission as a new record.
func (s *Store) applySubmission(t ticket, rec submission.Submission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.submissions[t.id]
	if !ok || t.seq < e.applied {
		return false
	}
	if rec.ID != t.id {
		delete(s.submissions, t.id)
	}
	s.putSubmission(rec, e.version+1, t.seq)
	return true
}

// addSubmission caches a new submission, superseding any other for the same (assignment, student).
func (s *Store) addSubmission(seq uint64, rec submission.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version uint64
	if e, ok := s.submissions[rec.ID]; ok {
		if seq < e.applied {
			return
		}
		version = e.version + 1
	}
	s.putSubmission(rec, version, seq)
}

func (s *Store) putSubmission(rec submission.Submission, version, applied uint64) {
	for id, e := range s.submissions {
		if id != rec.ID && e.rec.AssignmentID == rec.AssignmentID && e.rec.StudentID == rec.StudentID {
			delete(s.submissions, id)
		}
	}
	s.submissions[rec.ID] = &submissionEntry{rec: rec, version: version, applied: applied}
}
