package rehydrator

import (
	"github.com/google/uuid"
)

// Session is the per-request unit of work for rehydration. It owns the
// identity cache that guarantees at most one instance per (classname, id)
// within its lifetime, and the population report for everything reconstructed
// through it.
//
// A Session is not safe for concurrent use. Serialize access externally or
// give each goroutine its own session.
type Session struct {
	id      string
	objects map[IdentityKeyString]any
	report  PopulationReport
}

// NewSession creates an empty session with a fresh identity cache.
func NewSession() *Session {
	return &Session{
		id:      uuid.New().String(),
		objects: make(map[IdentityKeyString]any),
	}
}

// ID returns the unique identifier of this session, useful for log
// correlation.
func (s *Session) ID() string {
	return s.id
}

// Report returns the population report accumulated by this session.
func (s *Session) Report() *PopulationReport {
	return &s.report
}

// ObjectCount returns how many distinct objects this session has
// reconstructed so far.
func (s *Session) ObjectCount() int {
	return len(s.objects)
}

func (s *Session) lookup(key IdentityKeyString) (any, bool) {
	obj, ok := s.objects[key]

	return obj, ok
}

func (s *Session) store(key IdentityKeyString, obj any) {
	s.objects[key] = obj
}

// identityKey composes the session-cache key of one domain object.
func identityKey(classname string, id string) IdentityKeyString {
	return classname + "-" + id
}
