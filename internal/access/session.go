package access

import (
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/model"
)

// Actor is the authenticated user of a session.
type Actor struct {
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
}

// Session holds at most one actor, set at login and cleared at logout.
// It is owned by the top-level loop and is not safe for concurrent use.
type Session struct {
	actor *Actor
}

// NewSession returns a session with nobody logged in.
func NewSession() *Session {
	return &Session{}
}

// Login makes a the current actor, replacing any previous one.
func (s *Session) Login(a Actor) {
	s.actor = &a
}

// Logout clears the current actor.
func (s *Session) Logout() {
	s.actor = nil
}

// Actor returns the current actor and whether one is logged in.
func (s *Session) Actor() (Actor, bool) {
	if s == nil || s.actor == nil {
		return Actor{}, false
	}
	return *s.actor, true
}

// Can reports whether the current actor may run op.
func (s *Session) Can(op Operation) bool {
	a, ok := s.Actor()
	return ok && Permitted(a.Role, op)
}

// Require returns a permission error unless the current actor may run op.
func (s *Session) Require(op Operation) error {
	a, ok := s.Actor()
	if !ok {
		return apperr.Permission(string(op), "no actor logged in")
	}
	if !Permitted(a.Role, op) {
		return apperr.Permission(string(op), "role %s may not run %s", a.Role, op)
	}
	return nil
}

// RequireActor returns a permission error when nobody is logged in.
func (s *Session) RequireActor(op string) error {
	if _, ok := s.Actor(); !ok {
		return apperr.Permission(op, "no actor logged in")
	}
	return nil
}
