// Package session holds the authenticated identity for the lifetime of the process.
package session

import (
	"sync"

	"github.com/pkg/errors"
)

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var (
	Roles = []Role{RoleTeacher, RoleStudent}

	ErrInvalidIdentity = errors.New("identity must have an id, a token and a valid role")
)

func (r Role) IsValid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Identity is issued on login and never mutated afterwards.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
}

func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

func (id Identity) validate() error {
	if id.ID == "" || id.Token == "" || !id.Role.IsValid() {
		return ErrInvalidIdentity
	}
	return nil
}

// Store persists the current Identity across restarts.
type Store interface {
	Load() (*Identity, error) // nil, nil when nothing is stored
	Save(id Identity) error
	Clear() error
}

// Context is the process-wide holder of the current Identity.
type Context struct {
	mu      sync.RWMutex
	current *Identity
	store   Store
}

// NewContext returns an empty Context; store is optional.
func NewContext(store ...Store) *Context {
	c := new(Context)
	if len(store) > 0 {
		c.store = store[0]
	}
	return c
}

// Restore loads a previously persisted Identity, if any.
func (c *Context) Restore() error {
	if c.store == nil {
		return nil
	}
	id, err := c.store.Load()
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	if id == nil || id.validate() != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = id
	return nil
}

// Login replaces the current Identity wholesale.
func (c *Context) Login(id Identity) error {
	if err := id.validate(); err != nil {
		return err
	}
	if c.store != nil {
		if err := c.store.Save(id); err != nil {
			return errors.Wrap(err, "saving session")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &id
	return nil
}

// Logout discards the current Identity.
func (c *Context) Logout() error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	if c.store != nil {
		return errors.Wrap(c.store.Clear(), "clearing session")
	}
	return nil
}

// Current returns a copy of the current Identity, or nil when logged out.
func (c *Context) Current() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	id := *c.current
	return &id
}
