package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/session"
)

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         session.Role `json:"role"`
	IsActive     bool         `json:"is_active"`
	PasswordHash []byte       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
	LastLogin    time.Time    `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsTeacher() bool { return u.Role == session.RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == session.RoleStudent }

// Identity builds the session identity issued to u with the given token.
func (u *User) Identity(token string) session.Identity {
	return session.Identity{ID: u.ID, Name: u.Name, Role: u.Role, Token: token}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string       `json:"name" validate:"notblank"`
	Email           string       `json:"email" validate:"required,email"`
	Role            session.Role `json:"role" validate:"required,role"`
	Password        string       `json:"password" validate:"required"`
	PasswordConfirm string       `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = session.Role(core.CleanString(string(nu.Role), true /* lower */))
	return core.Validate.Struct(nu)
}

// LoginCredentials are exchanged for a session Identity.
type LoginCredentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lc *LoginCredentials) Validate() error {
	lc.Email = core.CleanString(lc.Email, true /* lower */)
	return core.Validate.Struct(lc)
}

type QueryFilter struct {
	Role     session.Role
	IsActive *bool
}
