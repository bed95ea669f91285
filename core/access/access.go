// Package access gates every workflow operation on the caller's session.
package access

import (
	"fmt"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/session"
)

// Authorize allows the operation (nil) when sess is present and has the required role.
func Authorize(sess *session.Identity, required session.Role) error {
	if sess == nil {
		return core.NewWorkflowError(core.KindNotAuthenticated, "user not authenticated")
	}
	if sess.Role != required {
		return core.NewWorkflowError(core.KindRoleMismatch, fmt.Sprintf("only a %s can do this", required))
	}
	return nil
}

// Allowed is the boolean form of Authorize.
func Allowed(sess *session.Identity, required session.Role) bool {
	return Authorize(sess, required) == nil
}

// AuthorizeOwner additionally requires sess to be ownerID.
func AuthorizeOwner(sess *session.Identity, required session.Role, ownerID string) error {
	if err := Authorize(sess, required); err != nil {
		return err
	}
	if sess.ID != ownerID {
		return core.NewWorkflowError(core.KindNotOwner, "permission denied")
	}
	return nil
}
