// Package authz provides request-level helpers over the authenticated
// identity loaded by jwtauth.
package authz

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
)

// UserCtx returns the caller's role, name, ObjectID, and a found flag.
// ok=false means the request carries no authenticated identity; callers
// can trust ok=true means a valid user ID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	id, ok := jwtauth.FromContext(r.Context())
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	return id.Role, id.Name, id.UserID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}
