package testutil

import (
	"net/http"

	id "tbt/pkg/domain"
	"tbt/pkg/requestcontext"
)

// AsUser puts an authenticated identity on the request, as the auth
// middleware would.
func AsUser(req *http.Request, userID id.UserID) *http.Request {
	return WithIdentity(req, requestcontext.Identity{UserID: userID})
}

// AsAdmin is AsUser with the admin role.
func AsAdmin(req *http.Request, userID id.UserID) *http.Request {
	return WithIdentity(req, requestcontext.Identity{UserID: userID, Role: "admin"})
}

func WithIdentity(req *http.Request, ident requestcontext.Identity) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), ident))
}
