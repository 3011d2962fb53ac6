package shared

// AdminUserID is the user identity stored in the session after an admin login.
const AdminUserID = "admin"

// Actor is the explicit authorization capability passed into service
// operations. Admin-only operations check Actor.Admin instead of reading
// any ambient session or process state.
type Actor struct {
	Name  string
	Admin bool
}

// ActorFromSession derives the request actor from the current session.
// A nil session yields an anonymous actor.
func ActorFromSession(sess *Session) Actor {
	if sess == nil {
		return Actor{}
	}
	return Actor{
		Name:  sess.User(),
		Admin: sess.User() == AdminUserID,
	}
}
