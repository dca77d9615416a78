// Package auth owns the sign-in state machine for a console session.
//
// A Machine wraps an identity.Client and serializes every status
// transition behind a mutex, so collaborators always observe a
// consistent (status, user, resolver) triple. It is the only component
// allowed to hand out the bearer credential, via Token.
//
// The package also provides a background token Refresher and a
// SessionStore for persisting the refresh handle across process
// restarts.
package auth
