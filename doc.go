// Package accounts provides user account primitives (bcrypt hashing, JWT
// session tokens, a bun backed user directory) plus the fiber transport that
// exposes signup, login and profile management.
//
// Session identity:
//   - SessionManager.RestoreUser reads the session token (cookie first, then
//     an Authorization bearer header) and binds a SafeUser to the request's
//     user context. Bad tokens and tokens for deleted users never fail the
//     request, the cookie is cleared and the request continues anonymously.
//   - SessionManager.RequireAuth rejects anonymous requests with
//     ErrAuthenticationRequired. Handlers read the user with FromContext.
//
// Identity service:
//   - Service.Signup and Service.UpdateProfile report email or username
//     collisions as *DuplicateFieldError. The directory's unique constraints
//     are the final word, a pre-check only gives earlier feedback.
//   - Service.Login returns (nil, nil) for any credential mismatch so callers
//     can't tell an unknown user from a wrong password.
//
// Activity sinks:
//   - ActivitySink receives signup, login, logout, profile and deletion
//     events. Sinks run best-effort (errors are logged).
package accounts
