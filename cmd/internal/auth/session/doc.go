// Package session implements opaque server-side sessions.
//
// A session is a row keyed by a random 96-char token. It is active while expires_at is
// after now. Lookups slide the expiry forward once the session is past its renewal
// threshold. Revocation pins expires_at a year before created_at. Rows are never deleted
// and tokens are never reused.
//
// Cookie transport lives in the HTTP layer; this package only sees tokens.
package session
