// Package password derives and verifies stored password secrets.
//
// A secret is bcrypt(base64(HMAC-SHA256(pepper, plaintext))). The keyed digest binds every
// secret to the server-wide pepper, so a leaked users table alone is not enough to run an
// offline guessing attack. The pepper is required; a Hasher cannot be built without one.
//
// Hashing is CPU-bound and slow by construction. Hasher bounds the number of concurrent
// bcrypt runs with a weighted semaphore and honors context cancellation while waiting.
package password
