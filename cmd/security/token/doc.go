// Package token provides keyed digests and opaque random tokens.
//
// HashHMACSHA256Base64 is the pepper step of secret derivation: it produces a fixed 44-byte
// input for bcrypt, so long passwords are never truncated at bcrypt's 72-byte limit.
// NewOpaqueHex produces session tokens (48 bytes of entropy by default, 96 hex chars).
package token
