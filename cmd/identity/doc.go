// Package identity is the user registry.
//
// Usernames and emails are unique case-insensitively. Registry checks uniqueness before
// writing; the store enforces it again at write time, and both paths surface the same
// validation error. Secrets are derived through a SecretHasher and never stored in clear.
package identity
