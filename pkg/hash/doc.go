// Package hash produces and verifies argon2id password hashes in the
// self-describing PHC string format understood by the identity provider.
package hash
