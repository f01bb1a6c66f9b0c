// Package userstore persists user records in the YAML credential file
// consumed by the identity provider.
//
// The file is co-owned: the identity provider reads it and operators may edit
// it by hand, while this service is the only programmatic writer. Every save
// rewrites the complete document atomically (temp file + rename) under an
// advisory file lock, and is rejected if the file changed since it was
// loaded. A corrupt or unreadable file surfaces as ErrStorage rather than an
// empty store; silently emptying the live credential database would lock out
// every user.
package userstore
