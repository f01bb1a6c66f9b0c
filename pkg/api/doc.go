// Package api exposes the administrative HTTP surface: user CRUD and the
// invitation workflow, guarded by forwarded-group headers, plus the public
// invitation acceptance and health endpoints.
package api
