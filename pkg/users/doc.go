// Package users implements CRUD over user records, orchestrating the
// credential store and the hash provider. Mutations are serialized by a
// service-level mutex so at most one load-modify-save cycle is in flight,
// and the store's revision check rejects writes that would clobber an
// external edit.
package users
