// Package invites implements the token-based invitation workflow: an
// administrator issues a time-limited invitation for an e-mail address, and
// the recipient redeems it once to create their own account.
//
// Per token the lifecycle is Created -> {Accepted | Expired | Deleted}; all
// outcomes are terminal, a consumed or expired token is never acceptable
// again.
package invites
