// Package invitestore persists pending invitations as a JSON document keyed
// by token. Unlike the credential store, corrupt content is recoverable: the
// store logs the problem and resets itself to empty.
package invitestore
