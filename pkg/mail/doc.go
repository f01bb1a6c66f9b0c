// Package mail delivers invitation e-mail over SMTP. Delivery is best-effort:
// callers log failures and fall back to handing the invitation link to the
// administrator.
package mail
