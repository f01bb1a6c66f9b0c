// Package guard authorizes administrative requests from forwarded group
// headers injected by the upstream reverse proxy.
//
// This is a trust-boundary component: headers are assumed to be authenticated
// and sanitized upstream. The proxy layer is solely responsible for stripping
// client-supplied copies of these headers before forwarding; no cryptographic
// verification happens here.
package guard
