// Package auth provides the Authenticator contract used by
// handler.AuthenticatedResource (spec §4.5) plus two bundled
// implementations: Basic (spec's bundled authenticator) and Bearer, a JWT
// authenticator that supplements it (SPEC_FULL §4.5.1).
package auth

// Authenticator decides whether a single Authorization header value is
// acceptable. AuthenticatedResource walks an ordered list of Authenticators
// and accepts the request the moment one of them returns true.
type Authenticator interface {
	Accepts(headerValue string) bool
}
