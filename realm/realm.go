// Package realm implements first-match realm matching (the first
// registered realm whose path prefix matches wins, not the longest) and HTTP Basic
// authentication against per-path realms, the way the original pipeline's
// uh_auth_add/uh_auth_check pair does, but as an owned registry rather
// than a process-wide linked list.
package realm

import (
	"strings"

	"github.com/jow-/uhttpgo/urlcodec"
)

// Realm is a (path-prefix, user, credential) triple. A request whose
// decoded path is covered by a realm's prefix must present credentials
// matching that realm's user and Credential.
type Realm struct {
	PathPrefix string
	User       string
	Credential Credential
}

// Registry holds realms in registration order; the first realm whose
// prefix matches wins, matching the original's "first realm in
// registration order" rule. It is built once at configuration load and
// never mutated afterward, so concurrent reads from request-handling
// goroutines need no locking.
type Registry struct {
	realms []Realm
}

// NewRegistry builds a Registry from realms in the given order.
func NewRegistry(realms []Realm) *Registry {
	r := &Registry{realms: make([]Realm, len(realms))}
	copy(r.realms, realms)
	return r
}

// Match returns the first realm (in registration order) whose path prefix
// case-insensitively matches name, or nil if the path is unprotected.
func (reg *Registry) Match(name string) *Realm {
	for i := range reg.realms {
		if hasPrefixFold(name, reg.realms[i].PathPrefix) {
			return &reg.realms[i]
		}
	}
	return nil
}

// matchUser re-scans for a realm whose prefix matches name AND whose user
// equals user, used once credentials have been presented.
func (reg *Registry) matchUser(name, user string) *Realm {
	for i := range reg.realms {
		if hasPrefixFold(name, reg.realms[i].PathPrefix) && reg.realms[i].User == user {
			return &reg.realms[i]
		}
	}
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}

// Outcome describes the result of authenticating one request.
type Outcome int

const (
	// Unprotected means no realm covers the path; the caller proceeds.
	Unprotected Outcome = iota

	// Authorized means a realm covered the path and the presented
	// credentials matched. Matched holds the realm that granted access.
	Authorized

	// Denied means a realm covers the path but no valid credentials
	// were presented; the caller must emit a 401 challenge naming
	// Matched's PathPrefix as the realm identifier.
	Denied
)

// Result is returned by Authenticate.
type Result struct {
	Outcome Outcome
	Matched *Realm
}

// Authenticate evaluates the realm/Basic-auth flow for one request: find
// the covering realm (if any), parse an "Authorization: Basic ..." header,
// and verify the decoded user/password against the matching realm.
func Authenticate(reg *Registry, name string, authorizationHeader string) Result {
	covering := reg.Match(name)
	if covering == nil {
		return Result{Outcome: Unprotected}
	}

	user, pass, ok := parseBasic(authorizationHeader)
	if !ok {
		return Result{Outcome: Denied, Matched: covering}
	}

	matched := reg.matchUser(name, user)
	if matched == nil {
		return Result{Outcome: Denied, Matched: covering}
	}

	if matched.Credential.Verify(pass) {
		return Result{Outcome: Authorized, Matched: matched}
	}
	return Result{Outcome: Denied, Matched: covering}
}

// parseBasic extracts (user, password) from an "Authorization: Basic
// <base64>" header value. It requires a case-insensitive "Basic " prefix
// and a ':' in the decoded payload.
func parseBasic(header string) (user, pass string, ok bool) {
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded := string(urlcodec.DecodeBase64([]byte(header[len(prefix):])))
	idx := strings.IndexByte(decoded, ':')
	if idx < 0 {
		return "", "", false
	}
	return decoded[:idx], decoded[idx+1:], true
}
