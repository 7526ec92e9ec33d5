// Package authproxy implements the authorization proxy base (C3) and its
// HTTP wire delegate (C4) described in sections 4.3 and 4.4: a
// single-flight orchestrator over the auto-expiring cache that ensures
// at most one wire authorization is ever in flight per credential
// fingerprint.
package authproxy

import (
	"encoding/json"
	"sync"
)

// AuthorizationMetadata is the credential presented by the caller.
type AuthorizationMetadata struct {
	ClaimedIdentity    string
	AuthorizationToken string
}

// Valid reports whether both fields are non-empty, per section 3.
func (m AuthorizationMetadata) Valid() bool {
	return m.ClaimedIdentity != "" && m.AuthorizationToken != ""
}

// Fingerprint is the cache key: "token|identity".
func (m AuthorizationMetadata) Fingerprint() string {
	return m.AuthorizationToken + "|" + m.ClaimedIdentity
}

// AuthorizedMetadata is the authorization server's verdict. Extra
// preserves any domain-specific fields verbatim, the way the original
// protobuf-based response tolerated unknown fields.
type AuthorizedMetadata struct {
	AuthorizedDomain string
	Extra            map[string]json.RawMessage
}

// MarshalJSON flattens AuthorizedDomain alongside Extra.
func (a AuthorizedMetadata) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range a.Extra {
		out[k] = v
	}
	domain, err := json.Marshal(a.AuthorizedDomain)
	if err != nil {
		return nil, err
	}
	out["authorized_domain"] = domain
	return json.Marshal(out)
}

// UnmarshalJSON parses "authorized_domain" into the named field and
// keeps every other key in Extra, verbatim.
func (a *AuthorizedMetadata) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if domain, ok := raw["authorized_domain"]; ok {
		if err := json.Unmarshal(domain, &a.AuthorizedDomain); err != nil {
			return err
		}
		delete(raw, "authorized_domain")
	}
	a.Extra = raw
	return nil
}

// Request is the AsyncContext request payload for Authorize.
type Request struct {
	AuthorizationMetadata AuthorizationMetadata
}

// Response is the AsyncContext response payload for Authorize.
type Response struct {
	AuthorizedMetadata AuthorizedMetadata
}

// CacheEntry is one row in the auto-expiring map (section 3). Its
// eviction_disabled/created_at/lifetime attributes from section 3 are
// tracked by cache.Map itself (see DisableEviction/EnableEviction), not
// duplicated here. Mutation of AuthorizedMetadata/IsLoaded is guarded by
// mu because a concurrent Authorize call may synthesize a success
// response by reading a loaded entry while another goroutine's
// handleInternalResponse is still populating it.
type CacheEntry struct {
	mu             sync.Mutex
	authorizedMeta AuthorizedMetadata
	isLoaded       bool
}

func newCacheEntry() *CacheEntry {
	return &CacheEntry{}
}

// Snapshot returns the currently-loaded metadata and whether the entry
// is loaded, in one atomic read.
func (e *CacheEntry) Snapshot() (AuthorizedMetadata, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authorizedMeta, e.isLoaded
}

func (e *CacheEntry) markLoaded(meta AuthorizedMetadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.authorizedMeta = meta
	e.isLoaded = true
}
