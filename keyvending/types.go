// Package keyvending implements the Private-Key Fetcher (C5): one fetch
// per configured vending endpoint, parsing the documented JSON shape into
// EncryptionKey records and capturing per-endpoint, per-key outcomes for
// the split-key assembler to consume.
package keyvending

import (
	"strconv"
	"strings"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// EncryptionKeyType enumerates the two supported key topologies.
type EncryptionKeyType int

const (
	EncryptionKeyTypeUnspecified EncryptionKeyType = iota
	SinglePartyHybrid
	MultiPartyHybridEvenKeysplit
)

func parseEncryptionKeyType(raw string) (EncryptionKeyType, error) {
	switch raw {
	case "SINGLE_PARTY_HYBRID_KEY":
		return SinglePartyHybrid, nil
	case "MULTI_PARTY_HYBRID_EVEN_KEYSPLIT":
		return MultiPartyHybridEvenKeysplit, nil
	default:
		return EncryptionKeyTypeUnspecified, scperrors.New(scperrors.KindInvalidEncryptionKeyType, "unrecognized encryptionKeyType: "+raw)
	}
}

// KeyData is one encrypted share of a key, as fetched from an endpoint.
type KeyData struct {
	KeyEncryptionKeyURI string
	KeyMaterial         string // ciphertext
	PublicKeySignature  string
}

// EncryptionKey is one logical key as parsed from a vending endpoint
// response, per section 4.5.
type EncryptionKey struct {
	KeyID              string
	ResourceName       string
	EncryptionKeyType  EncryptionKeyType
	PublicKeysetHandle string // base64 of the rewritten binary keyset
	PublicKeyMaterial  string
	KeysetName         string
	CreationTimeMs     int64
	ActivationTimeMs   int64
	ExpirationTimeMs   int64
	KeyData            []KeyData
}

const resourceNamePrefix = "encryptionKeys/"

func keyIDFromResourceName(name string) string {
	return strings.TrimPrefix(name, resourceNamePrefix)
}

// parseMillisField parses a decimal-ms timestamp field; a missing or
// empty value yields MissingTimestamp(field), per section 3/4.5.
func parseMillisField(field, raw string) (int64, error) {
	if raw == "" {
		return 0, scperrors.MissingTimestamp(field)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, scperrors.MissingTimestamp(field)
	}
	return ms, nil
}

// hasUsableShare reports whether at least one KeyData element has both
// a non-empty URI and non-empty material, per section 4.5's
// KeyMaterialNotFound invariant.
func hasUsableShare(shares []KeyData) bool {
	for _, s := range shares {
		if s.KeyEncryptionKeyURI != "" && s.KeyMaterial != "" {
			return true
		}
	}
	return false
}

// FetchOutcome captures what happened when fetching one key from one
// endpoint, consumed by keyassembler's ExtractAnyFailure.
type FetchOutcome struct {
	Key EncryptionKey
	Err error // non-nil when this endpoint's fetch/parse for this key failed
}

// EndpointResult is one vending endpoint's full response: either an
// endpoint-wide failure, or a set of per-key outcomes keyed by key_id.
type EndpointResult struct {
	Endpoint string
	FetchErr error // set when the endpoint request itself failed
	ByKeyID  map[string]FetchOutcome
}
