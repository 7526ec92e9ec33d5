// Package keysetreader contracts the encrypted-keyset reader collaborator:
// given a wrapped Tink-JSON keyset, extract the encrypted payload bytes a
// KMS decrypt call needs. This module does not own keyset format
// evolution, so only the documented wrapped shape is understood here; a
// real deployment can substitute a reader backed by
// google/tink/go/keyset for broader format support.
package keysetreader

import (
	"encoding/base64"
	"encoding/json"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// Reader extracts ciphertext from a wrapped keyset's raw bytes.
type Reader interface {
	// ReadEncryptedKeyset parses wrapped and returns the encrypted
	// payload bytes it carries.
	ReadEncryptedKeyset(wrapped []byte) ([]byte, error)
}

// wrappedKeyset mirrors the documented single-entry Tink-JSON keyset
// wrapper: the raw ciphertext as a standard base-64 string in its
// encryptedKeyset field.
type wrappedKeyset struct {
	EncryptedKeyset string `json:"encryptedKeyset"`
}

// JSONReader is the reference Reader implementation: it understands only
// the documented wrapped-keyset JSON shape (a single "encryptedKeyset"
// field holding standard base-64 ciphertext). CannotCreateJsonKeyset is
// returned when wrapped is not valid JSON at all; CannotReadEncryptedKeyset
// when the JSON parses but the expected field is missing or not valid
// base-64, matching the two distinct failure points of the original
// PrivateKeyClientUtils::GetKmsDecryptRequest.
type JSONReader struct{}

var _ Reader = JSONReader{}

func (JSONReader) ReadEncryptedKeyset(wrapped []byte) ([]byte, error) {
	var ks wrappedKeyset
	if err := json.Unmarshal(wrapped, &ks); err != nil {
		return nil, scperrors.Wrap(scperrors.KindCannotCreateJSONKeyset, "failed to construct json keyset reader", err)
	}
	if ks.EncryptedKeyset == "" {
		return nil, scperrors.New(scperrors.KindCannotReadEncryptedKeyset, "wrapped keyset has no encryptedKeyset field")
	}
	payload, err := base64.StdEncoding.DecodeString(ks.EncryptedKeyset)
	if err != nil {
		return nil, scperrors.Wrap(scperrors.KindCannotReadEncryptedKeyset, "failed to read encrypted keyset payload", err)
	}
	return payload, nil
}
