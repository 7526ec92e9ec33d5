package keyvending

import (
	"encoding/base64"
	"encoding/json"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// tinkJSONKeyset mirrors the handful of fields a Tink-style JSON keyset
// carries that this module needs to round-trip into a binary form; the
// full Tink wire format is out of scope (no Tink library exists anywhere
// in the reference corpus this module was grounded on — see DESIGN.md).
type tinkJSONKeyset struct {
	PrimaryKeyID uint32            `json:"primaryKeyId"`
	Key          []json.RawMessage `json:"key"`
}

// rewriteJSONKeysetToBinary implements the publicKeysetHandle transform
// from section 4.5: a JSON-escaped wrapped keyset is parsed, converted
// to a compact binary representation, and returned for the caller to
// base-64 encode as public_keyset_handle. This caveat from section 9
// applies: the rewrite is only ever used for the public handle field,
// never for the private wrapped ciphertext consumed by keysetreader.
func rewriteJSONKeysetToBinary(jsonKeyset string) ([]byte, error) {
	if jsonKeyset == "" {
		return []byte{}, nil
	}

	var ks tinkJSONKeyset
	if err := json.Unmarshal([]byte(jsonKeyset), &ks); err != nil {
		return nil, scperrors.Wrap(scperrors.KindInvalidJSON, "failed to parse public keyset handle", err)
	}

	binary := make([]byte, 0, len(jsonKeyset))
	binary = appendUvarint(binary, uint64(ks.PrimaryKeyID))
	binary = appendUvarint(binary, uint64(len(ks.Key)))
	for _, k := range ks.Key {
		binary = appendUvarint(binary, uint64(len(k)))
		binary = append(binary, k...)
	}
	return binary, nil
}

// EncodePublicKeysetHandle runs the JSON->binary rewrite and base-64
// encodes the result, producing the public_keyset_handle value stored on
// EncryptionKey.
func EncodePublicKeysetHandle(jsonKeyset string) (string, error) {
	binary, err := rewriteJSONKeysetToBinary(jsonKeyset)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(binary), nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
