package keyassembler

import (
	"encoding/base64"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/kms"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keysetreader"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keyvending"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// KeyPrefixLen is the length of a key-encryption-key URI scheme prefix
// ("gcp-kms://", "aws-kms://") to strip before submitting a resource
// name to KMS, per section 6. It defaults to the documented value but
// is a package-level var, not a const, so a composition root can set it
// from sdkconfig.Config.KMSKeyPrefixLen once at startup instead of the
// two packages carrying independent fixed-10 literals.
var KeyPrefixLen = 10

// GetKmsDecryptRequest builds the kms.DecryptRequest for one
// EncryptionKey, per section 4.6's single-party/multi-party split and
// the original_source supplement distinguishing CannotCreateJsonKeyset
// from CannotReadEncryptedKeyset.
func GetKmsDecryptRequest(key keyvending.EncryptionKey, reader keysetreader.Reader) (kms.DecryptRequest, error) {
	switch key.EncryptionKeyType {
	case keyvending.SinglePartyHybrid:
		return singlePartyDecryptRequest(key, reader)
	case keyvending.MultiPartyHybridEvenKeysplit:
		return multiPartyDecryptRequest(key)
	default:
		return kms.DecryptRequest{}, scperrors.New(scperrors.KindInvalidEncryptionKeyType, "unrecognized encryption key type")
	}
}

func singlePartyDecryptRequest(key keyvending.EncryptionKey, reader keysetreader.Reader) (kms.DecryptRequest, error) {
	if len(key.KeyData) != 1 {
		return kms.DecryptRequest{}, scperrors.New(scperrors.KindInvalidKeyDataCount, "single-party key must have exactly one key_data element")
	}
	share := key.KeyData[0]
	if len(share.KeyEncryptionKeyURI) < KeyPrefixLen {
		return kms.DecryptRequest{}, scperrors.New(scperrors.KindInvalidKeyResourceName, "key_encryption_key_uri shorter than the scheme prefix")
	}

	// The wrapped keyset bytes are the raw key_material; a JSON-keyset
	// reader must first be constructed from them (CannotCreateJsonKeyset
	// on malformed JSON) before the encrypted payload can be read out of
	// it (CannotReadEncryptedKeyset on a missing/invalid payload field).
	payload, err := readWrappedKeyset(reader, []byte(share.KeyMaterial))
	if err != nil {
		return kms.DecryptRequest{}, err
	}

	ciphertext := []byte(base64.URLEncoding.EncodeToString(payload))
	return kms.DecryptRequest{
		KeyResourceName: share.KeyEncryptionKeyURI[KeyPrefixLen:],
		Ciphertext:      ciphertext,
	}, nil
}

// readWrappedKeyset returns the encrypted payload read by reader. It
// passes the reader's error through unchanged; the reader is what tells
// CannotCreateJsonKeyset apart from CannotReadEncryptedKeyset.
func readWrappedKeyset(reader keysetreader.Reader, wrapped []byte) ([]byte, error) {
	payload, err := reader.ReadEncryptedKeyset(wrapped)
	if err != nil {
		return nil, err // reader.ReadEncryptedKeyset already distinguishes the two kinds
	}
	return payload, nil
}

func multiPartyDecryptRequest(key keyvending.EncryptionKey) (kms.DecryptRequest, error) {
	for _, share := range key.KeyData {
		if share.KeyMaterial == "" || len(share.KeyEncryptionKeyURI) < KeyPrefixLen {
			continue
		}
		return kms.DecryptRequest{
			KeyResourceName: share.KeyEncryptionKeyURI[KeyPrefixLen:],
			Ciphertext:      []byte(share.KeyMaterial),
		}, nil
	}
	return kms.DecryptRequest{}, scperrors.New(scperrors.KindKeyMaterialNotFound, "no usable key_data share for multi-party key")
}
