// Package keyassembler implements the Split-Key Assembler (C6): XOR
// reconstruction of N equal-length plaintext shares into one private
// key, plus the KMS decrypt-request preparation that precedes it.
package keyassembler

import (
	"encoding/base64"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keyvending"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/telemetry"
)

// DecryptResult pairs one endpoint's decrypted share with the
// EncryptionKey metadata that produced it, per section 3.
type DecryptResult struct {
	EncryptionKey keyvending.EncryptionKey
	Plaintext     []byte
}

// PrivateKey is the reconstructed output, per section 3.
type PrivateKey struct {
	KeyID          string
	PublicKey      string
	PrivateKey     string // base64 of the XOR-reconstructed bytes
	CreationTime   int64
	ActivationTime int64
	ExpirationTime int64
	KeySetName     string
}

// Assemble XOR-folds decrypt_results (collected across endpoints, in
// endpoint order) into a PrivateKey, per section 4.6. Index 0 seeds the
// accumulator and is treated specially for size-mismatch reporting, per
// the order-sensitivity design note in section 9.
func Assemble(results []DecryptResult) (PrivateKey, error) {
	if len(results) == 0 {
		telemetry.AssembleOutcomesTotal.WithLabelValues("key_data_not_found").Inc()
		return PrivateKey{}, scperrors.New(scperrors.KindKeyDataNotFound, "no decrypt results to assemble")
	}

	accumulator := append([]byte(nil), results[0].Plaintext...)
	for i := 1; i < len(results); i++ {
		piece := results[i].Plaintext
		if len(piece) != len(accumulator) {
			telemetry.AssembleOutcomesTotal.WithLabelValues("secret_piece_size_unmatched").Inc()
			return PrivateKey{}, scperrors.New(scperrors.KindSecretPieceSizeUnmatched, "decrypted share length does not match the seed share")
		}
		for j := range accumulator {
			accumulator[j] ^= piece[j]
		}
	}

	meta := results[0].EncryptionKey
	telemetry.AssembleOutcomesTotal.WithLabelValues("success").Inc()
	return PrivateKey{
		KeyID:          meta.KeyID,
		PublicKey:      meta.PublicKeysetHandle,
		PrivateKey:     base64.StdEncoding.EncodeToString(accumulator),
		CreationTime:   meta.CreationTimeMs,
		ActivationTime: meta.ActivationTimeMs,
		ExpirationTime: meta.ExpirationTimeMs,
		KeySetName:     meta.KeysetName,
	}, nil
}
