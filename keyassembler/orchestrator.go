package keyassembler

import (
	"context"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keysetreader"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keyvending"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/kms"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/telemetry"
)

// Reconstruct is the C5->C6 join point of section 4.6: given every
// endpoint's fetch outcome for keyID, it prepares and issues one KMS
// decrypt call per endpoint that returned a usable key, then XOR-folds
// the resulting shares into a PrivateKey. A fetch or decrypt failure on
// any endpoint is surfaced via ExtractAnyFailure's priority order before
// Assemble ever runs, so a partial KMS outage fails closed rather than
// silently reconstructing from fewer shares than expected.
func Reconstruct(ctx context.Context, keyID string, endpointResults []keyvending.EndpointResult, client kms.DecryptClient, reader keysetreader.Reader) (PrivateKey, error) {
	decryptErrByEndpoint := map[string]error{}
	results := make([]DecryptResult, 0, len(endpointResults))

	for _, er := range endpointResults {
		if er.FetchErr != nil {
			continue // reported by ExtractAnyFailure below
		}
		outcome, ok := er.ByKeyID[keyID]
		if !ok || outcome.Err != nil {
			continue // reported by ExtractAnyFailure below
		}

		req, err := GetKmsDecryptRequest(outcome.Key, reader)
		if err != nil {
			decryptErrByEndpoint[er.Endpoint] = err
			continue
		}

		plaintext, err := client.Decrypt(ctx, req)
		if err != nil {
			decryptErrByEndpoint[er.Endpoint] = scperrors.Wrap(scperrors.KindKMSDecryptFailed, "kms decrypt failed", err)
			continue
		}

		results = append(results, DecryptResult{EncryptionKey: outcome.Key, Plaintext: plaintext})
	}

	if err := ExtractAnyFailure(endpointResults, keyID, decryptErrByEndpoint); err != nil {
		telemetry.AssembleOutcomesTotal.WithLabelValues("fetch_or_decrypt_failure").Inc()
		return PrivateKey{}, err
	}

	if single, ok := ExtractSinglePartyKey(results); ok {
		return Assemble([]DecryptResult{single})
	}

	return Assemble(results)
}
