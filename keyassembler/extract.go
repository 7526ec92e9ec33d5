package keyassembler

import (
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keyvending"
)

// ExtractAnyFailure walks endpointResults for keyID and surfaces the
// first non-success in priority order -- endpoint fetch failure over
// per-key fetch failure over per-key decrypt failure -- per section 4.6.
// decryptErrByEndpoint carries any KMS-decrypt-step failure recorded
// against an endpoint for this key_id, keyed by endpoint.
func ExtractAnyFailure(endpointResults []keyvending.EndpointResult, keyID string, decryptErrByEndpoint map[string]error) error {
	for _, er := range endpointResults {
		if er.FetchErr != nil {
			return er.FetchErr
		}
	}
	for _, er := range endpointResults {
		if outcome, ok := er.ByKeyID[keyID]; ok && outcome.Err != nil {
			return outcome.Err
		}
	}
	for _, er := range endpointResults {
		if err, ok := decryptErrByEndpoint[er.Endpoint]; ok && err != nil {
			return err
		}
	}
	return nil
}

// ExtractSinglePartyKey returns the first DecryptResult whose source
// EncryptionKey is tagged single-party, used to short-circuit
// reconstruction when one endpoint already returns a fully-wrapped
// single-party key, per section 4.6.
func ExtractSinglePartyKey(results []DecryptResult) (DecryptResult, bool) {
	for _, r := range results {
		if r.EncryptionKey.EncryptionKeyType == keyvending.SinglePartyHybrid {
			return r, true
		}
	}
	return DecryptResult{}, false
}
