package keyassembler

import (
	"context"
	"encoding/base64"
	"sync/atomic"
	"testing"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keysetreader"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/keyvending"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/kms"
)

// fakeDecryptClient returns the plaintexts in call order, so a test can
// pin which share each endpoint's KMS call resolves to; Reconstruct walks
// endpointResults in order and issues its Decrypt calls sequentially.
type fakeDecryptClient struct {
	plaintexts [][]byte
	calls      int32
	err        error // if set, every call fails with this error instead
}

func (f *fakeDecryptClient) Decrypt(_ context.Context, _ kms.DecryptRequest) ([]byte, error) {
	i := atomic.AddInt32(&f.calls, 1) - 1
	if f.err != nil {
		return nil, f.err
	}
	return f.plaintexts[i], nil
}

func multiPartyEndpoint(endpoint, keyID, uri, material string) keyvending.EndpointResult {
	key := keyvending.EncryptionKey{
		KeyID:             keyID,
		EncryptionKeyType: keyvending.MultiPartyHybridEvenKeysplit,
		KeyData:           []keyvending.KeyData{{KeyEncryptionKeyURI: uri, KeyMaterial: material}},
	}
	return keyvending.EndpointResult{
		Endpoint: endpoint,
		ByKeyID:  map[string]keyvending.FetchOutcome{keyID: {Key: key}},
	}
}

func TestReconstructMultiPartyXORFold(t *testing.T) {
	endpointResults := []keyvending.EndpointResult{
		multiPartyEndpoint("ep1", "k1", "aws-kms://region/key1", "share1"),
		multiPartyEndpoint("ep2", "k1", "aws-kms://region/key2", "share2"),
	}
	client := &fakeDecryptClient{plaintexts: [][]byte{{0x01, 0x02, 0x03}, {0x10, 0x20, 0x30}}}

	key, err := Reconstruct(context.Background(), "k1", endpointResults, client, keysetreader.JSONReader{})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	want := base64.StdEncoding.EncodeToString([]byte{0x11, 0x22, 0x33})
	if key.PrivateKey != want {
		t.Fatalf("expected %q, got %q", want, key.PrivateKey)
	}
	if atomic.LoadInt32(&client.calls) != 2 {
		t.Fatalf("expected one decrypt call per endpoint, got %d", client.calls)
	}
}

func TestReconstructFetchFailureSurfacesBeforeAssemble(t *testing.T) {
	endpointResults := []keyvending.EndpointResult{
		{Endpoint: "ep1", FetchErr: scperrors.New(scperrors.KindRemoteUnavailable, "endpoint down")},
		multiPartyEndpoint("ep2", "k1", "aws-kms://region/key2", "share2"),
	}
	client := &fakeDecryptClient{plaintexts: [][]byte{{0x01, 0x02, 0x03}}}

	_, err := Reconstruct(context.Background(), "k1", endpointResults, client, keysetreader.JSONReader{})
	if scperrors.KindOf(err) != scperrors.KindRemoteUnavailable {
		t.Fatalf("expected the endpoint fetch failure to surface, got %v", err)
	}
}

func TestReconstructDecryptFailureSurfaces(t *testing.T) {
	endpointResults := []keyvending.EndpointResult{
		multiPartyEndpoint("ep1", "k1", "aws-kms://region/key1", "share1"),
		multiPartyEndpoint("ep2", "k1", "aws-kms://region/key2", "share2"),
	}
	client := &fakeDecryptClient{err: scperrors.New(scperrors.KindServerError, "kms unavailable")}

	_, err := Reconstruct(context.Background(), "k1", endpointResults, client, keysetreader.JSONReader{})
	if scperrors.KindOf(err) != scperrors.KindKMSDecryptFailed {
		t.Fatalf("expected KMS_DECRYPT_FAILED, got %v", err)
	}
}

func TestReconstructSinglePartyShortCircuits(t *testing.T) {
	payload := []byte("encrypted-payload-bytes")
	singleKey := keyvending.EncryptionKey{
		KeyID:             "k1",
		EncryptionKeyType: keyvending.SinglePartyHybrid,
		KeyData: []keyvending.KeyData{
			{KeyEncryptionKeyURI: "gcp-kms://project/key", KeyMaterial: wrappedKeysetJSON(t, payload)},
		},
	}
	endpointResults := []keyvending.EndpointResult{
		{Endpoint: "ep1", ByKeyID: map[string]keyvending.FetchOutcome{"k1": {Key: singleKey}}},
		multiPartyEndpoint("ep2", "k1", "aws-kms://region/key2", "share2"),
	}
	client := &fakeDecryptClient{plaintexts: [][]byte{[]byte("single-party-plaintext"), {0xFF}}}

	key, err := Reconstruct(context.Background(), "k1", endpointResults, client, keysetreader.JSONReader{})
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	want := base64.StdEncoding.EncodeToString([]byte("single-party-plaintext"))
	if key.PrivateKey != want {
		t.Fatalf("expected single-party plaintext to win outright, got %q want %q", key.PrivateKey, want)
	}
}
