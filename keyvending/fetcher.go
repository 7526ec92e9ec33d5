package keyvending

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/httpadapter"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/telemetry"
)

// wireKeyData mirrors one keyData[] element on the wire.
type wireKeyData struct {
	KeyEncryptionKeyURI string `json:"keyEncryptionKeyUri"`
	KeyMaterial         string `json:"keyMaterial"`
	PublicKeySignature  string `json:"publicKeySignature"`
}

// wireEncryptionKey mirrors one key object on the wire, per section 4.5.
type wireEncryptionKey struct {
	Name               string        `json:"name"`
	PublicKeysetHandle string        `json:"publicKeysetHandle"`
	PublicKeyMaterial  string        `json:"publicKeyMaterial"`
	SetName            string        `json:"setName"`
	EncryptionKeyType  string        `json:"encryptionKeyType"`
	ExpirationTime     string        `json:"expirationTime"`
	ActivationTime     string        `json:"activationTime"`
	CreationTime       string        `json:"creationTime"`
	KeyData            []wireKeyData `json:"keyData"`
}

// wireKeyList is the top-level shape of a list response.
type wireKeyList struct {
	Keys []wireEncryptionKey `json:"keys"`
}

func (w wireEncryptionKey) toDomain() (EncryptionKey, error) {
	keyType, err := parseEncryptionKeyType(w.EncryptionKeyType)
	if err != nil {
		return EncryptionKey{}, err
	}

	creation, err := parseMillisField("creationTime", w.CreationTime)
	if err != nil {
		return EncryptionKey{}, err
	}
	activation, err := parseMillisField("activationTime", w.ActivationTime)
	if err != nil {
		return EncryptionKey{}, err
	}
	expiration, err := parseMillisField("expirationTime", w.ExpirationTime)
	if err != nil {
		return EncryptionKey{}, err
	}

	handle, err := EncodePublicKeysetHandle(w.PublicKeysetHandle)
	if err != nil {
		return EncryptionKey{}, err
	}

	shares := make([]KeyData, 0, len(w.KeyData))
	for _, kd := range w.KeyData {
		shares = append(shares, KeyData{
			KeyEncryptionKeyURI: kd.KeyEncryptionKeyURI,
			KeyMaterial:         kd.KeyMaterial,
			PublicKeySignature:  kd.PublicKeySignature,
		})
	}
	if !hasUsableShare(shares) {
		return EncryptionKey{}, scperrors.New(scperrors.KindKeyMaterialNotFound, "no keyData element has both uri and material")
	}

	return EncryptionKey{
		KeyID:              keyIDFromResourceName(w.Name),
		ResourceName:       w.Name,
		EncryptionKeyType:  keyType,
		PublicKeysetHandle: handle,
		PublicKeyMaterial:  w.PublicKeyMaterial,
		KeysetName:         w.SetName,
		CreationTimeMs:     creation,
		ActivationTimeMs:   activation,
		ExpirationTimeMs:   expiration,
		KeyData:            shares,
	}, nil
}

// Fetcher issues one request per configured endpoint and parses the
// response into EncryptionKey records, per section 4.5/6.
type Fetcher struct {
	client    *httpadapter.Client
	endpoints []string
}

// NewFetcher builds a Fetcher over the ordered list of vending endpoint
// base URIs (section 6's vending_endpoints); order is significant for
// the downstream XOR fold (section 5).
func NewFetcher(client *httpadapter.Client, endpoints []string) *Fetcher {
	return &Fetcher{client: client, endpoints: endpoints}
}

// FetchKey queries every configured endpoint concurrently for keyID and
// returns one EndpointResult per endpoint, in the endpoints' configured
// order, collecting every outcome rather than short-circuiting on the
// first failure, since keyassembler.ExtractAnyFailure needs the full
// per-endpoint picture.
func (f *Fetcher) FetchKey(ctx context.Context, keyID string) []EndpointResult {
	results := make([]EndpointResult, len(f.endpoints))
	var g errgroup.Group
	for i, endpoint := range f.endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			results[i] = f.fetchFromEndpoint(ctx, endpoint, keyID)
			return nil // per-endpoint failure is carried in the result, not returned
		})
	}
	g.Wait()
	return results
}

func (f *Fetcher) fetchFromEndpoint(ctx context.Context, endpoint, keyID string) EndpointResult {
	url := fmt.Sprintf("%s/encryptionKeys/%s", endpoint, keyID)
	resp, err := f.client.Do(ctx, httpadapter.Request{Method: httpadapter.MethodGET, URL: url})
	if err != nil {
		telemetry.KeyFetchOutcomesTotal.WithLabelValues(endpoint, "endpoint_failure").Inc()
		return EndpointResult{Endpoint: endpoint, FetchErr: err}
	}

	result := EndpointResult{Endpoint: endpoint, ByKeyID: map[string]FetchOutcome{}}

	// A single-key response and a list response are distinguished by
	// whether the top-level object carries a "keys" array.
	var list wireKeyList
	if err := json.Unmarshal(resp.Body, &list); err == nil && list.Keys != nil {
		for _, wk := range list.Keys {
			recordParsed(result, wk)
		}
		return result
	}

	var single wireEncryptionKey
	if err := json.Unmarshal(resp.Body, &single); err != nil {
		result.FetchErr = scperrors.Wrap(scperrors.KindInvalidJSON, "failed to parse key response", err)
		telemetry.KeyFetchOutcomesTotal.WithLabelValues(endpoint, "endpoint_failure").Inc()
		return result
	}
	recordParsed(result, single)
	return result
}

func recordParsed(result EndpointResult, wk wireEncryptionKey) {
	key, err := wk.toDomain()
	id := keyIDFromResourceName(wk.Name)
	if err != nil {
		result.ByKeyID[id] = FetchOutcome{Err: err}
		telemetry.KeyFetchOutcomesTotal.WithLabelValues(result.Endpoint, "key_failure").Inc()
		return
	}
	result.ByKeyID[key.KeyID] = FetchOutcome{Key: key}
	telemetry.KeyFetchOutcomesTotal.WithLabelValues(result.Endpoint, "success").Inc()
}
