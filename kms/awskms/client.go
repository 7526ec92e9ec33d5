// Package awskms adapts kms.DecryptClient onto the real AWS KMS API via
// aws-sdk-go-v2/service/kms, the way a production deployment of this SDK
// would wire the ambient KMS collaborator rather than leave it abstract.
package awskms

import (
	"context"

	awskms "github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/kms"
)

// api is the subset of *awskms.Client this adapter needs, so tests can
// substitute a fake without spinning up the full SDK client.
type api interface {
	Decrypt(ctx context.Context, params *awskms.DecryptInput, optFns ...func(*awskms.Options)) (*awskms.DecryptOutput, error)
}

// Client implements kms.DecryptClient over AWS KMS.
type Client struct {
	svc api
}

var _ kms.DecryptClient = (*Client)(nil)

// New wraps an already-configured *awskms.Client; building that client
// (for example from config.LoadDefaultConfig) is left to the caller.
func New(svc *awskms.Client) *Client {
	return &Client{svc: svc}
}

// Decrypt calls KMS Decrypt, treating KeyResourceName as the KeyId.
func (c *Client) Decrypt(ctx context.Context, req kms.DecryptRequest) ([]byte, error) {
	out, err := c.svc.Decrypt(ctx, &awskms.DecryptInput{
		KeyId:               &req.KeyResourceName,
		CiphertextBlob:      req.Ciphertext,
		EncryptionAlgorithm: types.EncryptionAlgorithmSpecSymmetricDefault,
	})
	if err != nil {
		return nil, err
	}
	return out.Plaintext, nil
}
