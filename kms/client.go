// Package kms contracts the KMS decryption collaborator: ciphertext plus
// a key resource name goes in, plaintext comes out. This module never
// implements a KMS server; kms/awskms supplies one concrete client
// adapter over the real AWS SDK.
package kms

import "context"

// DecryptRequest is what C6's KMS-preparation step builds.
type DecryptRequest struct {
	KeyResourceName string
	Ciphertext      []byte
}

// DecryptClient performs one KMS decrypt call.
type DecryptClient interface {
	Decrypt(ctx context.Context, req DecryptRequest) ([]byte, error)
}
