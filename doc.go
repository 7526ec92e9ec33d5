// Package authcore implements a single-flight authorization proxy
// fronting a remote authorization endpoint, and a split-key private-key
// assembler that reconstructs key material from shares fetched across
// multiple vending endpoints and decrypted through KMS.
//
// See the cache, authproxy, keyvending and keyassembler packages for
// the four core components, and asynccontext for the uniform async
// task carrier used throughout.
package authcore
