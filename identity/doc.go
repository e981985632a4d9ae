// Package identity authenticates registry callers.
//
// Callers are secp256k1 principals identified by their Ethereum address. A
// request is signed over its method, escaped path, unix timestamp and body:
//
//	keccak256(method "\n" path "\n" timestamp "\n" body)
//
// and carries the timestamp and the recoverable signature in the
// X-Registry-Timestamp and X-Registry-Signature headers. The server recovers
// the signer with Verifier.Caller and hands the address to the registry,
// which compares it to the configured operator.
//
//	if err := identity.Sign(req, key); err != nil { ... }
//	caller, err := identity.NewVerifier(log).Caller(req)
package identity
