/*
Package clients provides the HTTP client for the account registry.

RegistryClient signs each request with the caller's secp256k1 key (see
package identity) and translates responses back into registry semantics:

  - 200 returns the bound address
  - 404 on GET returns found == false
  - 401 returns interfaces.ErrUnauthorized
  - 503 returns interfaces.ErrBackendUnavailable

Usage:

	client := &clients.RegistryClient{ServerAddr: "http://localhost:8080", Key: key}
	if err := client.SetAccount(ctx, "alice", "addr1"); err != nil { ... }
	address, found, err := client.GetAccount(ctx, "alice")
*/
package clients
