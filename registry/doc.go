// Package registry implements the operator-gated account registry and the
// binding to its on-chain counterpart.
//
// A Registry owns no state besides a fixed operator identity and an injected
// interfaces.KVStore. Both operations compare the caller against the operator
// before touching the store:
//
//	reg := registry.NewRegistry(operator, store, log)
//
//	// Write as the operator
//	err := reg.SetAccount(ctx, operator, "alice", "n1HY4ob2...")
//
//	// Read back; found is false for identifiers that were never set
//	addr, found, err := reg.GetAccount(ctx, operator, "alice")
//
//	// Any other caller gets interfaces.ErrUnauthorized and the store is untouched
//	_, _, err = reg.GetAccount(ctx, attacker, "alice")
//
// # On-chain Accounts Contract
//
// AccountsContract binds a contract exposing getAccount(string) and
// setAccount(string,string). Read-only calls can be made immediately after
// creating the binding; SetAccount requires SetTransactOpts with the
// operator's key:
//
//	contract := registry.NewAccountsContract(address, ethClient, ethClient)
//	auth, _ := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
//	contract.SetTransactOpts(auth)
//
// storage.OnchainStore adapts the binding to interfaces.KVStore.
package registry
