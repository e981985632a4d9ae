// Package storage provides the durable key-value backends behind the account
// registry. Every backend implements interfaces.KVStore: Get reports a missing
// key as found == false rather than an error, and Set inserts or overwrites.
//
// Backends are selected by URI through StoreFactory:
//
//	memory://                          process memory
//	file:///var/lib/registry           one file per entry
//	sqlite:///var/lib/registry.db      one row per entry
//	redis://:pw@localhost:6379/0       one string key per entry
//	s3://AK:SK@bucket/prefix?region=   one object per entry
//	vault://token@vault:8200/secret/registry
//	ipfs://localhost:5001/?root=/registry
//	onchain://0x1234...                the accounts contract
//
// Entries are scoped to a namespace (default "accounts", overridable with the
// "namespace" query parameter) so several registries can share a backend.
//
// MultiStore mirrors entries across backends: a write fails unless every
// backend accepted it, and reads return the first hit.
//
//	factory := storage.NewStoreFactory(log)
//	store, err := factory.CreateMultiStore(locations)
package storage
