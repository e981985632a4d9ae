// Package interfaces defines the contracts between the components of the
// account registry without including implementation details.
//
// # Registry Interfaces
//
//   - AccountRegistry: the two operator-gated operations, GetAccount and SetAccount
//   - CallerResolver: supplies the verified caller identity for an invocation
//
// # Storage Interfaces
//
//   - KVStore: durable key-value store keyed by entry identifier
//   - KVStoreFactory: creates stores from location URIs
//
// # Error Types
//
//   - ErrUnauthorized: the caller is not the operator
//   - ErrBackendUnavailable: a store backend is not accessible
//   - ErrInvalidLocationURI: a store location URI is malformed
//   - ErrReadOnlyStore: the backend has no write access
//
// Components should depend on these interfaces rather than concrete
// implementations:
//
//	func NewHandler(registry interfaces.AccountRegistry, callers interfaces.CallerResolver, observer Observer, log *slog.Logger) *Handler
package interfaces
