package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultNamespace scopes registry entries inside a shared backend.
const DefaultNamespace = "accounts"

// StoreLocation represents URI for a key-value store backend.
type StoreLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	User   *url.Userinfo
}

// NewStoreLocation creates a new store location from a URI string with validation.
func NewStoreLocation(uri string) (StoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StoreLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "memory", "file", "s3", "ipfs", "onchain", "vault", "redis", "sqlite":
	default:
		return StoreLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	return StoreLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		User:   parsed.User,
	}, nil
}

// String returns the original URI string.
func (loc StoreLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StoreLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StoreLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

// Namespace returns the "namespace" query parameter or DefaultNamespace.
func (loc StoreLocation) Namespace() string {
	if ns := loc.Query.Get("namespace"); ns != "" {
		return ns
	}
	return DefaultNamespace
}

var (
	// ErrBackendUnavailable is returned when a store backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("store backend unavailable")

	// ErrInvalidLocationURI is returned when a store location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid store location URI")

	// ErrReadOnlyStore is returned by backends configured without write access.
	ErrReadOnlyStore = errors.New("store is read-only")
)

// KVStore is the durable key-value collaborator backing the registry.
// Keys are entry identifiers, scoped to the store's namespace.
type KVStore interface {
	// Get returns the stored value and whether the key was present.
	// A missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set inserts or overwrites the value for key.
	Set(ctx context.Context, key string, value string) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// KVStoreFactory creates stores from location URIs.
type KVStoreFactory interface {
	// StoreFor creates a backend from a location.
	// Supports memory://, file://, s3://, ipfs://, onchain://, vault://, redis://, sqlite://
	StoreFor(location StoreLocation) (KVStore, error)

	// CreateMultiStore creates an aggregated store.
	CreateMultiStore(locations []StoreLocation) (KVStore, error)
}
