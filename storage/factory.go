package storage

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/registry"
)

// StoreFactory creates key-value stores from location URIs and manages
// multi-backend configurations for redundant storage.
type StoreFactory struct {
	log *slog.Logger

	ethClient  bind.ContractBackend
	ethBackend bind.DeployBackend
	ethAuth    *bind.TransactOpts
}

// NewStoreFactory creates a new factory instance.
func NewStoreFactory(logger *slog.Logger) *StoreFactory {
	return &StoreFactory{log: logger}
}

// WithOnchain enables onchain:// locations. auth may be nil for read-only
// contract access; backend may be nil to skip waiting for receipts.
func (sf *StoreFactory) WithOnchain(client bind.ContractBackend, backend bind.DeployBackend, auth *bind.TransactOpts) *StoreFactory {
	sf.ethClient = client
	sf.ethBackend = backend
	sf.ethAuth = auth
	return sf
}

// StoreFor creates a store from a location.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]; every
// scheme accepts a "namespace" parameter.
//
// Supported schemes:
//   - memory:// - process memory, for tests and development
//   - file:///path - local filesystem
//   - sqlite:///path/registry.db - SQLite database file
//   - redis://[:password@]host:port[/db] - Redis
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=&endpoint=&path_style=true - S3 or compatible
//   - vault://[token@]host:port/mount/path?insecure=true - HashiCorp Vault KV v2
//   - ipfs://host:port/?root=/registry&timeout=30s - IPFS node MFS
//   - onchain://0xContractAddress - accounts contract, requires WithOnchain
func (sf *StoreFactory) StoreFor(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	sf.log.Debug("Creating store", slog.String("scheme", location.Scheme))

	switch location.Scheme {
	case "memory":
		return NewMemoryStore(location.Namespace()), nil
	case "file":
		return sf.createFileStore(location)
	case "sqlite":
		return sf.createSQLiteStore(location)
	case "redis":
		return sf.createRedisStore(location)
	case "s3":
		return sf.createS3Store(location)
	case "vault":
		return sf.createVaultStore(location)
	case "ipfs":
		return sf.createIPFSStore(location)
	case "onchain":
		return sf.createOnchainStore(location)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiStore creates a multi-backend store from a list of locations.
// Locations that fail to produce a backend are logged and skipped.
// Returns an error if no valid backends could be created.
func (sf *StoreFactory) CreateMultiStore(locations []interfaces.StoreLocation) (interfaces.KVStore, error) {
	backends := make([]interfaces.KVStore, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.StoreFor(location)
		if err != nil {
			sf.log.Warn("Failed to create store",
				"err", err,
				slog.String("scheme", location.Scheme))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid stores created")
	}

	return NewMultiStore(backends, sf.log), nil
}

// localPath joins host and path so that both file:///abs and file://./rel work.
func localPath(location interfaces.StoreLocation) string {
	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}
	return path
}

// createFileStore creates a file system store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StoreFactory) createFileStore(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	path := localPath(location)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI", interfaces.ErrInvalidLocationURI)
	}
	return NewFileStore(path, location.Namespace(), sf.log)
}

// createSQLiteStore creates a SQLite store.
// URI format: sqlite:///absolute/path/registry.db
func (sf *StoreFactory) createSQLiteStore(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	path := localPath(location)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in sqlite URI", interfaces.ErrInvalidLocationURI)
	}
	return NewSQLiteStore(path, location.Namespace(), sf.log)
}

// createRedisStore creates a Redis store.
// URI format: redis://[:password@]host:port[/db]
func (sf *StoreFactory) createRedisStore(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing redis host", interfaces.ErrInvalidLocationURI)
	}

	cfg := RedisConfig{
		Address:   location.Host,
		Namespace: location.Namespace(),
	}
	if location.User != nil {
		cfg.Password, _ = location.User.Password()
	}
	if db := strings.Trim(location.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid redis db %q", interfaces.ErrInvalidLocationURI, db)
		}
		cfg.DB = n
	}

	return NewRedisStore(cfg, sf.log)
}

// createS3Store creates an S3 or S3-compatible store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *StoreFactory) createS3Store(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	cfg := S3Config{
		Bucket:    location.Host,
		Prefix:    strings.TrimPrefix(location.Path, "/"),
		Region:    location.GetParam("region"),
		Endpoint:  location.GetParam("endpoint"),
		Namespace: location.Namespace(),
		PathStyle: location.GetParamBool("path_style"),
	}

	if location.User != nil {
		// Credentials embedded in the URI grant write access
		cfg.AccessKey = location.User.Username()
		cfg.SecretKey, _ = location.User.Password()
	}

	return NewS3Store(cfg, sf.log)
}

// createVaultStore creates a Vault KV v2 store.
// URI format: vault://[token@]host:port/mount/path?insecure=true
// The first path segment is the mount, the rest is the data path.
func (sf *StoreFactory) createVaultStore(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing vault host", interfaces.ErrInvalidLocationURI)
	}

	scheme := "https"
	if location.GetParamBool("insecure") {
		scheme = "http"
	}

	var token string
	if location.User != nil {
		token = location.User.Username()
	}

	mount, dataPath, _ := strings.Cut(strings.Trim(location.Path, "/"), "/")
	if mount == "" {
		mount = "secret"
	}

	return NewVaultStore(fmt.Sprintf("%s://%s", scheme, location.Host), token, mount, dataPath, location.Namespace(), sf.log)
}

// createIPFSStore creates an IPFS MFS store.
// URI format: ipfs://host:port/?root=/registry&timeout=30s
func (sf *StoreFactory) createIPFSStore(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	host, port, _ := strings.Cut(location.Host, ":")
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	timeout := 30 * time.Second
	if raw := location.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, raw)
		}
		timeout = parsed
	}

	return NewIPFSStore(host, port, location.GetParam("root"), location.Namespace(), timeout, sf.log)
}

// createOnchainStore creates a store on the accounts contract.
// URI format: onchain://0x1234567890abcdef1234567890abcdef12345678
func (sf *StoreFactory) createOnchainStore(location interfaces.StoreLocation) (interfaces.KVStore, error) {
	if !common.IsHexAddress(location.Host) {
		return nil, fmt.Errorf("%w: invalid contract address %q", interfaces.ErrInvalidLocationURI, location.Host)
	}
	if sf.ethClient == nil {
		return nil, fmt.Errorf("ethereum client not configured")
	}

	contract := registry.NewAccountsContract(common.HexToAddress(location.Host), sf.ethClient, sf.ethClient)
	if sf.ethAuth != nil {
		contract.SetTransactOpts(sf.ethAuth)
	}

	return NewOnchainStore(contract, sf.ethBackend, sf.log), nil
}
