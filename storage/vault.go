package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// VaultStore implements a key-value store on a HashiCorp Vault KV v2 mount.
// Each entry is one secret at mount/data/dataPath/namespace/<entry name>,
// holding the identifier and the address.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	namespace   string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a new Vault store using token authentication.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token; when empty the client falls back to VAULT_TOKEN
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "registry")
func NewVaultStore(address, token, mountPath, dataPath, namespace string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")
	if mountPath == "" {
		return nil, fmt.Errorf("%w: missing Vault mount path", interfaces.ErrInvalidLocationURI)
	}

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		namespace:   namespace,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s?namespace=%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath, namespace),
	}, nil
}

// Get reads the secret for key. A missing secret is a miss.
func (s *VaultStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	path := s.secretPath(key)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return "", false, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil || secret.Data["data"] == nil {
		s.log.Debug("Entry not found in Vault", slog.String("path", path))
		return "", false, nil
	}

	// KV v2 wraps the payload in a "data" map
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", false, fmt.Errorf("invalid data format in Vault response")
	}

	value, ok := data["address"].(string)
	if !ok {
		return "", false, fmt.Errorf("address key not found in Vault data")
	}

	s.log.Debug("Fetched entry from Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return value, true, nil
}

// Set writes a new version of the secret for key.
func (s *VaultStore) Set(ctx context.Context, key string, value string) error {
	start := time.Now()
	path := s.secretPath(key)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"id":      key,
			"address": value,
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		s.log.Error("Failed to write to Vault",
			slog.String("path", path),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Debug("Stored entry in Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks that Vault is initialized and unsealed.
func (s *VaultStore) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := s.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		s.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		s.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this store.
func (s *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s-%s", s.mountPath, s.dataPath)
}

// LocationURI returns the URI that identifies this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}

func (s *VaultStore) secretPath(key string) string {
	parts := []string{s.mountPath, "data"}
	if s.dataPath != "" {
		parts = append(parts, s.dataPath)
	}
	parts = append(parts, s.namespace, entryName(key))
	return strings.Join(parts, "/")
}
