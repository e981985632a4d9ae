package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// IPFSStore implements a key-value store on the mutable file system (MFS)
// of an IPFS node. Each entry is one file under root/namespace.
type IPFSStore struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	namespace   string
	log         *slog.Logger
	locationURI string
}

// NewIPFSStore creates a new IPFS store connected to the node API at host:port.
func NewIPFSStore(host, port, root, namespace string, timeout time.Duration, log *slog.Logger) (*IPFSStore, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: missing IPFS host", interfaces.ErrInvalidLocationURI)
	}
	if root == "" {
		root = "/registry"
	}

	apiURL := fmt.Sprintf("%s:%s", host, port)
	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &IPFSStore{
		shell:       sh,
		host:        host,
		port:        port,
		root:        path.Clean("/" + root),
		namespace:   namespace,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?root=%s&namespace=%s", apiURL, root, namespace),
	}, nil
}

// Get reads the MFS file for key. A missing file is a miss.
func (s *IPFSStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	filePath := s.filePath(key)

	reader, err := s.shell.FilesRead(ctx, filePath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			s.log.Debug("Entry not found in IPFS",
				slog.String("path", filePath),
				slog.Duration("duration", time.Since(start)))
			return "", false, nil
		}

		s.log.Error("Failed to read entry from IPFS",
			slog.String("path", filePath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return "", false, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", false, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	s.log.Debug("Fetched entry from IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return string(data), true, nil
}

// Set writes the MFS file for key, truncating any previous value.
func (s *IPFSStore) Set(ctx context.Context, key string, value string) error {
	filePath := s.filePath(key)

	err := s.shell.FilesWrite(ctx, filePath, strings.NewReader(value),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("%w: failed to write entry to IPFS: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Debug("Stored entry in IPFS", slog.String("path", filePath))
	return nil
}

// Available checks if the IPFS node is accessible.
func (s *IPFSStore) Available(ctx context.Context) bool {
	return s.shell.IsUp()
}

// Name returns a unique identifier for this store.
func (s *IPFSStore) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", s.host, s.port)
}

// LocationURI returns the URI that identifies this store.
func (s *IPFSStore) LocationURI() string {
	return s.locationURI
}

func (s *IPFSStore) filePath(key string) string {
	return path.Join(s.root, s.namespace, entryName(key))
}
