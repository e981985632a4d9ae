package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/operator-account-registry/interfaces"
)

// MultiStore implements interfaces.KVStore over several mirrored backends.
// A write must reach every backend; reads return the first hit.
type MultiStore struct {
	backends []interfaces.KVStore
	log      *slog.Logger
}

// NewMultiStore creates a new multi-backend store with fallback
func NewMultiStore(backends []interfaces.KVStore, logger *slog.Logger) *MultiStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStore{
		backends: backends,
		log:      logger,
	}
}

// Get asks each available backend in order and returns the first hit. A miss
// is only reported when every backend answered with a miss: a backend that is
// unavailable or fails may hold the entry, so the lookup fails instead.
func (m *MultiStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			errs = append(errs, fmt.Errorf("%s: unavailable", backend.Name()))
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		value, found, err := backend.Get(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to fetch from backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}

		if found {
			m.log.Debug("Fetched entry",
				slog.String("backend_name", backend.Name()),
				slog.Duration("duration", time.Since(start)))
			return value, true, nil
		}
	}

	if len(errs) == 0 && len(m.backends) > 0 {
		return "", false, nil
	}

	m.log.Error("Failed to fetch entry",
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return "", false, fmt.Errorf("%w: failed to fetch entry: %w", interfaces.ErrBackendUnavailable, joinBackendErrors(errs))
}

// Set saves the entry to every backend. The write fails unless all of them
// accepted it, so a later Get never serves a stale value from a backend that
// missed the overwrite. Backends that did accept keep the new value; a retry
// brings the rest up to date.
func (m *MultiStore) Set(ctx context.Context, key string, value string) error {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			errs = append(errs, fmt.Errorf("%s: unavailable", backend.Name()))
			m.log.Warn("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		if err := backend.Set(ctx, key, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
		}
	}

	if len(errs) > 0 || len(m.backends) == 0 {
		m.log.Error("Failed to store entry",
			slog.Int("failed_backends", len(errs)),
			slog.Int("backends", len(m.backends)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("%w: failed to store entry: %w", interfaces.ErrBackendUnavailable, joinBackendErrors(errs))
	}

	m.log.Debug("Stored entry",
		slog.Int("backends", len(m.backends)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks if any backend is available
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiStore) Name() string {
	return "multi-store"
}

// LocationURI returns the combined URI of all backends
func (m *MultiStore) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}

func joinBackendErrors(errs []error) error {
	if len(errs) == 0 {
		return errors.New("no available backends")
	}
	return errors.Join(errs...)
}
