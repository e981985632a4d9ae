package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// Registry implements interfaces.AccountRegistry. Every read and write is
// gated on the caller being the operator; persistence is delegated to the
// injected store.
type Registry struct {
	operator common.Address
	store    interfaces.KVStore
	log      *slog.Logger
}

// NewRegistry creates a registry owned by operator and backed by store.
// The operator cannot be changed for the lifetime of the instance.
func NewRegistry(operator common.Address, store interfaces.KVStore, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		operator: operator,
		store:    store,
		log:      log,
	}
}

// Operator returns the identity allowed to use the registry.
func (r *Registry) Operator() common.Address {
	return r.operator
}

// GetAccount returns the address stored for id.
// A lookup miss is reported with found == false and a nil error.
func (r *Registry) GetAccount(ctx context.Context, caller common.Address, id string) (string, bool, error) {
	if err := r.authorize(caller, "get"); err != nil {
		return "", false, err
	}

	address, found, err := r.store.Get(ctx, id)
	if err != nil {
		r.log.Error("Failed to read account", "err", err,
			slog.String("id", id),
			slog.String("store", r.store.Name()))
		return "", false, fmt.Errorf("failed to read account %q: %w", id, err)
	}

	r.log.Debug("Read account",
		slog.String("id", id),
		slog.Bool("found", found))

	return address, found, nil
}

// SetAccount inserts or overwrites the address stored for id.
// The address is stored as an opaque string.
func (r *Registry) SetAccount(ctx context.Context, caller common.Address, id string, address string) error {
	if err := r.authorize(caller, "set"); err != nil {
		return err
	}

	if err := r.store.Set(ctx, id, address); err != nil {
		r.log.Error("Failed to write account", "err", err,
			slog.String("id", id),
			slog.String("store", r.store.Name()))
		return fmt.Errorf("failed to write account %q: %w", id, err)
	}

	r.log.Info("Account set",
		slog.String("id", id),
		slog.String("store", r.store.Name()))

	return nil
}

func (r *Registry) authorize(caller common.Address, op string) error {
	if caller != r.operator {
		r.log.Warn("Rejected non-operator caller",
			slog.String("op", op),
			slog.String("caller", caller.Hex()))
		return interfaces.ErrUnauthorized
	}
	return nil
}
