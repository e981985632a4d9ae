package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/registry"
)

// OnchainStore implements a key-value store on the accounts contract.
// The contract returns an empty string for unknown identifiers, so an empty
// value reads back as absent.
type OnchainStore struct {
	contract    *registry.AccountsContract
	backend     bind.DeployBackend
	log         *slog.Logger
	locationURI string
}

// NewOnchainStore creates a store on top of an accounts contract binding.
// When backend is non-nil Set waits for the transaction to be mined, so the
// write is visible to the next Get.
func NewOnchainStore(contract *registry.AccountsContract, backend bind.DeployBackend, log *slog.Logger) *OnchainStore {
	return &OnchainStore{
		contract:    contract,
		backend:     backend,
		log:         log,
		locationURI: fmt.Sprintf("onchain://%s", contract.Address().Hex()),
	}
}

// Get calls getAccount on the contract.
func (s *OnchainStore) Get(ctx context.Context, key string) (string, bool, error) {
	account, err := s.contract.GetAccount(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to call contract: %v", interfaces.ErrBackendUnavailable, err)
	}
	if account == "" {
		return "", false, nil
	}

	s.log.Debug("Fetched entry from blockchain", slog.String("contract", s.contract.Address().Hex()))
	return account, true, nil
}

// Set sends a setAccount transaction signed by the configured transactor.
func (s *OnchainStore) Set(ctx context.Context, key string, value string) error {
	if !s.contract.CanTransact() {
		return interfaces.ErrReadOnlyStore
	}

	tx, err := s.contract.SetAccount(ctx, key, value)
	if err != nil {
		return fmt.Errorf("failed to send setAccount transaction: %w", err)
	}

	s.log.Debug("Sent setAccount transaction",
		slog.String("contract", s.contract.Address().Hex()),
		slog.String("txHash", tx.Hash().Hex()))

	if s.backend == nil {
		return nil
	}

	receipt, err := bind.WaitMined(ctx, s.backend, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for setAccount transaction: %w", err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("setAccount transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}

// Available checks that the contract answers calls.
func (s *OnchainStore) Available(ctx context.Context) bool {
	if _, err := s.contract.GetAccount(ctx, ""); err != nil {
		s.log.Debug("Blockchain store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *OnchainStore) Name() string {
	return fmt.Sprintf("onchain-%s", s.contract.Address().Hex()[:8])
}

// LocationURI returns the URI that identifies this store.
func (s *OnchainStore) LocationURI() string {
	return s.locationURI
}
