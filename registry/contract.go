package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// AccountsABI is the interface of the on-chain accounts contract. The contract
// rejects callers other than its operator on its own.
const AccountsABI = `[
	{"type":"function","name":"getAccount","stateMutability":"view",
	 "inputs":[{"name":"id","type":"string"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"setAccount","stateMutability":"nonpayable",
	 "inputs":[{"name":"id","type":"string"},{"name":"account","type":"string"}],
	 "outputs":[]}
]`

var parsedAccountsABI = mustParseABI(AccountsABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid accounts ABI: %v", err))
	}
	return parsed
}

// AccountsContract binds the accounts contract deployed at a fixed address.
type AccountsContract struct {
	contract *bind.BoundContract
	address  common.Address
	auth     *bind.TransactOpts
}

// NewAccountsContract creates a binding for the contract at address.
// Reads go through caller; transactor may be nil for a read-only binding.
func NewAccountsContract(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor) *AccountsContract {
	return &AccountsContract{
		contract: bind.NewBoundContract(address, parsedAccountsABI, caller, transactor, nil),
		address:  address,
	}
}

// SetTransactOpts sets the transaction options required for SetAccount.
// The signer should be the operator key.
func (c *AccountsContract) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

// Address returns the contract address.
func (c *AccountsContract) Address() common.Address {
	return c.address
}

// CanTransact reports whether transaction options are configured.
func (c *AccountsContract) CanTransact() bool {
	return c.auth != nil
}

// GetAccount calls the contract's getAccount view. The contract returns an
// empty string for identifiers that were never set.
func (c *AccountsContract) GetAccount(ctx context.Context, id string) (string, error) {
	opts := &bind.CallOpts{Context: ctx}
	if c.auth != nil {
		// The contract checks msg.sender on reads as well.
		opts.From = c.auth.From
	}

	var out []interface{}
	if err := c.contract.Call(opts, &out, "getAccount", id); err != nil {
		return "", err
	}
	if len(out) != 1 {
		return "", fmt.Errorf("unexpected getAccount result length %d", len(out))
	}

	account, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected getAccount result type %T", out[0])
	}
	return account, nil
}

// SetAccount sends a setAccount transaction.
// Returns the transaction and an error if the transaction could not be sent.
func (c *AccountsContract) SetAccount(ctx context.Context, id string, account string) (*types.Transaction, error) {
	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *c.auth
	opts.Context = ctx
	return c.contract.Transact(&opts, "setAccount", id, account)
}
