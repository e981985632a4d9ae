package interfaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnauthorized is returned whenever the caller is not the operator.
// It is the only error the registry itself produces.
var ErrUnauthorized = errors.New("unauthorized")

// AccountRegistry is the operator-gated mapping from identifier to address.
type AccountRegistry interface {
	// GetAccount returns the address stored for id. found is false when the
	// id was never set.
	GetAccount(ctx context.Context, caller common.Address, id string) (address string, found bool, err error)

	// SetAccount inserts or overwrites the address stored for id.
	SetAccount(ctx context.Context, caller common.Address, id string, address string) error
}

// CallerResolver supplies the verified identity of the principal invoking
// a request.
type CallerResolver interface {
	Caller(r *http.Request) (common.Address, error)
}
