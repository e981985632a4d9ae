package api

import (
	"context"
)

// AccountProvider is implemented by anything that can answer registry
// requests on behalf of an authenticated caller, such as the HTTP client.
type AccountProvider interface {
	// GetAccount returns the address bound to id and whether it is present.
	GetAccount(ctx context.Context, id string) (string, bool, error)

	// SetAccount binds id to address, replacing any previous binding.
	SetAccount(ctx context.Context, id, address string) error
}

// AccountResponse is returned by both account endpoints.
type AccountResponse struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// SetAccountRequest is the body of PUT /api/accounts/{id}.
type SetAccountRequest struct {
	Address string `json:"address"`
}

// ErrorResponse is the body of every non-2xx registry response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AccountNotFound is the error message of a 404 for an id that was never set.
const AccountNotFound = "account not found"

// MaxBodySize is the largest request body accepted by the server (1MB).
const MaxBodySize = 1024 * 1024
