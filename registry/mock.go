package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

// MockAccountRegistry mocks the AccountRegistry interface
type MockAccountRegistry struct {
	mock.Mock
}

// GetAccount mocks the GetAccount method
func (m *MockAccountRegistry) GetAccount(ctx context.Context, caller common.Address, id string) (string, bool, error) {
	args := m.Called(ctx, caller, id)
	return args.String(0), args.Bool(1), args.Error(2)
}

// SetAccount mocks the SetAccount method
func (m *MockAccountRegistry) SetAccount(ctx context.Context, caller common.Address, id string, address string) error {
	args := m.Called(ctx, caller, id, address)
	return args.Error(0)
}
