package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKVStore implements interfaces.KVStore for testing
type MockKVStore struct {
	mock.Mock
	name string
}

func (m *MockKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKVStore) Set(ctx context.Context, key string, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockKVStore) Name() string {
	return m.name
}

func (m *MockKVStore) LocationURI() string {
	return "mock:" + m.name
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiStore_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.KVStore
			for i, available := range tt.backends {
				mockStore := &MockKVStore{name: fmt.Sprintf("mock-A%x", i)}
				mockStore.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockStore)
			}

			multi := NewMultiStore(backends, discardLogger())
			assert.Equal(t, tt.expected, multi.Available(context.Background()))

			for _, backend := range backends {
				backend.(*MockKVStore).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStore_Get(t *testing.T) {
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.KVStore
		expectedValue string
		expectedFound bool
		expectedError bool
	}{
		{
			name: "first backend hit",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Get", mock.Anything, "alice").Return("addr1", true, nil)

				mock2 := &MockKVStore{name: "mock-B"}
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedValue: "addr1",
			expectedFound: true,
		},
		{
			name: "miss falls through to second backend",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Get", mock.Anything, "alice").Return("", false, nil)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Get", mock.Anything, "alice").Return("addr1", true, nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedValue: "addr1",
			expectedFound: true,
		},
		{
			name: "error falls through to second backend",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Get", mock.Anything, "alice").Return("", false, testErr)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Get", mock.Anything, "alice").Return("addr1", true, nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedValue: "addr1",
			expectedFound: true,
		},
		{
			name: "error then miss is not a miss",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Get", mock.Anything, "alice").Return("", false, testErr)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Get", mock.Anything, "alice").Return("", false, nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "unavailable then miss is not a miss",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Get", mock.Anything, "alice").Return("", false, nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "unavailable backend skipped",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Get", mock.Anything, "alice").Return("addr1", true, nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedValue: "addr1",
			expectedFound: true,
		},
		{
			name: "miss everywhere",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Get", mock.Anything, "alice").Return("", false, nil)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Get", mock.Anything, "alice").Return("", false, nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedFound: false,
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Get", mock.Anything, "alice").Return("", false, testErr)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(false)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "no backends",
			setupMocks: func() []interfaces.KVStore {
				return nil
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiStore(backends, discardLogger())

			value, found, err := multi.Get(context.Background(), "alice")
			if tt.expectedError {
				require.Error(t, err)
				assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedFound, found)
			assert.Equal(t, tt.expectedValue, value)

			for _, backend := range backends {
				backend.(*MockKVStore).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStore_Set(t *testing.T) {
	testErr := errors.New("test error")

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.KVStore
		expectedError bool
	}{
		{
			name: "all backends successful",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Set", mock.Anything, "alice", "addr1").Return(nil)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Set", mock.Anything, "alice", "addr1").Return(nil)
				return []interfaces.KVStore{mock1, mock2}
			},
		},
		{
			name: "one backend fails",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Set", mock.Anything, "alice", "addr1").Return(testErr)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Set", mock.Anything, "alice", "addr1").Return(nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "read-only backend fails the write",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Set", mock.Anything, "alice", "addr1").Return(interfaces.ErrReadOnlyStore)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Set", mock.Anything, "alice", "addr1").Return(nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "unavailable backend fails the write",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Set", mock.Anything, "alice", "addr1").Return(nil)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.KVStore {
				mock1 := &MockKVStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Set", mock.Anything, "alice", "addr1").Return(testErr)

				mock2 := &MockKVStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(false)
				return []interfaces.KVStore{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "no backends",
			setupMocks: func() []interfaces.KVStore {
				return nil
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiStore(backends, discardLogger())

			err := multi.Set(context.Background(), "alice", "addr1")
			if tt.expectedError {
				assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
			} else {
				assert.NoError(t, err)
			}

			for _, backend := range backends {
				backend.(*MockKVStore).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStore_LocationURI(t *testing.T) {
	multi := NewMultiStore([]interfaces.KVStore{
		&MockKVStore{name: "a"},
		&MockKVStore{name: "b"},
	}, nil)

	assert.Equal(t, "multi:[mock:a,mock:b]", multi.LocationURI())
	assert.Equal(t, "multi-store", multi.Name())
}

// flakyStore is a memory store whose writes can be switched off.
type flakyStore struct {
	*MemoryStore
	failSet bool
}

func (f *flakyStore) Set(ctx context.Context, key string, value string) error {
	if f.failSet {
		return errors.New("write rejected")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestMultiStore_RegistryOverwriteWithFailingBackend(t *testing.T) {
	ctx := context.Background()
	operator := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	primary := &flakyStore{MemoryStore: NewMemoryStore(interfaces.DefaultNamespace)}
	secondary := NewMemoryStore(interfaces.DefaultNamespace)
	reg := registry.NewRegistry(operator, NewMultiStore([]interfaces.KVStore{primary, secondary}, discardLogger()), discardLogger())

	require.NoError(t, reg.SetAccount(ctx, operator, "alice", "addr1"))

	primary.failSet = true
	err := reg.SetAccount(ctx, operator, "alice", "addr2")
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)

	// the failed overwrite is reported, and a retry once the backend recovers wins
	primary.failSet = false
	require.NoError(t, reg.SetAccount(ctx, operator, "alice", "addr2"))

	address, found, err := reg.GetAccount(ctx, operator, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "addr2", address)
}

func TestMultiStore_FailedBackendIsNotAMiss(t *testing.T) {
	ctx := context.Background()

	holder := &MockKVStore{name: "holder"}
	holder.On("Available", mock.Anything).Return(true)
	holder.On("Get", mock.Anything, "alice").Return("", false, errors.New("timeout"))

	multi := NewMultiStore([]interfaces.KVStore{holder, NewMemoryStore(interfaces.DefaultNamespace)}, discardLogger())

	value, found, err := multi.Get(ctx, "alice")
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
	assert.False(t, found)
	assert.Empty(t, value)
}
