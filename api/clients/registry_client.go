package clients

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ruteri/operator-account-registry/api"
	"github.com/ruteri/operator-account-registry/identity"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// ErrEmptyID is returned for an empty account id, which has no HTTP route.
var ErrEmptyID = errors.New("account id must not be empty")

// RegistryClient implements api.AccountProvider over HTTP. Every request is
// signed with Key, so the server sees the key's address as the caller.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server
	ServerAddr string

	// Key signs every request
	Key *ecdsa.PrivateKey

	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client
}

// GetAccount fetches the address bound to id. The registry's "account not
// found" 404 is reported as found == false, a 401 as interfaces.ErrUnauthorized.
// Any other 404 means the server has no such route and is an error.
func (c *RegistryClient) GetAccount(ctx context.Context, id string) (string, bool, error) {
	resp, err := c.do(ctx, http.MethodGet, id, nil)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		var parsed api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.Error == api.AccountNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get account: unexpected 404 from %s", c.ServerAddr)
	default:
		return "", false, responseError("get account", resp)
	}

	var parsed api.AccountResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("could not parse account response: %w", err)
	}
	return parsed.Address, true, nil
}

// SetAccount binds id to address.
func (c *RegistryClient) SetAccount(ctx context.Context, id, address string) error {
	body, err := json.Marshal(api.SetAccountRequest{Address: address})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, id, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError("set account", resp)
	}
	return nil
}

func (c *RegistryClient) do(ctx context.Context, method, id string, body []byte) (*http.Response, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	endpoint := fmt.Sprintf("%s/api/accounts/%s", strings.TrimSuffix(c.ServerAddr, "/"), url.PathEscape(id))

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Key != nil {
		if err := identity.Sign(req, c.Key); err != nil {
			return nil, err
		}
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request registry endpoint: %w", err)
	}
	return resp, nil
}

func responseError(op string, resp *http.Response) error {
	var parsed api.ErrorResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(bodyBytes, &parsed) != nil || parsed.Error == "" {
		parsed.Error = string(bodyBytes)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, interfaces.ErrUnauthorized)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", op, interfaces.ErrBackendUnavailable)
	default:
		return fmt.Errorf("%s returned error %d: %s", op, resp.StatusCode, parsed.Error)
	}
}
