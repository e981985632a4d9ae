package identity

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// Header constants used to authenticate registry requests.
const (
	// TimestampHeader carries the signing time in unix seconds.
	TimestampHeader = "X-Registry-Timestamp"

	// SignatureHeader carries the hex-encoded 65 byte recoverable signature.
	SignatureHeader = "X-Registry-Signature"

	// DefaultMaxSkew bounds how far the signing time may be from the server clock.
	DefaultMaxSkew = 5 * time.Minute
)

// ParseOperator parses the configured operator identity.
func ParseOperator(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid operator address %q", s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("operator address must not be zero")
	}
	return addr, nil
}

// RequestDigest returns the hash a caller signs for a request.
func RequestDigest(method, path string, timestamp int64, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte('\n')
	buf.WriteString(path)
	buf.WriteByte('\n')
	buf.WriteString(strconv.FormatInt(timestamp, 10))
	buf.WriteByte('\n')
	buf.Write(body)
	return crypto.Keccak256(buf.Bytes())
}

// Sign attaches identity headers to req, signed with key.
func Sign(req *http.Request, key *ecdsa.PrivateKey) error {
	return signAt(req, key, time.Now())
}

func signAt(req *http.Request, key *ecdsa.PrivateKey, at time.Time) error {
	body, err := readAndRestore(req)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}

	ts := at.Unix()
	sig, err := crypto.Sign(RequestDigest(req.Method, req.URL.EscapedPath(), ts, body), key)
	if err != nil {
		return fmt.Errorf("could not sign request: %w", err)
	}

	req.Header.Set(TimestampHeader, strconv.FormatInt(ts, 10))
	req.Header.Set(SignatureHeader, hexutil.Encode(sig))
	return nil
}

// Verifier recovers the caller of a signed request.
// It implements interfaces.CallerResolver.
type Verifier struct {
	MaxSkew time.Duration

	now func() time.Time
	log *slog.Logger
}

// NewVerifier creates a verifier with DefaultMaxSkew.
func NewVerifier(log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{
		MaxSkew: DefaultMaxSkew,
		now:     time.Now,
		log:     log,
	}
}

// Caller returns the address that signed r. Missing or malformed headers,
// stale timestamps and bad signatures all yield interfaces.ErrUnauthorized.
// The body is restored so later handlers can read it.
func (v *Verifier) Caller(r *http.Request) (common.Address, error) {
	tsHeader := r.Header.Get(TimestampHeader)
	sigHeader := r.Header.Get(SignatureHeader)
	if tsHeader == "" || sigHeader == "" {
		return common.Address{}, fmt.Errorf("%w: missing identity headers", interfaces.ErrUnauthorized)
	}

	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: malformed timestamp", interfaces.ErrUnauthorized)
	}
	if skew := v.now().Sub(time.Unix(ts, 0)); skew > v.MaxSkew || skew < -v.MaxSkew {
		v.log.Debug("Rejected request outside allowed clock skew", "skew", skew)
		return common.Address{}, fmt.Errorf("%w: timestamp outside allowed skew", interfaces.ErrUnauthorized)
	}

	sig, err := hexutil.Decode(sigHeader)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: malformed signature", interfaces.ErrUnauthorized)
	}

	body, err := readAndRestore(r)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not read request body: %w", err)
	}

	pubkey, err := crypto.SigToPub(RequestDigest(r.Method, r.URL.EscapedPath(), ts, body), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: signature not valid", interfaces.ErrUnauthorized)
	}

	return crypto.PubkeyToAddress(*pubkey), nil
}

func readAndRestore(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
