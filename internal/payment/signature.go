package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidSignature is returned for any webhook whose signature header
// fails verification: tampered payload, wrong secret, malformed header, or
// a timestamp outside the tolerance window. Callers must reject the event
// without any state change.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultTolerance bounds how old a signed webhook timestamp may be. It
// limits replay of captured deliveries while leaving room for provider
// retry backoff.
const DefaultTolerance = 5 * time.Minute

// Verifier checks webhook payload authenticity against the shared secret.
//
// The header format is "t=<unix>,v1=<hex>", where the hex value is
// HMAC-SHA256(secret, "<unix>.<payload>"). Multiple v1 entries are
// accepted (secret rotation); verification succeeds if any matches.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier for the given shared secret. A
// non-positive tolerance falls back to DefaultTolerance.
func NewVerifier(secret []byte, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks payload against the signature header. A nil return means
// the payload is authentic.
func (v *Verifier) Verify(payload []byte, header string) error {
	ts, sigs, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if age := v.now().Sub(time.Unix(ts, 0)); age > v.tolerance || age < -v.tolerance {
		return errors.Wrap(ErrInvalidSignature, "timestamp outside tolerance")
	}

	expected := computeSignature(v.secret, ts, payload)
	for _, sig := range sigs {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return errors.Wrap(ErrInvalidSignature, "no matching signature")
}

// Sign produces a signature header for payload at the given time. Used by
// tests and local webhook tooling.
func Sign(secret []byte, t time.Time, payload []byte) string {
	ts := t.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(secret, ts, payload)))
}

func computeSignature(secret []byte, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (ts int64, sigs [][]byte, err error) {
	if header == "" {
		return 0, nil, errors.Wrap(ErrInvalidSignature, "missing signature header")
	}

	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, errors.Wrap(ErrInvalidSignature, "bad timestamp")
			}
		case "v1":
			sig, err := hex.DecodeString(val)
			if err != nil || len(sig) != sha256.Size {
				return 0, nil, errors.Wrap(ErrInvalidSignature, "bad signature encoding")
			}
			sigs = append(sigs, sig)
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return 0, nil, errors.Wrap(ErrInvalidSignature, "incomplete signature header")
	}
	return ts, sigs, nil
}
