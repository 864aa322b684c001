// Package hmacsig authenticates self-reported terminal signatures against a
// server-trusted reference time, tolerating clock skew between the terminal
// and the server.
//
// A terminal derives its signature from the current time and a shared secret:
//
//	key       = format(now) + "|" + secret
//	signature = hex(HMAC(key, terminalID))
//
// The server recomputes the signature for every candidate skew offset within
// the tolerance window and accepts on the first exact match. The mapping from
// offset to signature is a one-way function, so the scan is a bounded brute
// force: 2W+1 MAC evaluations worst case, each over a short message.
package hmacsig

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"time"
)

// TimestampLayout is the wire format for the timestamp bound into the
// signature key. It is part of the contract with deployed terminal firmware
// and must match byte-for-byte; changing it breaks every terminal in the
// field.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultToleranceWindow is the clock-skew tolerance applied on each side of
// the reference time, searched at 1-second granularity.
const DefaultToleranceWindow = 120 * time.Second

// ErrInvalidSignature is the single failure condition reported by Verify.
// How many offsets were tried is internal telemetry only; exposing it would
// leak an offset-count side channel.
var ErrInvalidSignature = errors.New("hmacsig: invalid signature")

// Verifier checks terminal signatures against a shared secret. Construct it
// once at startup; it is immutable and safe for concurrent use.
type Verifier struct {
	secret  string
	newHash func() hash.Hash
	window  time.Duration
}

// New builds a Verifier for the named HMAC algorithm ("HmacSHA256" or
// "HmacSHA512", matching the firmware configuration). A zero window selects
// DefaultToleranceWindow.
func New(secret, algorithm string, window time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("hmacsig: empty shared secret")
	}

	var newHash func() hash.Hash
	switch algorithm {
	case "", "HmacSHA256":
		newHash = sha256.New
	case "HmacSHA512":
		newHash = sha512.New
	default:
		return nil, fmt.Errorf("hmacsig: unsupported algorithm %q", algorithm)
	}

	if window <= 0 {
		window = DefaultToleranceWindow
	}

	return &Verifier{secret: secret, newHash: newHash, window: window}, nil
}

// Verify searches the closed offset range [-W, +W] in 1-second steps, most
// negative first, for an offset at which the locally computed signature
// equals the claimed one. It returns the matching offset in seconds, or
// ErrInvalidSignature when no offset in the window matches.
//
// The comparison is an exact case-sensitive string compare on the hex
// encoding; terminals emit lowercase hex.
func (v *Verifier) Verify(signature, terminalID string, referenceTime time.Time) (int, error) {
	w := int(v.window / time.Second)
	for offset := -w; offset <= w; offset++ {
		adjusted := referenceTime.Add(time.Duration(offset) * time.Second)
		if v.Compute(terminalID, adjusted) == signature {
			return offset, nil
		}
	}
	return 0, ErrInvalidSignature
}

// Compute derives the signature a terminal holding the secret would produce
// at the given instant. The instant is formatted in UTC with TimestampLayout.
func (v *Verifier) Compute(terminalID string, at time.Time) string {
	key := at.UTC().Format(TimestampLayout) + "|" + v.secret
	mac := hmac.New(v.newHash, []byte(key))
	mac.Write([]byte(terminalID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Window reports the configured tolerance window.
func (v *Verifier) Window() time.Duration { return v.window }
