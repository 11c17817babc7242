// Package passcode generates and validates the short shared secret that
// pairs a sender with a receiver for exactly one transfer. A passcode is
// a pairing token, not a credential: collisions are a usability concern,
// so the generator only needs to be statistically uniform.
package passcode

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/slkrd/slkrd/internal/transfer"
)

// DefaultLength is the number of characters in a generated passcode.
const DefaultLength = 6

// Alphabets a passcode may be drawn from.
const (
	// AlphabetDigits is the default: easy to read over the phone.
	AlphabetDigits = "0123456789"

	// AlphabetFriendly is uppercase letters and digits with the
	// ambiguous O, 0, I, 1 removed.
	AlphabetFriendly = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Passcode is a validated shared secret. Comparison is exact,
// byte-for-byte; the zero value is never valid.
type Passcode string

// Authority generates and validates passcodes for one configured
// alphabet and length.
type Authority struct {
	alphabet string
	length   int
}

// New returns an authority for the given alphabet and length. An empty
// alphabet or non-positive length falls back to the defaults.
func New(alphabet string, length int) *Authority {
	if alphabet == "" {
		alphabet = AlphabetDigits
	}
	if length <= 0 {
		length = DefaultLength
	}
	return &Authority{alphabet: alphabet, length: length}
}

// Length returns the configured passcode length in bytes.
func (a *Authority) Length() int { return a.length }

// Generate draws a passcode uniformly at random from the configured
// alphabet. Rejection sampling keeps the draw unbiased for alphabet
// sizes that do not divide 256.
func (a *Authority) Generate() (Passcode, error) {
	code := make([]byte, a.length)
	limit := byte(256 - 256%len(a.alphabet))

	var raw [64]byte
	filled := 0
	for filled < a.length {
		if _, err := rand.Read(raw[:]); err != nil {
			return "", fmt.Errorf("passcode: random source: %w", err)
		}
		for _, b := range raw {
			if limit != 0 && b >= limit {
				continue
			}
			code[filled] = a.alphabet[int(b)%len(a.alphabet)]
			filled++
			if filled == a.length {
				break
			}
		}
	}
	return Passcode(code), nil
}

// Validate checks a candidate typed by the operator. It fails on length
// mismatch or any character outside the alphabet, and runs before any
// network I/O is attempted on the receive path.
func (a *Authority) Validate(candidate string) (Passcode, error) {
	if len(candidate) != a.length {
		return "", fmt.Errorf("%w: got %d characters, want %d",
			transfer.ErrInvalidPasscode, len(candidate), a.length)
	}
	for i := 0; i < len(candidate); i++ {
		if !strings.ContainsRune(a.alphabet, rune(candidate[i])) {
			return "", fmt.Errorf("%w: character %q not in alphabet",
				transfer.ErrInvalidPasscode, candidate[i])
		}
	}
	return Passcode(candidate), nil
}
