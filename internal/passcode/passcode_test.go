package passcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/slkrd/slkrd/internal/transfer"
)

func TestGenerateValidatesItself(t *testing.T) {
	for _, alphabet := range []string{AlphabetDigits, AlphabetFriendly} {
		a := New(alphabet, DefaultLength)
		for i := 0; i < 200; i++ {
			code, err := a.Generate()
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if len(code) != DefaultLength {
				t.Fatalf("len(%q) = %d, want %d", code, len(code), DefaultLength)
			}
			if _, err := a.Validate(string(code)); err != nil {
				t.Errorf("Validate(%q) = %v, want nil", code, err)
			}
		}
	}
}

func TestGenerateStaysInAlphabet(t *testing.T) {
	a := New(AlphabetDigits, 32)
	for i := 0; i < 100; i++ {
		code, err := a.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for _, c := range string(code) {
			if !strings.ContainsRune(AlphabetDigits, c) {
				t.Fatalf("character %q outside alphabet in %q", c, code)
			}
		}
	}
}

func TestGenerateCoversAlphabet(t *testing.T) {
	// 500 draws of 6 digits makes a missing digit vanishingly unlikely.
	a := New(AlphabetDigits, DefaultLength)
	seen := make(map[byte]bool)
	for i := 0; i < 500; i++ {
		code, err := a.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for j := 0; j < len(code); j++ {
			seen[code[j]] = true
		}
	}
	for i := 0; i < len(AlphabetDigits); i++ {
		if !seen[AlphabetDigits[i]] {
			t.Errorf("digit %q never generated", AlphabetDigits[i])
		}
	}
}

func TestValidateRejects(t *testing.T) {
	a := New(AlphabetDigits, 6)
	cases := []struct {
		name      string
		candidate string
	}{
		{"empty", ""},
		{"too short", "48291"},
		{"too long", "4829133"},
		{"letter", "48291a"},
		{"space", "482 13"},
		{"unicode", "48291é"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Validate(tc.candidate)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want error", tc.candidate)
			}
			if !errors.Is(err, transfer.ErrInvalidPasscode) {
				t.Errorf("error = %v, want ErrInvalidPasscode", err)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	a := New(AlphabetDigits, 6)
	code, err := a.Validate("482913")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if code != Passcode("482913") {
		t.Errorf("code = %q, want %q", code, "482913")
	}
}

func TestNewDefaults(t *testing.T) {
	a := New("", 0)
	if a.Length() != DefaultLength {
		t.Errorf("Length() = %d, want %d", a.Length(), DefaultLength)
	}
	code, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := a.Validate(string(code)); err != nil {
		t.Errorf("Validate(%q) = %v", code, err)
	}
}
