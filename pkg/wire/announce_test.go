package wire

import (
	"testing"
)

func TestAnnouncementRoundTrip(t *testing.T) {
	a := NewAnnouncement("482913", "report.pdf", 42425)
	if a.V != AnnounceVersion {
		t.Errorf("version = %d, want %d", a.V, AnnounceVersion)
	}
	if a.SessionToken == "" {
		t.Error("session token should not be empty")
	}

	b, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := DecodeAnnouncement(b)
	if err != nil {
		t.Fatalf("DecodeAnnouncement: %v", err)
	}
	if got != a {
		t.Errorf("round trip = %+v, want %+v", got, a)
	}
}

func TestAnnouncementTokensUnique(t *testing.T) {
	a := NewAnnouncement("111111", "a.bin", 42425)
	b := NewAnnouncement("111111", "a.bin", 42425)
	if a.SessionToken == b.SessionToken {
		t.Errorf("two announcements share session token %q", a.SessionToken)
	}
}

func TestDecodeAnnouncementRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `hello there`},
		{"wrong version", `{"v":99,"passcode":"482913","transfer_port":42425}`},
		{"missing passcode", `{"v":1,"passcode":"","transfer_port":42425}`},
		{"zero port", `{"v":1,"passcode":"482913","transfer_port":0}`},
		{"port too large", `{"v":1,"passcode":"482913","transfer_port":70000}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeAnnouncement([]byte(tc.raw)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}
