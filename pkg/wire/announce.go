package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// AnnounceVersion is the version of the discovery announcement format.
const AnnounceVersion = 1

// Announcement is the discovery record a sender repeats on the local
// subnet until a receiver pairs with it. Receivers filter announcements
// by exact passcode match; everything else is ignored silently.
type Announcement struct {
	V            int    `json:"v"`
	Passcode     string `json:"passcode"`
	Filename     string `json:"filename"`
	SessionToken string `json:"session_token"`
	TransferPort int    `json:"transfer_port"`
}

// NewAnnouncement builds an announcement with a fresh session token.
func NewAnnouncement(passcode, filename string, transferPort int) Announcement {
	return Announcement{
		V:            AnnounceVersion,
		Passcode:     passcode,
		Filename:     filename,
		SessionToken: uuid.NewString(),
		TransferPort: transferPort,
	}
}

// Encode marshals the announcement to its JSON wire form.
func (a Announcement) Encode() ([]byte, error) {
	if err := a.ValidateBasic(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("announcement: marshal: %w", err)
	}
	return b, nil
}

// DecodeAnnouncement unmarshals and validates an announcement datagram.
func DecodeAnnouncement(b []byte) (Announcement, error) {
	var a Announcement
	if err := json.Unmarshal(b, &a); err != nil {
		return Announcement{}, fmt.Errorf("announcement: unmarshal: %w", err)
	}
	if err := a.ValidateBasic(); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// ValidateBasic performs basic validation on the announcement.
func (a Announcement) ValidateBasic() error {
	if a.V != AnnounceVersion {
		return fmt.Errorf("announcement: invalid version: got %d, expected %d", a.V, AnnounceVersion)
	}
	if a.Passcode == "" {
		return errors.New("announcement: passcode is required")
	}
	if a.TransferPort <= 0 || a.TransferPort > 65535 {
		return fmt.Errorf("announcement: invalid transfer port %d", a.TransferPort)
	}
	return nil
}
