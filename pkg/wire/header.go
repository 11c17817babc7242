package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxNameLen is the maximum filename length carried by a transfer header.
// The name length is encoded in a single byte.
const MaxNameLen = 255

// headerFixedLen is the size prefix (8 bytes) plus the name length byte.
const headerFixedLen = 9

// Header is the transfer preamble sent exactly once, before any payload
// byte. On the wire it is an 8-byte little-endian file size, a 1-byte
// filename length, and the filename bytes. The payload that follows is a
// flat byte stream of exactly Size bytes with no per-chunk framing.
type Header struct {
	Size uint64
	Name string
}

// WriteHeader encodes h and writes it to w in a single write.
func WriteHeader(w io.Writer, h Header) error {
	name := []byte(h.Name)
	if len(name) == 0 {
		return errors.New("header: empty filename")
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("header: filename %d bytes exceeds max %d", len(name), MaxNameLen)
	}

	buf := make([]byte, headerFixedLen+len(name))
	binary.LittleEndian.PutUint64(buf[0:8], h.Size)
	buf[8] = byte(len(name))
	copy(buf[headerFixedLen:], name)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("header: write: %w", err)
	}
	return nil
}

// ReadHeader reads and decodes a transfer header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var fixed [headerFixedLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Header{}, fmt.Errorf("header: read: %w", err)
	}

	size := binary.LittleEndian.Uint64(fixed[0:8])
	nameLen := int(fixed[8])
	if nameLen == 0 {
		return Header{}, errors.New("header: empty filename")
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return Header{}, fmt.Errorf("header: read filename: %w", err)
	}

	return Header{Size: size, Name: string(name)}, nil
}
