// Package identity validates opaque client identifiers without any storage
// lookup. An id is 16 characters of hex: 12 client-chosen characters followed
// by 4 characters of CRC-16/ARC checksum over the first 12, hex encoded and
// zero padded.
package identity

import (
	"fmt"

	"github.com/sigurn/crc16"
)

const (
	idLength       = 16
	payloadLength  = 12
	checksumLength = 4
)

var table = crc16.MakeTable(crc16.CRC16_ARC)

// Validate recomputes the checksum over the payload segment and compares it
// to the checksum segment. Any length or checksum mismatch fails.
func Validate(id string) bool {
	if len(id) != idLength {
		return false
	}
	if !isHex(id) {
		return false
	}
	payload := id[:payloadLength]
	checksum := id[payloadLength:]

	computed := fmt.Sprintf("%0*x", checksumLength, crc16.Checksum([]byte(payload), table))
	return computed == checksum
}

// Checksum returns the 4-character checksum segment for a 12-character
// payload. Used by clients generating ids and by tests.
func Checksum(payload string) (string, error) {
	if len(payload) != payloadLength {
		return "", fmt.Errorf("payload must be %d characters, got %d", payloadLength, len(payload))
	}
	if !isHex(payload) {
		return "", fmt.Errorf("payload must be hexadecimal")
	}
	return fmt.Sprintf("%0*x", checksumLength, crc16.Checksum([]byte(payload), table)), nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
