package wallet

import (
	"bytes"
	"encoding/base32"
	"errors"
	"fmt"
)

// Stellar strkey version bytes: 'G' prefixes an ed25519 public key, 'S' a
// secret seed.
const (
	versionPublicKey byte = 6 << 3
	versionSecretKey byte = 18 << 3
)

// ErrInvalidStrkey indicates a malformed or checksum-failing strkey string.
var ErrInvalidStrkey = errors.New("wallet: invalid strkey")

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// encodeStrkey renders version || payload || crc16 in unpadded base32.
func encodeStrkey(version byte, payload []byte) string {
	raw := make([]byte, 0, 1+len(payload)+2)
	raw = append(raw, version)
	raw = append(raw, payload...)
	crc := crc16(raw)
	raw = append(raw, byte(crc&0xff), byte(crc>>8))
	return b32.EncodeToString(raw)
}

// decodeStrkey validates the checksum and version byte and returns the
// 32-byte payload.
func decodeStrkey(version byte, s string) ([]byte, error) {
	raw, err := b32.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStrkey, err)
	}
	if len(raw) != 1+32+2 {
		return nil, fmt.Errorf("%w: wrong length %d", ErrInvalidStrkey, len(raw))
	}
	if raw[0] != version {
		return nil, fmt.Errorf("%w: wrong version byte 0x%02x", ErrInvalidStrkey, raw[0])
	}

	body, check := raw[:len(raw)-2], raw[len(raw)-2:]
	crc := crc16(body)
	if !bytes.Equal(check, []byte{byte(crc & 0xff), byte(crc >> 8)}) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidStrkey)
	}
	return body[1:], nil
}

// crc16 computes CRC16-XModem (poly 0x1021, init 0x0000).
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
