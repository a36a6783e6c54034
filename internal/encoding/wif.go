package encoding

import (
	"fmt"
	"math/big"
)

const (
	keyLen           = 32
	compressedMarker = 0x01
)

// WIF is a decoded Wallet Import Format private key.
type WIF struct {
	Prefix     []byte
	Key        *big.Int
	Compressed bool
}

// EncodeWIF returns prefix ‖ key(32 bytes) [‖ 0x01] with a Base58Check checksum.
func EncodeWIF(prefix []byte, key *big.Int, compressed bool) string {
	payload := make([]byte, 0, len(prefix)+keyLen+1)
	payload = append(payload, prefix...)
	payload = append(payload, key.FillBytes(make([]byte, keyLen))...)
	if compressed {
		payload = append(payload, compressedMarker)
	}
	return CheckEncode(payload)
}

// DecodeWIF decodes a WIF key with a one-byte secret prefix. A 34-byte payload
// ending in 0x01 is compressed; a 33-byte payload is uncompressed.
func DecodeWIF(s string) (*WIF, error) {
	payload, err := CheckDecode(s)
	if err != nil {
		return nil, err
	}
	switch {
	case len(payload) == 1+keyLen:
		return &WIF{
			Prefix: payload[:1],
			Key:    new(big.Int).SetBytes(payload[1:]),
		}, nil
	case len(payload) == 1+keyLen+1 && payload[len(payload)-1] == compressedMarker:
		return &WIF{
			Prefix:     payload[:1],
			Key:        new(big.Int).SetBytes(payload[1 : 1+keyLen]),
			Compressed: true,
		}, nil
	default:
		return nil, &EncodingError{Reason: fmt.Sprintf("wif payload of %d bytes", len(payload)), Err: ErrLength}
	}
}

// String re-encodes the key.
func (w *WIF) String() string {
	return EncodeWIF(w.Prefix, w.Key, w.Compressed)
}
