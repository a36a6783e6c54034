package encoding

import (
	"bytes"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Alphabet is the Bitcoin Base58 alphabet.
const Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Base58Encode encodes b; every leading zero byte becomes a leading '1'.
func Base58Encode(b []byte) string {
	return base58.Encode(b)
}

// Base58Decode decodes s. The empty string decodes to an empty slice.
func Base58Decode(s string) ([]byte, error) {
	if i := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(Alphabet, r) }); i >= 0 {
		return nil, &EncodingError{Reason: fmt.Sprintf("base58 %q at position %d", s[i], i), Err: ErrAlphabet}
	}
	return base58.Decode(s), nil
}

// Base58DecodeInt interprets s as a big-endian Base58 number.
func Base58DecodeInt(s string) (*big.Int, error) {
	b, err := Base58Decode(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// CheckEncode appends the 4-byte checksum to payload and Base58-encodes it.
func CheckEncode(payload []byte) string {
	buf := make([]byte, 0, len(payload)+ChecksumLen)
	buf = append(buf, payload...)
	buf = append(buf, Checksum(payload)...)
	return Base58Encode(buf)
}

// CheckDecode decodes s and verifies its trailing checksum, returning the
// payload without it.
func CheckDecode(s string) ([]byte, error) {
	raw, err := Base58Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) < ChecksumLen+1 {
		return nil, &EncodingError{Reason: fmt.Sprintf("base58check payload of %d bytes", len(raw)), Err: ErrLength}
	}
	payload, sum := raw[:len(raw)-ChecksumLen], raw[len(raw)-ChecksumLen:]
	if !bytes.Equal(Checksum(payload), sum) {
		return nil, &EncodingError{Reason: "base58check", Err: ErrChecksum}
	}
	return payload, nil
}

// InvalidBase58Chars returns the distinct characters of s outside the Base58
// alphabet, sorted.
func InvalidBase58Chars(s string) string {
	seen := make(map[rune]bool)
	for _, r := range s {
		if !strings.ContainsRune(Alphabet, r) {
			seen[r] = true
		}
	}
	out := make([]rune, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	slices.Sort(out)
	return string(out)
}
