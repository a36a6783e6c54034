// Package encoding implements the textual and binary encodings shared by
// Bitcoin-derived coins: Base58, Base58Check, WIF, SEC point encoding and
// Bech32 segwit addresses.
package encoding

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChecksumLen is the length of the Base58Check checksum.
const ChecksumLen = 4

// Sentinel causes wrapped by EncodingError.
var (
	ErrChecksum = errors.New("checksum mismatch")
	ErrAlphabet = errors.New("invalid character")
	ErrLength   = errors.New("invalid length")
)

// EncodingError reports malformed encoded input.
type EncodingError struct {
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return "encoding error: " + e.Reason
	}
	return "encoding error: " + e.Reason + ": " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Hash160 returns RIPEMD-160(SHA-256(b)).
func Hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}

// DoubleSHA256 returns SHA-256(SHA-256(b)).
func DoubleSHA256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// Checksum returns the first four bytes of the double SHA-256 of payload.
func Checksum(payload []byte) []byte {
	return DoubleSHA256(payload)[:ChecksumLen]
}
