package address

import (
	"bytes"
	"fmt"

	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
)

// Range returns the smallest and largest Base58 strings obtainable from a
// 20-byte digest plus checksum under prefix.
func Range(prefix []byte) (string, string) {
	const span = DigestLen + encoding.ChecksumLen
	start := append(bytes.Clone(prefix), make([]byte, span)...)
	end := append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, span)...)
	return encoding.Base58Encode(start), encoding.Base58Encode(end)
}

// ValidatePattern checks that some address of the given kind can start with
// pattern, so a vanity search for it can terminate.
func ValidatePattern(params *chain.Params, pattern string, kind Kind) error {
	if bad := encoding.InvalidBase58Chars(pattern); bad != "" {
		return &AddressError{Reason: fmt.Sprintf("pattern %s contains not allowed characters: %s", pattern, bad)}
	}
	start, end := Range(Prefix(params, kind))
	if pattern < truncate(start, len(pattern)) || pattern > truncate(end, len(pattern)) {
		return &AddressError{
			Reason: fmt.Sprintf("impossible prefix %s, choose one from %s-%s range (characters order is %s)",
				pattern, start, end, encoding.Alphabet),
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
