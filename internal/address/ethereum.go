package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
)

// Ethereum returns the EIP-55 checksummed address of pub: the last 20 bytes
// of keccak256(x ‖ y).
func Ethereum(pub ecc.Point) string {
	raw := encoding.EncodePoint(pub, false)[1:]
	return common.BytesToAddress(crypto.Keccak256(raw)[12:]).Hex()
}

// ValidateEthereum checks a hex address. All-lowercase and all-uppercase
// addresses carry no checksum and are accepted; mixed case must match EIP-55.
func ValidateEthereum(addr string) error {
	if !common.IsHexAddress(addr) {
		return &AddressError{Address: addr, Reason: "not a 20-byte hex address"}
	}
	body := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if common.HexToAddress(addr).Hex() != "0x"+body {
		return &AddressError{Address: addr, Reason: "EIP-55 checksum mismatch"}
	}
	return nil
}

// ChecksumEthereum returns the EIP-55 form of a hex address.
func ChecksumEthereum(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", &AddressError{Address: addr, Reason: "not a 20-byte hex address"}
	}
	return common.HexToAddress(addr).Hex(), nil
}
