package address

import (
	"fmt"

	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
)

// EncodeWitness renders a legacy public key hash as a native P2WPKH Bech32
// address for coins that define a human readable part.
func EncodeWitness(params *chain.Params, d Digest) (string, error) {
	if params.Bech32HRP == "" {
		return "", &AddressError{Reason: fmt.Sprintf("coin %s has no native segwit encoding", params.Symbol)}
	}
	if d.Kind != Legacy {
		return "", &AddressError{Reason: fmt.Sprintf("cannot encode %s digest as a witness program", d.Kind)}
	}
	return encoding.EncodeSegwit(params.Bech32HRP, 0, d.Hash)
}

// WitnessScript decodes a Bech32 address of params into its locking script.
func WitnessScript(params *chain.Params, addr string) ([]byte, error) {
	if params.Bech32HRP == "" {
		return nil, &AddressError{Address: addr, Reason: fmt.Sprintf("coin %s has no native segwit encoding", params.Symbol)}
	}
	version, program, err := encoding.DecodeSegwit(params.Bech32HRP, addr)
	if err != nil {
		return nil, &AddressError{Address: addr, Reason: "cannot decode", Err: err}
	}
	return encoding.SegwitScript(version, program), nil
}
