// Package address derives, validates and translates Base58Check addresses of
// the coins in the chain registry.
package address

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
)

// DigestLen is the length of a public key or script hash.
const DigestLen = 20

// Kind tells which prefix a digest is encoded under and how it was derived.
type Kind int

const (
	// Legacy is a P2PKH digest of a public key.
	Legacy Kind = iota
	// ScriptHash is a P2SH digest of an arbitrary redeem script.
	ScriptHash
	// Segwit is a P2SH digest of the P2WPKH redeem script 0x00 0x14 <hash160(pubkey)>.
	Segwit
)

func (k Kind) String() string {
	switch k {
	case Legacy:
		return "legacy"
	case ScriptHash:
		return "p2sh"
	case Segwit:
		return "p2sh-p2wpkh"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsScript reports whether the digest is encoded under the script prefix.
func (k Kind) IsScript() bool {
	return k == ScriptHash || k == Segwit
}

// Digest is a 20-byte hash together with its kind.
type Digest struct {
	Kind Kind
	Hash []byte
}

// AddressError reports an address or key that does not belong to a coin.
type AddressError struct {
	Address string
	Reason  string
	Err     error
}

func (e *AddressError) Error() string {
	msg := "invalid address"
	if e.Address != "" {
		msg += " " + e.Address
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// Prefix returns the version bytes a digest of kind k uses for params.
func Prefix(params *chain.Params, k Kind) []byte {
	if k.IsScript() {
		return params.ScriptPrefix
	}
	return params.AddressPrefix
}

// PublicKeyHash returns hash160 of the SEC encoding of pub.
func PublicKeyHash(pub ecc.Point, compressed bool) []byte {
	return encoding.Hash160(encoding.EncodePoint(pub, compressed))
}

// WitnessRedeemScript returns the P2WPKH program 0x00 0x14 <pkh>.
func WitnessRedeemScript(pkh []byte) []byte {
	return append([]byte{0x00, DigestLen}, pkh...)
}

// FromPublicKey computes the digest of pub for the given kind. Segwit
// requires a compressed key.
func FromPublicKey(pub ecc.Point, compressed bool, kind Kind) (Digest, error) {
	if pub.IsInfinity() {
		return Digest{}, &AddressError{Reason: "public key is the point at infinity"}
	}
	switch kind {
	case Legacy:
		return Digest{Kind: Legacy, Hash: PublicKeyHash(pub, compressed)}, nil
	case Segwit:
		if !compressed {
			return Digest{}, &AddressError{Reason: "segwit addresses must use a compressed public key"}
		}
		redeem := WitnessRedeemScript(PublicKeyHash(pub, true))
		return Digest{Kind: Segwit, Hash: encoding.Hash160(redeem)}, nil
	default:
		return Digest{}, &AddressError{Reason: fmt.Sprintf("cannot derive %s digest from a public key", kind)}
	}
}

// FromScript returns the P2SH digest of a redeem script.
func FromScript(script []byte) Digest {
	return Digest{Kind: ScriptHash, Hash: encoding.Hash160(script)}
}

// Encode renders prefix ‖ digest ‖ checksum in Base58.
func Encode(params *chain.Params, d Digest) string {
	payload := append(bytes.Clone(Prefix(params, d.Kind)), d.Hash...)
	return encoding.CheckEncode(payload)
}

// Decode splits addr into its digest and kind. Only the prefix and checksum
// are checked; a script-prefixed address decodes as ScriptHash since P2SH
// and wrapped segwit are indistinguishable on the wire.
func Decode(params *chain.Params, addr string) (Digest, error) {
	payload, err := encoding.CheckDecode(addr)
	if err != nil {
		return Digest{}, &AddressError{Address: addr, Reason: "cannot decode", Err: err}
	}
	for _, c := range []struct {
		kind   Kind
		prefix []byte
	}{
		{Legacy, params.AddressPrefix},
		{ScriptHash, params.ScriptPrefix},
	} {
		if !bytes.HasPrefix(payload, c.prefix) {
			continue
		}
		hash := payload[len(c.prefix):]
		if len(hash) != DigestLen {
			return Digest{}, &AddressError{
				Address: addr,
				Reason:  fmt.Sprintf("digest is %d bytes, want %d", len(hash), DigestLen),
			}
		}
		return Digest{Kind: c.kind, Hash: bytes.Clone(hash)}, nil
	}
	return Digest{}, &AddressError{Address: addr, Reason: "address prefix is not correct for coin " + params.Symbol}
}

// Validate checks prefix, digest length and checksum of addr for params and
// that it lies in the range reachable under its prefix.
func Validate(params *chain.Params, addr string) error {
	d, err := Decode(params, addr)
	if err != nil {
		return err
	}
	return ValidatePattern(params, addr, d.Kind)
}

// Translate re-encodes an address of coin from under the matching prefix of
// coin to. The digest is prefix independent, so nothing is recomputed.
func Translate(from, to *chain.Params, addr string) (string, error) {
	d, err := Decode(from, addr)
	if err != nil {
		return "", err
	}
	return Encode(to, d), nil
}

// FromPrivateKey derives the address of key for params.
func FromPrivateKey(params *chain.Params, key *big.Int, compressed bool, kind Kind) (string, error) {
	curve := ecc.S256()
	if err := curve.ValidateScalar(key); err != nil {
		return "", err
	}
	d, err := FromPublicKey(curve.ScalarBaseMult(key), compressed, kind)
	if err != nil {
		return "", err
	}
	return Encode(params, d), nil
}

// FromWIF derives the address of a WIF key. The WIF prefix is not checked.
func FromWIF(params *chain.Params, wif string, kind Kind) (string, error) {
	w, err := encoding.DecodeWIF(wif)
	if err != nil {
		return "", &AddressError{Reason: "malformed wif private key", Err: err}
	}
	return FromPrivateKey(params, w.Key, w.Compressed, kind)
}

// ErrSecretPrefix is wrapped when a WIF key belongs to another coin.
var ErrSecretPrefix = errors.New("incorrect secret prefix")

// ValidateWIF decodes wif and checks that its secret prefix matches params.
func ValidateWIF(params *chain.Params, wif string) (*encoding.WIF, error) {
	w, err := encoding.DecodeWIF(wif)
	if err != nil {
		return nil, &AddressError{Reason: "malformed wif private key", Err: err}
	}
	if !bytes.Equal(w.Prefix, params.SecretPrefix) {
		return nil, &AddressError{
			Reason: fmt.Sprintf("0x%x in wif private key for coin %s", w.Prefix, params.Symbol),
			Err:    ErrSecretPrefix,
		}
	}
	if err := ecc.S256().ValidateScalar(w.Key); err != nil {
		return nil, err
	}
	return w, nil
}

// TranslateWIF re-encodes a WIF key under the secret prefix of to, keeping
// the compression flag.
func TranslateWIF(to *chain.Params, wif string) (string, error) {
	w, err := encoding.DecodeWIF(wif)
	if err != nil {
		return "", &AddressError{Reason: "malformed wif private key", Err: err}
	}
	return encoding.EncodeWIF(to.SecretPrefix, w.Key, w.Compressed), nil
}
