package ecdsa

import (
	"fmt"
	"math/big"

	"github.com/klingon-exchange/multicrypto/internal/ecc"
)

const (
	derSequence = 0x30
	derInteger  = 0x02
)

// IsLowS reports whether s is at most n/2.
func (sig *Signature) IsLowS(curve *ecc.Curve) bool {
	half := new(big.Int).Rsh(curve.N, 1)
	return sig.S.Cmp(half) <= 0
}

// Normalize returns an equivalent signature with s ≤ n/2 (BIP 66).
func (sig *Signature) Normalize(curve *ecc.Curve) *Signature {
	if sig.IsLowS(curve) {
		return &Signature{R: new(big.Int).Set(sig.R), S: new(big.Int).Set(sig.S)}
	}
	return &Signature{R: new(big.Int).Set(sig.R), S: new(big.Int).Sub(curve.N, sig.S)}
}

// SerializeDER encodes the signature as a DER SEQUENCE of two INTEGERs,
// replacing s with n - s when s > n/2.
func (sig *Signature) SerializeDER(curve *ecc.Curve) []byte {
	norm := sig.Normalize(curve)
	r := derInt(norm.R)
	s := derInt(norm.S)

	out := make([]byte, 0, 6+len(r)+len(s))
	out = append(out, derSequence, byte(4+len(r)+len(s)))
	out = append(out, derInteger, byte(len(r)))
	out = append(out, r...)
	out = append(out, derInteger, byte(len(s)))
	out = append(out, s...)
	return out
}

// derInt is the minimal big-endian form with a zero pad when the high bit is set.
func derInt(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 {
		return []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	return b
}

// ParseDER decodes a strict DER signature.
func ParseDER(b []byte) (*Signature, error) {
	if len(b) < 8 || b[0] != derSequence {
		return nil, &SignatureError{Reason: "malformed DER sequence"}
	}
	if int(b[1]) != len(b)-2 {
		return nil, &SignatureError{Reason: fmt.Sprintf("DER length %d does not match %d bytes", b[1], len(b)-2)}
	}
	r, rest, err := parseDERInt(b[2:])
	if err != nil {
		return nil, err
	}
	s, rest, err := parseDERInt(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &SignatureError{Reason: "trailing bytes after DER signature"}
	}
	return &Signature{R: r, S: s}, nil
}

func parseDERInt(b []byte) (*big.Int, []byte, error) {
	if len(b) < 2 || b[0] != derInteger {
		return nil, nil, &SignatureError{Reason: "expected DER integer"}
	}
	n := int(b[1])
	if n == 0 || len(b) < 2+n {
		return nil, nil, &SignatureError{Reason: "truncated DER integer"}
	}
	v := b[2 : 2+n]
	if v[0]&0x80 != 0 {
		return nil, nil, &SignatureError{Reason: "negative DER integer"}
	}
	if n > 1 && v[0] == 0x00 && v[1]&0x80 == 0 {
		return nil, nil, &SignatureError{Reason: "non-minimal DER integer"}
	}
	return new(big.Int).SetBytes(v), b[2+n:], nil
}
