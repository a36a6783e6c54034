// Package ecdsa implements deterministic ECDSA over an ecc.Curve with public
// key recovery and DER serialization.
package ecdsa

import (
	"fmt"
	"math/big"

	"github.com/klingon-exchange/multicrypto/internal/ecc"
)

// SignatureError reports a signature that could not be produced or recovered.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return "signature error: " + e.Reason
}

// Signature is an (r, s) pair.
type Signature struct {
	R *big.Int
	S *big.Int
}

// Sign signs msg with private key d. The message is digested with h and the
// nonce is derived per RFC 6979, so signing is deterministic. s is returned as
// computed; SerializeDER applies the low-S rule.
func Sign(curve *ecc.Curve, msg []byte, d *big.Int, h Hash) (*Signature, error) {
	if err := curve.ValidateScalar(d); err != nil {
		return nil, err
	}
	digest := h.Digest(msg)
	k, err := Nonce(curve, d, digest, h)
	if err != nil {
		return nil, err
	}

	R := curve.ScalarBaseMult(k)
	r := new(big.Int).Mod(R.X(), curve.N)
	if r.Sign() == 0 {
		return nil, &SignatureError{Reason: "nonce produced r = 0"}
	}

	e := new(big.Int).SetBytes(digest)
	s := new(big.Int).Mul(r, d)
	s.Add(s, e)
	s.Mul(s, ecc.ModInverse(k, curve.N))
	s.Mod(s, curve.N)
	if s.Sign() == 0 {
		return nil, &SignatureError{Reason: "nonce produced s = 0"}
	}
	return &Signature{R: r, S: s}, nil
}

// Verify checks sig over msg against public key pub.
func Verify(curve *ecc.Curve, msg []byte, sig *Signature, pub ecc.Point, h Hash) bool {
	if sig == nil || pub.IsInfinity() {
		return false
	}
	if !inRange(sig.R, curve.N) || !inRange(sig.S, curve.N) {
		return false
	}
	e := new(big.Int).SetBytes(h.Digest(msg))
	w := ecc.ModInverse(sig.S, curve.N)

	u1 := new(big.Int).Mul(e, w)
	u1.Mod(u1, curve.N)
	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, curve.N)

	V := curve.ScalarBaseMult(u1).Add(pub.Mul(u2))
	if V.IsInfinity() {
		return false
	}
	return new(big.Int).Mod(V.X(), curve.N).Cmp(sig.R) == 0
}

// RecoverPublicKey reconstructs the public key that produced sig over msg.
// recid in [0, 3] selects the R candidate: bit 0 is the parity of R.y and bit 1
// means R.x = r + n.
func RecoverPublicKey(curve *ecc.Curve, msg []byte, sig *Signature, recid int, h Hash) (ecc.Point, error) {
	if recid < 0 || recid > 3 {
		return ecc.Point{}, &SignatureError{Reason: fmt.Sprintf("invalid recovery id %d", recid)}
	}
	if !inRange(sig.R, curve.N) || !inRange(sig.S, curve.N) {
		return ecc.Point{}, &SignatureError{Reason: "signature values out of range"}
	}

	x := new(big.Int).Set(sig.R)
	if recid>>1 == 1 {
		x.Add(x, curve.N)
	}
	R, err := curve.PointFromX(x, recid&1 == 1)
	if err != nil {
		return ecc.Point{}, &SignatureError{Reason: "cannot recover R: " + err.Error()}
	}

	e := new(big.Int).SetBytes(h.Digest(msg))
	rInv := ecc.ModInverse(sig.R, curve.N)
	Q := R.Mul(sig.S).Sub(curve.ScalarBaseMult(e)).Mul(rInv)
	if Q.IsInfinity() {
		return ecc.Point{}, &SignatureError{Reason: "recovered point at infinity"}
	}
	return Q, nil
}

func inRange(v, n *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(n) < 0
}
