// Package ecc implements affine point arithmetic over short Weierstrass
// curves y^2 = x^3 + ax + b defined over a prime field.
//
// Arithmetic is done with math/big so that a Curve can be parameterized with
// toy values in tests. The process-wide secp256k1 instance is returned by S256.
package ecc

import (
	"fmt"
	"io"
	"math/big"
)

// maxKeyAttempts bounds rejection sampling in GenerateKey. Each draw is
// rejected with probability below 1/2, so reaching the cap means the
// randomness source is broken.
const maxKeyAttempts = 256

// CurveError reports a point that is not on the curve or an invalid scalar.
type CurveError struct {
	Reason string
}

func (e *CurveError) Error() string {
	return "curve error: " + e.Reason
}

// Curve holds immutable domain parameters.
type Curve struct {
	Name string
	P    *big.Int // field modulus
	A    *big.Int
	B    *big.Int
	N    *big.Int // order of G
	Gx   *big.Int
	Gy   *big.Int
}

// NewCurve builds a curve and checks that the generator lies on it.
func NewCurve(name string, p, a, b, n, gx, gy *big.Int) (*Curve, error) {
	c := &Curve{
		Name: name,
		P:    new(big.Int).Set(p),
		A:    new(big.Int).Mod(a, p),
		B:    new(big.Int).Mod(b, p),
		N:    new(big.Int).Set(n),
		Gx:   new(big.Int).Set(gx),
		Gy:   new(big.Int).Set(gy),
	}
	if !c.IsOnCurve(gx, gy) {
		return nil, &CurveError{Reason: fmt.Sprintf("generator of %s is not on the curve", name)}
	}
	return c, nil
}

var secp256k1 = mustCurve(
	"secp256k1",
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F",
	"0",
	"7",
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141",
	"79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798",
	"483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8",
)

// S256 returns the secp256k1 curve.
func S256() *Curve {
	return secp256k1
}

func mustCurve(name, p, a, b, n, gx, gy string) *Curve {
	c, err := NewCurve(name, mustHex(p), mustHex(a), mustHex(b), mustHex(n), mustHex(gx), mustHex(gy))
	if err != nil {
		panic(err)
	}
	return c
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ecc: invalid hex constant " + s)
	}
	return v
}

// IsOnCurve reports whether (x, y) satisfies the curve equation.
func (c *Curve) IsOnCurve(x, y *big.Int) bool {
	if x == nil || y == nil {
		return false
	}
	if x.Sign() < 0 || y.Sign() < 0 || x.Cmp(c.P) >= 0 || y.Cmp(c.P) >= 0 {
		return false
	}
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, c.P)
	return lhs.Cmp(c.rhs(x)) == 0
}

// rhs computes x^3 + ax + b mod p.
func (c *Curve) rhs(x *big.Int) *big.Int {
	r := new(big.Int).Mul(x, x)
	r.Mul(r, x)
	ax := new(big.Int).Mul(c.A, x)
	r.Add(r, ax)
	r.Add(r, c.B)
	return r.Mod(r, c.P)
}

// NewPoint returns the affine point (x, y), failing with a CurveError when it
// does not satisfy the curve equation.
func (c *Curve) NewPoint(x, y *big.Int) (Point, error) {
	if !c.IsOnCurve(x, y) {
		return Point{}, &CurveError{Reason: fmt.Sprintf("point (%x, %x) is not on %s", x, y, c.Name)}
	}
	return c.affine(new(big.Int).Set(x), new(big.Int).Set(y)), nil
}

// PointFromX returns the point with the given x coordinate whose y parity
// matches odd.
func (c *Curve) PointFromX(x *big.Int, odd bool) (Point, error) {
	if x.Sign() < 0 || x.Cmp(c.P) >= 0 {
		return Point{}, &CurveError{Reason: "x coordinate out of range"}
	}
	alpha := c.rhs(x)
	beta := ModSqrt(alpha, c.P)
	if beta.Sign() == 0 && alpha.Sign() != 0 {
		return Point{}, &CurveError{Reason: fmt.Sprintf("no point on %s with x = %x", c.Name, x)}
	}
	if (beta.Bit(0) == 1) != odd {
		beta.Sub(c.P, beta)
		beta.Mod(beta, c.P)
	}
	return c.NewPoint(x, beta)
}

// G returns the generator point.
func (c *Curve) G() Point {
	return c.affine(c.Gx, c.Gy)
}

// Infinity returns the identity element.
func (c *Curve) Infinity() Point {
	return Point{curve: c, inf: true}
}

// ScalarBaseMult returns k·G.
func (c *Curve) ScalarBaseMult(k *big.Int) Point {
	return c.G().Mul(k)
}

// ByteLen is the minimal number of bytes holding any scalar below N.
func (c *Curve) ByteLen() int {
	return (c.N.BitLen() + 7) / 8
}

// ValidateScalar checks 0 < k < N.
func (c *Curve) ValidateScalar(k *big.Int) error {
	if k == nil || k.Sign() <= 0 || k.Cmp(c.N) >= 0 {
		return &CurveError{Reason: "private key out of range [1, n)"}
	}
	return nil
}

// GenerateKey draws a scalar uniformly from [1, N) by rejection sampling.
// Excess high bits of the byte-aligned draw are shifted off so that most draws
// are accepted.
func (c *Curve) GenerateKey(rand io.Reader) (*big.Int, error) {
	size := c.ByteLen()
	excess := uint(size*8 - c.N.BitLen())
	buf := make([]byte, size)
	for i := 0; i < maxKeyAttempts; i++ {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, fmt.Errorf("failed to read randomness: %w", err)
		}
		k := new(big.Int).SetBytes(buf)
		k.Rsh(k, excess)
		if k.Sign() > 0 && k.Cmp(c.N) < 0 {
			return k, nil
		}
	}
	return nil, &CurveError{Reason: "could not draw a scalar in range"}
}
