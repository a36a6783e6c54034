package ecc

import (
	"fmt"
	"math/big"
)

// Point is either the identity or an affine point on its curve. The zero
// value is the identity of no particular curve.
type Point struct {
	curve *Curve
	x, y  *big.Int
	inf   bool
}

// affine skips the membership check; callers guarantee (x, y) is on c.
func (c *Curve) affine(x, y *big.Int) Point {
	return Point{curve: c, x: x, y: y}
}

// IsInfinity reports whether p is the identity.
func (p Point) IsInfinity() bool {
	return p.inf || p.x == nil
}

// Curve returns the curve the point belongs to.
func (p Point) Curve() *Curve {
	return p.curve
}

// X returns a copy of the x coordinate, nil for the identity.
func (p Point) X() *big.Int {
	if p.IsInfinity() {
		return nil
	}
	return new(big.Int).Set(p.x)
}

// Y returns a copy of the y coordinate, nil for the identity.
func (p Point) Y() *big.Int {
	if p.IsInfinity() {
		return nil
	}
	return new(big.Int).Set(p.y)
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() && q.IsInfinity()
	}
	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

func (p Point) String() string {
	if p.IsInfinity() {
		return "Point(infinity)"
	}
	return fmt.Sprintf("Point(%064X, %064X)", p.x, p.y)
}

func (p Point) identity(q Point) Point {
	c := p.curve
	if c == nil {
		c = q.curve
	}
	return Point{curve: c, inf: true}
}

// Neg returns -p.
func (p Point) Neg() Point {
	if p.IsInfinity() {
		return p
	}
	y := new(big.Int).Sub(p.curve.P, p.y)
	y.Mod(y, p.curve.P)
	return p.curve.affine(new(big.Int).Set(p.x), y)
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	if p.IsInfinity() {
		return q
	}
	if q.IsInfinity() {
		return p
	}
	if p.x.Cmp(q.x) == 0 {
		if p.y.Cmp(q.y) == 0 {
			return p.Double()
		}
		return p.identity(q)
	}
	mod := p.curve.P
	num := new(big.Int).Sub(q.y, p.y)
	den := new(big.Int).Sub(q.x, p.x)
	m := num.Mul(num, ModInverse(den, mod))
	m.Mod(m, mod)
	return p.chord(m, q.x)
}

// Double returns 2p.
func (p Point) Double() Point {
	if p.IsInfinity() {
		return p
	}
	if p.y.Sign() == 0 {
		return p.identity(p)
	}
	mod := p.curve.P
	num := new(big.Int).Mul(p.x, p.x)
	num.Mul(num, big.NewInt(3))
	num.Add(num, p.curve.A)
	den := new(big.Int).Lsh(p.y, 1)
	m := num.Mul(num, ModInverse(den, mod))
	m.Mod(m, mod)
	return p.chord(m, p.x)
}

// chord finishes addition given the slope m through p and a point with x
// coordinate x2.
func (p Point) chord(m, x2 *big.Int) Point {
	mod := p.curve.P
	x3 := new(big.Int).Mul(m, m)
	x3.Sub(x3, p.x)
	x3.Sub(x3, x2)
	x3.Mod(x3, mod)
	y3 := new(big.Int).Sub(p.x, x3)
	y3.Mul(y3, m)
	y3.Sub(y3, p.y)
	y3.Mod(y3, mod)
	return p.curve.affine(x3, y3)
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// Mul returns k·p using double-and-add over the bits of k from least to most
// significant. Negative scalars multiply -p.
func (p Point) Mul(k *big.Int) Point {
	if k.Sign() < 0 {
		return p.Neg().Mul(new(big.Int).Neg(k))
	}
	result := p.identity(p)
	addend := p
	for i := 0; i < k.BitLen(); i++ {
		if k.Bit(i) == 1 {
			result = result.Add(addend)
		}
		addend = addend.Double()
	}
	return result
}
