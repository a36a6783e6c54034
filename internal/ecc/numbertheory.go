package ecc

import "math/big"

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// ModInverse returns x with x·a ≡ 1 (mod n) using the extended Euclidean
// algorithm. It returns 0 when a ≡ 0 (mod n).
func ModInverse(a, n *big.Int) *big.Int {
	a = new(big.Int).Mod(a, n)
	if a.Sign() == 0 {
		return new(big.Int)
	}
	lm, hm := big.NewInt(1), big.NewInt(0)
	low, high := a, new(big.Int).Set(n)
	for low.Cmp(one) > 0 {
		r := new(big.Int).Div(high, low)
		nm := new(big.Int).Sub(hm, new(big.Int).Mul(lm, r))
		nw := new(big.Int).Sub(high, new(big.Int).Mul(low, r))
		lm, low, hm, high = nm, nw, lm, low
	}
	return lm.Mod(lm, n)
}

// Legendre returns the Legendre symbol (a|p) as 1, -1 or 0.
func Legendre(a, p *big.Int) int {
	e := new(big.Int).Rsh(new(big.Int).Sub(p, one), 1)
	r := new(big.Int).Exp(a, e, p)
	switch {
	case r.Sign() == 0:
		return 0
	case r.Cmp(one) == 0:
		return 1
	default:
		return -1
	}
}

// ModSqrt returns r with r^2 ≡ a (mod p) for an odd prime p, or 0 when a is
// zero or not a quadratic residue.
func ModSqrt(a, p *big.Int) *big.Int {
	a = new(big.Int).Mod(a, p)
	if a.Sign() == 0 || Legendre(a, p) != 1 {
		return new(big.Int)
	}
	if p.Bit(0) == 1 && p.Bit(1) == 1 {
		e := new(big.Int).Add(p, one)
		e.Rsh(e, 2)
		return new(big.Int).Exp(a, e, p)
	}

	// p - 1 = s·2^e with s odd
	s := new(big.Int).Sub(p, one)
	e := 0
	for s.Bit(0) == 0 {
		s.Rsh(s, 1)
		e++
	}

	z := big.NewInt(2)
	for Legendre(z, p) != -1 {
		z.Add(z, one)
	}

	x := new(big.Int).Exp(a, new(big.Int).Rsh(new(big.Int).Add(s, one), 1), p)
	b := new(big.Int).Exp(a, s, p)
	g := new(big.Int).Exp(z, s, p)
	r := e

	for {
		t := new(big.Int).Set(b)
		m := 0
		for ; m < r; m++ {
			if t.Cmp(one) == 0 {
				break
			}
			t.Exp(t, two, p)
		}
		if m == 0 {
			return x
		}
		gs := new(big.Int).Exp(g, new(big.Int).Lsh(one, uint(r-m-1)), p)
		g.Mul(gs, gs).Mod(g, p)
		x.Mul(x, gs).Mod(x, p)
		b.Mul(b, g).Mod(b, p)
		r = m
	}
}
