package ecdsa

import (
	"crypto/hmac"
	"math/big"

	"github.com/klingon-exchange/multicrypto/internal/ecc"
)

// maxNonceAttempts caps the RFC 6979 retry loop. A candidate is rejected with
// probability about 2^-128 on secp256k1, so hitting the cap means the inputs
// are pathological.
const maxNonceAttempts = 64

// Nonce derives the deterministic signing nonce for private key d and message
// digest as described in RFC 6979 section 3.2.
func Nonce(curve *ecc.Curve, d *big.Int, digest []byte, h Hash) (*big.Int, error) {
	qlen := curve.N.BitLen()
	rlen := curve.ByteLen()

	mac := func(key []byte, parts ...[]byte) []byte {
		m := hmac.New(h.HMAC, key)
		for _, p := range parts {
			m.Write(p)
		}
		return m.Sum(nil)
	}

	size := h.HMAC().Size()
	keyAndMsg := append(int2octets(d, rlen), bits2octets(digest, curve.N, qlen, rlen)...)

	v := make([]byte, size)
	for i := range v {
		v[i] = 0x01
	}
	k := make([]byte, size)

	k = mac(k, v, []byte{0x00}, keyAndMsg)
	v = mac(k, v)
	k = mac(k, v, []byte{0x01}, keyAndMsg)
	v = mac(k, v)

	for attempt := 0; attempt < maxNonceAttempts; attempt++ {
		var t []byte
		for len(t)*8 < qlen {
			v = mac(k, v)
			t = append(t, v...)
		}
		nonce := bits2int(t, qlen)
		if nonce.Sign() > 0 && nonce.Cmp(curve.N) < 0 {
			return nonce, nil
		}
		k = mac(k, v, []byte{0x00})
		v = mac(k, v)
	}
	return nil, &SignatureError{Reason: "no valid nonce found"}
}

// bits2int keeps the leftmost qlen bits of b.
func bits2int(b []byte, qlen int) *big.Int {
	v := new(big.Int).SetBytes(b)
	if blen := len(b) * 8; blen > qlen {
		v.Rsh(v, uint(blen-qlen))
	}
	return v
}

func int2octets(v *big.Int, rlen int) []byte {
	out := make([]byte, rlen)
	return v.FillBytes(out)
}

func bits2octets(b []byte, n *big.Int, qlen, rlen int) []byte {
	z := bits2int(b, qlen)
	z.Mod(z, n)
	return int2octets(z, rlen)
}
