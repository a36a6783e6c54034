package encoding

import (
	"fmt"
	"math/big"

	"github.com/klingon-exchange/multicrypto/internal/ecc"
)

// SEC1 prefixes.
const (
	pointInfinity     = 0x00
	pointEven         = 0x02
	pointOdd          = 0x03
	pointUncompressed = 0x04
)

// EncodePoint returns the SEC1 compressed (0x02/0x03 ‖ x) or uncompressed
// (0x04 ‖ x ‖ y) form of p. The identity encodes as the single byte 0x00.
func EncodePoint(p ecc.Point, compressed bool) []byte {
	if p.IsInfinity() {
		return []byte{pointInfinity}
	}
	size := (p.Curve().P.BitLen() + 7) / 8
	x := p.X().FillBytes(make([]byte, size))
	if compressed {
		prefix := byte(pointEven)
		if p.Y().Bit(0) == 1 {
			prefix = pointOdd
		}
		return append([]byte{prefix}, x...)
	}
	y := p.Y().FillBytes(make([]byte, size))
	out := append([]byte{pointUncompressed}, x...)
	return append(out, y...)
}

// DecodePoint parses a SEC1-encoded point on curve. The y coordinate of a
// compressed point is recomputed with a modular square root.
func DecodePoint(curve *ecc.Curve, b []byte) (ecc.Point, error) {
	size := (curve.P.BitLen() + 7) / 8
	if len(b) == 0 {
		return ecc.Point{}, &EncodingError{Reason: "empty point", Err: ErrLength}
	}
	switch b[0] {
	case pointInfinity:
		if len(b) != 1 {
			return ecc.Point{}, &EncodingError{Reason: fmt.Sprintf("identity point of %d bytes", len(b)), Err: ErrLength}
		}
		return curve.Infinity(), nil
	case pointEven, pointOdd:
		if len(b) != 1+size {
			return ecc.Point{}, &EncodingError{Reason: fmt.Sprintf("compressed point of %d bytes", len(b)), Err: ErrLength}
		}
		return curve.PointFromX(new(big.Int).SetBytes(b[1:]), b[0] == pointOdd)
	case pointUncompressed:
		if len(b) != 1+2*size {
			return ecc.Point{}, &EncodingError{Reason: fmt.Sprintf("uncompressed point of %d bytes", len(b)), Err: ErrLength}
		}
		return curve.NewPoint(new(big.Int).SetBytes(b[1:1+size]), new(big.Int).SetBytes(b[1+size:]))
	default:
		return ecc.Point{}, &EncodingError{Reason: fmt.Sprintf("unknown point prefix 0x%02x", b[0])}
	}
}
