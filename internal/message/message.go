// Package message signs and verifies text messages in the compact
// recoverable format used by wallet "sign message" features.
package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/internal/ecdsa"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
)

const (
	headerBase       = 27
	headerCompressed = 4
	headerMax        = headerBase + headerCompressed + 4
)

// Magic returns the prefixed byte string that is actually signed:
// 0x18 ‖ "<Name> Signed Message:\n" ‖ varint(len(msg)) ‖ msg.
func Magic(params *chain.Params, msg string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x18)
	buf.WriteString(capitalize(params.Name))
	buf.WriteString(" Signed Message:\n")
	// bytes.Buffer never fails
	_ = wire.WriteVarInt(&buf, 0, uint64(len(msg)))
	buf.WriteString(msg)
	return buf.Bytes()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Sign signs msg with a WIF private key and returns the base64 encoding of
// header ‖ r ‖ s. The header encodes the recovery id and whether the key is
// compressed.
func Sign(params *chain.Params, msg, wif string) (string, error) {
	w, err := encoding.DecodeWIF(wif)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	curve := ecc.S256()
	payload := Magic(params, msg)
	sig, err := ecdsa.Sign(curve, payload, w.Key, ecdsa.DoubleSHA256)
	if err != nil {
		return "", err
	}
	pub := curve.ScalarBaseMult(w.Key)

	header := byte(headerBase)
	if w.Compressed {
		header += headerCompressed
	}
	for recid := 0; recid < 4; recid++ {
		q, err := ecdsa.RecoverPublicKey(curve, payload, sig, recid, ecdsa.DoubleSHA256)
		if err != nil || !q.Equal(pub) {
			continue
		}
		size := curve.ByteLen()
		out := make([]byte, 1+2*size)
		out[0] = header + byte(recid)
		sig.R.FillBytes(out[1 : 1+size])
		sig.S.FillBytes(out[1+size:])
		return base64.StdEncoding.EncodeToString(out), nil
	}
	return "", &ecdsa.SignatureError{Reason: "cannot sign message"}
}

// Verify reports whether sig is a signature of msg by the key behind addr.
// Malformed signatures and addresses are errors; a well-formed signature by
// another key is false.
func Verify(params *chain.Params, msg, sig, addr string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false, fmt.Errorf("decode signature: %w", err)
	}
	curve := ecc.S256()
	size := curve.ByteLen()
	if len(raw) != 1+2*size {
		return false, &ecdsa.SignatureError{Reason: fmt.Sprintf("invalid message signature length %d", len(raw))}
	}
	want, err := address.Decode(params, addr)
	if err != nil {
		return false, err
	}

	v := int(raw[0])
	if v < headerBase || v >= headerMax {
		return false, nil
	}
	compressed := v >= headerBase+headerCompressed
	if compressed {
		v -= headerCompressed
	}
	s := &ecdsa.Signature{
		R: new(big.Int).SetBytes(raw[1 : 1+size]),
		S: new(big.Int).SetBytes(raw[1+size:]),
	}
	pub, err := ecdsa.RecoverPublicKey(curve, Magic(params, msg), s, v-headerBase, ecdsa.DoubleSHA256)
	if err != nil {
		return false, nil
	}

	kind := address.Legacy
	if want.Kind.IsScript() {
		kind = address.Segwit
	}
	got, err := address.FromPublicKey(pub, compressed, kind)
	if err != nil {
		return false, nil
	}
	return bytes.Equal(got.Hash, want.Hash), nil
}
