package ecdsa

import (
	"crypto/sha256"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash pairs the message digest with the hash that keys the RFC 6979 HMAC.
type Hash struct {
	Name   string
	Digest func(msg []byte) []byte
	HMAC   func() hash.Hash
}

// SHA256 digests with a single SHA-256.
var SHA256 = Hash{
	Name: "sha256",
	Digest: func(msg []byte) []byte {
		sum := sha256.Sum256(msg)
		return sum[:]
	},
	HMAC: sha256.New,
}

// DoubleSHA256 digests with SHA-256 applied twice. Its HMAC hash is SHA-256
// primed with the digest of the empty string, which existing signatures
// depend on.
var DoubleSHA256 = Hash{
	Name:   "dsha256",
	Digest: chainhash.DoubleHashB,
	HMAC:   newPrimedSHA256,
}

var emptySHA256 = sha256.Sum256(nil)

type primedSHA256 struct {
	hash.Hash
}

func newPrimedSHA256() hash.Hash {
	h := &primedSHA256{Hash: sha256.New()}
	h.Reset()
	return h
}

// Reset restores the primed state rather than the empty one.
func (h *primedSHA256) Reset() {
	h.Hash.Reset()
	h.Hash.Write(emptySHA256[:])
}
