// Package script recognizes the standard locking script templates and builds
// the ones the transaction codec emits.
package script

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// OpCheckBlockAtHeight is the replay protection opcode of coins that bind
// outputs to a recent block. It reuses the OP_NOP5 slot.
const OpCheckBlockAtHeight = txscript.OP_NOP5

const (
	p2pkhLen = 25
	p2shLen  = 23
	hashLen  = 20
)

// Type is the template a script matches.
type Type int

const (
	NonStandard Type = iota
	PubKeyHash
	ScriptHash
	PubKey
	NullData
	Multisig
)

func (t Type) String() string {
	switch t {
	case PubKeyHash:
		return "pubkeyhash"
	case ScriptHash:
		return "scripthash"
	case PubKey:
		return "pubkey"
	case NullData:
		return "nulldata"
	case Multisig:
		return "multisig"
	default:
		return "nonstandard"
	}
}

// Classify returns the template script matches. Only the byte layout is
// checked; keys inside P2PK and multisig scripts are not parsed.
func Classify(script []byte) Type {
	switch {
	case IsPayToPubKeyHash(script):
		return PubKeyHash
	case IsPayToScriptHash(script):
		return ScriptHash
	case IsPayToPubKey(script):
		return PubKey
	case IsNullData(script):
		return NullData
	case IsMultisig(script):
		return Multisig
	default:
		return NonStandard
	}
}

// IsPayToPubKeyHash matches OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
func IsPayToPubKeyHash(script []byte) bool {
	return len(script) == p2pkhLen &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG
}

// IsPayToScriptHash matches OP_HASH160 <20> OP_EQUAL.
func IsPayToScriptHash(script []byte) bool {
	return len(script) == p2shLen &&
		script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL
}

// IsPayToPubKey matches a push of a 33-byte compressed or 65-byte
// uncompressed public key followed by OP_CHECKSIG.
func IsPayToPubKey(script []byte) bool {
	switch len(script) {
	case 35:
		return script[0] == txscript.OP_DATA_33 &&
			(script[1] == 0x02 || script[1] == 0x03) &&
			script[34] == txscript.OP_CHECKSIG
	case 67:
		return script[0] == txscript.OP_DATA_65 &&
			script[1] == 0x04 &&
			script[66] == txscript.OP_CHECKSIG
	default:
		return false
	}
}

// IsNullData matches any script starting with OP_RETURN.
func IsNullData(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}

// IsMultisig matches OP_m ... OP_n OP_CHECKMULTISIG with 1 <= m <= n <= 16.
func IsMultisig(script []byte) bool {
	if len(script) < 4 || script[len(script)-1] != txscript.OP_CHECKMULTISIG {
		return false
	}
	m, ok := smallInt(script[0])
	if !ok {
		return false
	}
	n, ok := smallInt(script[len(script)-2])
	return ok && m >= 1 && m <= n
}

func smallInt(op byte) (int, bool) {
	if op >= txscript.OP_1 && op <= txscript.OP_16 {
		return int(op - (txscript.OP_1 - 1)), true
	}
	return 0, false
}

// PayToPubKeyHash returns the P2PKH locking script for a 20-byte key hash.
func PayToPubKeyHash(hash []byte) ([]byte, error) {
	if len(hash) != hashLen {
		return nil, fmt.Errorf("pubkey hash is %d bytes, want %d", len(hash), hashLen)
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(hash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// PayToScriptHash returns the P2SH locking script for a 20-byte script hash.
func PayToScriptHash(hash []byte) ([]byte, error) {
	if len(hash) != hashLen {
		return nil, fmt.Errorf("script hash is %d bytes, want %d", len(hash), hashLen)
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(hash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// BlockAtHeight returns the suffix appended to every output script of a coin
// with replay protection:
//
//	0x20 ‖ block hash (internal byte order) ‖ len ‖ height (minimal LE) ‖ OP_CHECKBLOCKATHEIGHT
//
// The height is pushed as a plain unsigned integer, not a script number.
func BlockAtHeight(hash chainhash.Hash, height uint32) []byte {
	h := minimalLE(height)
	out := make([]byte, 0, 1+chainhash.HashSize+1+len(h)+1)
	out = append(out, txscript.OP_DATA_32)
	out = append(out, hash[:]...)
	out = append(out, byte(len(h)))
	out = append(out, h...)
	return append(out, OpCheckBlockAtHeight)
}

func minimalLE(v uint32) []byte {
	var out []byte
	for ; v > 0; v >>= 8 {
		out = append(out, byte(v))
	}
	return out
}
