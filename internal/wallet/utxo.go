package wallet

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/backend"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/tx"
)

// Filter restricts the outputs fetched from a source. Zero values are unset.
type Filter struct {
	Min   uint64 // smallest output value, inclusive
	Max   uint64 // largest output value, inclusive
	Limit int    // outputs taken per source, counted before the value bounds
}

// Validate rejects a minimum above the maximum.
func (f Filter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("utxo limit %d is negative", f.Limit)
	}
	if f.Min > 0 && f.Max > 0 && f.Min > f.Max {
		return fmt.Errorf("minimum utxo value %d is larger than maximum %d", f.Min, f.Max)
	}
	return nil
}

// FilterUTXOs applies the limit first, then the minimum and maximum, keeping
// the explorer order.
func FilterUTXOs(utxos []backend.UTXO, f Filter) []backend.UTXO {
	if f.Limit > 0 && len(utxos) > f.Limit {
		utxos = utxos[:f.Limit]
	}
	out := make([]backend.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if f.Min > 0 && u.Satoshis < f.Min {
			continue
		}
		if f.Max > 0 && u.Satoshis > f.Max {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Source is an address whose outputs can be claimed, either by a private key
// (P2PKH) or by a ready-made unlocking script (P2SH).
type Source struct {
	Address         string
	Key             *big.Int
	UnlockingScript []byte
}

// KeySource validates wif for params and returns the source of its legacy
// address.
func KeySource(params *chain.Params, wif string) (Source, error) {
	w, err := address.ValidateWIF(params, wif)
	if err != nil {
		return Source{}, err
	}
	addr, err := address.FromPrivateKey(params, w.Key, w.Compressed, address.Legacy)
	if err != nil {
		return Source{}, err
	}
	return Source{Address: addr, Key: w.Key}, nil
}

// ScriptSource validates addr for params and pairs it with the script that
// unlocks its outputs.
func ScriptSource(params *chain.Params, addr string, unlocking []byte) (Source, error) {
	if err := address.Validate(params, addr); err != nil {
		return Source{}, err
	}
	if d, _ := address.Decode(params, addr); !d.Kind.IsScript() {
		return Source{}, fmt.Errorf("address %s is not a script address", addr)
	}
	if len(unlocking) == 0 {
		return Source{}, fmt.Errorf("no unlocking script for address %s", addr)
	}
	return Source{Address: addr, UnlockingScript: unlocking}, nil
}

// Spendable is an unspent output together with the means to claim it.
type Spendable struct {
	backend.UTXO
	Source Source
}

// Input converts the output into a transaction input.
func (s Spendable) Input() (tx.Input, error) {
	id, err := chainhash.NewHashFromStr(s.TxID)
	if err != nil {
		return tx.Input{}, fmt.Errorf("invalid txid %s: %w", s.TxID, err)
	}
	locking, err := hex.DecodeString(s.ScriptPubKey)
	if err != nil {
		return tx.Input{}, fmt.Errorf("invalid script of %s:%d: %w", s.TxID, s.Vout, err)
	}
	return tx.Input{
		TxID:            *id,
		Vout:            s.Vout,
		LockingScript:   locking,
		Satoshis:        s.Satoshis,
		Key:             s.Source.Key,
		UnlockingScript: s.Source.UnlockingScript,
	}, nil
}

func sum(spendables []Spendable) uint64 {
	var total uint64
	for _, s := range spendables {
		total += s.Satoshis
	}
	return total
}
