// Package tx builds, signs and serializes legacy (pre-segwit) transactions
// for the coins in the chain registry, including the timestamped layout and
// the block-at-height output binding some forks require.
package tx

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/script"
)

const (
	DefaultVersion  uint32 = 1
	DefaultSequence uint32 = 0xffffffff
	DefaultLockTime uint32 = 0
	// DefaultHashType is SIGHASH_ALL as appended to the signing preimage.
	DefaultHashType uint32 = 1
)

// AlreadyFinalizedError is returned when a finalized transaction is signed
// or finalized again.
type AlreadyFinalizedError struct {
	ID string
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("transaction %s already created", e.ID)
}

// ErrNotSigned is returned by Finalize before Sign succeeded.
var ErrNotSigned = errors.New("transaction is not signed")

// Input spends one previous output.
type Input struct {
	// TxID is the previous transaction id as displayed by explorers. It is
	// serialized in internal (reversed) byte order.
	TxID          chainhash.Hash
	Vout          uint32
	LockingScript []byte
	Satoshis      uint64
	// Key claims P2PKH outputs.
	Key *big.Int
	// UnlockingScript is used verbatim when LockingScript is P2SH.
	UnlockingScript []byte

	scriptSig []byte
}

// Output pays Satoshis to Address.
type Output struct {
	Address  string
	Satoshis uint64

	script []byte
}

// Script returns the locking script derived from the output address.
func (o *Output) Script() []byte {
	return o.script
}

// BlockBinding is the recent block every output commits to on coins with
// CHECKBLOCKATHEIGHT replay protection.
type BlockBinding struct {
	Hash   chainhash.Hash
	Height uint32
}

type state int

const (
	built state = iota
	signed
	finalized
)

// Transaction moves from built to signed to finalized. Once finalized its
// raw bytes and id are fixed.
type Transaction struct {
	params *chain.Params

	Version  uint32
	Sequence uint32
	LockTime uint32
	HashType uint32
	// Time is serialized after the version on timestamped coins.
	Time    uint32
	Binding *BlockBinding

	Inputs  []*Input
	Outputs []*Output

	state state
	raw   []byte
	id    string
}

// Option configures a Transaction.
type Option func(*Transaction)

func WithVersion(v uint32) Option  { return func(t *Transaction) { t.Version = v } }
func WithSequence(s uint32) Option { return func(t *Transaction) { t.Sequence = s } }
func WithLockTime(l uint32) Option { return func(t *Transaction) { t.LockTime = l } }
func WithHashType(h uint32) Option { return func(t *Transaction) { t.HashType = h } }

// WithTime sets the transaction time of a timestamped coin. Without it the
// current time is used.
func WithTime(ts uint32) Option { return func(t *Transaction) { t.Time = ts } }

// WithBlockBinding binds every output to the given block.
func WithBlockBinding(b BlockBinding) Option {
	return func(t *Transaction) { t.Binding = &b }
}

// New builds an unsigned transaction. Output scripts are derived from the
// addresses: P2SH for the coin's script prefix, P2PKH for its address prefix
// and a witness program for native segwit addresses.
func New(params *chain.Params, inputs []Input, outputs []Output, opts ...Option) (*Transaction, error) {
	if len(inputs) == 0 {
		return nil, errors.New("transaction has no inputs")
	}
	if len(outputs) == 0 {
		return nil, errors.New("transaction has no outputs")
	}
	t := &Transaction{
		params:   params,
		Version:  DefaultVersion,
		Sequence: DefaultSequence,
		LockTime: DefaultLockTime,
		HashType: DefaultHashType,
	}
	for _, opt := range opts {
		opt(t)
	}
	if params.Timestamped && t.Time == 0 {
		t.Time = uint32(time.Now().Unix())
	}
	if !params.Timestamped && t.Time != 0 {
		return nil, fmt.Errorf("coin %s has no transaction time field", params.Symbol)
	}
	if params.CheckBlockAtHeight && t.Binding == nil {
		return nil, fmt.Errorf("coin %s requires a block binding", params.Symbol)
	}

	for i := range inputs {
		in := inputs[i]
		t.Inputs = append(t.Inputs, &in)
	}
	for i := range outputs {
		out := outputs[i]
		s, err := outputScript(params, out.Address)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		out.script = s
		t.Outputs = append(t.Outputs, &out)
	}
	return t, nil
}

func outputScript(params *chain.Params, addr string) ([]byte, error) {
	d, err := address.Decode(params, addr)
	if err != nil {
		if params.Bech32HRP == "" {
			return nil, err
		}
		if ws, werr := address.WitnessScript(params, addr); werr == nil {
			return ws, nil
		}
		return nil, err
	}
	if d.Kind.IsScript() {
		return script.PayToScriptHash(d.Hash)
	}
	return script.PayToPubKeyHash(d.Hash)
}

// Params returns the coin the transaction is built for.
func (t *Transaction) Params() *chain.Params {
	return t.params
}

// InputSum returns the total value of the inputs.
func (t *Transaction) InputSum() uint64 {
	var sum uint64
	for _, in := range t.Inputs {
		sum += in.Satoshis
	}
	return sum
}

// OutputSum returns the total value of the outputs.
func (t *Transaction) OutputSum() uint64 {
	var sum uint64
	for _, out := range t.Outputs {
		sum += out.Satoshis
	}
	return sum
}

// Fee is the difference between inputs and outputs.
func (t *Transaction) Fee() int64 {
	return int64(t.InputSum()) - int64(t.OutputSum())
}

// ID returns the transaction id once finalized.
func (t *Transaction) ID() string {
	return t.id
}

// Raw returns the serialized transaction once finalized.
func (t *Transaction) Raw() []byte {
	return t.raw
}
