package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klingon-exchange/multicrypto/internal/backend"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/storage"
	"github.com/klingon-exchange/multicrypto/pkg/logging"
)

// Test keys (DO NOT USE FOR REAL FUNDS)
const (
	btcWIF     = "KzReaUKzSaGarrhFhjNMweTrpUx4gqX1KCMFSWJx9374kYNHpmSu"
	btcAddress = "1HCfFoucNXgYLvpcN2X4TwmUXJjGUMJ2hi"
	btcScript  = "76a914b1b685a57154a3c3265b8648101ea6fbba8fad7288ac"
	zenAddress = "znhHaFEYE27C9x369DLkZNFo1godwr78LUJ"

	safeWIF     = "Uy3kRcw1mKVCecWBasE7BEhkirVEtmLQcJ5JyCZMnQkah7X263R6"
	safeAddress = "Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM"
	safeScript  = "76a914d4dfff39dda1b62a3aee7b421ef01dc1c773e5de88ac"

	destination = "1LQabFYpfDxmxrCubNa7LDYtnXk9KuU8D4"
)

type fakeBackend struct {
	mu         sync.Mutex
	utxos      map[string][]backend.UTXO
	broadcasts [][]byte
	blocks     int
	rejectAt   int    // broadcast number that fails, 1-based; 0 never
	reply      string // plain text reply instead of a JSON txid
}

func (f *fakeBackend) Type() backend.Type { return "fake" }

func (f *fakeBackend) UTXOs(_ context.Context, addr string) ([]backend.UTXO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.utxos[addr]
	if !ok {
		return nil, backend.ErrAddressNotFound
	}
	return u, nil
}

func (f *fakeBackend) Broadcast(_ context.Context, raw []byte) (*backend.BroadcastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, raw)
	if len(f.broadcasts) == f.rejectAt {
		return nil, fmt.Errorf("%w: txn-mempool-conflict", backend.ErrBroadcastFailed)
	}
	if f.reply != "" {
		return &backend.BroadcastResult{Response: f.reply}, nil
	}
	txid := chainhash.DoubleHashH(raw).String()
	return &backend.BroadcastResult{TxID: txid, Response: `{"txid":"` + txid + `"}`}, nil
}

func (f *fakeBackend) LastBlock(_ context.Context) (*backend.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks++
	return &backend.Block{
		Hash:   "0000000001e9b1f6ac3b87bb2e7e3d27a4d8cc8bc1d1b1ec6e1e4a3a6c2c7d3e",
		Height: 300000,
	}, nil
}

type memoryHistory struct {
	saved []*storage.Broadcast
}

func (m *memoryHistory) SaveBroadcast(b *storage.Broadcast) error {
	m.saved = append(m.saved, b)
	return nil
}

func utxosOf(addr, script string, values ...uint64) []backend.UTXO {
	out := make([]backend.UTXO, len(values))
	for i, v := range values {
		out[i] = backend.UTXO{
			Address:      addr,
			TxID:         fmt.Sprintf("%064x", i+1),
			Vout:         uint32(i),
			ScriptPubKey: script,
			Satoshis:     v,
		}
	}
	return out
}

func newTestService(t *testing.T, symbol string, b backend.Backend, h History) *Service {
	t.Helper()
	params, err := chain.Default().Lookup(symbol)
	require.NoError(t, err)
	var buf bytes.Buffer
	svc, err := NewService(&Config{
		Params:  params,
		Backend: b,
		History: h,
		Logger:  logging.New(&logging.Config{Level: "debug", Output: &buf}),
	})
	require.NoError(t, err)
	return svc
}

func keySource(t *testing.T, symbol, wif string) Source {
	t.Helper()
	params, _ := chain.Default().Lookup(symbol)
	src, err := KeySource(params, wif)
	require.NoError(t, err)
	return src
}

func decodeTx(t *testing.T, raw []byte) *wire.MsgTx {
	t.Helper()
	var msg wire.MsgTx
	require.NoError(t, msg.Deserialize(bytes.NewReader(raw)))
	return &msg
}

// verifyInputs runs every input script of a standard transaction through the
// btcd script engine.
func verifyInputs(t *testing.T, msg *wire.MsgTx, pkScript []byte, values map[wire.OutPoint]int64) {
	t.Helper()
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for op, v := range values {
		fetcher.AddPrevOut(op, wire.NewTxOut(v, pkScript))
	}
	for i, in := range msg.TxIn {
		vm, err := txscript.NewEngine(pkScript, msg, i, txscript.StandardVerifyFlags, nil, nil,
			values[in.PreviousOutPoint], fetcher)
		require.NoError(t, err, "NewEngine(%d)", i)
		assert.NoError(t, vm.Execute(), "input %d does not verify", i)
	}
}

func TestKeySource(t *testing.T) {
	src := keySource(t, "BTC", btcWIF)
	assert.Equal(t, btcAddress, src.Address)
	assert.NotNil(t, src.Key)
	assert.Nil(t, src.UnlockingScript)

	ltc, _ := chain.Default().Lookup("LTC")
	_, err := KeySource(ltc, safeWIF)
	assert.Error(t, err, "SAFE key for LTC")
}

func TestScriptSource(t *testing.T) {
	btc, _ := chain.Default().Lookup("BTC")
	_, err := ScriptSource(btc, "3JvL6Ymt8MVWiCNHC7oWU6nLeHNJKLZGLN", []byte{0x51})
	assert.NoError(t, err)
	_, err = ScriptSource(btc, "3JvL6Ymt8MVWiCNHC7oWU6nLeHNJKLZGLN", nil)
	assert.Error(t, err, "empty unlocking script")
	_, err = ScriptSource(btc, "not-an-address", []byte{0x51})
	assert.Error(t, err, "invalid address")
	_, err = ScriptSource(btc, btcAddress, []byte{0x51})
	assert.ErrorContains(t, err, "is not a script address")
}

func TestSend(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		btcAddress: utxosOf(btcAddress, btcScript, 30000, 50000, 70000),
	}}
	history := &memoryHistory{}
	svc := newTestService(t, "BTC", fb, history)

	res, err := svc.Send(context.Background(), SendRequest{
		Sources:     []Source{keySource(t, "BTC", btcWIF)},
		Destination: destination,
		Amount:      60000,
		Fee:         10000,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inputs)
	assert.Equal(t, uint64(10000), res.Change)
	require.Len(t, fb.broadcasts, 1)
	assert.Equal(t, chainhash.DoubleHashH(fb.broadcasts[0]).String(), res.TxID)

	msg := decodeTx(t, fb.broadcasts[0])
	require.Len(t, msg.TxIn, 2)
	require.Len(t, msg.TxOut, 2)
	assert.Equal(t, int64(60000), msg.TxOut[0].Value)
	assert.Equal(t, int64(10000), msg.TxOut[1].Value)
	assert.Equal(t, btcScript, hex.EncodeToString(msg.TxOut[1].PkScript), "change script")

	pkScript, _ := hex.DecodeString(btcScript)
	verifyInputs(t, msg, pkScript, map[wire.OutPoint]int64{
		msg.TxIn[0].PreviousOutPoint: 30000,
		msg.TxIn[1].PreviousOutPoint: 50000,
	})

	require.Len(t, history.saved, 1)
	rec := history.saved[0]
	assert.Equal(t, res.TxID, rec.TxID)
	assert.Equal(t, "send", rec.Kind)
	assert.Equal(t, uint64(60000), rec.Amount)
	assert.Equal(t, uint64(10000), rec.Fee)
	assert.Equal(t, "BTC", rec.Coin)
}

func TestSendPlainTextReply(t *testing.T) {
	fb := &fakeBackend{
		utxos: map[string][]backend.UTXO{btcAddress: utxosOf(btcAddress, btcScript, 80000)},
		reply: "Transaction accepted",
	}
	history := &memoryHistory{}
	svc := newTestService(t, "BTC", fb, history)

	res, err := svc.Send(context.Background(), SendRequest{
		Sources:     []Source{keySource(t, "BTC", btcWIF)},
		Destination: destination,
		Amount:      60000,
		Fee:         10000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Transaction accepted", res.Response)
	assert.Equal(t, chainhash.DoubleHashH(fb.broadcasts[0]).String(), res.TxID, "local id")
	require.Len(t, history.saved, 1)
	assert.Equal(t, res.TxID, history.saved[0].TxID)
}

func TestSendExactAmountHasNoChange(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		btcAddress: utxosOf(btcAddress, btcScript, 30000, 50000),
	}}
	svc := newTestService(t, "BTC", fb, nil)

	res, err := svc.Send(context.Background(), SendRequest{
		Sources:     []Source{keySource(t, "BTC", btcWIF)},
		Destination: destination,
		Amount:      70000,
		Fee:         10000,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Change)
	assert.Len(t, decodeTx(t, fb.broadcasts[0]).TxOut, 1)
}

func TestSendInsufficientFunds(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		btcAddress: utxosOf(btcAddress, btcScript, 30000, 50000),
	}}
	svc := newTestService(t, "BTC", fb, nil)

	_, err := svc.Send(context.Background(), SendRequest{
		Sources:     []Source{keySource(t, "BTC", btcWIF)},
		Destination: destination,
		Amount:      75000,
		Fee:         10000,
	})
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(80000), insufficient.Have)
	assert.Equal(t, uint64(85000), insufficient.Need())
	assert.EqualError(t, err, "not enough funds in addresses: sum of inputs is 80000 which is less than 85000 (75000 + 10000)")
	assert.Empty(t, fb.broadcasts)
}

func TestSendFilterAndUnknownAddress(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		btcAddress: utxosOf(btcAddress, btcScript, 1000, 90000, 40000, 80000),
	}}
	svc := newTestService(t, "BTC", fb, nil)

	// The SAFE address is unknown to this explorer and contributes nothing.
	unknown := Source{Address: safeAddress, Key: keySource(t, "BTC", btcWIF).Key}
	_, err := svc.Send(context.Background(), SendRequest{
		Sources:     []Source{unknown, keySource(t, "BTC", btcWIF)},
		Destination: destination,
		Amount:      100000,
		Fee:         10000,
		Filter:      Filter{Min: 5000, Max: 85000, Limit: 3},
	})
	// limit keeps 1000, 90000, 40000; min drops 1000; max drops 90000
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(40000), insufficient.Have)

	_, err = svc.Send(context.Background(), SendRequest{
		Sources:     []Source{keySource(t, "BTC", btcWIF)},
		Destination: destination,
		Amount:      1,
		Filter:      Filter{Min: 10, Max: 5},
	})
	assert.Error(t, err, "min > max")
}

func TestSendRejectsBadRequests(t *testing.T) {
	svc := newTestService(t, "BTC", &fakeBackend{}, nil)
	src := keySource(t, "BTC", btcWIF)

	_, err := svc.Send(context.Background(), SendRequest{Sources: []Source{src}, Destination: destination})
	assert.Error(t, err, "zero amount")
	_, err = svc.Send(context.Background(), SendRequest{Destination: destination, Amount: 1})
	assert.Error(t, err, "no sources")
}

func TestSendBindsBlock(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		zenAddress: utxosOf(zenAddress, btcScript, 50000),
	}}
	svc := newTestService(t, "ZEN", fb, nil)

	_, err := svc.Send(context.Background(), SendRequest{
		Sources:     []Source{keySource(t, "ZEN", btcWIF)},
		Destination: zenAddress,
		Amount:      20000,
		Fee:         10000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fb.blocks, "LastBlock calls")
	hash, _ := chainhash.NewHashFromStr("0000000001e9b1f6ac3b87bb2e7e3d27a4d8cc8bc1d1b1ec6e1e4a3a6c2c7d3e")
	tail := append(append([]byte{0x20}, hash[:]...), 0x03, 0xe0, 0x93, 0x04, 0xb4)
	assert.True(t, bytes.Contains(fb.broadcasts[0], tail), "raw tx %x does not commit to the block", fb.broadcasts[0])
}

func TestSweep(t *testing.T) {
	values := make([]uint64, 14)
	for i := range values {
		values[i] = uint64(100000 + i)
	}
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		safeAddress: utxosOf(safeAddress, safeScript, values...),
	}}
	history := &memoryHistory{}
	svc := newTestService(t, "SAFE", fb, history)

	results, err := svc.Sweep(context.Background(), SweepRequest{
		Source:    keySource(t, "SAFE", safeWIF),
		Fee:       DefaultFee,
		BatchSize: 5,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Len(t, fb.broadcasts, 3)

	wantInputs := []int{5, 5, 4}
	for i, res := range results {
		msg := decodeTx(t, fb.broadcasts[i])
		assert.Len(t, msg.TxIn, wantInputs[i], "batch %d", i)
		assert.Equal(t, wantInputs[i], res.Inputs, "batch %d", i)
		require.Len(t, msg.TxOut, 1, "batch %d", i)
		// destination defaults to the source address
		assert.Equal(t, safeScript, hex.EncodeToString(msg.TxOut[0].PkScript), "batch %d", i)
		assert.Equal(t, res.Amount, uint64(msg.TxOut[0].Value), "batch %d", i)
		assert.Equal(t, DefaultFee, res.Fee, "batch %d", i)
	}
	// 100000+100001+...+100004 - fee
	assert.Equal(t, 500010-DefaultFee, results[0].Amount)
	require.Len(t, history.saved, 3)
	assert.Equal(t, "sweep", history.saved[2].Kind)
}

func TestSweepEvenBatches(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		safeAddress: utxosOf(safeAddress, safeScript, 50000, 50000, 50000, 50000),
	}}
	svc := newTestService(t, "SAFE", fb, nil)

	results, err := svc.Sweep(context.Background(), SweepRequest{
		Source:      keySource(t, "SAFE", safeWIF),
		Destination: "RppTKS6BgXwzENKtrcqW3bNTv5Sop3xE6U",
		Fee:         1000,
		BatchSize:   2,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSweepErrors(t *testing.T) {
	t.Run("no utxos", func(t *testing.T) {
		fb := &fakeBackend{utxos: map[string][]backend.UTXO{safeAddress: nil}}
		svc := newTestService(t, "SAFE", fb, nil)
		_, err := svc.Sweep(context.Background(), SweepRequest{Source: keySource(t, "SAFE", safeWIF)})
		assert.ErrorIs(t, err, ErrNoUTXOs)
	})

	t.Run("fee larger than batch", func(t *testing.T) {
		fb := &fakeBackend{utxos: map[string][]backend.UTXO{
			safeAddress: utxosOf(safeAddress, safeScript, 50000, 50000, 5000),
		}}
		svc := newTestService(t, "SAFE", fb, nil)
		results, err := svc.Sweep(context.Background(), SweepRequest{
			Source:    keySource(t, "SAFE", safeWIF),
			Fee:       10000,
			BatchSize: 2,
		})
		assert.ErrorContains(t, err, "fee 10000 is larger than sum of batch inputs 5000")
		assert.Len(t, results, 1, "results before failing")
	})

	t.Run("broadcast rejected", func(t *testing.T) {
		fb := &fakeBackend{
			utxos:    map[string][]backend.UTXO{safeAddress: utxosOf(safeAddress, safeScript, 50000, 50000)},
			rejectAt: 1,
		}
		svc := newTestService(t, "SAFE", fb, nil)
		_, err := svc.Sweep(context.Background(), SweepRequest{Source: keySource(t, "SAFE", safeWIF), Fee: 1000})
		assert.ErrorIs(t, err, backend.ErrBroadcastFailed)
	})

	t.Run("negative batch", func(t *testing.T) {
		svc := newTestService(t, "SAFE", &fakeBackend{}, nil)
		_, err := svc.Sweep(context.Background(), SweepRequest{BatchSize: -1})
		assert.Error(t, err)
	})
}

func TestSweepRefetchesBlockPerBatch(t *testing.T) {
	fb := &fakeBackend{utxos: map[string][]backend.UTXO{
		zenAddress: utxosOf(zenAddress, btcScript, 50000, 50000, 50000),
	}}
	svc := newTestService(t, "ZEN", fb, nil)

	_, err := svc.Sweep(context.Background(), SweepRequest{
		Source:    keySource(t, "ZEN", btcWIF),
		Fee:       1000,
		BatchSize: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, fb.blocks, "LastBlock calls")
}

func TestNewServiceRequiresBackend(t *testing.T) {
	params, _ := chain.Default().Lookup("BTC")
	_, err := NewService(&Config{Params: params})
	assert.ErrorIs(t, err, backend.ErrNoAPI)
}
