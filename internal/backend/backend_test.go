package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klingon-exchange/multicrypto/internal/chain"
)

const utxoFixture = `[
  {"address":"Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM","txid":"4417d9e022c8f4adf1ef6d9dbad7a1ee0ae44b7eb5cf61e86fd1a0ed22b1c180","vout":0,"scriptPubKey":"76a91413e90a9fcb63a78aa732c5753cc0ac4ba2075b7588ac","amount":526.37874459,"satoshis":52637874459,"confirmations":41130,"height":114322},
  {"address":"Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM","txid":"22c66de2660bc913d2d6a2a7013a8762e92374fcb34609eb935d7fa4704f3335","vout":6,"scriptPubKey":"76a91413e90a9fcb63a78aa732c5753cc0ac4ba2075b7588ac","amount":118.6299918,"satoshis":11862999180,"confirmations":712,"height":143434}
]`

func TestNewInsightBackend(t *testing.T) {
	b, err := NewInsightBackend([]string{"https://explorer.example/api/", " "})
	require.NoError(t, err)
	assert.Equal(t, TypeInsight, b.Type())
	// Test URL normalization (trailing slash removal, blanks dropped)
	assert.Equal(t, []string{"https://explorer.example/api"}, b.baseURLs)

	_, err = NewInsightBackend(nil)
	assert.ErrorIs(t, err, ErrNoAPI)
}

func TestUTXOs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/addr/Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM/utxo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(utxoFixture))
	}))
	defer server.Close()

	b, err := NewInsightBackend([]string{server.URL + "/api"})
	require.NoError(t, err)
	utxos, err := b.UTXOs(context.Background(), "Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM")
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	u := utxos[1]
	assert.Equal(t, "22c66de2660bc913d2d6a2a7013a8762e92374fcb34609eb935d7fa4704f3335", u.TxID)
	assert.Equal(t, uint32(6), u.Vout)
	assert.Equal(t, uint64(11862999180), u.Satoshis)
	assert.Equal(t, int64(712), u.Confirmations)
	assert.Equal(t, int64(143434), u.Height)
	assert.Equal(t, "76a91413e90a9fcb63a78aa732c5753cc0ac4ba2075b7588ac", u.ScriptPubKey)
}

func TestUTXOsNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	b, _ := NewInsightBackend([]string{server.URL})
	_, err := b.UTXOs(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestFailover(t *testing.T) {
	var downHits atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downHits.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(utxoFixture))
	}))
	defer up.Close()

	b, _ := NewInsightBackend([]string{down.URL, up.URL})
	utxos, err := b.UTXOs(context.Background(), "Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM")
	require.NoError(t, err)
	assert.Len(t, utxos, 2)
	assert.Equal(t, int32(1), downHits.Load())

	// client errors are final
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad address", http.StatusBadRequest)
	}))
	defer bad.Close()
	b, _ = NewInsightBackend([]string{bad.URL, up.URL})
	_, err = b.UTXOs(context.Background(), "x")
	assert.Error(t, err)
}

func TestBroadcast(t *testing.T) {
	const reply = `{"txid": "904c6c12dcd011b30079c3a8646fa744b4d3da0a27f3e67194287a0d0b3bd689"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tx/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body struct {
			RawTx string `json:"rawtx"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0100ff", body.RawTx)
		_, _ = w.Write([]byte(reply))
	}))
	defer server.Close()

	b, _ := NewInsightBackend([]string{server.URL})
	res, err := b.Broadcast(context.Background(), []byte{0x01, 0x00, 0xff})
	require.NoError(t, err)
	assert.Equal(t, "904c6c12dcd011b30079c3a8646fa744b4d3da0a27f3e67194287a0d0b3bd689", res.TxID)
	assert.Equal(t, reply, res.Response)
}

func TestBroadcastKeepsResponse(t *testing.T) {
	const txid = "b2fcadebe12b0f3c4d1b9c6f1e1a7d8e8f3a2b1c0d9e8f7a6b5c4d3e2f1a1549"
	tests := []struct {
		name     string
		status   int
		body     string
		wantTxID string
		wantResp string
	}{
		{"plain text txid", http.StatusOK, txid + "\n", txid, txid},
		{"quoted txid", http.StatusOK, `"` + txid + `"`, txid, `"` + txid + `"`},
		{"plain text message", http.StatusOK, "Transaction accepted", "", "Transaction accepted"},
		{"json without txid", http.StatusOK, `{"status": "queued"}`, "", `{"status": "queued"}`},
		{"created", http.StatusCreated, txid, txid, txid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			b, _ := NewInsightBackend([]string{server.URL})
			res, err := b.Broadcast(context.Background(), []byte{0x01})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTxID, res.TxID)
			assert.Equal(t, tt.wantResp, res.Response)
		})
	}
}

func TestBroadcastRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rejected", http.StatusBadRequest, "258: txn-mempool-conflict. Code:-26"},
		{"forbidden", http.StatusForbidden, "forbidden"},
		{"server error", http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			b, _ := NewInsightBackend([]string{server.URL})
			_, err := b.Broadcast(context.Background(), []byte{0x01})
			assert.ErrorIs(t, err, ErrBroadcastFailed)
		})
	}
}

func TestLastBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "2024-02-28", q.Get("blockDate"))
		_, _ = w.Write([]byte(`{"blocks":[{"hash":"0000000001e9b1f6ac3b87bb2e7e3d27a4d8cc8bc1d1b1ec6e1e4a3a6c2c7d3e","height":300000,"time":1709078400}],"length":1}`))
	}))
	defer server.Close()

	clock := func() time.Time { return time.Date(2024, 2, 29, 1, 0, 0, 0, time.UTC) }
	b, _ := NewInsightBackend([]string{server.URL}, WithClock(clock))
	block, err := b.LastBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(300000), block.Height)
	assert.Equal(t, "0000000001e9b1f6ac3b87bb2e7e3d27a4d8cc8bc1d1b1ec6e1e4a3a6c2c7d3e", block.Hash)
}

func TestLastBlockEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blocks":[]}`))
	}))
	defer server.Close()

	b, _ := NewInsightBackend([]string{server.URL})
	_, err := b.LastBlock(context.Background())
	assert.ErrorIs(t, err, ErrNoBlocks)
}

func TestContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b, _ := NewInsightBackend([]string{server.URL})
	_, err := b.UTXOs(ctx, "x")
	assert.Error(t, err, "cancelled context")
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	// Should be empty initially
	assert.Empty(t, reg.List())

	b, _ := NewInsightBackend([]string{"https://explorer.example/api"})
	reg.Register("SAFE", b)

	got, ok := reg.Get("SAFE")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, err := reg.Lookup("BTC")
	assert.ErrorIs(t, err, ErrNoAPI)
}

func TestNewDefaultRegistry(t *testing.T) {
	chains := chain.Default()
	reg := NewDefaultRegistry(chains, WithTimeout(5*time.Second))

	got := reg.List()
	assert.NotEmpty(t, got, "default registry has no explorers")
	assert.Equal(t, chains.ListWithAPI(), got)
}

func blockbookFor(t *testing.T, symbol string, h http.HandlerFunc) *BlockbookBackend {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	params, err := chain.Default().Lookup(symbol)
	require.NoError(t, err)
	b, err := NewBlockbookBackend(params, []string{server.URL + "/api/v2/"})
	require.NoError(t, err)
	return b
}

func TestBlockbookUTXOs(t *testing.T) {
	b := blockbookFor(t, "SAFE", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/utxo/Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM", r.URL.Path)
		_, _ = w.Write([]byte(`[{"txid":"4417d9e022c8f4adf1ef6d9dbad7a1ee0ae44b7eb5cf61e86fd1a0ed22b1c180","vout":3,"value":"52637874459","height":114322,"confirmations":41130}]`))
	})
	assert.Equal(t, TypeBlockbook, b.Type())

	utxos, err := b.UTXOs(context.Background(), "Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM")
	require.NoError(t, err)
	require.Len(t, utxos, 1)

	u := utxos[0]
	assert.Equal(t, uint64(52637874459), u.Satoshis)
	assert.Equal(t, uint32(3), u.Vout)
	assert.Equal(t, int64(41130), u.Confirmations)
	assert.Equal(t, "Rt2NesjPyEEDrHiC5xtYus9tBJTgdtWBfM", u.Address)
	assert.InDelta(t, 526.37874459, u.Amount, 1e-6)
	assert.Equal(t, "76a914d4dfff39dda1b62a3aee7b421ef01dc1c773e5de88ac", u.ScriptPubKey)

	_, err = b.UTXOs(context.Background(), "1HCfFoucNXgYLvpcN2X4TwmUXJjGUMJ2hi")
	assert.Error(t, err, "address of another coin")
}

func TestBlockbookWitnessUTXOs(t *testing.T) {
	b := blockbookFor(t, "BTC", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"txid":"22c66de2660bc913d2d6a2a7013a8762e92374fcb34609eb935d7fa4704f3335","vout":0,"value":"1000","height":1,"confirmations":1}]`))
	})
	utxos, err := b.UTXOs(context.Background(), "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, "0014751e76e8199196d454941c45d1b3a323f1433bd6", utxos[0].ScriptPubKey)
}

func TestBlockbookBroadcast(t *testing.T) {
	b := blockbookFor(t, "BTC", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/sendtx/0100ff":
			_, _ = w.Write([]byte(`{"result":"904c6c12dcd011b30079c3a8646fa744b4d3da0a27f3e67194287a0d0b3bd689"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"-26: txn-mempool-conflict"}`))
		}
	})
	res, err := b.Broadcast(context.Background(), []byte{0x01, 0x00, 0xff})
	require.NoError(t, err)
	assert.Equal(t, "904c6c12dcd011b30079c3a8646fa744b4d3da0a27f3e67194287a0d0b3bd689", res.TxID)

	_, err = b.Broadcast(context.Background(), []byte{0x02})
	assert.ErrorIs(t, err, ErrBroadcastFailed)
}

func TestBlockbookLastBlock(t *testing.T) {
	b := blockbookFor(t, "ZEN", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2":
			_, _ = w.Write([]byte(`{"blockbook":{"coin":"Horizen","bestHeight":300100},"backend":{"chain":"main"}}`))
		case "/api/v2/block-index/300000":
			_, _ = w.Write([]byte(`{"blockHash":"0000000001e9b1f6ac3b87bb2e7e3d27a4d8cc8bc1d1b1ec6e1e4a3a6c2c7d3e"}`))
		default:
			assert.Fail(t, "unexpected path", r.URL.Path)
			http.NotFound(w, r)
		}
	})
	block, err := b.LastBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(300000), block.Height)
	assert.Equal(t, "0000000001e9b1f6ac3b87bb2e7e3d27a4d8cc8bc1d1b1ec6e1e4a3a6c2c7d3e", block.Hash)
}

func TestBlockbookLastBlockShortChain(t *testing.T) {
	b := blockbookFor(t, "ZEN", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blockbook":{"bestHeight":50}}`))
	})
	_, err := b.LastBlock(context.Background())
	assert.ErrorIs(t, err, ErrNoBlocks)
}
