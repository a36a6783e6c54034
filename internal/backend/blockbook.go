package backend

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/script"
)

// ReferenceDepth is how far below the tip BlockbookBackend picks the block
// that replay protected transactions commit to.
const ReferenceDepth = 100

// BlockbookBackend implements Backend using Trezor's Blockbook API.
// API docs: https://github.com/trezor/blockbook/blob/master/docs/api.md
//
// Blockbook does not report locking scripts with unspent outputs, so they are
// rebuilt from the address, which must belong to the backend's coin.
type BlockbookBackend struct {
	explorer
	params *chain.Params
}

// NewBlockbookBackend creates a new Blockbook backend for params.
// Base URLs should be like "https://btc1.trezor.io/api/v2".
func NewBlockbookBackend(params *chain.Params, baseURLs []string, opts ...Option) (*BlockbookBackend, error) {
	if params == nil {
		return nil, fmt.Errorf("no coin given")
	}
	e, err := newExplorer(baseURLs, opts)
	if err != nil {
		return nil, err
	}
	return &BlockbookBackend{explorer: *e, params: params}, nil
}

// Type returns TypeBlockbook.
func (b *BlockbookBackend) Type() Type {
	return TypeBlockbook
}

// UTXOs returns unspent outputs for an address.
func (b *BlockbookBackend) UTXOs(ctx context.Context, addr string) ([]UTXO, error) {
	locking, err := b.lockingScript(addr)
	if err != nil {
		return nil, err
	}

	var result []struct {
		TxID          string `json:"txid"`
		Vout          uint32 `json:"vout"`
		Value         string `json:"value"`
		Height        int64  `json:"height"`
		Confirmations int64  `json:"confirmations"`
	}
	if err := b.get(ctx, "/utxo/"+url.PathEscape(addr), &result); err != nil {
		return nil, fmt.Errorf("get utxos of %s: %w", addr, err)
	}

	scale := math.Pow10(int(b.params.Decimals))
	utxos := make([]UTXO, len(result))
	for i, u := range result {
		sats, err := strconv.ParseUint(u.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q of %s:%d: %w", u.Value, u.TxID, u.Vout, err)
		}
		utxos[i] = UTXO{
			Address:       addr,
			TxID:          u.TxID,
			Vout:          u.Vout,
			ScriptPubKey:  locking,
			Amount:        float64(sats) / scale,
			Satoshis:      sats,
			Height:        u.Height,
			Confirmations: u.Confirmations,
		}
	}
	return utxos, nil
}

// Broadcast submits the transaction through /sendtx/{hex}.
func (b *BlockbookBackend) Broadcast(ctx context.Context, raw []byte) (*BroadcastResult, error) {
	body, err := b.fetch(ctx, http.MethodGet, "/sendtx/"+hex.EncodeToString(raw), "", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	return &BroadcastResult{
		TxID:     txidFromResponse(body),
		Response: strings.TrimSpace(string(body)),
	}, nil
}

// LastBlock returns the block ReferenceDepth blocks below the best height.
func (b *BlockbookBackend) LastBlock(ctx context.Context) (*Block, error) {
	var status struct {
		Blockbook struct {
			BestHeight int64 `json:"bestHeight"`
		} `json:"blockbook"`
	}
	if err := b.get(ctx, "", &status); err != nil {
		return nil, fmt.Errorf("get best height: %w", err)
	}
	height := status.Blockbook.BestHeight - ReferenceDepth
	if height <= 0 {
		return nil, ErrNoBlocks
	}

	var index struct {
		BlockHash string `json:"blockHash"`
	}
	if err := b.get(ctx, "/block-index/"+strconv.FormatInt(height, 10), &index); err != nil {
		return nil, fmt.Errorf("get reference block: %w", err)
	}
	if index.BlockHash == "" {
		return nil, ErrNoBlocks
	}
	return &Block{Hash: index.BlockHash, Height: height}, nil
}

// lockingScript returns the hex locking script paying to addr.
func (b *BlockbookBackend) lockingScript(addr string) (string, error) {
	if hrp := b.params.Bech32HRP; hrp != "" && strings.HasPrefix(strings.ToLower(addr), hrp+"1") {
		s, err := address.WitnessScript(b.params, addr)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(s), nil
	}

	d, err := address.Decode(b.params, addr)
	if err != nil {
		return "", err
	}
	var s []byte
	if d.Kind.IsScript() {
		s, err = script.PayToScriptHash(d.Hash)
	} else {
		s, err = script.PayToPubKeyHash(d.Hash)
	}
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(s), nil
}

// Ensure BlockbookBackend implements Backend
var _ Backend = (*BlockbookBackend)(nil)
