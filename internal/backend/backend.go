// Package backend provides the explorer APIs used to fetch unspent outputs and
// broadcast transactions. It never sees private keys; signing happens in the
// tx and wallet packages.
package backend

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/klingon-exchange/multicrypto/internal/chain"
)

// Common errors
var (
	ErrNoAPI           = errors.New("no api has been defined for the coin")
	ErrAddressNotFound = errors.New("address not found")
	ErrBroadcastFailed = errors.New("broadcast failed")
	ErrNoBlocks        = errors.New("explorer returned no blocks")
	ErrRateLimited     = errors.New("rate limited")
)

// Type represents the backend type.
type Type string

const (
	TypeInsight   Type = "insight"   // Bitpay Insight API and its forks
	TypeBlockbook Type = "blockbook" // Trezor Blockbook API v2
)

// UTXO is an unspent output as reported by an explorer.
type UTXO struct {
	Address       string  `json:"address"`
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	ScriptPubKey  string  `json:"scriptPubKey"` // hex encoded
	Amount        float64 `json:"amount"`       // in major units
	Satoshis      uint64  `json:"satoshis"`
	Height        int64   `json:"height,omitempty"`
	Confirmations int64   `json:"confirmations"`
}

// Block identifies a block by hash and height.
type Block struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
	Time   int64  `json:"time,omitempty"`
}

// BroadcastResult is an explorer's reply to an accepted transaction.
// Response is the body exactly as the explorer sent it. TxID is only set
// when the reply names the transaction.
type BroadcastResult struct {
	TxID     string
	Response string
}

// txidFromResponse extracts a transaction id from a broadcast reply: a JSON
// object with a "txid" or "result" field, or a bare (possibly quoted) hex id.
func txidFromResponse(body []byte) string {
	var obj struct {
		TxID   string `json:"txid"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.TxID != "" {
			return obj.TxID
		}
		return obj.Result
	}
	s := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if len(s) != 64 {
		return ""
	}
	if _, err := hex.DecodeString(s); err != nil {
		return ""
	}
	return strings.ToLower(s)
}

// Backend defines the interface for explorer data providers.
type Backend interface {
	// Type returns the backend type.
	Type() Type

	// UTXOs returns the unspent outputs of address in explorer order.
	UTXOs(ctx context.Context, address string) ([]UTXO, error)

	// Broadcast submits a raw transaction. Any 2xx reply is a success.
	Broadcast(ctx context.Context, raw []byte) (*BroadcastResult, error)

	// LastBlock returns the block transactions of replay protected coins
	// commit to.
	LastBlock(ctx context.Context) (*Block, error)
}

// Registry holds backend instances by coin symbol.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
	}
}

// NewDefaultRegistry registers an Insight backend for every coin of chains
// that has at least one API.
func NewDefaultRegistry(chains *chain.Registry, opts ...Option) *Registry {
	r := NewRegistry()
	for _, symbol := range chains.ListWithAPI() {
		params, _ := chains.Get(symbol)
		b, err := NewInsightBackend(params.APIs, opts...)
		if err != nil {
			continue
		}
		r.Register(symbol, b)
	}
	return r
}

// Register adds a backend to the registry.
func (r *Registry) Register(symbol string, backend Backend) {
	r.backends[symbol] = backend
}

// Get returns a backend by symbol.
func (r *Registry) Get(symbol string) (Backend, bool) {
	b, ok := r.backends[symbol]
	return b, ok
}

// Lookup is Get with ErrNoAPI for unknown symbols.
func (r *Registry) Lookup(symbol string) (Backend, error) {
	b, ok := r.backends[symbol]
	if !ok {
		return nil, ErrNoAPI
	}
	return b, nil
}

// List returns all registered symbols, sorted.
func (r *Registry) List() []string {
	symbols := make([]string, 0, len(r.backends))
	for s := range r.backends {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
