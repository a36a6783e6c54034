// Package chain defines the parameters of the supported Bitcoin-derived coins.
// All coin-specific values are hardcoded here; a Registry built from them is
// read-only once constructed.
package chain

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultSigHash is SIGHASH_ALL.
const DefaultSigHash byte = 0x01

// Params contains all parameters for a coin.
type Params struct {
	// Identity
	Symbol   string // BTC, LTC, ZEC, etc.
	Name     string // lower-case name as used in the signed message header
	Decimals uint8

	// Version bytes (one or two bytes each)
	AddressPrefix []byte // P2PKH
	ScriptPrefix  []byte // P2SH
	SecretPrefix  []byte // WIF

	Bech32HRP string // empty when the coin has no native segwit
	SigHash   byte   // zero means DefaultSigHash

	// Consensus quirks
	CheckBlockAtHeight bool // outputs commit to a recent block (ZEN)
	Timestamped        bool // transactions carry a time field after the version

	// Insight-compatible explorer base URLs, in order of preference.
	APIs []string
}

// SigHashType returns the sighash byte appended to signatures.
func (p *Params) SigHashType() byte {
	if p.SigHash == 0 {
		return DefaultSigHash
	}
	return p.SigHash
}

// HasAPI reports whether an explorer is configured for the coin.
func (p *Params) HasAPI() bool {
	return len(p.APIs) > 0
}

func (p *Params) clone() *Params {
	c := *p
	c.AddressPrefix = bytes.Clone(p.AddressPrefix)
	c.ScriptPrefix = bytes.Clone(p.ScriptPrefix)
	c.SecretPrefix = bytes.Clone(p.SecretPrefix)
	c.APIs = slices.Clone(p.APIs)
	return &c
}

func (p *Params) validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("coin without symbol")
	}
	if p.Name == "" {
		return fmt.Errorf("coin %s has no name", p.Symbol)
	}
	for field, prefix := range map[string][]byte{
		"address": p.AddressPrefix,
		"script":  p.ScriptPrefix,
		"secret":  p.SecretPrefix,
	} {
		if len(prefix) == 0 || len(prefix) > 2 {
			return fmt.Errorf("coin %s has %d-byte %s prefix", p.Symbol, len(prefix), field)
		}
	}
	return nil
}

// Registry holds coin parameters indexed by symbol.
type Registry struct {
	coins map[string]*Params
}

// NewRegistry builds a registry from params, rejecting duplicate symbols and
// malformed prefixes. The params are copied.
func NewRegistry(params ...Params) (*Registry, error) {
	r := &Registry{coins: make(map[string]*Params, len(params))}
	for i := range params {
		p := params[i].clone()
		p.Symbol = strings.ToUpper(p.Symbol)
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.coins[p.Symbol]; dup {
			return nil, fmt.Errorf("coin %s registered twice", p.Symbol)
		}
		if p.Decimals == 0 {
			p.Decimals = 8
		}
		r.coins[p.Symbol] = p
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of all built-in coins.
func Default() *Registry {
	defaultOnce.Do(func() {
		all := append(append(append([]Params{}, bitcoinCoins...), zcashCoins...), altCoins...)
		r, err := NewRegistry(all...)
		if err != nil {
			panic("chain: invalid built-in coin table: " + err.Error())
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Get returns a copy of the params for symbol (case-insensitive).
func (r *Registry) Get(symbol string) (*Params, bool) {
	p, ok := r.coins[strings.ToUpper(symbol)]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Lookup is Get with an error for unsupported symbols.
func (r *Registry) Lookup(symbol string) (*Params, error) {
	p, ok := r.Get(symbol)
	if !ok {
		return nil, fmt.Errorf("coin %s is not supported", symbol)
	}
	return p, nil
}

// IsSupported returns true if the coin is registered.
func (r *Registry) IsSupported(symbol string) bool {
	_, ok := r.coins[strings.ToUpper(symbol)]
	return ok
}

// List returns all registered symbols, sorted.
func (r *Registry) List() []string {
	symbols := make([]string, 0, len(r.coins))
	for symbol := range r.coins {
		symbols = append(symbols, symbol)
	}
	slices.Sort(symbols)
	return symbols
}

// ListWithAPI returns the sorted symbols that have an explorer configured.
func (r *Registry) ListWithAPI() []string {
	var symbols []string
	for _, symbol := range r.List() {
		if r.coins[symbol].HasAPI() {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

// WithAPIs returns a new registry where the explorer URLs of the given coins
// are replaced. The receiver is left untouched.
func (r *Registry) WithAPIs(overrides map[string][]string) (*Registry, error) {
	params := make([]Params, 0, len(r.coins))
	for _, symbol := range r.List() {
		params = append(params, *r.coins[symbol])
	}
	for symbol, urls := range overrides {
		i := slices.IndexFunc(params, func(p Params) bool { return p.Symbol == strings.ToUpper(symbol) })
		if i < 0 {
			return nil, fmt.Errorf("api override for unknown coin %s", symbol)
		}
		params[i].APIs = urls
	}
	return NewRegistry(params...)
}
