package backend

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// InsightBackend implements Backend against one or more Insight API base
// URLs. Requests go to the first URL; transport failures and server errors
// fall through to the next one.
type InsightBackend struct {
	explorer
}

// NewInsightBackend creates a backend for the given base URLs, most
// preferred first.
func NewInsightBackend(baseURLs []string, opts ...Option) (*InsightBackend, error) {
	e, err := newExplorer(baseURLs, opts)
	if err != nil {
		return nil, err
	}
	return &InsightBackend{explorer: *e}, nil
}

// Type returns TypeInsight.
func (b *InsightBackend) Type() Type {
	return TypeInsight
}

// UTXOs returns unspent outputs for an address.
func (b *InsightBackend) UTXOs(ctx context.Context, address string) ([]UTXO, error) {
	var result []UTXO
	if err := b.get(ctx, "/addr/"+url.PathEscape(address)+"/utxo", &result); err != nil {
		return nil, fmt.Errorf("get utxos of %s: %w", address, err)
	}
	return result, nil
}

// Broadcast posts {"rawtx": hex} to /tx/send. The reply body is returned
// as is.
func (b *InsightBackend) Broadcast(ctx context.Context, raw []byte) (*BroadcastResult, error) {
	payload, err := json.Marshal(map[string]string{"rawtx": hex.EncodeToString(raw)})
	if err != nil {
		return nil, err
	}
	body, err := b.fetch(ctx, http.MethodPost, "/tx/send", "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	return &BroadcastResult{
		TxID:     txidFromResponse(body),
		Response: strings.TrimSpace(string(body)),
	}, nil
}

// LastBlock returns the first block mined on the previous UTC day. Such a
// block is deep enough not to be reorganized away yet recent enough for
// CHECKBLOCKATHEIGHT.
func (b *InsightBackend) LastBlock(ctx context.Context) (*Block, error) {
	day := b.now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	var result struct {
		Blocks []Block `json:"blocks"`
	}
	if err := b.get(ctx, "/blocks?limit=1&blockDate="+day, &result); err != nil {
		return nil, fmt.Errorf("get reference block: %w", err)
	}
	if len(result.Blocks) == 0 || result.Blocks[0].Hash == "" {
		return nil, ErrNoBlocks
	}
	return &result.Blocks[0], nil
}

// Ensure InsightBackend implements Backend
var _ Backend = (*InsightBackend)(nil)
