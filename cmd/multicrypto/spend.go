package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/klingon-exchange/multicrypto/internal/backend"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/storage"
	"github.com/klingon-exchange/multicrypto/internal/wallet"
	"github.com/klingon-exchange/multicrypto/pkg/helpers"
)

// backends builds the explorer of every coin with an API: Insight unless
// the config selects Blockbook. It is replaced in tests.
var backends = func(a *app) *backend.Registry {
	opts := []backend.Option{backend.WithTimeout(a.cfg.Explorer.Timeout)}
	r := backend.NewDefaultRegistry(a.chains, opts...)
	for symbol, coin := range a.cfg.Coins {
		if coin.Explorer != string(backend.TypeBlockbook) {
			continue
		}
		params, ok := a.chains.Get(strings.ToUpper(symbol))
		if !ok {
			continue
		}
		b, err := backend.NewBlockbookBackend(params, params.APIs, opts...)
		if err != nil {
			a.log.Warn("Skipping blockbook explorer", "coin", params.Symbol, "error", err)
			continue
		}
		r.Register(params.Symbol, b)
	}
	return r
}

func (a *app) backend(params *chain.Params) (backend.Backend, error) {
	b, err := backends(a).Lookup(params.Symbol)
	if err != nil {
		return nil, fmt.Errorf("coin %s: %w", params.Symbol, err)
	}
	return b, nil
}

func (a *app) openStorage() (*storage.Storage, error) {
	return storage.New(&storage.Config{
		DataDir: a.cfg.DataPath(),
		File:    a.cfg.Storage.File,
	})
}

// filterFlags registers the -n, -x and -l output filters.
func filterFlags(fs *flag.FlagSet) *wallet.Filter {
	f := &wallet.Filter{}
	fs.Uint64Var(&f.Min, "n", 0, "Use only outputs of at least this many satoshis")
	fs.Uint64Var(&f.Max, "x", 0, "Use only outputs of at most this many satoshis")
	fs.IntVar(&f.Limit, "l", 0, "Use at most this many outputs per address")
	return f
}

func runCheckAddress(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("checkaddress")
	addr := fs.String("a", "", "Address to check")
	symbol := fs.String("c", "", "Coin symbol")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "a", "c"); err != nil {
		return err
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	params, err := a.coin(*symbol)
	if err != nil {
		return err
	}
	if err := validateDestination(params, *addr); err != nil {
		return err
	}
	b, err := a.backend(params)
	if err != nil {
		return err
	}

	utxos, err := b.UTXOs(ctx, *addr)
	if err != nil && !errors.Is(err, backend.ErrAddressNotFound) {
		return err
	}
	utxos = wallet.FilterUTXOs(utxos, *filter)

	fmt.Fprintf(a.out, "%s Address %s\n", params.Symbol, *addr)
	var total uint64
	for _, u := range utxos {
		fmt.Fprintf(a.out, "txid: %s, confirmations: %8d, satoshis: %16d, amount: %s %s\n",
			u.TxID, u.Confirmations, u.Satoshis, helpers.FormatAmount(u.Satoshis, params.Decimals), params.Symbol)
		total += u.Satoshis
	}
	fmt.Fprintln(a.out, strings.Repeat("-", 140))
	fmt.Fprintf(a.out, "%9d inputs, satoshis: %16d, amount: %s %s\n",
		len(utxos), total, helpers.FormatAmount(total, params.Decimals), params.Symbol)
	return nil
}

func runSend(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("send")
	keys := fs.String("p", "", "Comma separated WIF private keys to send from")
	dest := fs.String("a", "", "Destination address")
	scripts := fs.String("u", "", "Comma separated hex unlocking scripts, one per input address")
	inputs := fs.String("i", "", "Comma separated script addresses to send from")
	symbol := fs.String("c", "", "Coin symbol")
	satoshis := fs.Uint64("s", 0, "Satoshis to send")
	amount := fs.String("amount", "", "Amount to send in coins, instead of -s")
	fee := fs.Uint64("f", a.cfg.Send.Fee, "Transaction fee in satoshis")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "a", "c"); err != nil {
		return err
	}

	params, err := a.coin(*symbol)
	if err != nil {
		return err
	}
	value := *satoshis
	if *amount != "" {
		if value != 0 {
			return fmt.Errorf("give either -s or -amount")
		}
		if value, err = helpers.ParseAmount(*amount, params.Decimals); err != nil {
			return err
		}
	}
	if err := validateDestination(params, *dest); err != nil {
		return err
	}
	sources, err := parseSources(params, splitList(*keys), splitList(*inputs), splitList(*scripts))
	if err != nil {
		return err
	}

	svc, store, err := a.walletService(params)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := svc.Send(ctx, wallet.SendRequest{
		Sources:     sources,
		Destination: *dest,
		Amount:      value,
		Fee:         *fee,
		Filter:      *filter,
	})
	if err != nil {
		return err
	}
	a.printResult(params, res)
	return nil
}

func runSweep(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("sweep")
	key := fs.String("p", "", "WIF private key of the address to sweep")
	dest := fs.String("a", "", "Destination address (default: the swept address)")
	symbol := fs.String("c", "", "Coin symbol")
	fee := fs.Uint64("f", a.cfg.Send.Fee, "Fee in satoshis paid by every transaction")
	batch := fs.Int("b", a.cfg.Send.BatchSize, "Inputs per transaction")
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "p", "c"); err != nil {
		return err
	}

	params, err := a.coin(*symbol)
	if err != nil {
		return err
	}
	if *dest != "" {
		if err := validateDestination(params, *dest); err != nil {
			return err
		}
	}
	src, err := wallet.KeySource(params, *key)
	if err != nil {
		return err
	}

	svc, store, err := a.walletService(params)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := svc.Sweep(ctx, wallet.SweepRequest{
		Source:      src,
		Destination: *dest,
		Fee:         *fee,
		BatchSize:   *batch,
		Filter:      *filter,
	})
	for _, res := range results {
		a.printResult(params, res)
	}
	return err
}

func runHistory(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("history")
	symbol := fs.String("c", "", "Only show transactions of this coin")
	limit := fs.Int("l", 20, "Number of transactions to show, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.ListBroadcasts(*symbol, *limit)
	if err != nil {
		return err
	}
	for _, b := range list {
		decimals := uint8(8)
		if params, ok := a.chains.Get(b.Coin); ok {
			decimals = params.Decimals
		}
		fmt.Fprintf(a.out, "%s %-5s %-5s %s %s -> %s (fee %d, %d inputs)\n",
			b.CreatedAt.Format("2006-01-02 15:04:05"), b.Coin, b.Kind, b.TxID,
			helpers.FormatAmount(b.Amount, decimals), b.Destination, b.Fee, b.Inputs)
	}
	return nil
}

// parseSources turns script addresses with their unlocking scripts and WIF
// keys into spend sources, script addresses first.
func parseSources(params *chain.Params, wifs, addrs, scripts []string) ([]wallet.Source, error) {
	if len(wifs) == 0 && len(addrs) == 0 {
		return nil, fmt.Errorf("you must provide private keys or input addresses")
	}
	if len(scripts) != len(addrs) {
		return nil, fmt.Errorf("number of unlocking scripts (%d) must match number of input addresses (%d)", len(scripts), len(addrs))
	}

	sources := make([]wallet.Source, 0, len(wifs)+len(addrs))
	for i, addr := range addrs {
		script, err := hex.DecodeString(scripts[i])
		if err != nil {
			return nil, fmt.Errorf("unlocking script %d is not hex: %w", i+1, err)
		}
		src, err := wallet.ScriptSource(params, addr, script)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	for _, wif := range wifs {
		src, err := wallet.KeySource(params, wif)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// walletService wires the explorer and the history database into a wallet
// service for params. The caller closes the returned storage.
func (a *app) walletService(params *chain.Params) (*wallet.Service, *storage.Storage, error) {
	b, err := a.backend(params)
	if err != nil {
		return nil, nil, err
	}
	store, err := a.openStorage()
	if err != nil {
		return nil, nil, err
	}
	svc, err := wallet.NewService(&wallet.Config{
		Params:  params,
		Backend: b,
		History: store,
		Logger:  a.log.Component("wallet"),
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return svc, store, nil
}

func (a *app) printResult(params *chain.Params, res *wallet.Result) {
	fmt.Fprintf(a.out, "txid: %s, inputs: %d, amount: %s %s, fee: %d, change: %d\n",
		res.TxID, res.Inputs, helpers.FormatAmount(res.Amount, params.Decimals), params.Symbol, res.Fee, res.Change)
	if res.Response != "" && res.Response != res.TxID {
		fmt.Fprintf(a.out, "explorer response: %s\n", res.Response)
	}
}
