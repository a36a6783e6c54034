// Package vanity searches for keys whose address starts with a chosen pattern.
//
// Every worker draws its own seed and walks the public keys seed·G, (seed+1)·G,
// ... by point addition. The first worker to hit the pattern sets a shared stop
// flag that all workers poll on every candidate.
package vanity

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/sync/errgroup"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
	"github.com/klingon-exchange/multicrypto/pkg/logging"
)

// DefaultProgressEvery is how many candidates a worker checks between
// progress reports.
const DefaultProgressEvery = 10_000_000

// ErrSelfCheck is returned when a found key does not reproduce its public key.
var ErrSelfCheck = errors.New("found key failed self-check")

// Options configures a search.
type Options struct {
	Params     *chain.Params
	Pattern    string
	Kind       address.Kind // Legacy or Segwit
	Compressed bool
	Workers    int // zero means runtime.NumCPU

	ProgressEvery uint64    // zero means DefaultProgressEvery
	Rand          io.Reader // seed source, defaults to crypto/rand
	Logger        *logging.Logger
}

func (o *Options) validate() error {
	if o.Params == nil {
		return fmt.Errorf("no coin given")
	}
	if o.Pattern == "" {
		return fmt.Errorf("empty pattern")
	}
	if o.Kind != address.Legacy && o.Kind != address.Segwit {
		return fmt.Errorf("cannot search for %s addresses", o.Kind)
	}
	if o.Kind == address.Segwit && !o.Compressed {
		return fmt.Errorf("segwit addresses must use compressed public key representation")
	}
	if o.Workers < 0 {
		return fmt.Errorf("worker count %d is negative", o.Workers)
	}
	return address.ValidatePattern(o.Params, o.Pattern, o.Kind)
}

// Result is a found key.
type Result struct {
	Address    string
	WIF        string
	Key        *big.Int
	Compressed bool
	Kind       address.Kind
	Worker     int
	Candidates uint64 // keys checked by all workers
	Elapsed    time.Duration
}

// Search runs workers until one finds an address starting with the pattern or
// ctx is done. The pattern is checked against the reachable address range
// before any worker starts.
func Search(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ProgressEvery == 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	log := opts.Logger
	if log == nil {
		log = logging.GetDefault().Component("vanity")
	}

	curve := ecc.S256()
	seeds := make([]*big.Int, opts.Workers)
	for i := range seeds {
		seed, err := curve.GenerateKey(opts.Rand)
		if err != nil {
			return nil, err
		}
		seeds[i] = seed
	}

	log.Info("searching", "pattern", opts.Pattern, "coin", opts.Params.Name, "kind", opts.Kind, "workers", opts.Workers)

	var (
		stop    atomic.Bool
		found   atomic.Pointer[Result]
		checked atomic.Uint64
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		w := &worker{
			id:    i,
			opts:  &opts,
			seed:  seed,
			log:   log,
			stop:  &stop,
			found: &found,
		}
		g.Go(func() error {
			n, err := w.run(gctx)
			checked.Add(n)
			return err
		})
	}
	err := g.Wait()

	if res := found.Load(); res != nil {
		res.Candidates = checked.Load()
		res.Elapsed = time.Since(start)
		log.Info("address found", "address", res.Address, "worker", res.Worker, "candidates", res.Candidates)
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, ctx.Err()
}

type worker struct {
	id    int
	opts  *Options
	seed  *big.Int
	log   *logging.Logger
	stop  *atomic.Bool
	found *atomic.Pointer[Result]
}

// run returns the number of candidates checked.
func (w *worker) run(ctx context.Context) (uint64, error) {
	curve := ecc.S256()
	params := w.opts.Params
	g := curve.G()
	point := curve.ScalarBaseMult(w.seed)
	start := time.Now()

	var counter uint64
	for !w.stop.Load() {
		if err := ctx.Err(); err != nil {
			return counter, err
		}
		// seed+counter wraps to zero only at the identity, which has no address
		if d, err := address.FromPublicKey(point, w.opts.Compressed, w.opts.Kind); err == nil {
			addr := address.Encode(params, d)
			if strings.HasPrefix(addr, w.opts.Pattern) {
				return counter + 1, w.report(point, addr, counter)
			}
		}
		point = point.Add(g)
		counter++
		if counter%w.opts.ProgressEvery == 0 {
			secs := time.Since(start).Seconds()
			w.log.Info("progress", "worker", w.id, "checked", counter, "rate", fmt.Sprintf("%.0f/s", float64(counter)/max(secs, 1e-9)))
		}
	}
	return counter, nil
}

func (w *worker) report(point ecc.Point, addr string, counter uint64) error {
	curve := ecc.S256()
	key := new(big.Int).Add(w.seed, new(big.Int).SetUint64(counter))
	key.Mod(key, curve.N)

	if err := selfCheck(key, point); err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}
	res := &Result{
		Address:    addr,
		WIF:        encoding.EncodeWIF(w.opts.Params.SecretPrefix, key, w.opts.Compressed),
		Key:        key,
		Compressed: w.opts.Compressed,
		Kind:       w.opts.Kind,
		Worker:     w.id,
	}
	if w.found.CompareAndSwap(nil, res) {
		w.stop.Store(true)
	}
	return nil
}

// selfCheck recomputes the public key of key with btcec and compares it with
// the accumulated point.
func selfCheck(key *big.Int, point ecc.Point) error {
	priv, _ := btcec.PrivKeyFromBytes(key.FillBytes(make([]byte, 32)))
	if !bytes.Equal(priv.PubKey().SerializeCompressed(), encoding.EncodePoint(point, true)) {
		return ErrSelfCheck
	}
	return nil
}
