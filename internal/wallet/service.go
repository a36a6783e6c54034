package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/klingon-exchange/multicrypto/internal/backend"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/storage"
	"github.com/klingon-exchange/multicrypto/internal/tx"
	"github.com/klingon-exchange/multicrypto/pkg/helpers"
	"github.com/klingon-exchange/multicrypto/pkg/logging"
)

// Defaults used when a request leaves them unset.
const (
	DefaultFee       uint64 = 10000
	DefaultBatchSize        = 50
)

// ErrNoUTXOs is returned when a sweep finds nothing to spend.
var ErrNoUTXOs = errors.New("no unspent outputs")

// InsufficientFundsError reports that the sources cannot cover amount + fee.
type InsufficientFundsError struct {
	Have   uint64
	Amount uint64
	Fee    uint64
}

// Need is the total the inputs have to cover.
func (e *InsufficientFundsError) Need() uint64 {
	return e.Amount + e.Fee
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough funds in addresses: sum of inputs is %d which is less than %d (%d + %d)",
		e.Have, e.Need(), e.Amount, e.Fee)
}

// History records broadcast transactions.
type History interface {
	SaveBroadcast(b *storage.Broadcast) error
}

// Config configures a Service.
type Config struct {
	Params  *chain.Params
	Backend backend.Backend
	Signer  tx.Signer // nil means tx.DefaultSigner
	History History   // optional
	Logger  *logging.Logger
}

// Service builds, signs and broadcasts transactions for one coin.
type Service struct {
	params  *chain.Params
	backend backend.Backend
	signer  tx.Signer
	history History
	log     *logging.Logger
}

// NewService creates a wallet service.
func NewService(cfg *Config) (*Service, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("no coin given")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("coin %s: %w", cfg.Params.Symbol, backend.ErrNoAPI)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.GetDefault().Component("wallet")
	}
	return &Service{
		params:  cfg.Params,
		backend: cfg.Backend,
		signer:  cfg.Signer,
		history: cfg.History,
		log:     log.With("coin", cfg.Params.Symbol),
	}, nil
}

// Result describes a broadcast transaction.
type Result struct {
	TxID     string // computed locally from Raw
	Response string // explorer reply, as sent
	Raw      []byte
	Inputs   int
	Amount   uint64
	Fee      uint64
	Change   uint64
}

// SendRequest pays Amount to Destination from Sources.
type SendRequest struct {
	Sources     []Source
	Destination string
	Amount      uint64
	Fee         uint64
	Filter      Filter
}

// Send gathers outputs from the sources in order until they cover amount and
// fee, then pays the destination and returns the rest to the address of the
// last output used.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Result, error) {
	if req.Amount == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("no private keys or input addresses given")
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	need := req.Amount + req.Fee
	var spend []Spendable
	var total uint64
gather:
	for _, src := range req.Sources {
		utxos, err := s.utxos(ctx, src, req.Filter)
		if err != nil {
			return nil, err
		}
		for _, u := range utxos {
			spend = append(spend, u)
			total += u.Satoshis
			if total >= need {
				break gather
			}
		}
	}
	if total < need {
		return nil, &InsufficientFundsError{Have: total, Amount: req.Amount, Fee: req.Fee}
	}

	outputs := []tx.Output{{Address: req.Destination, Satoshis: req.Amount}}
	change := total - need
	if change > 0 {
		outputs = append(outputs, tx.Output{Address: spend[len(spend)-1].Source.Address, Satoshis: change})
	}

	res, err := s.spend(ctx, spend, outputs, "send")
	if err != nil {
		return nil, err
	}
	res.Amount, res.Fee, res.Change = req.Amount, req.Fee, change
	return res, nil
}

// SweepRequest moves every output of Source to Destination.
type SweepRequest struct {
	Source      Source
	Destination string // empty means the source address
	Fee         uint64 // paid by every batch
	BatchSize   int    // zero means DefaultBatchSize
	Filter      Filter // Limit is ignored
}

// Sweep spends the outputs of a source in batches of BatchSize inputs, each
// batch paying its whole value minus the fee to the destination. Results of
// the batches broadcast before a failure are returned with the error.
func (s *Service) Sweep(ctx context.Context, req SweepRequest) ([]*Result, error) {
	if req.BatchSize < 0 {
		return nil, fmt.Errorf("batch size %d is negative", req.BatchSize)
	}
	if req.BatchSize == 0 {
		req.BatchSize = DefaultBatchSize
	}
	if req.Destination == "" {
		req.Destination = req.Source.Address
	}
	req.Filter.Limit = 0
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	utxos, err := s.utxos(ctx, req.Source, req.Filter)
	if err != nil {
		return nil, err
	}
	if len(utxos) == 0 {
		return nil, fmt.Errorf("address %s: %w", req.Source.Address, ErrNoUTXOs)
	}

	batches := (len(utxos) + req.BatchSize - 1) / req.BatchSize
	s.log.Info("sweeping", "address", req.Source.Address, "utxos", len(utxos), "batches", batches)

	var results []*Result
	for i := 0; i < batches; i++ {
		batch := utxos[i*req.BatchSize : min((i+1)*req.BatchSize, len(utxos))]
		total := sum(batch)
		if req.Fee >= total {
			return results, fmt.Errorf("batch %d: fee %d is larger than sum of batch inputs %d", i+1, req.Fee, total)
		}
		amount := total - req.Fee
		res, err := s.spend(ctx, batch, []tx.Output{{Address: req.Destination, Satoshis: amount}}, "sweep")
		if err != nil {
			return results, fmt.Errorf("batch %d: %w", i+1, err)
		}
		res.Amount, res.Fee = amount, req.Fee
		results = append(results, res)
	}
	return results, nil
}

// utxos fetches and filters the outputs of src. An address the explorer does
// not know has no outputs.
func (s *Service) utxos(ctx context.Context, src Source, f Filter) ([]Spendable, error) {
	utxos, err := s.backend.UTXOs(ctx, src.Address)
	if errors.Is(err, backend.ErrAddressNotFound) {
		s.log.Debug("address unknown to explorer", "address", src.Address)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch utxos of %s: %w", src.Address, err)
	}
	utxos = FilterUTXOs(utxos, f)
	out := make([]Spendable, len(utxos))
	for i, u := range utxos {
		out[i] = Spendable{UTXO: u, Source: src}
	}
	s.log.Debug("utxos fetched", "address", src.Address, "count", len(out))
	return out, nil
}

func (s *Service) spend(ctx context.Context, spend []Spendable, outputs []tx.Output, kind string) (*Result, error) {
	inputs := make([]tx.Input, len(spend))
	for i, sp := range spend {
		in, err := sp.Input()
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}

	var opts []tx.Option
	if s.params.CheckBlockAtHeight {
		binding, err := s.blockBinding(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tx.WithBlockBinding(binding))
	}

	t, err := tx.New(s.params, inputs, outputs, opts...)
	if err != nil {
		return nil, err
	}
	raw, err := t.Build(s.signer)
	if err != nil {
		return nil, err
	}

	reply, err := s.backend.Broadcast(ctx, raw)
	if err != nil {
		return nil, err
	}
	txid := t.ID()
	if reply.TxID != "" && reply.TxID != txid {
		s.log.Warn("explorer reported a different txid", "local", txid, "remote", reply.TxID)
	}
	s.log.Debug("explorer response", "response", reply.Response)
	s.log.Info("transaction broadcast",
		"txid", txid,
		"inputs", len(inputs),
		"amount", helpers.FormatAmount(outputs[0].Satoshis, s.params.Decimals),
		"fee", helpers.FormatAmount(uint64(t.Fee()), s.params.Decimals),
	)

	res := &Result{TxID: txid, Response: reply.Response, Raw: raw, Inputs: len(inputs)}
	s.record(res, outputs[0], kind, uint64(t.Fee()))
	return res, nil
}

func (s *Service) blockBinding(ctx context.Context) (tx.BlockBinding, error) {
	block, err := s.backend.LastBlock(ctx)
	if err != nil {
		return tx.BlockBinding{}, fmt.Errorf("fetch block for replay protection: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(block.Hash)
	if err != nil {
		return tx.BlockBinding{}, fmt.Errorf("invalid block hash %s: %w", block.Hash, err)
	}
	if block.Height < 0 || block.Height > int64(^uint32(0)) {
		return tx.BlockBinding{}, fmt.Errorf("block height %d out of range", block.Height)
	}
	return tx.BlockBinding{Hash: *hash, Height: uint32(block.Height)}, nil
}

// record stores the broadcast; the transaction is already on the network, so
// a failure is only logged.
func (s *Service) record(res *Result, paid tx.Output, kind string, fee uint64) {
	if s.history == nil {
		return
	}
	err := s.history.SaveBroadcast(&storage.Broadcast{
		Coin:        s.params.Symbol,
		TxID:        res.TxID,
		Kind:        kind,
		Destination: paid.Address,
		Amount:      paid.Satoshis,
		Inputs:      res.Inputs,
		Fee:         fee,
		Raw:         res.Raw,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		s.log.Warn("failed to record broadcast", "txid", res.TxID, "error", err)
	}
}
