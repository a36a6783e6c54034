package vanity

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/pkg/logging"
)

func testOptions(t *testing.T, symbol, pattern string) Options {
	t.Helper()
	params, err := chain.Default().Lookup(symbol)
	require.NoError(t, err)
	return Options{
		Params:        params,
		Pattern:       pattern,
		Kind:          address.Legacy,
		Compressed:    true,
		Workers:       2,
		ProgressEvery: 50,
		Logger:        logging.New(&logging.Config{Level: "debug", Output: &bytes.Buffer{}}),
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		pattern    string
		kind       address.Kind
		compressed bool
	}{
		{"compressed", "BTC", "1A", address.Legacy, true},
		{"uncompressed", "LTC", "L", address.Legacy, false},
		{"segwit", "BTC", "3", address.Segwit, true},
		{"two byte prefix", "ZEC", "t1", address.Legacy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, tt.symbol, tt.pattern)
			opts.Kind = tt.kind
			opts.Compressed = tt.compressed

			res, err := Search(context.Background(), opts)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(res.Address, tt.pattern), "Address = %s, want prefix %s", res.Address, tt.pattern)
			assert.NotZero(t, res.Candidates)
			assert.Equal(t, tt.compressed, res.Compressed)
			assert.Equal(t, tt.kind, res.Kind)

			// The reported key must derive the reported address.
			addr, err := address.FromWIF(opts.Params, res.WIF, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, res.Address, addr)
			_, err = address.ValidateWIF(opts.Params, res.WIF)
			assert.NoError(t, err)
		})
	}
}

func TestSearchRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"not base58", func(o *Options) { o.Pattern = "10" }},
		{"out of range", func(o *Options) { o.Pattern = "2" }},
		{"empty pattern", func(o *Options) { o.Pattern = "" }},
		{"segwit uncompressed", func(o *Options) { o.Kind = address.Segwit; o.Compressed = false; o.Pattern = "3" }},
		{"script hash kind", func(o *Options) { o.Kind = address.ScriptHash; o.Pattern = "3" }},
		{"negative workers", func(o *Options) { o.Workers = -1 }},
		{"no coin", func(o *Options) { o.Params = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, "BTC", "1")
			tt.modify(&opts)
			_, err := Search(context.Background(), opts)
			assert.Error(t, err)
		})
	}
}

func TestSearchStopsOnCancel(t *testing.T) {
	// A run of ones needs a hash with that many leading zero bytes.
	opts := testOptions(t, "BTC", "1111111111")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := Search(ctx, opts)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(10 * time.Second):
		t.Fatal("Search() did not stop after the context expired")
	}
}

func TestSearchSeedSource(t *testing.T) {
	opts := testOptions(t, "BTC", "1")
	opts.Rand = bytes.NewReader(nil)
	_, err := Search(context.Background(), opts)
	assert.Error(t, err, "search without randomness")
}

func TestSelfCheck(t *testing.T) {
	curve := ecc.S256()
	key := big.NewInt(1234567)
	assert.NoError(t, selfCheck(key, curve.ScalarBaseMult(key)))
	assert.ErrorIs(t, selfCheck(key, curve.ScalarBaseMult(big.NewInt(7654321))), ErrSelfCheck)
}

func TestWriteQR(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "qr")
	paths, err := WriteQR(dir, "1Q1pE5vPGEEMqRcVRMbtBK842Y6Pzo6nK9", "KzReaUKzSaGarrhFhjNMweTrpUx4gqX1KCMFSWJx9374kYNHpmSu")
	require.NoError(t, err)
	want := []string{
		filepath.Join(dir, "1Q1pE5vPGEEMqRcVRMbtBK842Y6Pzo6nK9.png"),
		filepath.Join(dir, "1Q1pE5vPGEEMqRcVRMbtBK842Y6Pzo6nK9_private_key.png"),
	}
	require.Equal(t, want, paths)
	for _, p := range want {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "%s is not a PNG", p)
	}
}

func TestWriteQRAddressOnly(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteQR(dir, "t1Ysa2r2cQLTHc6sFBjzGrkgmpSqP1Vg3Ay", "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "t1Ysa2r2cQLTHc6sFBjzGrkgmpSqP1Vg3Ay.png")}, paths)

	_, err = WriteQR(dir, "", "x")
	assert.Error(t, err, "empty address")
}
