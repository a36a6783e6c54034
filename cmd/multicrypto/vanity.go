package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/storage"
	"github.com/klingon-exchange/multicrypto/internal/vanity"
	"github.com/klingon-exchange/multicrypto/internal/wallet"
)

// passwordEnv holds the password used to seal stored keys.
const passwordEnv = "MULTICRYPTO_PASSWORD"

func runGenAddress(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("genaddress")
	pattern := fs.String("p", "", "Pattern the address must start with")
	symbol := fs.String("s", "", "Coin symbol, i.e. BTC")
	workers := fs.Int("c", a.cfg.Vanity.Workers, "Number of workers")
	uncompressed := fs.Bool("u", false, "Use the uncompressed public key")
	segwit := fs.Bool("w", false, "Generate a segwit (P2SH-P2WPKH) address")
	outDir := fs.String("d", a.cfg.Vanity.QRDir, "Directory for the address and private key QR codes")
	store := fs.Bool("store", false, "Store the key in the history database, sealed with $"+passwordEnv)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "p", "s"); err != nil {
		return err
	}

	params, err := a.coin(*symbol)
	if err != nil {
		return err
	}
	password := os.Getenv(passwordEnv)
	if *store {
		if err := wallet.ValidatePassword(password); err != nil {
			return fmt.Errorf("%s: %w", passwordEnv, err)
		}
	}
	kind := address.Legacy
	if *segwit {
		kind = address.Segwit
	}

	log := a.log.Component("vanity")
	log.Info("Looking for pattern", "pattern", *pattern, "coin", params.Name, "workers", *workers)
	res, err := vanity.Search(ctx, vanity.Options{
		Params:        params,
		Pattern:       *pattern,
		Kind:          kind,
		Compressed:    !*uncompressed,
		Workers:       *workers,
		ProgressEvery: a.cfg.Vanity.ProgressEvery,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	log.Info("Address found", "candidates", res.Candidates, "elapsed", res.Elapsed.Round(time.Millisecond), "worker", res.Worker)

	fmt.Fprintf(a.out, "Address: %s\nPrivate key: %s\n", res.Address, res.WIF)
	if *outDir != "" {
		if _, err := vanity.WriteQR(*outDir, res.Address, res.WIF); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "QR codes were saved in directory %s\n", *outDir)
	}
	if *store {
		sealed, err := sealFound(res.WIF, password)
		if err != nil {
			return err
		}
		db, err := a.openStorage()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveVanityKey(&storage.VanityKey{
			Coin:       params.Symbol,
			Address:    res.Address,
			Kind:       res.Kind.String(),
			Pattern:    *pattern,
			Compressed: res.Compressed,
			SealedKey:  sealed,
			Candidates: res.Candidates,
		}); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Key stored in %s\n", db.Path())
	}
	return nil
}

func runKeys(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("keys")
	symbol := fs.String("c", "", "Only list keys of this coin")
	reveal := fs.String("reveal", "", "Print the private key of this address, opened with $"+passwordEnv)
	remove := fs.String("delete", "", "Delete the key of this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := a.openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case *reveal != "":
		k, err := db.GetVanityKey(*reveal)
		if err != nil {
			return err
		}
		sealed, err := wallet.UnmarshalSealedKey(k.SealedKey)
		if err != nil {
			return err
		}
		wif, err := wallet.Open(sealed, os.Getenv(passwordEnv))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Address: %s\nPrivate key: %s\n", k.Address, wif)
		return nil
	case *remove != "":
		if err := db.DeleteVanityKey(*remove); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted key of %s\n", *remove)
		return nil
	}

	keys, err := db.ListVanityKeys(strings.ToUpper(*symbol))
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintf(a.out, "%s %-5s %-10s %s (pattern %s, compressed %t, %d candidates)\n",
			k.CreatedAt.Format("2006-01-02 15:04:05"), k.Coin, k.Kind, k.Address, k.Pattern, k.Compressed, k.Candidates)
	}
	return nil
}

// sealFound encrypts a found key for storage.
func sealFound(wif, password string) ([]byte, error) {
	sealed, err := wallet.Seal(wif, password, wallet.DefaultKDF)
	if err != nil {
		return nil, err
	}
	return sealed.Marshal()
}
