package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
	"github.com/klingon-exchange/multicrypto/internal/message"
	"github.com/klingon-exchange/multicrypto/internal/vanity"
)

// bitcoinSecretPrefix is used when an integer key is translated.
var bitcoinSecretPrefix = []byte{0x80}

func runTransAddress(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("transaddress")
	addr := fs.String("a", "", "Address to translate")
	from := fs.String("i", "", "Symbol of the coin the address belongs to")
	to := fs.String("o", "", "Symbol of the coin to translate to")
	outDir := fs.String("d", "", "Directory for the QR code of the translated address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "a", "i", "o"); err != nil {
		return err
	}

	fromParams, err := a.coin(*from)
	if err != nil {
		return err
	}
	toParams, err := a.coin(*to)
	if err != nil {
		return err
	}
	if err := address.Validate(fromParams, *addr); err != nil {
		return err
	}
	translated, err := address.Translate(fromParams, toParams, *addr)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s) -> %s (%s)\n", *addr, fromParams.Symbol, translated, toParams.Symbol)
	if *outDir != "" {
		if _, err := vanity.WriteQR(*outDir, translated, ""); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Address QR code was saved in directory %s\n", *outDir)
	}
	return nil
}

func runTransPrivKey(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("transprivkey")
	key := fs.String("p", "", "Private key to translate")
	to := fs.String("o", "", "Symbol of the coin to translate to; without it the integer value is printed")
	isInt := fs.Bool("i", false, "Treat the private key as an integer (decimal or 0x hex)")
	outDir := fs.String("d", "", "Directory for the QR codes of the translated key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "p"); err != nil {
		return err
	}

	wif := *key
	if *isInt {
		k, ok := new(big.Int).SetString(*key, 0)
		if !ok {
			return fmt.Errorf("private key %q is not an integer", *key)
		}
		if err := ecc.S256().ValidateScalar(k); err != nil {
			return err
		}
		wif = encoding.EncodeWIF(bitcoinSecretPrefix, k, true)
	}
	w, err := encoding.DecodeWIF(wif)
	if err != nil {
		return fmt.Errorf("malformed wif private key: %w", err)
	}

	if *to == "" {
		fmt.Fprintf(a.out, "Private key: %s, compressed: %t\n", w.Key, w.Compressed)
		return nil
	}
	params, err := a.coin(*to)
	if err != nil {
		return err
	}
	translated, err := address.TranslateWIF(params, wif)
	if err != nil {
		return err
	}
	addr, err := address.FromPrivateKey(params, w.Key, w.Compressed, address.Legacy)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Private key: %s, compressed: %t, address: %s, coin symbol: %s\n",
		translated, w.Compressed, addr, params.Symbol)
	if *outDir != "" {
		if _, err := vanity.WriteQR(*outDir, addr, translated); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "QR codes were saved in directory %s\n", *outDir)
	}
	return nil
}

func runSignMessage(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("signmessage")
	msg := fs.String("m", "", "Message to sign")
	symbol := fs.String("c", "", "Coin symbol")
	wif := fs.String("p", "", "WIF private key to sign with")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "m", "c", "p"); err != nil {
		return err
	}

	params, err := a.coin(*symbol)
	if err != nil {
		return err
	}
	sig, err := message.Sign(params, *msg, *wif)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, sig)
	return nil
}

func runVerifyMessage(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("verifymessage")
	symbol := fs.String("c", "", "Coin symbol")
	msg := fs.String("m", "", "Message which was signed")
	sig := fs.String("s", "", "Base64 signature")
	addr := fs.String("a", "", "Address of the signing key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "c", "m", "s", "a"); err != nil {
		return err
	}

	params, err := a.coin(*symbol)
	if err != nil {
		return err
	}
	ok, err := message.Verify(params, *msg, *sig, *addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ok)
	return nil
}

func runEthAddress(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("ethaddress")
	key := fs.String("p", "", "Private key as WIF or, with -i, integer; a new key is generated when empty")
	isInt := fs.Bool("i", false, "Treat the private key as an integer (decimal or 0x hex)")
	check := fs.String("v", "", "Validate an address and print its checksummed form")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *check != "" {
		if err := address.ValidateEthereum(*check); err != nil {
			return err
		}
		sum, err := address.ChecksumEthereum(*check)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, sum)
		return nil
	}

	curve := ecc.S256()
	var k *big.Int
	switch {
	case *key == "":
		var err error
		if k, err = curve.GenerateKey(rand.Reader); err != nil {
			return err
		}
	case *isInt:
		var ok bool
		if k, ok = new(big.Int).SetString(*key, 0); !ok {
			return fmt.Errorf("private key %q is not an integer", *key)
		}
	default:
		w, err := encoding.DecodeWIF(*key)
		if err != nil {
			return fmt.Errorf("malformed wif private key: %w", err)
		}
		k = w.Key
	}
	if err := curve.ValidateScalar(k); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Address: %s\n", address.Ethereum(curve.ScalarBaseMult(k)))
	if *key == "" {
		fmt.Fprintf(a.out, "Private key: %064x\n", k)
	}
	return nil
}

// validateDestination accepts Base58 addresses of params and, for coins with
// native segwit, Bech32 addresses.
func validateDestination(params *chain.Params, addr string) error {
	err := address.Validate(params, addr)
	if err == nil || params.Bech32HRP == "" || !strings.HasPrefix(strings.ToLower(addr), params.Bech32HRP+"1") {
		return err
	}
	_, werr := address.WitnessScript(params, addr)
	return werr
}

