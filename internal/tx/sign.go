package tx

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/klingon-exchange/multicrypto/internal/address"
	"github.com/klingon-exchange/multicrypto/internal/ecc"
	"github.com/klingon-exchange/multicrypto/internal/ecdsa"
	"github.com/klingon-exchange/multicrypto/internal/encoding"
	"github.com/klingon-exchange/multicrypto/internal/script"
)

// Signer produces a signature over a signing preimage.
type Signer interface {
	Sign(preimage []byte, key *big.Int) (*ecdsa.Signature, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(preimage []byte, key *big.Int) (*ecdsa.Signature, error)

func (f SignerFunc) Sign(preimage []byte, key *big.Int) (*ecdsa.Signature, error) {
	return f(preimage, key)
}

// DefaultSigner signs with deterministic ECDSA over the double SHA-256 of the
// preimage.
var DefaultSigner Signer = SignerFunc(func(preimage []byte, key *big.Int) (*ecdsa.Signature, error) {
	return ecdsa.Sign(ecc.S256(), preimage, key, ecdsa.DoubleSHA256)
})

// Sign computes the script signature of every input. Inputs locked by P2SH
// scripts take their UnlockingScript as is; all others need a Key.
func (t *Transaction) Sign(signer Signer) error {
	if t.state == finalized {
		return &AlreadyFinalizedError{ID: t.id}
	}
	if signer == nil {
		signer = DefaultSigner
	}
	curve := ecc.S256()
	sigHash := t.params.SigHashType()

	for i, in := range t.Inputs {
		if script.IsPayToScriptHash(in.LockingScript) {
			if len(in.UnlockingScript) == 0 {
				return fmt.Errorf("input %d spends a script hash but has no unlocking script", i)
			}
			in.scriptSig = in.UnlockingScript
			continue
		}
		if in.Key == nil {
			return fmt.Errorf("input %d has no private key", i)
		}

		preimage, err := t.Preimage(i)
		if err != nil {
			return err
		}
		sig, err := signer.Sign(preimage, in.Key)
		if err != nil {
			return fmt.Errorf("sign input %d: %w", i, err)
		}

		pub := curve.ScalarBaseMult(in.Key)
		compressed := bytes.Contains(in.LockingScript, address.PublicKeyHash(pub, true))
		scriptSig, err := txscript.NewScriptBuilder().
			AddData(append(sig.SerializeDER(curve), sigHash)).
			AddData(encoding.EncodePoint(pub, compressed)).
			Script()
		if err != nil {
			return fmt.Errorf("input %d script signature: %w", i, err)
		}
		in.scriptSig = scriptSig
	}
	t.state = signed
	return nil
}

// Finalize serializes the signed transaction and fixes its id, the reversed
// double SHA-256 of the raw bytes.
func (t *Transaction) Finalize() (string, error) {
	switch t.state {
	case finalized:
		return "", &AlreadyFinalizedError{ID: t.id}
	case built:
		return "", ErrNotSigned
	}
	var buf bytes.Buffer
	if err := t.serialize(&buf, noScript); err != nil {
		return "", err
	}
	t.raw = buf.Bytes()
	t.id = chainhash.DoubleHashH(t.raw).String()
	t.state = finalized
	return t.id, nil
}

// Build signs and finalizes the transaction, returning its raw bytes.
func (t *Transaction) Build(signer Signer) ([]byte, error) {
	if err := t.Sign(signer); err != nil {
		return nil, err
	}
	if _, err := t.Finalize(); err != nil {
		return nil, err
	}
	return t.raw, nil
}
