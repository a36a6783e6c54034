package tx

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-exchange/multicrypto/internal/script"
)

// noScript marks serialize calls that emit every input's script signature.
const noScript = -1

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// serialize writes the transaction. With withScript >= 0 it writes the
// signing layout: only that input carries its locking script and every other
// input an empty script. With noScript it writes the final layout with
// script signatures.
func (t *Transaction) serialize(w io.Writer, withScript int) error {
	if err := writeUint32(w, t.Version); err != nil {
		return err
	}
	if t.params.Timestamped {
		if err := writeUint32(w, t.Time); err != nil {
			return err
		}
	}

	if err := wire.WriteVarInt(w, 0, uint64(len(t.Inputs))); err != nil {
		return err
	}
	for i, in := range t.Inputs {
		if _, err := w.Write(in.TxID[:]); err != nil {
			return err
		}
		if err := writeUint32(w, in.Vout); err != nil {
			return err
		}
		var s []byte
		switch {
		case withScript == noScript:
			s = in.scriptSig
		case withScript == i:
			s = in.LockingScript
		}
		if err := wire.WriteVarBytes(w, 0, s); err != nil {
			return err
		}
		if err := writeUint32(w, t.Sequence); err != nil {
			return err
		}
	}

	if err := wire.WriteVarInt(w, 0, uint64(len(t.Outputs))); err != nil {
		return err
	}
	var suffix []byte
	if t.Binding != nil {
		suffix = script.BlockAtHeight(t.Binding.Hash, t.Binding.Height)
	}
	for _, out := range t.Outputs {
		if err := writeUint64(w, out.Satoshis); err != nil {
			return err
		}
		s := append(append([]byte(nil), out.script...), suffix...)
		if err := wire.WriteVarBytes(w, 0, s); err != nil {
			return err
		}
	}

	return writeUint32(w, t.LockTime)
}

// Preimage returns the bytes signed for input i: the signing layout followed
// by the 4-byte hash type.
func (t *Transaction) Preimage(i int) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.serialize(&buf, i); err != nil {
		return nil, err
	}
	if err := writeUint32(&buf, t.HashType); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
