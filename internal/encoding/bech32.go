package encoding

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// EncodeSegwit encodes a witness program as a Bech32 (v0) or Bech32m (v1+)
// address under hrp.
func EncodeSegwit(hrp string, version byte, program []byte) (string, error) {
	if err := checkWitnessProgram(version, program); err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", &EncodingError{Reason: "bech32 regroup", Err: err}
	}
	data := append([]byte{version}, conv...)
	if version == 0 {
		return bech32.Encode(hrp, data)
	}
	return bech32.EncodeM(hrp, data)
}

// DecodeSegwit decodes a segwit address, checking the human readable part,
// the checksum variant for its witness version and the program length.
// Mixed-case input is rejected.
func DecodeSegwit(hrp, addr string) (byte, []byte, error) {
	gotHRP, data, variant, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return 0, nil, &EncodingError{Reason: "bech32", Err: err}
	}
	if gotHRP != strings.ToLower(hrp) {
		return 0, nil, &EncodingError{Reason: fmt.Sprintf("bech32 hrp %q, expected %q", gotHRP, hrp)}
	}
	if len(data) == 0 {
		return 0, nil, &EncodingError{Reason: "empty bech32 data", Err: ErrLength}
	}
	version := data[0]
	if version > 16 {
		return 0, nil, &EncodingError{Reason: fmt.Sprintf("witness version %d", version)}
	}
	if (version == 0) != (variant == bech32.Version0) {
		return 0, nil, &EncodingError{Reason: "wrong bech32 checksum variant for witness version", Err: ErrChecksum}
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return 0, nil, &EncodingError{Reason: "bech32 regroup", Err: err}
	}
	if err := checkWitnessProgram(version, program); err != nil {
		return 0, nil, err
	}
	return version, program, nil
}

// SegwitScript returns the locking script OP_n ‖ push(program).
func SegwitScript(version byte, program []byte) []byte {
	op := byte(0x00)
	if version > 0 {
		op = 0x50 + version
	}
	return append([]byte{op, byte(len(program))}, program...)
}

func checkWitnessProgram(version byte, program []byte) error {
	if len(program) < 2 || len(program) > 40 {
		return &EncodingError{Reason: fmt.Sprintf("witness program of %d bytes", len(program)), Err: ErrLength}
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return &EncodingError{Reason: fmt.Sprintf("v0 witness program of %d bytes", len(program)), Err: ErrLength}
	}
	return nil
}
