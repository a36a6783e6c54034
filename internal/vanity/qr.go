package vanity

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

// qrSize is the side of the generated PNG images in pixels.
const qrSize = 256

type qrFile struct {
	path    string
	content string
	level   qrcode.RecoveryLevel
}

// WriteQR stores <addr>.png in dir and, when wif is not empty,
// <addr>_private_key.png. It returns the written paths, address first.
// The private key image uses the highest error correction level.
func WriteQR(dir, addr, wif string) ([]string, error) {
	if addr == "" {
		return nil, fmt.Errorf("no address to encode")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create qr directory: %w", err)
	}
	files := []qrFile{{filepath.Join(dir, addr+".png"), addr, qrcode.Low}}
	if wif != "" {
		files = append(files, qrFile{filepath.Join(dir, addr+"_private_key.png"), wif, qrcode.Highest})
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		png, err := qrcode.Encode(f.content, f.level, qrSize)
		if err != nil {
			return paths, fmt.Errorf("failed to encode qr code: %w", err)
		}
		if err := os.WriteFile(f.path, png, 0600); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}
