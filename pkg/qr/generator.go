package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEmptyContent is returned when asked to encode an empty payload.
var ErrEmptyContent = errors.New("qr: content cannot be empty")

// Generator renders a payload into a PNG QR image.
type Generator interface {
	Generate(content string) ([]byte, error)
}

// Options configures QR rendering.
type Options struct {
	Level         qrcode.RecoveryLevel
	ModuleSize    int // pixels per module
	DisableBorder bool
}

// DefaultOptions returns low error correction at 10px per module with the
// standard four-module quiet zone.
func DefaultOptions() Options {
	return Options{
		Level:      qrcode.Low,
		ModuleSize: 10,
	}
}

type pngGenerator struct {
	opts Options
}

// NewGenerator creates a PNG QR generator.
func NewGenerator(opts Options) Generator {
	if opts.ModuleSize <= 0 {
		opts.ModuleSize = DefaultOptions().ModuleSize
	}
	return &pngGenerator{opts: opts}
}

func (g *pngGenerator) Generate(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	code, err := qrcode.New(content, g.opts.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	code.DisableBorder = g.opts.DisableBorder

	// A negative size is interpreted as pixels per module.
	png, err := code.PNG(-g.opts.ModuleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
