package engine

import (
	"go.uber.org/zap"

	"github.com/pdfknight/pdfinvert/engine/colormath"
)

// InversionMode mirrors spec.md §3's enumeration.
type InversionMode = colormath.Mode

const (
	Full      = colormath.Full
	Grayscale = colormath.Grayscale
	TextOnly  = colormath.TextOnly
	Custom    = colormath.Custom
)

// RangeKind mirrors spec.md §3's RangeSelector enumeration (the CUSTOM
// variant additionally carries CustomRange on ProcessRequest).
type RangeKind int

const (
	RangeAll RangeKind = iota
	RangeOdd
	RangeEven
	RangeCustom
)

// ProcessRequest is spec.md §6's input contract.
type ProcessRequest struct {
	Mode           InversionMode
	Range          RangeKind
	CustomRange    string // only consulted when Range == RangeCustom
	CompressImages bool
	OutputDPIHint  int // one of 150, 300, 600; default 300
}

// DefaultProcessRequest matches spec.md §6's stated defaults.
func DefaultProcessRequest() ProcessRequest {
	return ProcessRequest{
		Mode:          Full,
		Range:         RangeAll,
		OutputDPIHint: 300,
	}
}

// Option configures a Convert call beyond ProcessRequest's fixed fields.
type Option func(*settings)

type settings struct {
	logger  *zap.SugaredLogger
	palette colormath.Palette
}

func defaultSettings() *settings {
	return &settings{
		logger:  zap.NewNop().Sugar(),
		palette: colormath.DefaultPalette,
	}
}

// WithLogger attaches a structured logger; warnings in spec.md §7's
// non-fatal taxonomy are emitted through it at Warn level. Defaults to a
// no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *settings) { s.logger = l }
}

// WithPalette selects the background/foreground pair InversionMode=Custom
// uses, overriding colormath.DefaultPalette.
func WithPalette(p colormath.Palette) Option {
	return func(s *settings) { s.palette = p }
}
