package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdfknight/pdfinvert/engine"
	"github.com/pdfknight/pdfinvert/engine/colormath"
	"github.com/pdfknight/pdfinvert/engine/config"
)

var (
	outputFile     string
	modeFlag       string
	rangeFlag      string
	customRange    string
	dpiHint        int
	compressImages bool
	paletteFlag    string
	bgColor        string
	fgColor        string
	configPath     string

	// Version info
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"

	logger *zap.SugaredLogger
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

var rootCmd = &cobra.Command{
	Use:   "pdfinvert <input.pdf>",
	Short: "Invert or re-map a PDF's colors while keeping it a true PDF",
	Long: `pdfinvert rewrites a PDF's colors at the content-stream and embedded-image
level, leaving it a true PDF: selectable text, vector primitives, bookmarks,
annotations and metadata all survive.

Modes:
  full      - invert every color (1-x), the classic "dark mode"
  grayscale - invert luminance, discarding hue entirely
  text-only - invert vector/text colors, leave embedded images untouched
  custom    - three-zone luminance map onto a named or custom palette

Page ranges: all, odd, even, or a custom selector like "2-3,7".`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}
	if outputFile == "" {
		outputFile = strings.TrimSuffix(inputFile, ".pdf") + "_inverted.pdf"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	palette, err := resolvePalette(cfg)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputFile, err)
	}

	logger = newLogger()
	defer logger.Sync() //nolint:errcheck

	fmt.Printf("Converting %s (mode=%s, range=%s)...\n", inputFile, modeName(req.Mode), rangeName(req.Range))

	out, report, err := engine.Convert(context.Background(), src, req,
		engine.WithLogger(logger), engine.WithPalette(palette))
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}

	fmt.Printf("Successfully created: %s\n", outputFile)
	if len(report.Warnings) > 0 {
		fmt.Printf("  %d page(s) processed, %d warning(s) logged\n", report.PagesProcessed, len(report.Warnings))
	} else {
		fmt.Printf("  %d page(s) processed\n", report.PagesProcessed)
	}
	return nil
}

func newLogger() *zap.SugaredLogger {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.DisableStacktrace = true
	l, err := zcfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func applyFlagOverrides(cfg *config.Config) {
	if modeFlag != "" {
		cfg.Mode = modeFlag
	}
	if rangeFlag != "" {
		cfg.Range = rangeFlag
	}
	if dpiHint != 0 {
		cfg.OutputDPIHint = dpiHint
	}
	if compressImages {
		cfg.CompressImages = compressImages
	}
	if paletteFlag != "" {
		cfg.Palette = paletteFlag
	}
}

func buildRequest(cfg *config.Config) (engine.ProcessRequest, error) {
	req := engine.DefaultProcessRequest()

	mode, err := parseMode(cfg.Mode)
	if err != nil {
		return req, err
	}
	req.Mode = mode

	rng, err := parseRange(cfg.Range)
	if err != nil {
		return req, err
	}
	req.Range = rng
	req.CustomRange = customRange

	req.OutputDPIHint = cfg.OutputDPIHint
	req.CompressImages = cfg.CompressImages
	return req, nil
}

func parseMode(s string) (engine.InversionMode, error) {
	switch strings.ToLower(s) {
	case "", "full":
		return engine.Full, nil
	case "grayscale", "gray":
		return engine.Grayscale, nil
	case "text-only", "text_only", "textonly":
		return engine.TextOnly, nil
	case "custom":
		return engine.Custom, nil
	default:
		return engine.Full, fmt.Errorf("invalid mode: %s (must be full, grayscale, text-only, or custom)", s)
	}
}

func modeName(m engine.InversionMode) string {
	switch m {
	case engine.Grayscale:
		return "grayscale"
	case engine.TextOnly:
		return "text-only"
	case engine.Custom:
		return "custom"
	default:
		return "full"
	}
}

func parseRange(s string) (engine.RangeKind, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return engine.RangeAll, nil
	case "odd":
		return engine.RangeOdd, nil
	case "even":
		return engine.RangeEven, nil
	case "custom":
		if customRange == "" {
			return engine.RangeCustom, fmt.Errorf("range=custom requires --pages")
		}
		return engine.RangeCustom, nil
	default:
		return engine.RangeAll, fmt.Errorf("invalid range: %s (must be all, odd, even, or custom)", s)
	}
}

func rangeName(r engine.RangeKind) string {
	switch r {
	case engine.RangeOdd:
		return "odd"
	case engine.RangeEven:
		return "even"
	case engine.RangeCustom:
		return "custom:" + customRange
	default:
		return "all"
	}
}

func resolvePalette(cfg *config.Config) (colormath.Palette, error) {
	if bgColor != "" || fgColor != "" {
		bg := bgColor
		fg := fgColor
		if bg == "" {
			bg = "#2a2a2a"
		}
		if fg == "" {
			fg = "#e8e8e8"
		}
		return customPalette(bg, fg)
	}
	return cfg.ResolvePalette()
}

func customPalette(bgHex, fgHex string) (colormath.Palette, error) {
	tmp := &config.Config{Palette: "__custom", Palettes: map[string]config.PaletteConfig{
		"__custom": {Background: bgHex, Foreground: fgHex},
	}}
	return tmp.ResolvePalette()
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List inversion modes and available custom palettes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Inversion modes:")
		fmt.Println("  full       invert every color")
		fmt.Println("  grayscale  invert luminance, discard hue")
		fmt.Println("  text-only  invert vector/text, leave images untouched")
		fmt.Println("  custom     three-zone luminance map onto a palette")
		fmt.Println()
		fmt.Println("Custom-mode palettes:")

		names := make([]string, 0, len(colormath.Palettes))
		for name := range colormath.Palettes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := colormath.Palettes[name]
			fmt.Printf("  %-10s background rgb(%.0f,%.0f,%.0f)  foreground rgb(%.0f,%.0f,%.0f)\n",
				name, p.Background.R*255, p.Background.G*255, p.Background.B*255,
				p.Foreground.R*255, p.Foreground.G*255, p.Foreground.B*255)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pdfinvert %s\n", version)
		fmt.Printf("  Build time: %s\n", buildTime)
		fmt.Printf("  Git commit: %s\n", gitCommit)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output PDF file (default: <input>_inverted.pdf)")
	rootCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Inversion mode: full, grayscale, text-only, custom")
	rootCmd.Flags().StringVarP(&rangeFlag, "range", "r", "", "Page range: all, odd, even, custom")
	rootCmd.Flags().StringVar(&customRange, "pages", "", `Custom page selector, e.g. "2-3,7" (requires --range custom)`)
	rootCmd.Flags().IntVar(&dpiHint, "dpi", 0, "Output DPI hint for embedded images: 150, 300, or 600 (default 300)")
	rootCmd.Flags().BoolVar(&compressImages, "compress-images", false, "Re-encode opaque images as JPEG")
	rootCmd.Flags().StringVarP(&paletteFlag, "palette", "p", "", "Named Custom-mode palette: dark, sepia, nord, solarized, gruvbox, dracula, monokai")
	rootCmd.Flags().StringVar(&bgColor, "bg-color", "", "Custom Custom-mode background (hex, e.g. #1a1a1a)")
	rootCmd.Flags().StringVar(&fgColor, "text-color", "", "Custom Custom-mode foreground (hex, e.g. #e0e0e0)")
	rootCmd.Flags().StringVar(&configPath, "config", "pdfinvert.toml", "Path to an optional TOML defaults file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(watchCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
