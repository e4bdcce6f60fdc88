package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pdfknight/pdfinvert/engine"
	"github.com/pdfknight/pdfinvert/engine/colormath"
	"github.com/pdfknight/pdfinvert/engine/config"
)

var (
	watchOutDir string
	watchDelay  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Watch a directory and convert PDFs dropped into it",
	Long: `watch monitors a directory for new or modified .pdf files and runs the
same conversion runConvert would, writing outputs into --out-dir (default:
alongside the source file, suffixed _inverted.pdf).

Rapid-fire filesystem events for the same file are coalesced by a short
debounce delay, and concurrent writes to the same output path are
serialized so two events for one file never race each other's output.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "Directory for converted output (default: alongside each source file)")
	watchCmd.Flags().DurationVar(&watchDelay, "debounce", 500*time.Millisecond, "Debounce delay for filesystem events")
}

// pathLocker provides per-path mutual exclusion, grounded in GoSNare's
// watcher.go pattern of the same name.
type pathLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocker() *pathLocker {
	return &pathLocker{locks: make(map[string]*sync.Mutex)}
}

func (pl *pathLocker) Lock(path string) {
	pl.mu.Lock()
	l, ok := pl.locks[path]
	if !ok {
		l = &sync.Mutex{}
		pl.locks[path] = l
	}
	pl.mu.Unlock()
	l.Lock()
}

func (pl *pathLocker) Unlock(path string) {
	pl.mu.Lock()
	l, ok := pl.locks[path]
	if !ok {
		pl.mu.Unlock()
		return
	}
	pl.mu.Unlock()
	l.Unlock()
}

// debouncer coalesces rapid event bursts into a single callback per file.
type debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	delay  time.Duration
	onFire func(path string)
}

func newDebouncer(delay time.Duration, onFire func(path string)) *debouncer {
	return &debouncer{
		timers: make(map[string]*time.Timer),
		delay:  delay,
		onFire: onFire,
	}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		d.onFire(path)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
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

	logger = newLogger()
	defer logger.Sync() //nolint:errcheck

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	fmt.Printf("Watching: %s\n", dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	outLock := newPathLocker()
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	job := func(path string) {
		out := watchOutputPath(path)
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			outLock.Lock(out)
			defer outLock.Unlock(out)
			if err := convertOne(ctx, path, out, req, palette); err != nil {
				fmt.Fprintf(os.Stderr, "Error converting '%s': %v\n", path, err)
				return
			}
			fmt.Printf("Converted '%s' -> '%s'\n", filepath.Base(path), filepath.Base(out))
		}()
	}

	db := newDebouncer(watchDelay, job)
	defer db.stop()

	fmt.Println("Watching for PDF changes...")

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				wg.Wait()
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".pdf") || strings.HasSuffix(ev.Name, "_inverted.pdf") {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				db.trigger(ev.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				wg.Wait()
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		}
	}
}

func watchOutputPath(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), ".pdf") + "_inverted.pdf"
	if watchOutDir != "" {
		return filepath.Join(watchOutDir, base)
	}
	return filepath.Join(filepath.Dir(src), base)
}

func convertOne(ctx context.Context, src, out string, req engine.ProcessRequest, palette colormath.Palette) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	result, _, err := engine.Convert(ctx, data, req, engine.WithLogger(logger), engine.WithPalette(palette))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(out, result, 0o644)
}
