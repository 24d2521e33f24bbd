// Package watch regenerates the reference pages when source files change.
//
// File system events are debounced so an editor saving several files at once
// causes a single regeneration. A periodic resync scheduled with gocron
// catches changes the watcher misses (network file systems, editors that
// replace directories).
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/Aeva/whisperscope/internal/logfields"
	"github.com/Aeva/whisperscope/internal/sources"
)

// Reasons passed to the regenerate callback.
const (
	ReasonStartup = "startup"
	ReasonChange  = "change"
	ReasonResync  = "resync"
)

// RegenerateFunc runs one generation. reason is one of the Reason constants.
type RegenerateFunc func(ctx context.Context, reason string) error

// Options controls which events count and how often regeneration happens.
type Options struct {
	Extensions []string
	// Ignore is a directory whose events are dropped, normally the output
	// directory.
	Ignore   string
	Debounce time.Duration
	// Resync is the interval of the periodic full regeneration; 0 disables it.
	Resync time.Duration
}

// Watcher monitors source inputs and calls a RegenerateFunc.
type Watcher struct {
	opts    Options
	regen   RegenerateFunc
	fs      *fsnotify.Watcher
	sched   gocron.Scheduler
	files   map[string]bool
	dirs    map[string]bool
	ignore  string
	resyncC chan struct{}

	mu   sync.Mutex
	runs int
}

// New creates a watcher for inputs. Directories are watched for files that
// match the extension filter; explicit files are watched through their
// parent directory.
func New(inputs []string, opts Options, regen RegenerateFunc) (*Watcher, error) {
	if regen == nil {
		return nil, fmt.Errorf("regenerate callback is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		regen:   regen,
		fs:      fw,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		resyncC: make(chan struct{}, 1),
	}
	if opts.Ignore != "" {
		if abs, err := filepath.Abs(opts.Ignore); err == nil {
			w.ignore = abs
		}
	}

	for _, in := range inputs {
		if err := w.add(in); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	if len(w.dirs) == 0 && len(w.files) == 0 {
		_ = fw.Close()
		return nil, fmt.Errorf("nothing to watch")
	}

	if opts.Resync > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		_, err = s.NewJob(
			gocron.DurationJob(opts.Resync),
			gocron.NewTask(w.requestResync),
			gocron.WithName("docshound-resync"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			_ = fw.Close()
			return nil, fmt.Errorf("failed to create resync job: %w", err)
		}
		w.sched = s
	}
	return w, nil
}

func (w *Watcher) add(input string) error {
	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", input, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		slog.Warn("Not watching missing input", logfields.Path(input))
		return nil
	}

	dir := abs
	if info.IsDir() {
		w.dirs[abs] = true
	} else {
		w.files[abs] = true
		dir = filepath.Dir(abs)
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	slog.Debug("Watching", logfields.Path(dir))
	return nil
}

// Relevant reports whether an event should trigger a regeneration.
func (w *Watcher) Relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	if w.ignore != "" && (name == w.ignore || strings.HasPrefix(name, w.ignore+string(filepath.Separator))) {
		return false
	}
	if w.files[name] {
		return true
	}
	// Directory inputs are not recursive.
	return w.dirs[filepath.Dir(name)] && sources.Matches(name, w.opts.Extensions)
}

// Runs returns how many regenerations have been attempted.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

func (w *Watcher) requestResync() {
	select {
	case w.resyncC <- struct{}{}:
	default:
	}
}

// Run regenerates once, then keeps regenerating on changes until ctx is
// canceled. A failing first generation is returned; later failures are
// logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if w.sched != nil {
		w.sched.Start()
		defer func() {
			if err := w.sched.Shutdown(); err != nil {
				slog.Error("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	if err := w.regenerate(ctx, ReasonStartup); err != nil {
		return err
	}
	slog.Info("Watching for changes",
		slog.Int("dirs", len(w.dirs)),
		logfields.Files(len(w.files)),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("resync", w.opts.Resync))

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.Relevant(ev) {
				continue
			}
			slog.Debug("Source change detected", logfields.File(ev.Name), logfields.Event(ev.Op.String()))
			timer.Reset(w.opts.Debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		case <-timer.C:
			w.regenerateLogged(ctx, ReasonChange)
		case <-w.resyncC:
			w.regenerateLogged(ctx, ReasonResync)
		}
	}
}

func (w *Watcher) regenerate(ctx context.Context, reason string) error {
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	start := time.Now()
	err := w.regen(ctx, reason)
	slog.Debug("Regeneration done", slog.String("reason", reason), logfields.Since(start))
	return err
}

func (w *Watcher) regenerateLogged(ctx context.Context, reason string) {
	if err := w.regenerate(ctx, reason); err != nil && ctx.Err() == nil {
		slog.Error("Regeneration failed", slog.String("reason", reason), logfields.Error(err))
	}
}
