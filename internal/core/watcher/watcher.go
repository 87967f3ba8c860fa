package watcher

import (
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/rprtr258/syncwatch/internal/core"
	"github.com/rprtr258/syncwatch/internal/core/debounce"
	"github.com/rprtr258/syncwatch/internal/core/digest"
	"github.com/rprtr258/syncwatch/internal/infra/errors"
	"github.com/rprtr258/syncwatch/internal/infra/fsnotify"
)

// Targets maps watched path, file or directory, to callback invoked once
// writes to that path become quiescent.
type Targets map[string]func()

// Gate decides whether settled changes are reported at all.
type Gate interface {
	IsSynchronizationEnabled() bool
}

// WatchSet delivers raw events for registered paths.
type WatchSet interface {
	Register(path string, sink func(core.RawEvent)) error
	Start()
	UnregisterAll() error
}

type entry struct {
	path      string
	onSettled func()
	timer     *debounce.Timer

	// fingerprint of content at last fired settle, guarded by timer settles
	// being serialized
	digest    uint64
	hasDigest bool
}

// FileWatcher owns watches and stability timers for a fixed set of paths,
// from New until Shutdown.
type FileWatcher struct {
	gate  Gate
	set   WatchSet
	quiet time.Duration
	// fs is used for content fingerprints, nil if disabled
	fs afero.Fs

	entries map[string]*entry

	mu       sync.Mutex
	disposed bool
}

type options struct {
	quiet time.Duration
	set   WatchSet
	fs    afero.Fs
}

type Option func(*options)

// WithQuietPeriod sets time without raw events after which path is settled.
func WithQuietPeriod(d time.Duration) Option {
	return func(o *options) {
		o.quiet = d
	}
}

// WithWatchSet replaces default fsnotify watch set. Watch set is owned by
// FileWatcher afterwards.
func WithWatchSet(set WatchSet) Option {
	return func(o *options) {
		o.set = set
	}
}

// WithDigest enables dropping settles whose content is the same as on the
// previous reported settle.
func WithDigest(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// New registers watch for every target. If any path cannot be watched, all
// watches made so far are released and *core.ConfigurationError returned.
func New(targets Targets, gate Gate, opts ...Option) (*FileWatcher, error) {
	o := options{
		quiet: core.DefaultQuietPeriod,
		set:   nil,
		fs:    nil,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.set == nil {
		set, err := fsnotify.New()
		if err != nil {
			return nil, errors.Wrap(err, "new watch set")
		}
		o.set = set
	}

	w := &FileWatcher{
		gate:    gate,
		set:     o.set,
		quiet:   o.quiet,
		fs:      o.fs,
		entries: make(map[string]*entry, len(targets)),
	}

	if err := w.register(targets); err != nil {
		if errRelease := w.set.UnregisterAll(); errRelease != nil {
			return nil, errors.Combine(err, errors.Wrap(errRelease, "release watches"))
		}
		return nil, err
	}

	w.set.Start()

	log.Info().
		Strs("paths", w.paths()).
		Dur("quiet", w.quiet).
		Msg("watching")

	return w, nil
}

func (w *FileWatcher) register(targets Targets) error {
	for path, onSettled := range targets {
		absPath, errAbs := filepath.Abs(path)
		if errAbs != nil {
			return &core.ConfigurationError{Path: path, Err: errAbs}
		}

		if _, ok := w.entries[absPath]; ok {
			return &core.ConfigurationError{Path: path, Err: errors.Newf("duplicates %s", absPath)}
		}

		e := &entry{
			path:      absPath,
			onSettled: onSettled,
		}
		e.timer = debounce.New(w.quiet, func() { w.settle(e) })
		w.fingerprint(e)

		if err := w.set.Register(absPath, func(ev core.RawEvent) { w.poke(e, ev) }); err != nil {
			return err
		}
		w.entries[absPath] = e
	}
	return nil
}

func (w *FileWatcher) paths() []string {
	paths := make([]string, 0, len(w.entries))
	for path := range w.entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// poke is raw event sink for single path.
func (w *FileWatcher) poke(e *entry, ev core.RawEvent) {
	if !e.timer.Poke() {
		// disposed, event arrived during shutdown
		return
	}

	log.Debug().
		Str("path", e.path).
		Str("name", ev.Name).
		Stringer("kind", ev.Kind).
		Msg("raw event")
}

func (w *FileWatcher) settle(e *entry) {
	w.mu.Lock()
	disposed := w.disposed
	w.mu.Unlock()
	if disposed {
		return
	}

	if !w.gate.IsSynchronizationEnabled() {
		log.Debug().
			Str("path", e.path).
			Msg("settled, synchronization disabled")
		return
	}

	if w.fs != nil {
		prev, hadPrev := e.digest, e.hasDigest
		if w.fingerprint(e) && hadPrev && prev == e.digest {
			log.Debug().
				Str("path", e.path).
				Msg("settled, content unchanged")
			return
		}
	}

	log.Debug().
		Str("path", e.path).
		Time("last_event", e.timer.LastPoke()).
		Msg("settled")

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("path", e.path).
				Any("panic", r).
				Msg("settle callback panicked")
		}
	}()
	e.onSettled()
}

// fingerprint refreshes content digest of entry if enabled.
// Returns whether digest is known.
func (w *FileWatcher) fingerprint(e *entry) bool {
	if w.fs == nil {
		return false
	}

	d, err := digest.Of(w.fs, e.path)
	if err != nil {
		log.Debug().
			Err(err).
			Str("path", e.path).
			Msg("fingerprint")
		e.hasDigest = false
		return false
	}

	e.digest, e.hasDigest = d, true
	return true
}

// Shutdown cancels every pending settle, then releases every watch.
// No callback runs after Shutdown returns. Calls after the first are no-op.
// Must not be called from a callback.
func (w *FileWatcher) Shutdown() error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return nil
	}
	w.disposed = true
	w.mu.Unlock()

	for _, e := range w.entries {
		e.timer.Cancel()
	}

	if err := w.set.UnregisterAll(); err != nil {
		return errors.Wrap(err, "unregister watches")
	}

	log.Info().Msg("watcher shut down")
	return nil
}
