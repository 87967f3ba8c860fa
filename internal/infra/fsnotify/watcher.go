package fsnotify

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/rprtr258/syncwatch/internal/core"
	"github.com/rprtr258/syncwatch/internal/infra/errors"
)

type target struct {
	isDir bool
	sink  func(core.RawEvent)
}

// WatchSet holds one fsnotify watch per registered path. Create it via New,
// register every path, then Start it.
type WatchSet struct {
	// w is the underlying fsnotify watcher used for watching.
	w *fsnotify.Watcher

	mu sync.Mutex
	// targets are registered paths, each having exactly one active watch
	targets map[string]target
	started bool
	closed  bool

	// doneClose indicates that we are done handling the close from the
	// underlying fsnotify
	doneClose chan struct{}
}

func New() (*WatchSet, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}

	return &WatchSet{
		w:         w,
		targets:   make(map[string]target),
		doneClose: make(chan struct{}),
	}, nil
}

// Register adds watch on path. Path must exist, otherwise
// *core.ConfigurationError is returned.
func (s *WatchSet) Register(path string, sink func(core.RawEvent)) error {
	stat, errStat := os.Stat(path)
	if errStat != nil {
		return &core.ConfigurationError{Path: path, Err: errStat}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.Newf("register %s: watch set is closed", path)
	}

	if _, ok := s.targets[path]; ok {
		return &core.ConfigurationError{Path: path, Err: errors.New("already registered")}
	}

	// file is watched through its directory, so that replacing or recreating
	// it does not lose the watch
	watched := path
	if !stat.IsDir() {
		watched = filepath.Dir(path)
	}
	if err := s.w.Add(watched); err != nil {
		return &core.ConfigurationError{Path: path, Err: err}
	}

	log.Debug().
		Str("path", path).
		Bool("dir", stat.IsDir()).
		Msg("watch added")

	s.targets[path] = target{
		isDir: stat.IsDir(),
		sink:  sink,
	}
	return nil
}

// Len returns number of active watches.
func (s *WatchSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Start begins delivering events to registered sinks.
func (s *WatchSet) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed {
		return
	}
	s.started = true
	go s.runEventLoop()
}

// UnregisterAll removes all watches and waits for event loop to exit.
// Safe to call multiple times.
func (s *WatchSet) UnregisterAll() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	clear(s.targets)
	s.mu.Unlock()

	if err := s.w.Close(); err != nil {
		return errors.Wrap(err, "shutdown underlying fsnotify watcher")
	}
	if started {
		<-s.doneClose
	}
	return nil
}

// runEventLoop proxies events from the underlying watcher to the sinks of
// the targets they belong to, until the underlying watcher is closed.
func (s *WatchSet) runEventLoop() {
	defer close(s.doneClose)
	for {
		select {
		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}

			log.Debug().
				Str("path", ev.Name).
				Stringer("op", ev.Op).
				Msg("fsnotify event")

			s.handleEvent(ev)
		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}

			log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// handleEvent routes ev to the file target it names and to the directory
// target containing it. Both can match when a file and its directory are
// registered together.
func (s *WatchSet) handleEvent(ev fsnotify.Event) {
	name := filepath.Clean(ev.Name)

	type delivery struct {
		sink  func(core.RawEvent)
		event core.RawEvent
	}
	deliveries := make([]delivery, 0, 2)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if t, ok := s.targets[name]; ok && !t.isDir {
		if k, ok := kind(ev.Op, false); ok {
			deliveries = append(deliveries, delivery{t.sink, core.RawEvent{Target: name, Name: name, Kind: k}})
		}
	}

	dir := filepath.Dir(name)
	if t, ok := s.targets[dir]; ok && t.isDir && dir != name {
		if k, ok := kind(ev.Op, true); ok {
			deliveries = append(deliveries, delivery{t.sink, core.RawEvent{Target: dir, Name: name, Kind: k}})
		}
	}
	s.mu.Unlock()

	for _, d := range deliveries {
		d.sink(d.event)
	}
}
