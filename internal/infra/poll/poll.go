// Package poll watches the same kind of target set as package fsnotify, but
// by periodically scanning the filesystem. Useful where OS notifications
// are not delivered.
package poll

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/rs/zerolog/log"

	"github.com/rprtr258/syncwatch/internal/core"
	"github.com/rprtr258/syncwatch/internal/infra/errors"
)

type target struct {
	isDir bool
	sink  func(core.RawEvent)
}

type WatchSet struct {
	w        *watcher.Watcher
	interval time.Duration

	mu      sync.Mutex
	targets map[string]target
	started bool
	closed  bool

	doneClose chan struct{}
}

const (
	DefaultInterval = 100 * time.Millisecond
	// MaxInterval bounds scan interval. Poller notices close only between
	// scans, so UnregisterAll may block for up to one interval.
	MaxInterval = time.Second
)

// New creates polling watch set scanning every interval. Intervals shorter
// than a millisecond fall back to DefaultInterval, longer than MaxInterval
// are capped.
func New(interval time.Duration) *WatchSet {
	switch {
	case interval < time.Millisecond:
		interval = DefaultInterval
	case interval > MaxInterval:
		log.Warn().
			Dur("interval", interval).
			Dur("max", MaxInterval).
			Msg("poll interval capped")
		interval = MaxInterval
	}

	w := watcher.New()
	w.FilterOps(watcher.Create, watcher.Write)

	return &WatchSet{
		w:         w,
		interval:  interval,
		targets:   make(map[string]target),
		doneClose: make(chan struct{}),
	}
}

// Register adds path to scanned set. Path must exist, otherwise
// *core.ConfigurationError is returned. Must be called before Start.
func (s *WatchSet) Register(path string, sink func(core.RawEvent)) error {
	stat, errStat := os.Stat(path)
	if errStat != nil {
		return &core.ConfigurationError{Path: path, Err: errStat}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return errors.Newf("register %s: watch set is closed", path)
	case s.started:
		return errors.Newf("register %s: watch set is already started", path)
	}

	if _, ok := s.targets[path]; ok {
		return &core.ConfigurationError{Path: path, Err: errors.New("already registered")}
	}

	// directories are scanned one level deep, same as fsnotify directory watch
	if err := s.w.Add(path); err != nil {
		return &core.ConfigurationError{Path: path, Err: err}
	}

	log.Debug().
		Str("path", path).
		Bool("dir", stat.IsDir()).
		Dur("interval", s.interval).
		Msg("poll added")

	s.targets[path] = target{
		isDir: stat.IsDir(),
		sink:  sink,
	}
	return nil
}

func (s *WatchSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Start begins scanning. Registered set is snapshotted on first scan, so
// nothing can be registered after that.
func (s *WatchSet) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.listen()
	go func() {
		if err := s.w.Start(s.interval); err != nil {
			log.Error().Err(err).Dur("interval", s.interval).Msg("start poller")
		}
	}()
	s.w.Wait()
}

func (s *WatchSet) listen() {
	defer close(s.doneClose)
	for {
		select {
		case ev := <-s.w.Event:
			log.Debug().
				Str("path", ev.Path).
				Stringer("op", ev.Op).
				Msg("poll event")

			s.handleEvent(ev)
		case err := <-s.w.Error:
			log.Warn().Err(err).Msg("poll error")
		case <-s.w.Closed:
			return
		}
	}
}

func (s *WatchSet) handleEvent(ev watcher.Event) {
	var k core.EventKind
	switch ev.Op {
	case watcher.Create:
		k = core.EventAdded
	case watcher.Write:
		k = core.EventModified
	default:
		return
	}

	name := filepath.Clean(ev.Path)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var sinks []func(core.RawEvent)
	var events []core.RawEvent
	if t, ok := s.targets[name]; ok && !t.isDir && k == core.EventModified {
		sinks = append(sinks, t.sink)
		events = append(events, core.RawEvent{Target: name, Name: name, Kind: k})
	}
	if dir := filepath.Dir(name); dir != name {
		if t, ok := s.targets[dir]; ok && t.isDir {
			sinks = append(sinks, t.sink)
			events = append(events, core.RawEvent{Target: dir, Name: name, Kind: k})
		}
	}
	s.mu.Unlock()

	for i, sink := range sinks {
		sink(events[i])
	}
}

// UnregisterAll stops scanning and waits for delivery loop to exit, which
// takes up to one scan interval. Safe to call multiple times.
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

	if started {
		s.w.Close()
		<-s.doneClose
	}
	return nil
}
