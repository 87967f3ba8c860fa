package core

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// TODO: set at compile time
const Version = "0.1.0"

// DefaultQuietPeriod must exceed the time editors need to flush a multi-chunk save.
const DefaultQuietPeriod = 2 * time.Second

type Backend string

const (
	BackendFSNotify Backend = "fsnotify"
	BackendPoll     Backend = "poll"
)

type Config struct {
	// SettingsFile - document holding the synchronization flag
	SettingsFile string
	Backend      Backend
	// QuietPeriod - time without raw events before a path is settled
	QuietPeriod time.Duration
	// PollInterval - used by BackendPoll only
	PollInterval time.Duration
	// SkipUnchanged - drop settles whose content fingerprint did not change
	SkipUnchanged bool
	Debug         bool
}

var DefaultConfig = Config{
	SettingsFile:  filepath.Join(xdg.ConfigHome, "syncwatch", "settings.json"),
	Backend:       BackendFSNotify,
	QuietPeriod:   DefaultQuietPeriod,
	PollInterval:  100 * time.Millisecond,
	SkipUnchanged: false,
	Debug:         false,
}
