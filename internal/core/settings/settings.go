// Package settings reads the synchronization settings document. Nothing is
// cached: the document is owned by the user's editor and may change at any time.
package settings

import (
	"encoding/json"
	"path/filepath"

	"github.com/google/go-jsonnet"
	"github.com/rprtr258/fun"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/rprtr258/syncwatch/internal/infra/errors"
)

var ErrNoRootPath = errors.New("settings root path is not set")

// Snapshot is a single read of the settings document.
type Snapshot struct {
	// SynchronizationEnabled - whether settled changes should be exported
	SynchronizationEnabled bool `json:"autoExport"`
	// SettingsRootPath - directory relative settings paths are resolved against
	SettingsRootPath string `json:"settingsPath"`
}

type Gate struct {
	fs   afero.Fs
	path string
}

type Option func(*Gate)

// WithFs sets filesystem the document is read from, OS filesystem by default.
func WithFs(fs afero.Fs) Option {
	return func(g *Gate) {
		g.fs = fs
	}
}

func NewGate(path string, opts ...Option) *Gate {
	g := &Gate{
		fs:   afero.NewOsFs(),
		path: path,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Path() string {
	return g.path
}

// Read performs fresh read of the document. The document is evaluated as
// jsonnet first, so comments and trailing commas are accepted.
func (g *Gate) Read() (Snapshot, error) {
	data, errRead := afero.ReadFile(g.fs, g.path)
	if errRead != nil {
		return fun.Zero[Snapshot](), errors.Wrapf(errRead, "read settings %s", g.path)
	}

	vm := jsonnet.MakeVM()
	doc, errEval := vm.EvaluateAnonymousSnippet(g.path, string(data))
	if errEval != nil {
		return fun.Zero[Snapshot](), errors.Wrapf(errEval, "evaluate settings %s", g.path)
	}

	var snapshot Snapshot
	if errUnmarshal := json.Unmarshal([]byte(doc), &snapshot); errUnmarshal != nil {
		return fun.Zero[Snapshot](), errors.Wrapf(errUnmarshal, "parse settings %s", g.path)
	}

	return snapshot, nil
}

// IsSynchronizationEnabled never fails: unreadable or malformed document
// means synchronization is disabled.
func (g *Gate) IsSynchronizationEnabled() bool {
	snapshot, err := g.Read()
	if err != nil {
		log.Debug().
			Err(err).
			Str("settings", g.path).
			Msg("settings unreadable, treating synchronization as disabled")
		return false
	}

	return snapshot.SynchronizationEnabled
}

// Resolve returns rel resolved against settings root path.
func (g *Gate) Resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), nil
	}

	snapshot, err := g.Read()
	if err != nil {
		return "", err
	}

	if snapshot.SettingsRootPath == "" {
		return "", ErrNoRootPath
	}

	return filepath.Join(snapshot.SettingsRootPath, rel), nil
}
