// Package digest fingerprints watch targets, so settle of a path whose
// content did not change can be dropped.
package digest

import (
	"io"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/rprtr258/syncwatch/internal/infra/errors"
)

// Of returns fingerprint of a file content, or of names and contents of
// direct entries of a directory. Subdirectories contribute only their names.
func Of(fs afero.Fs, path string) (uint64, error) {
	info, errStat := fs.Stat(path)
	if errStat != nil {
		return 0, errors.Wrapf(errStat, "stat %s", path)
	}

	h := xxhash.New()
	if !info.IsDir() {
		if err := hashFile(h, fs, path); err != nil {
			return 0, err
		}
		return h.Sum64(), nil
	}

	entries, errRead := afero.ReadDir(fs, path)
	if errRead != nil {
		return 0, errors.Wrapf(errRead, "read dir %s", path)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		_, _ = h.WriteString(entry.Name())
		_, _ = h.Write([]byte{0})
		if entry.IsDir() {
			continue
		}
		if err := hashFile(h, fs, filepath.Join(path, entry.Name())); err != nil {
			return 0, err
		}
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64(), nil
}

func hashFile(h *xxhash.Digest, fs afero.Fs, path string) error {
	f, errOpen := fs.Open(path)
	if errOpen != nil {
		return errors.Wrapf(errOpen, "open %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return nil
}
