// Package fsnotify is a light wrapper around github.com/fsnotify/fsnotify
// that watches a fixed set of files and directories and normalizes
// notifications into core.RawEvent attributed to configured paths.
package fsnotify

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rprtr258/fun"

	"github.com/rprtr258/syncwatch/internal/core"
)

// kind maps fsnotify op to normalized event kind for a target of given type.
// Returns false for ops that carry no content change. Create of a file
// target itself means it was replaced, which counts as modification.
func kind(op fsnotify.Op, isDir bool) (core.EventKind, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return core.EventModified, true
	case op.Has(fsnotify.Create):
		return fun.IF(isDir, core.EventAdded, core.EventModified), true
	default:
		return core.EventInvalid, false
	}
}
