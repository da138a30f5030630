// Package cleanpath provides a filesystem path whose file is removed when the
// path is released. Callers defer Release so the file is deleted on every exit
// path, including early returns and propagated errors.
package cleanpath

import (
	"os"
	"sync"
)

// Path owns a filesystem path and deletes the file at that path on Release.
type Path struct {
	path string
	once sync.Once
}

func New(path string) *Path {
	return &Path{path: path}
}

func (p *Path) String() string {
	return p.path
}

// Release removes the file at the path. Removal is best-effort: a failure to
// delete is never surfaced over the primary result of the surrounding
// operation. Release is idempotent.
func (p *Path) Release() {
	p.once.Do(func() {
		_ = os.Remove(p.path)
	})
}
