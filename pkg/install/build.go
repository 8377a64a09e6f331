package install

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
)

// ErrBuildFailed is matched by every [*BuildFailure].
var ErrBuildFailed = stderrors.New("build failed")

// BuildFailure describes a build rejected by the project itself.
type BuildFailure struct {
	Name   string // Project or directory name
	Reason string // Short description
	Output []byte // Combined build tool output, if any
}

func (e *BuildFailure) Error() string {
	return fmt.Sprintf("build %s failed: %s", e.Name, e.Reason)
}

// Is makes errors.Is(err, ErrBuildFailed) hold.
func (e *BuildFailure) Is(target error) bool { return target == ErrBuildFailed }

// Builder builds an unpacked source tree. In strict mode metadata must be
// declared explicitly and validated; non-strict mode allows fallbacks for
// legacy projects.
type Builder interface {
	Build(ctx context.Context, sourceDir string, strict bool) (*Build, error)
}

// Build is the installed output of a builder.
type Build struct {
	Name     string
	Version  string
	Python   string
	Platform string
	Root     string // Directory holding the egg layout

	workdir string
	once    sync.Once
	err     error
}

// Cleanup removes the build's work directory. It is safe to call more than
// once and on a nil Build.
func (b *Build) Cleanup() error {
	if b == nil || b.workdir == "" {
		return nil
	}
	b.once.Do(func() { b.err = os.RemoveAll(b.workdir) })
	return b.err
}

func newWorkdir(base string) (string, error) {
	return os.MkdirTemp(base, "distcache-build-")
}
