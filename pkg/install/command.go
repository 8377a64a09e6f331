package install

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/archive"
	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/link"
)

// DefaultCommand builds an egg with setuptools.
var DefaultCommand = []string{"python3", "setup.py", "bdist_egg", "--dist-dir", "{out}"}

// Command builds a source tree by running an external tool in it. The
// placeholders {src} and {out} in Args are replaced by the source directory
// and the directory the tool must write its single .egg into.
type Command struct {
	Args    []string    // Defaults to DefaultCommand
	Env     []string    // Extra environment, appended to os.Environ()
	TempDir string      // Parent of build work directories
	Logger  *log.Logger // Defaults to log.Default()
}

// Build implements [Builder].
func (c *Command) Build(ctx context.Context, src string, strict bool) (*Build, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}
	argv := c.Args
	if len(argv) == 0 {
		argv = DefaultCommand
	}

	workdir, err := newWorkdir(c.TempDir)
	if err != nil {
		return nil, err
	}
	b := &Build{Root: filepath.Join(workdir, "root"), workdir: workdir}
	out := filepath.Join(workdir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		b.Cleanup()
		return nil, err
	}

	r := strings.NewReplacer("{src}", src, "{out}", out)
	args := make([]string, len(argv))
	for i, a := range argv {
		args[i] = r.Replace(a)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = src
	cmd.Env = append(os.Environ(), c.Env...)
	logger.Debug("running build tool", "cmd", strings.Join(args, " "), "dir", src)
	output, err := cmd.CombinedOutput()
	if err != nil {
		b.Cleanup()
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && ctx.Err() == nil {
			return nil, &BuildFailure{Name: filepath.Base(src), Reason: exitErr.Error(), Output: output}
		}
		return nil, errors.Wrap(errors.ErrCodeBuildTool, err, "run %s", args[0])
	}

	if err := c.collect(b, out, strict); err != nil {
		b.Cleanup()
		var fail *BuildFailure
		if stderrors.As(err, &fail) {
			fail.Output = output
			if fail.Name == "" {
				fail.Name = filepath.Base(src)
			}
		}
		return nil, err
	}
	return b, nil
}

// collect unpacks the single egg found in out into b.Root and fills in the
// build identity.
func (c *Command) collect(b *Build, out string, strict bool) error {
	eggs, err := filepath.Glob(filepath.Join(out, "*"+link.BinaryExt))
	if err != nil {
		return err
	}
	if len(eggs) != 1 {
		return &BuildFailure{Reason: fmt.Sprintf("expected one %s in output, found %d", link.BinaryExt, len(eggs))}
	}

	id, err := link.ParseBinaryName(filepath.Base(eggs[0]))
	if err != nil {
		return &BuildFailure{Reason: errors.UserMessage(err)}
	}
	b.Name, b.Version, b.Python, b.Platform = id.Name, id.Version, id.Python, id.Platform

	if err := archive.Unpack(eggs[0], b.Root); err != nil {
		return &BuildFailure{Name: id.Name, Reason: fmt.Sprintf("unpack %s: %v", filepath.Base(eggs[0]), err)}
	}

	pkginfo := filepath.Join(b.Root, "EGG-INFO", "PKG-INFO")
	data, err := os.ReadFile(pkginfo)
	switch {
	case err == nil:
		info, perr := dist.ParsePKGInfo(data)
		if perr != nil {
			if strict {
				return &BuildFailure{Name: id.Name, Reason: fmt.Sprintf("invalid PKG-INFO: %v", perr)}
			}
			return nil
		}
		agrees := dist.NormalizeName(info.Name) == dist.NormalizeName(id.Name) && link.Escape(info.Version) == link.Escape(id.Version)
		if !agrees {
			if strict {
				return &BuildFailure{Name: id.Name, Reason: fmt.Sprintf("PKG-INFO declares %s %s", info.Name, info.Version)}
			}
			return nil
		}
		b.Name = info.Name
		return nil
	case os.IsNotExist(err):
		if strict {
			return &BuildFailure{Name: id.Name, Reason: "egg has no EGG-INFO/PKG-INFO"}
		}
		return nil
	default:
		return err
	}
}
