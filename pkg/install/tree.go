package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/platform"
)

// Tree builds pure source trees without running any external tool.
//
// Metadata comes from pyproject.toml:
//
//	[project]
//	name = "six"
//	version = "1.16.0"
//
//	[tool.distcache]
//	packages = ["six"]   # default: top-level packages and modules
//	platform = ""        # default: pure
//
// In non-strict mode a tree without pyproject.toml may instead carry a
// PKG-INFO file.
type Tree struct {
	Python  string      // Interpreter tag for the build; defaults to platform.Python()
	TempDir string      // Parent of build work directories; defaults to os.TempDir()
	Logger  *log.Logger // Defaults to log.Default()
}

type pyproject struct {
	Project struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
		Distcache struct {
			Packages []string `toml:"packages"`
			Platform string   `toml:"platform"`
		} `toml:"distcache"`
	} `toml:"tool"`
}

type treeMeta struct {
	info     dist.PKGInfo
	packages []string
}

// Build implements [Builder].
func (t *Tree) Build(ctx context.Context, src string, strict bool) (*Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := t.Logger
	if logger == nil {
		logger = log.Default()
	}

	meta, err := readTreeMeta(src, strict)
	if err != nil {
		return nil, err
	}
	if meta.info.Name == "" || meta.info.Version == "" {
		return nil, &BuildFailure{Name: filepath.Base(src), Reason: "project name and version are required"}
	}
	if strict {
		if err := errors.ValidatePythonPackageName(meta.info.Name); err != nil {
			return nil, &BuildFailure{Name: meta.info.Name, Reason: errors.UserMessage(err)}
		}
	}

	pkgs := meta.packages
	if len(pkgs) == 0 {
		if pkgs, err = discoverPackages(src); err != nil {
			return nil, err
		}
	}
	if len(pkgs) == 0 {
		return nil, &BuildFailure{Name: meta.info.Name, Reason: "no packages or modules to install"}
	}

	workdir, err := newWorkdir(t.TempDir)
	if err != nil {
		return nil, err
	}
	b := &Build{
		Name:     meta.info.Name,
		Version:  meta.info.Version,
		Python:   t.Python,
		Platform: meta.info.Platform,
		Root:     filepath.Join(workdir, "root"),
		workdir:  workdir,
	}
	if b.Python == "" {
		b.Python = platform.Python()
	}

	if err := populate(src, b.Root, pkgs, meta.info); err != nil {
		b.Cleanup()
		return nil, err
	}
	logger.Debug("built tree", "project", b.Name, "version", b.Version, "packages", len(pkgs))
	return b, nil
}

func readTreeMeta(src string, strict bool) (treeMeta, error) {
	data, err := os.ReadFile(filepath.Join(src, "pyproject.toml"))
	switch {
	case err == nil:
		var pp pyproject
		if err := toml.Unmarshal(data, &pp); err != nil {
			return treeMeta{}, &BuildFailure{Name: filepath.Base(src), Reason: fmt.Sprintf("invalid pyproject.toml: %v", err)}
		}
		info := dist.PKGInfo{
			Name:     pp.Project.Name,
			Version:  pp.Project.Version,
			Summary:  pp.Project.Description,
			Platform: pp.Tool.Distcache.Platform,
		}
		if info.Name == "" && !strict {
			info.Name, info.Version = pp.Tool.Poetry.Name, pp.Tool.Poetry.Version
		}
		return treeMeta{info: info, packages: pp.Tool.Distcache.Packages}, nil
	case !os.IsNotExist(err):
		return treeMeta{}, err
	case strict:
		return treeMeta{}, &BuildFailure{Name: filepath.Base(src), Reason: "no pyproject.toml"}
	}

	data, err = os.ReadFile(filepath.Join(src, "PKG-INFO"))
	if err != nil {
		if os.IsNotExist(err) {
			return treeMeta{}, &BuildFailure{Name: filepath.Base(src), Reason: "no pyproject.toml or PKG-INFO"}
		}
		return treeMeta{}, err
	}
	info, err := dist.ParsePKGInfo(data)
	if err != nil {
		return treeMeta{}, &BuildFailure{Name: filepath.Base(src), Reason: fmt.Sprintf("invalid PKG-INFO: %v", err)}
	}
	if info.Platform == "UNKNOWN" {
		info.Platform = ""
	}
	return treeMeta{info: info}, nil
}

// discoverPackages lists top-level package directories and modules.
func discoverPackages(src string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			if _, err := os.Stat(filepath.Join(src, name, "__init__.py")); err == nil {
				pkgs = append(pkgs, name)
			}
		case strings.HasSuffix(name, ".py") && name != "setup.py" && name != "conftest.py":
			pkgs = append(pkgs, name)
		}
	}
	sort.Strings(pkgs)
	return pkgs, nil
}

func populate(src, root string, pkgs []string, info dist.PKGInfo) error {
	for _, p := range pkgs {
		if err := errors.ValidateArchivePath(p); err != nil {
			return &BuildFailure{Name: info.Name, Reason: errors.UserMessage(err)}
		}
		from := filepath.Join(src, filepath.FromSlash(p))
		if _, err := os.Stat(from); err != nil {
			if os.IsNotExist(err) {
				return &BuildFailure{Name: info.Name, Reason: fmt.Sprintf("package %s not found", p)}
			}
			return err
		}
		if err := copyTree(from, filepath.Join(root, filepath.FromSlash(p))); err != nil {
			return err
		}
	}

	egg := filepath.Join(root, "EGG-INFO")
	if err := os.MkdirAll(egg, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(egg, "PKG-INFO"), dist.FormatPKGInfo(info), 0o644)
}

func copyTree(from, to string) error {
	return filepath.WalkDir(from, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "__pycache__" {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular() && !strings.HasSuffix(path, ".pyc"):
			return copyFile(path, target)
		}
		return nil
	})
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
