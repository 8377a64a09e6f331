package platform

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"
)

// DefaultPython is the interpreter version assumed when no interpreter can
// be found on PATH.
const DefaultPython = "3.12"

var archNames = map[string]string{
	"amd64":   "x86_64",
	"386":     "i686",
	"arm64":   "aarch64",
	"arm":     "armv7l",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"riscv64": "riscv64",
}

// Current returns the running platform in distutils form.
func Current() string {
	return platformFor(runtime.GOOS, runtime.GOARCH)
}

func platformFor(goos, goarch string) string {
	switch goos {
	case "darwin":
		if goarch == "arm64" {
			return "macosx-11.0-arm64"
		}
		return "macosx-10.9-x86_64"
	case "windows":
		switch goarch {
		case "amd64":
			return "win-amd64"
		case "arm64":
			return "win-arm64"
		default:
			return "win32"
		}
	}
	arch, ok := archNames[goarch]
	if !ok {
		arch = goarch
	}
	return goos + "-" + arch
}

var (
	pythonOnce    sync.Once
	pythonVersion string
)

// Python returns the major.minor version of the interpreter on PATH,
// probed once per process. Falls back to [DefaultPython].
func Python() string {
	pythonOnce.Do(func() {
		pythonVersion = probePython()
	})
	return pythonVersion
}

var versionRE = regexp.MustCompile(`(\d+)\.(\d+)`)

func probePython() string {
	for _, name := range []string{"python3", "python"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
		cancel()
		if err != nil {
			continue
		}
		if v := parseVersion(string(out)); v != "" {
			return v
		}
	}
	return DefaultPython
}

// parseVersion extracts "major.minor" from interpreter output such as
// "Python 3.12.1".
func parseVersion(s string) string {
	m := versionRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return m[1] + "." + m[2]
}
