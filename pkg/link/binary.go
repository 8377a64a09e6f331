package link

import (
	"strings"

	"github.com/matzehuels/distcache/pkg/errors"
)

// Identity is the identity encoded in a binary archive filename.
type Identity struct {
	Name     string
	Version  string
	Python   string
	Platform string
}

// ParseBinaryName parses "<name>-<version>-py<X.Y>[-<platform>].egg".
// Dashes inside name and version are escaped as underscores and are
// unescaped on the way out.
func ParseBinaryName(filename string) (Identity, error) {
	stem := strings.TrimSuffix(filename, BinaryExt)
	if stem == filename {
		return Identity{}, errors.New(errors.ErrCodeInvalidLink, "%s is not a %s archive", filename, BinaryExt)
	}

	parts := strings.SplitN(stem, "-", 4)
	if len(parts) < 3 || !strings.HasPrefix(parts[2], "py") {
		return Identity{}, errors.New(errors.ErrCodeInvalidLink, "malformed binary archive name: %s", filename)
	}

	id := Identity{
		Name:    unescape(parts[0]),
		Version: unescape(parts[1]),
		Python:  strings.TrimPrefix(parts[2], "py"),
	}
	if len(parts) == 4 {
		id.Platform = parts[3]
	}
	if id.Name == "" || id.Version == "" || id.Python == "" {
		return Identity{}, errors.New(errors.ErrCodeInvalidLink, "malformed binary archive name: %s", filename)
	}
	if err := errors.ValidatePackageName(id.Name); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// BinaryName is the inverse of [ParseBinaryName].
func BinaryName(id Identity) string {
	var b strings.Builder
	b.WriteString(Escape(id.Name))
	b.WriteByte('-')
	b.WriteString(Escape(id.Version))
	b.WriteString("-py")
	b.WriteString(id.Python)
	if id.Platform != "" {
		b.WriteByte('-')
		b.WriteString(id.Platform)
	}
	b.WriteString(BinaryExt)
	return b.String()
}

// Escape replaces dashes so a name or version can be embedded in a
// dash-separated filename.
func Escape(s string) string { return strings.ReplaceAll(s, "-", "_") }

func unescape(s string) string { return strings.ReplaceAll(s, "_", "-") }
