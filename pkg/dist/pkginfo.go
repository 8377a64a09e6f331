package dist

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// PKGInfo holds the fields of a PKG-INFO metadata file that distcache
// reads and writes.
type PKGInfo struct {
	MetadataVersion string
	Name            string
	Version         string
	Summary         string
	Platform        string
}

// ParsePKGInfo parses RFC 822 style "Key: value" headers. Parsing stops at
// the first blank line; continuation lines are folded into the previous
// header. Name and Version are required.
func ParsePKGInfo(data []byte) (PKGInfo, error) {
	var (
		pi   PKGInfo
		last *string
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if last != nil {
				*last += " " + strings.TrimSpace(line)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return PKGInfo{}, fmt.Errorf("malformed header line %q", line)
		}
		value = strings.TrimSpace(value)
		last = nil
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "metadata-version":
			pi.MetadataVersion = value
			last = &pi.MetadataVersion
		case "name":
			pi.Name = value
			last = &pi.Name
		case "version":
			pi.Version = value
			last = &pi.Version
		case "summary":
			pi.Summary = value
			last = &pi.Summary
		case "platform":
			pi.Platform = value
			last = &pi.Platform
		}
	}
	if err := sc.Err(); err != nil {
		return PKGInfo{}, err
	}
	if pi.Name == "" {
		return PKGInfo{}, fmt.Errorf("missing Name header")
	}
	if pi.Version == "" {
		return PKGInfo{}, fmt.Errorf("missing Version header")
	}
	return pi, nil
}

// FormatPKGInfo renders metadata in PKG-INFO form. An empty Platform is
// written as UNKNOWN, the conventional value for pure distributions.
func FormatPKGInfo(pi PKGInfo) []byte {
	mv := pi.MetadataVersion
	if mv == "" {
		mv = "1.1"
	}
	platform := pi.Platform
	if platform == "" {
		platform = "UNKNOWN"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "Metadata-Version: %s\n", mv)
	fmt.Fprintf(&b, "Name: %s\n", pi.Name)
	fmt.Fprintf(&b, "Version: %s\n", pi.Version)
	if pi.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", pi.Summary)
	}
	fmt.Fprintf(&b, "Platform: %s\n", platform)
	return b.Bytes()
}
