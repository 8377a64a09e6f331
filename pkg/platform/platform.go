package platform

import (
	"regexp"
	"strconv"
)

var macosxRE = regexp.MustCompile(`^macosx-(\d+)\.(\d+)-(.+)$`)

// multiArch lists the fat-binary architectures a macOS artifact may be
// built for, and the concrete architectures each one covers.
var multiArch = map[string][]string{
	"fat":        {"i386", "ppc"},
	"intel":      {"i386", "x86_64"},
	"fat3":       {"i386", "ppc", "x86_64"},
	"fat64":      {"ppc64", "x86_64"},
	"universal":  {"i386", "ppc", "ppc64", "x86_64"},
	"universal2": {"x86_64", "arm64"},
}

// Tagged is implemented by anything that declares the interpreter and
// platform it was built for, such as a binary link.
type Tagged interface {
	Python() string
	Platform() string
}

// Compatible reports whether an artifact built for provided can run on
// required. An empty provided platform is pure and always compatible.
//
// macOS artifacts built against an older SDK run on newer releases of the
// same major version (or any later release from macOS 11 on), provided the
// architecture matches or is covered by a fat-binary architecture.
func Compatible(provided, required string) bool {
	if provided == "" || required == "" || provided == required {
		return true
	}

	p := macosxRE.FindStringSubmatch(provided)
	r := macosxRE.FindStringSubmatch(required)
	if p == nil || r == nil {
		return false
	}

	if !archCovers(p[3], r[3]) {
		return false
	}

	pMajor, _ := strconv.Atoi(p[1])
	pMinor, _ := strconv.Atoi(p[2])
	rMajor, _ := strconv.Atoi(r[1])
	rMinor, _ := strconv.Atoi(r[2])

	if rMajor >= 11 {
		return pMajor <= rMajor
	}
	return pMajor == rMajor && pMinor <= rMinor
}

func archCovers(provided, required string) bool {
	if provided == required {
		return true
	}
	for _, a := range multiArch[provided] {
		if a == required {
			return true
		}
	}
	return false
}

// VersionCompatible reports whether an artifact built for the provided
// interpreter version can be used by the required one.
func VersionCompatible(provided, required string) bool {
	return provided == "" || required == "" || provided == required
}

// DistributionCompatible combines [VersionCompatible] and [Compatible] over
// an artifact's own declared tags.
func DistributionCompatible(t Tagged, python, platform string) bool {
	return VersionCompatible(t.Python(), python) && Compatible(t.Platform(), platform)
}
